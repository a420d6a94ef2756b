package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/internal/utils/jwt"
	"github.com/skillbase/learn-server-go/pkg/config"
)

const (
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour
)

// Login verifies credentials and issues a token pair. The refresh token is
// stored on the user row so it can be rotated and revoked.
func Login(db *gorm.DB, cfg *config.Config, email, password string) (user.User, jwt.TokenPair, error) {
	usr, err := user.GetByEmail(db, email)
	if err != nil {
		return user.User{}, jwt.TokenPair{}, ErrInvalidCredentials
	}

	if !usr.Active {
		return user.User{}, jwt.TokenPair{}, ErrAccountDisabled
	}

	if !usr.CheckPassword(password) {
		return user.User{}, jwt.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := issueTokens(db, cfg, &usr)
	if err != nil {
		return user.User{}, jwt.TokenPair{}, err
	}

	return usr, pair, nil
}

// Refresh validates the presented refresh token and rotates the pair.
func Refresh(db *gorm.DB, cfg *config.Config, refreshToken string) (user.User, jwt.TokenPair, error) {
	claims, err := jwt.VerifyToken(refreshToken, cfg.JWTRefreshSecret)
	if err != nil {
		return user.User{}, jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	usr, err := user.Get(db, claims.UserID)
	if err != nil {
		return user.User{}, jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	if usr.RefreshToken == nil || *usr.RefreshToken != refreshToken {
		return user.User{}, jwt.TokenPair{}, ErrInvalidRefreshToken
	}

	pair, err := issueTokens(db, cfg, &usr)
	if err != nil {
		return user.User{}, jwt.TokenPair{}, err
	}

	return usr, pair, nil
}

// Logout clears the stored refresh token.
func Logout(db *gorm.DB, userID uuid.UUID) error {
	return db.Model(&user.User{}).Where("id = ?", userID).
		Update("refresh_token", nil).Error
}

func issueTokens(db *gorm.DB, cfg *config.Config, usr *user.User) (jwt.TokenPair, error) {
	access, err := jwt.GenerateAccessToken(usr.ID, cfg.JWTSecret, accessTokenExpiry)
	if err != nil {
		return jwt.TokenPair{}, err
	}

	refresh, err := jwt.GenerateRefreshToken(usr.ID, cfg.JWTRefreshSecret, refreshTokenExpiry)
	if err != nil {
		return jwt.TokenPair{}, err
	}

	if err := db.Model(&user.User{}).Where("id = ?", usr.ID).
		Update("refresh_token", refresh).Error; err != nil {
		return jwt.TokenPair{}, err
	}

	return jwt.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
