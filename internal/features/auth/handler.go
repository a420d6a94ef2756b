package auth

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/config"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes authentication HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	cfg    *config.Config
}

// NewHandler constructs an auth handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, cfg *config.Config) *Handler {
	return &Handler{db: db, logger: logger, cfg: cfg}
}

type loginResponse struct {
	User         user.User `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

// Login authenticates a user and issues a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid login payload", err)
		return
	}

	usr, pair, err := Login(h.db, h.cfg, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, err.Error(), nil)
		case errors.Is(err, ErrAccountDisabled):
			response.Error(c, http.StatusForbidden, err.Error(), nil)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "login failed", err)
		}
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		User:         usr,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "", nil)
}

// Refresh rotates an access/refresh token pair.
func (h *Handler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid refresh payload", err)
		return
	}

	usr, pair, err := Refresh(h.db, h.cfg, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			response.Error(c, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, loginResponse{
		User:         usr,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "", nil)
}

// Logout revokes the caller's refresh token.
func (h *Handler) Logout(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	if err := Logout(h.db, usr.ID); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Logged out successfully.", nil)
}
