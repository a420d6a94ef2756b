package user

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/company"
	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// User represents a system user. Points is the denormalized running total of
// the user's ledger entries; it is only ever written inside the same
// transaction as a ledger insert, or by the reconciliation job.
type User struct {
	types.BaseModel

	CompanyID     *uuid.UUID     `gorm:"type:uuid;column:company_id;index" json:"companyId,omitempty"`
	FullName      string         `gorm:"type:varchar(60);not null;column:full_name" json:"fullName"`
	Email         string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Password      string         `gorm:"type:varchar(255);not null" json:"-"`
	UserType      types.UserType `gorm:"type:varchar(20);not null;default:'learner';column:user_type;index" json:"userType"`
	Points        int            `gorm:"type:int;not null;default:0" json:"points"`
	RefreshToken  *string        `gorm:"type:text;column:refresh_token" json:"-"`
	Active        bool           `gorm:"type:boolean;not null;default:true;column:is_active;index" json:"isActive"`

	Company *company.Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

// TableName overrides the default table name.
func (User) TableName() string { return "users" }

// ListFilters defines user query filters.
type ListFilters struct {
	CompanyID *uuid.UUID
	Keyword   string
	UserTypes []types.UserType
}

// CreateInput carries data for creating a new user.
type CreateInput struct {
	CompanyID *uuid.UUID
	FullName  string
	Email     string
	Password  string
	UserType  types.UserType
}

// UpdateInput captures mutable user fields.
type UpdateInput struct {
	FullName *string
	Password *string
	UserType *types.UserType
	Active   *bool
}

// List retrieves paginated users with filters.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]User, int64, error) {
	query := db.Model(&User{})

	if filters.CompanyID != nil {
		query = query.Where("company_id = ?", *filters.CompanyID)
	}
	if filters.Keyword != "" {
		like := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	if len(filters.UserTypes) > 0 {
		query = query.Where("user_type IN ?", filters.UserTypes)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, total, err
	}

	var users []User
	err := query.Order("full_name ASC").Offset(params.Skip).Limit(params.Limit).Find(&users).Error
	return users, total, err
}

// Get retrieves a user by ID.
func Get(db *gorm.DB, id uuid.UUID) (User, error) {
	var usr User
	if err := db.First(&usr, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// GetByEmail retrieves a user by email (case-insensitive).
func GetByEmail(db *gorm.DB, email string) (User, error) {
	var usr User
	err := db.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&usr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usr, ErrUserNotFound
		}
		return usr, err
	}
	return usr, nil
}

// Create inserts a new user with a hashed password.
func Create(db *gorm.DB, input CreateInput) (User, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return User{}, ErrNameRequired
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, ErrEmailInvalid
	}

	if len(input.Password) < 8 {
		return User{}, ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), 10)
	if err != nil {
		return User{}, err
	}

	userType := input.UserType
	if userType == "" {
		userType = types.UserTypeLearner
	}

	usr := User{
		CompanyID: input.CompanyID,
		FullName:  fullName,
		Email:     email,
		Password:  string(hashed),
		UserType:  userType,
		Active:    true,
	}

	if err := db.Create(&usr).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}

	return usr, nil
}

// Update modifies an existing user.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (User, error) {
	usr, err := Get(db, id)
	if err != nil {
		return usr, err
	}

	if input.FullName != nil {
		trimmed := strings.TrimSpace(*input.FullName)
		if trimmed == "" {
			return usr, ErrNameRequired
		}
		usr.FullName = trimmed
	}

	if input.Password != nil {
		if len(*input.Password) < 8 {
			return usr, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), 10)
		if err != nil {
			return usr, err
		}
		usr.Password = string(hashed)
	}

	if input.UserType != nil {
		usr.UserType = *input.UserType
	}

	if input.Active != nil {
		usr.Active = *input.Active
	}

	if err := db.Save(&usr).Error; err != nil {
		return usr, err
	}

	return usr, nil
}

// Delete removes a user.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IncrementPoints adjusts the cached running total. Must be called inside the
// same transaction as the ledger insert that justifies the delta.
func IncrementPoints(tx *gorm.DB, userID uuid.UUID, delta int) error {
	result := tx.Model(&User{}).Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
