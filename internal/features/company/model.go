package company

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Company is a tenant. Every course, team and learner belongs to exactly one.
type Company struct {
	types.BaseModel

	Name       string  `gorm:"type:varchar(80);not null" json:"name"`
	Identifier string  `gorm:"type:varchar(40);not null;uniqueIndex;column:identifier" json:"identifier"`
	LogoURL    *string `gorm:"type:varchar(500);column:logo_url" json:"logoUrl,omitempty"`
	Active     bool    `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (Company) TableName() string { return "companies" }

// CreateInput carries data for creating a new company.
type CreateInput struct {
	Name       string
	Identifier string
	LogoURL    *string
}

// UpdateInput captures mutable company fields.
type UpdateInput struct {
	Name    *string
	LogoURL *string
	LogoURLProvided bool
	Active  *bool
}

// List retrieves paginated companies.
func List(db *gorm.DB, keyword string, params pagination.Params) ([]Company, int64, error) {
	query := db.Model(&Company{})
	if keyword != "" {
		like := "%" + strings.ToLower(keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(identifier) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, total, err
	}

	var companies []Company
	err := query.Order("name ASC").Offset(params.Skip).Limit(params.Limit).Find(&companies).Error
	return companies, total, err
}

// Get retrieves a company by ID.
func Get(db *gorm.DB, id uuid.UUID) (Company, error) {
	var c Company
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c, ErrCompanyNotFound
		}
		return c, err
	}
	return c, nil
}

// Create inserts a new company.
func Create(db *gorm.DB, input CreateInput) (Company, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Company{}, ErrNameRequired
	}
	if n := utf8.RuneCountInString(name); n < 3 || n > 80 {
		return Company{}, ErrNameLength
	}

	identifier, err := NormalizeIdentifier(input.Identifier)
	if err != nil {
		return Company{}, err
	}

	c := Company{
		Name:       name,
		Identifier: identifier,
		LogoURL:    input.LogoURL,
		Active:     true,
	}

	if err := db.Create(&c).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return Company{}, ErrIdentifierTaken
		}
		return Company{}, err
	}

	return c, nil
}

// Update modifies an existing company.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Company, error) {
	c, err := Get(db, id)
	if err != nil {
		return c, err
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return c, ErrNameRequired
		}
		if n := utf8.RuneCountInString(trimmed); n < 3 || n > 80 {
			return c, ErrNameLength
		}
		c.Name = trimmed
	}

	if input.LogoURLProvided {
		c.LogoURL = input.LogoURL
	}

	if input.Active != nil {
		c.Active = *input.Active
	}

	if err := db.Save(&c).Error; err != nil {
		return c, err
	}

	return c, nil
}

// Delete removes a company.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Company{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCompanyNotFound
	}
	return nil
}
