package badge

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Badge is a manually granted distinction within a company.
type Badge struct {
	types.BaseModel

	CompanyID    uuid.UUID `gorm:"type:uuid;not null;column:company_id;index" json:"companyId"`
	Name         string    `gorm:"type:varchar(120);not null" json:"name"`
	Description  *string   `gorm:"type:varchar(2000)" json:"description,omitempty"`
	ImageURL     *string   `gorm:"type:varchar(500);column:image_url" json:"imageUrl,omitempty"`
	PointsReward int       `gorm:"type:int;not null;default:0;column:points_reward" json:"pointsReward"`
}

// TableName overrides the default table name.
func (Badge) TableName() string { return "badges" }

// UserBadge records a badge granted to a user, at most once per pair.
type UserBadge struct {
	types.BaseModel

	UserID  uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_user_badges_user_badge" json:"userId"`
	BadgeID uuid.UUID `gorm:"type:uuid;not null;column:badge_id;uniqueIndex:idx_user_badges_user_badge" json:"badgeId"`
}

// TableName overrides the default table name.
func (UserBadge) TableName() string { return "user_badges" }

// Input carries data for creating or updating a badge.
type Input struct {
	Name         string
	Description  *string
	ImageURL     *string
	PointsReward *int
}

// List retrieves a company's badges.
func List(db *gorm.DB, companyID uuid.UUID) ([]Badge, error) {
	var badges []Badge
	err := db.Where("company_id = ?", companyID).Order("name ASC").Find(&badges).Error
	return badges, err
}

// Get retrieves a badge by ID.
func Get(db *gorm.DB, id uuid.UUID) (Badge, error) {
	var b Badge
	if err := db.First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return b, ErrBadgeNotFound
		}
		return b, err
	}
	return b, nil
}

// Create inserts a badge.
func Create(db *gorm.DB, companyID uuid.UUID, input Input) (Badge, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Badge{}, ErrNameRequired
	}

	b := Badge{
		CompanyID:   companyID,
		Name:        name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return Badge{}, ErrPointsInvalid
		}
		b.PointsReward = *input.PointsReward
	}

	if err := db.Create(&b).Error; err != nil {
		return Badge{}, err
	}
	return b, nil
}

// Update modifies a badge.
func Update(db *gorm.DB, id uuid.UUID, input Input) (Badge, error) {
	b, err := Get(db, id)
	if err != nil {
		return b, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		b.Name = name
	}
	if input.Description != nil {
		b.Description = input.Description
	}
	if input.ImageURL != nil {
		b.ImageURL = input.ImageURL
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return b, ErrPointsInvalid
		}
		b.PointsReward = *input.PointsReward
	}

	if err := db.Save(&b).Error; err != nil {
		return b, err
	}
	return b, nil
}

// Delete removes a badge. Grants stay on record.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Badge{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBadgeNotFound
	}
	return nil
}

// GrantToUser awards a badge manually, paying out its points through the
// ledger in the same transaction. Granting twice is an idempotent no-op.
func GrantToUser(db *gorm.DB, badgeID, userID uuid.UUID) (UserBadge, bool, error) {
	b, err := Get(db, badgeID)
	if err != nil {
		return UserBadge{}, false, err
	}

	grant := UserBadge{UserID: userID, BadgeID: badgeID}
	granted := false
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&grant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return tx.First(&grant, "user_id = ? AND badge_id = ?", userID, badgeID).Error
			}
			return err
		}
		granted = true

		if b.PointsReward > 0 {
			_, _, err := points.Award(tx, points.AwardInput{
				UserID:      userID,
				ReferenceID: b.ID,
				Type:        types.PointsTypeBadge,
				Delta:       b.PointsReward,
				Reason:      "Badge granted: " + b.Name,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return UserBadge{}, false, err
	}
	return grant, granted, nil
}

// ListForUser retrieves the badges granted to a user.
func ListForUser(db *gorm.DB, userID uuid.UUID) ([]UserBadge, error) {
	var grants []UserBadge
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&grants).Error
	return grants, err
}
