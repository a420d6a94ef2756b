package achievement

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/types"
)

// Achievement is an authored unlock rule on a course.
type Achievement struct {
	types.BaseModel

	CourseID       uuid.UUID        `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	Name           string           `gorm:"type:varchar(160);not null" json:"name"`
	Description    *string          `gorm:"type:varchar(2000)" json:"description,omitempty"`
	UnlockType     types.UnlockType `gorm:"type:varchar(30);not null;column:unlock_type" json:"unlockType"`
	TargetModuleID *uuid.UUID       `gorm:"type:uuid;column:target_module_id" json:"targetModuleId,omitempty"`
	PointsReward   int              `gorm:"type:int;not null;default:0;column:points_reward" json:"pointsReward"`
	Active         bool             `gorm:"type:boolean;not null;default:true;column:is_active" json:"isActive"`
}

// TableName overrides the default table name.
func (Achievement) TableName() string { return "achievements" }

// Award records an achievement granted to a user. Permanent even if the
// achievement is later deactivated or deleted; CourseID and PointsGranted
// are stamped at grant time so the record stands on its own.
type Award struct {
	types.BaseModel

	UserID        uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_achievement_awards_user_achievement" json:"userId"`
	AchievementID uuid.UUID `gorm:"type:uuid;not null;column:achievement_id;uniqueIndex:idx_achievement_awards_user_achievement" json:"achievementId"`
	CourseID      uuid.UUID `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	PointsGranted int       `gorm:"type:int;not null;default:0;column:points_granted" json:"pointsGranted"`
}

// TableName overrides the default table name.
func (Award) TableName() string { return "achievement_awards" }

// Input carries data for creating or updating an achievement.
type Input struct {
	Name           string
	Description    *string
	UnlockType     *types.UnlockType
	TargetModuleID *uuid.UUID
	PointsReward   *int
	Active         *bool
}

// List retrieves the achievements of a course.
func List(db *gorm.DB, courseID uuid.UUID) ([]Achievement, error) {
	var achievements []Achievement
	err := db.Where("course_id = ?", courseID).Order("created_at ASC").Find(&achievements).Error
	return achievements, err
}

// Get retrieves an achievement by ID.
func Get(db *gorm.DB, id uuid.UUID) (Achievement, error) {
	var ach Achievement
	if err := db.First(&ach, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ach, ErrAchievementNotFound
		}
		return ach, err
	}
	return ach, nil
}

func validate(unlockType types.UnlockType, targetModuleID *uuid.UUID) error {
	switch unlockType {
	case types.UnlockFirstChapter, types.UnlockCourseCompletion:
		return nil
	case types.UnlockModuleCompletion:
		if targetModuleID == nil {
			return ErrTargetModuleRequired
		}
		return nil
	default:
		return ErrUnlockTypeInvalid
	}
}

// Create inserts an achievement.
func Create(db *gorm.DB, courseID uuid.UUID, input Input) (Achievement, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Achievement{}, ErrNameRequired
	}
	if input.UnlockType == nil {
		return Achievement{}, ErrUnlockTypeInvalid
	}
	if err := validate(*input.UnlockType, input.TargetModuleID); err != nil {
		return Achievement{}, err
	}

	ach := Achievement{
		CourseID:       courseID,
		Name:           name,
		Description:    input.Description,
		UnlockType:     *input.UnlockType,
		TargetModuleID: input.TargetModuleID,
		Active:         true,
	}
	if ach.UnlockType != types.UnlockModuleCompletion {
		ach.TargetModuleID = nil
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return Achievement{}, ErrPointsInvalid
		}
		ach.PointsReward = *input.PointsReward
	}
	if input.Active != nil {
		ach.Active = *input.Active
	}

	if err := db.Create(&ach).Error; err != nil {
		return Achievement{}, err
	}
	return ach, nil
}

// Update modifies an achievement. Granted awards are untouched.
func Update(db *gorm.DB, id uuid.UUID, input Input) (Achievement, error) {
	ach, err := Get(db, id)
	if err != nil {
		return ach, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		ach.Name = name
	}
	if input.Description != nil {
		ach.Description = input.Description
	}
	if input.UnlockType != nil {
		ach.UnlockType = *input.UnlockType
	}
	if input.TargetModuleID != nil {
		ach.TargetModuleID = input.TargetModuleID
	}
	if err := validate(ach.UnlockType, ach.TargetModuleID); err != nil {
		return ach, err
	}
	if ach.UnlockType != types.UnlockModuleCompletion {
		ach.TargetModuleID = nil
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return ach, ErrPointsInvalid
		}
		ach.PointsReward = *input.PointsReward
	}
	if input.Active != nil {
		ach.Active = *input.Active
	}

	if err := db.Save(&ach).Error; err != nil {
		return ach, err
	}
	return ach, nil
}

// Delete removes an achievement. Awards stay on record.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Achievement{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAchievementNotFound
	}
	return nil
}

// ListAwardsForUser retrieves every achievement granted to a user.
func ListAwardsForUser(db *gorm.DB, userID uuid.UUID) ([]Award, error) {
	var awards []Award
	err := db.Where("user_id = ?", userID).Order("created_at ASC").Find(&awards).Error
	return awards, err
}
