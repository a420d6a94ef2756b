package achievement

import (
	"errors"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/features/progress"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Evaluate checks every active achievement on the course against the user's
// completion state and grants the eligible ones. Runs inside the caller's
// completion transaction; percent is the progress the caller just computed.
// Already-granted achievements are skipped without re-evaluation, and the
// unique award index makes concurrent evaluation grant at most once.
func Evaluate(tx *gorm.DB, logger *slog.Logger, courseID, userID uuid.UUID, percent int) error {
	var candidates []Achievement
	err := tx.Where("course_id = ? AND is_active = ?", courseID, true).
		Where("id NOT IN (?)", tx.Model(&Award{}).Select("achievement_id").Where("user_id = ?", userID)).
		Find(&candidates).Error
	if err != nil {
		return err
	}

	for _, ach := range candidates {
		eligible, err := isEligible(tx, ach, userID, percent)
		if err != nil {
			return err
		}
		if !eligible {
			continue
		}
		if err := grant(tx, logger, ach, userID); err != nil {
			return err
		}
	}
	return nil
}

func isEligible(tx *gorm.DB, ach Achievement, userID uuid.UUID, percent int) (bool, error) {
	switch ach.UnlockType {
	case types.UnlockFirstChapter:
		return hasAnyCompletion(tx, ach.CourseID, userID)
	case types.UnlockModuleCompletion:
		if ach.TargetModuleID == nil {
			return false, nil
		}
		return moduleComplete(tx, *ach.TargetModuleID, userID)
	case types.UnlockCourseCompletion:
		return percent >= 100, nil
	default:
		return false, nil
	}
}

// hasAnyCompletion reports whether the user has completed any unit of the
// course, in either the flat or hierarchical tracking.
func hasAnyCompletion(tx *gorm.DB, courseID, userID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&progress.ChapterCompletion{}).
		Joins("JOIN chapters ON chapters.id = chapter_completions.chapter_id").
		Where("chapters.course_id = ? AND chapter_completions.user_id = ? AND chapter_completions.is_completed = ?",
			courseID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	err = tx.Model(&progress.LessonCompletion{}).
		Joins("JOIN lessons ON lessons.id = lesson_completions.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ? AND lesson_completions.user_id = ? AND lesson_completions.is_completed = ?",
			courseID, userID, true).
		Count(&count).Error
	return count > 0, err
}

// moduleComplete reports whether every completable unit of the module is
// completed by the user. Units resolve through the block mirrors when they
// exist, else through the module's lessons. A module with no resolvable
// units is never complete, so an empty module cannot grant vacuously.
func moduleComplete(tx *gorm.DB, moduleID, userID uuid.UUID) (bool, error) {
	var chapterIDs []uuid.UUID
	err := tx.Table("chapters").
		Joins("JOIN lesson_blocks ON lesson_blocks.id = chapters.source_block_id").
		Joins("JOIN lessons ON lessons.id = lesson_blocks.lesson_id").
		Where("lessons.module_id = ? AND chapters.is_published = ?", moduleID, true).
		Pluck("chapters.id", &chapterIDs).Error
	if err != nil {
		return false, err
	}

	if len(chapterIDs) > 0 {
		completed, err := progress.CompletedChapterIDs(tx, userID, chapterIDs)
		if err != nil {
			return false, err
		}
		return len(completed) == len(chapterIDs), nil
	}

	var lessonIDs []uuid.UUID
	err = tx.Table("lessons").
		Joins("JOIN lesson_blocks ON lesson_blocks.lesson_id = lessons.id").
		Where("lessons.module_id = ? AND lessons.is_published = ? AND lesson_blocks.is_published = ?", moduleID, true, true).
		Where("lesson_blocks.kind IN ?", []types.BlockKind{types.BlockKindVideo, types.BlockKindLiveSession}).
		Distinct().
		Pluck("lessons.id", &lessonIDs).Error
	if err != nil {
		return false, err
	}
	if len(lessonIDs) == 0 {
		return false, nil
	}

	completed, err := progress.CompletedLessonIDs(tx, userID, lessonIDs)
	if err != nil {
		return false, err
	}
	return len(completed) == len(lessonIDs), nil
}

// grant creates the award and pays out its points atomically with the
// caller's transaction.
func grant(tx *gorm.DB, logger *slog.Logger, ach Achievement, userID uuid.UUID) error {
	award := Award{
		UserID:        userID,
		AchievementID: ach.ID,
		CourseID:      ach.CourseID,
		PointsGranted: ach.PointsReward,
	}
	if err := tx.Create(&award).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	if ach.PointsReward > 0 {
		_, _, err := points.Award(tx, points.AwardInput{
			UserID:      userID,
			ReferenceID: ach.ID,
			Type:        types.PointsTypeAchievement,
			Delta:       ach.PointsReward,
			Reason:      "Achievement unlocked: " + ach.Name,
		})
		if err != nil {
			return err
		}
	}

	logger.Info("achievement granted", "userId", userID, "achievementId", ach.ID, "name", ach.Name)
	return nil
}
