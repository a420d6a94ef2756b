// Package completion runs the pipeline behind every completion event: upsert
// the completion record, pay out points once, mirror across the dual content
// models, recompute progress, advance the enrollment and evaluate
// achievements — all in one transaction.
package completion

import (
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/achievement"
	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/features/progress"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// ErrNotEnrolled is returned when a completion arrives for a course the user
// is not enrolled in and the unit is not previewable.
var ErrNotEnrolled = errors.New("user is not enrolled in this course")

// Result reports the state after a completion event.
type Result struct {
	Progress   int                   `json:"progress"`
	Enrollment enrollment.Enrollment `json:"enrollment"`
	Awarded    bool                  `json:"pointsAwarded"`
}

// CompleteChapter marks a flat chapter complete for a user. First completion
// pays the chapter's points; repeats are no-ops for points and state. If the
// chapter mirrors a lesson block, the lesson is marked complete too so both
// models agree.
func CompleteChapter(db *gorm.DB, logger *slog.Logger, userID, chapterID uuid.UUID) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		ch, err := course.GetChapter(tx, chapterID)
		if err != nil {
			return err
		}

		enr, err := ensureEnrollment(tx, userID, ch.CourseID, ch.Preview)
		if err != nil {
			return err
		}

		now := time.Now()
		_, already, err := progress.MarkChapterComplete(tx, userID, chapterID, ch.PointsReward, now)
		if err != nil {
			return err
		}

		if !already && ch.PointsReward > 0 {
			_, awarded, err := points.Award(tx, points.AwardInput{
				UserID:      userID,
				ReferenceID: ch.ID,
				Type:        types.PointsTypeCompletion,
				Delta:       ch.PointsReward,
				Reason:      "Chapter completed: " + ch.Title,
			})
			if err != nil {
				return err
			}
			res.Awarded = awarded
		}

		if ch.SourceBlockID != nil {
			blk, err := content.GetBlock(tx, *ch.SourceBlockID)
			if err == nil {
				if _, _, err := progress.MarkLessonComplete(tx, userID, blk.LessonID, 0, now); err != nil {
					return err
				}
			} else if !errors.Is(err, content.ErrBlockNotFound) {
				return err
			}
		}

		return finish(tx, logger, &res, &enr, userID, ch.CourseID, now)
	})
	return res, err
}

// CompleteLesson marks a hierarchical lesson complete for a user. Mirrored
// chapters of the lesson's blocks are marked complete as well, each paying
// its reward on first completion so both entry points earn the same points.
func CompleteLesson(db *gorm.DB, logger *slog.Logger, userID, lessonID uuid.UUID) (Result, error) {
	var res Result
	err := db.Transaction(func(tx *gorm.DB) error {
		lsn, err := content.GetLesson(tx, lessonID)
		if err != nil {
			return err
		}
		mod, err := content.GetModule(tx, lsn.ModuleID)
		if err != nil {
			return err
		}

		preview, err := lessonHasPreview(tx, lessonID)
		if err != nil {
			return err
		}

		enr, err := ensureEnrollment(tx, userID, mod.CourseID, preview)
		if err != nil {
			return err
		}

		now := time.Now()
		if _, _, err := progress.MarkLessonComplete(tx, userID, lessonID, 0, now); err != nil {
			return err
		}

		// Keep the flat model in agreement and pay each mirror's reward.
		var mirrors []course.Chapter
		err = tx.Model(&course.Chapter{}).
			Select("chapters.*").
			Joins("JOIN lesson_blocks ON lesson_blocks.id = chapters.source_block_id").
			Where("lesson_blocks.lesson_id = ?", lessonID).
			Find(&mirrors).Error
		if err != nil {
			return err
		}
		for _, ch := range mirrors {
			_, already, err := progress.MarkChapterComplete(tx, userID, ch.ID, ch.PointsReward, now)
			if err != nil {
				return err
			}
			if already || ch.PointsReward <= 0 {
				continue
			}
			_, awarded, err := points.Award(tx, points.AwardInput{
				UserID:      userID,
				ReferenceID: ch.ID,
				Type:        types.PointsTypeCompletion,
				Delta:       ch.PointsReward,
				Reason:      "Chapter completed: " + ch.Title,
			})
			if err != nil {
				return err
			}
			if awarded {
				res.Awarded = true
			}
		}

		return finish(tx, logger, &res, &enr, userID, mod.CourseID, now)
	})
	return res, err
}

// ensureEnrollment loads the user's enrollment, self-enrolling for
// previewable units.
func ensureEnrollment(tx *gorm.DB, userID, courseID uuid.UUID, preview bool) (enrollment.Enrollment, error) {
	enr, err := enrollment.Get(tx, userID, courseID)
	if err == nil {
		return enr, nil
	}
	if !errors.Is(err, enrollment.ErrNotEnrolled) {
		return enr, err
	}
	if !preview {
		return enr, ErrNotEnrolled
	}
	return enrollment.Enroll(tx, userID, courseID, types.EnrollmentSourceSelf, nil)
}

// finish recomputes progress and runs the enrollment transition and
// achievement evaluation. A failed progress read aborts the transaction: the
// state machine never transitions on a spurious zero.
func finish(tx *gorm.DB, logger *slog.Logger, res *Result, enr *enrollment.Enrollment, userID, courseID uuid.UUID, now time.Time) error {
	percent, err := progress.ComputeProgress(tx, userID, courseID)
	if err != nil {
		return err
	}

	if err := enrollment.ApplyProgress(tx, enr, percent, now); err != nil {
		return err
	}
	if err := achievement.Evaluate(tx, logger, courseID, userID, percent); err != nil {
		return err
	}

	res.Progress = percent
	res.Enrollment = *enr
	return nil
}

func lessonHasPreview(tx *gorm.DB, lessonID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&content.LessonBlock{}).
		Where("lesson_id = ? AND is_preview = ?", lessonID, true).
		Count(&count).Error
	return count > 0, err
}
