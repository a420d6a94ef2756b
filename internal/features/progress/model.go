package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/types"
)

// ChapterCompletion records a user finishing a flat chapter. Legacy and
// hierarchical completion are tracked as separate records; they are never
// silently merged when a course migrates between models.
type ChapterCompletion struct {
	types.BaseModel

	UserID    uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_chapter_completions_user_chapter" json:"userId"`
	ChapterID uuid.UUID `gorm:"type:uuid;not null;column:chapter_id;uniqueIndex:idx_chapter_completions_user_chapter;index" json:"chapterId"`

	Completed     bool       `gorm:"type:boolean;not null;default:false;column:is_completed" json:"isCompleted"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	PointsAwarded int        `gorm:"type:int;not null;default:0;column:points_awarded" json:"pointsAwarded"`
}

// TableName overrides the default table name.
func (ChapterCompletion) TableName() string { return "chapter_completions" }

// LessonCompletion records a user finishing a hierarchical lesson.
type LessonCompletion struct {
	types.BaseModel

	UserID   uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_lesson_completions_user_lesson" json:"userId"`
	LessonID uuid.UUID `gorm:"type:uuid;not null;column:lesson_id;uniqueIndex:idx_lesson_completions_user_lesson;index" json:"lessonId"`

	Completed     bool       `gorm:"type:boolean;not null;default:false;column:is_completed" json:"isCompleted"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	PointsAwarded int        `gorm:"type:int;not null;default:0;column:points_awarded" json:"pointsAwarded"`
}

// TableName overrides the default table name.
func (LessonCompletion) TableName() string { return "lesson_completions" }

// MarkChapterComplete upserts the completion record for a chapter. The second
// return reports whether the chapter was already completed, which callers use
// to decide whether points are due. The existence check runs inside the
// caller's transaction; the unique index backstops concurrent inserts.
func MarkChapterComplete(tx *gorm.DB, userID, chapterID uuid.UUID, pointsAwarded int, now time.Time) (ChapterCompletion, bool, error) {
	var rec ChapterCompletion
	err := tx.First(&rec, "user_id = ? AND chapter_id = ?", userID, chapterID).Error
	switch {
	case err == nil:
		if rec.Completed {
			return rec, true, nil
		}
		rec.Completed = true
		rec.CompletedAt = &now
		rec.PointsAwarded = pointsAwarded
		return rec, false, tx.Save(&rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = ChapterCompletion{
			UserID:        userID,
			ChapterID:     chapterID,
			Completed:     true,
			CompletedAt:   &now,
			PointsAwarded: pointsAwarded,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return rec, true, nil
			}
			return rec, false, err
		}
		return rec, false, nil
	default:
		return rec, false, err
	}
}

// MarkLessonComplete upserts the completion record for a lesson, with the
// same already-completed contract as MarkChapterComplete.
func MarkLessonComplete(tx *gorm.DB, userID, lessonID uuid.UUID, pointsAwarded int, now time.Time) (LessonCompletion, bool, error) {
	var rec LessonCompletion
	err := tx.First(&rec, "user_id = ? AND lesson_id = ?", userID, lessonID).Error
	switch {
	case err == nil:
		if rec.Completed {
			return rec, true, nil
		}
		rec.Completed = true
		rec.CompletedAt = &now
		rec.PointsAwarded = pointsAwarded
		return rec, false, tx.Save(&rec).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = LessonCompletion{
			UserID:        userID,
			LessonID:      lessonID,
			Completed:     true,
			CompletedAt:   &now,
			PointsAwarded: pointsAwarded,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return rec, true, nil
			}
			return rec, false, err
		}
		return rec, false, nil
	default:
		return rec, false, err
	}
}

// CompletedChapterIDs returns the chapters the user has completed out of the
// given set.
func CompletedChapterIDs(db *gorm.DB, userID uuid.UUID, chapterIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := db.Model(&ChapterCompletion{}).
		Where("user_id = ? AND is_completed = ? AND chapter_id IN ?", userID, true, chapterIDs).
		Pluck("chapter_id", &ids).Error
	return ids, err
}

// CompletedLessonIDs returns the lessons the user has completed out of the
// given set.
func CompletedLessonIDs(db *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := db.Model(&LessonCompletion{}).
		Where("user_id = ? AND is_completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
		Pluck("lesson_id", &ids).Error
	return ids, err
}
