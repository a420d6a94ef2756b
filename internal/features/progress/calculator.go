package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// UnitKind names which completable unit set is authoritative for a course.
type UnitKind string

const (
	UnitChapters UnitKind = "chapters"
	UnitLessons  UnitKind = "lessons"
)

// UnitSet is the resolved set of published completable units for a course.
type UnitSet struct {
	Kind UnitKind
	IDs  []uuid.UUID
}

// ResolveUnits returns the authoritative unit set for a course. Published
// chapters win when any exist, since the block sync guarantees hierarchical
// courses a mirrored chapter per completable block. The lesson fallback
// covers hierarchical courses whose mirrors are gone, where a lesson counts
// if it is published under a published module and holds at least one
// published completable block.
func ResolveUnits(db *gorm.DB, courseID uuid.UUID) (UnitSet, error) {
	chapters, err := course.ListChapters(db, courseID, true)
	if err != nil {
		return UnitSet{}, err
	}
	if len(chapters) > 0 {
		ids := make([]uuid.UUID, 0, len(chapters))
		for _, ch := range chapters {
			ids = append(ids, ch.ID)
		}
		return UnitSet{Kind: UnitChapters, IDs: ids}, nil
	}

	var lessonIDs []uuid.UUID
	err = db.Table("lessons").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Joins("JOIN lesson_blocks ON lesson_blocks.lesson_id = lessons.id").
		Where("course_modules.course_id = ?", courseID).
		Where("course_modules.is_published = ? AND lessons.is_published = ? AND lesson_blocks.is_published = ?", true, true, true).
		Where("lesson_blocks.kind IN ?", []types.BlockKind{types.BlockKindVideo, types.BlockKindLiveSession}).
		Distinct().
		Pluck("lessons.id", &lessonIDs).Error
	if err != nil {
		return UnitSet{}, err
	}

	return UnitSet{Kind: UnitLessons, IDs: lessonIDs}, nil
}

// ComputeProgress returns the user's completion percentage for a course,
// rounded half-up. A course with no published units is 0. Errors propagate;
// learner-facing readers degrade to 0 themselves and log, while the
// enrollment and achievement paths must not transition on a failed read.
func ComputeProgress(db *gorm.DB, userID, courseID uuid.UUID) (int, error) {
	units, err := ResolveUnits(db, courseID)
	if err != nil {
		return 0, err
	}

	total := len(units.IDs)
	if total == 0 {
		return 0, nil
	}

	var completed []uuid.UUID
	switch units.Kind {
	case UnitChapters:
		completed, err = CompletedChapterIDs(db, userID, units.IDs)
	default:
		completed, err = CompletedLessonIDs(db, userID, units.IDs)
	}
	if err != nil {
		return 0, err
	}

	return roundPercent(len(completed), total), nil
}

// roundPercent computes round-half-up of done/total as a percentage.
func roundPercent(done, total int) int {
	return (done*100*2 + total) / (total * 2)
}
