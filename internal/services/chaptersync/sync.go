// Package chaptersync keeps the flat chapter catalog in step with the
// hierarchical content graph. Completable lesson blocks are projected into
// derived chapters so legacy clients keep working; the projection is one-way
// and this package is the only writer of mirrored chapters.
package chaptersync

import (
	"errors"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Position spacing keeps mirrored chapters ordered by their place in the
// hierarchy without renumbering siblings on every insert.
const (
	moduleStride = 10000
	lessonStride = 100
)

// BlockView is a denormalized snapshot of a lesson block and its ancestry,
// assembled by the caller so this package stays off the content models.
type BlockView struct {
	BlockID  uuid.UUID
	CourseID uuid.UUID

	Title        string
	Description  *string
	VideoURL     *string
	Kind         types.BlockKind
	Preview      bool
	PointsReward int

	ModulePosition int
	LessonPosition int
	BlockPosition  int

	// Published is true only when the block and every ancestor up to the
	// module are published.
	Published bool
}

// MirrorPosition derives the flat ordering of a mirrored chapter from the
// block's place in the hierarchy.
func MirrorPosition(modulePos, lessonPos, blockPos int) int {
	return modulePos*moduleStride + lessonPos*lessonStride + blockPos
}

// SyncBlock creates or updates the derived chapter for a lesson block. Blocks
// of a non-completable kind never get a mirror; if one exists from a prior
// kind change it is removed.
func SyncBlock(db *gorm.DB, logger *slog.Logger, view BlockView) error {
	if !view.Kind.IsCompletable() {
		return RemoveMirror(db, logger, view.BlockID)
	}

	var ch course.Chapter
	err := db.First(&ch, "source_block_id = ?", view.BlockID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	found := err == nil
	blockID := view.BlockID

	ch.CourseID = view.CourseID
	ch.Title = view.Title
	ch.Description = view.Description
	ch.VideoURL = view.VideoURL
	ch.Position = MirrorPosition(view.ModulePosition, view.LessonPosition, view.BlockPosition)
	ch.Published = view.Published
	ch.Preview = view.Preview
	ch.PointsReward = view.PointsReward
	ch.SourceBlockID = &blockID

	if found {
		if err := db.Save(&ch).Error; err != nil {
			return err
		}
		logger.Debug("updated mirrored chapter", "blockId", view.BlockID, "chapterId", ch.ID)
		return nil
	}

	if err := db.Create(&ch).Error; err != nil {
		return err
	}
	logger.Debug("created mirrored chapter", "blockId", view.BlockID, "chapterId", ch.ID)
	return nil
}

// RemoveMirror deletes the derived chapter for a block along with any
// completion records pointing at it, so no dangling progress survives the
// source block. Missing mirrors are a no-op.
func RemoveMirror(db *gorm.DB, logger *slog.Logger, blockID uuid.UUID) error {
	var ch course.Chapter
	if err := db.First(&ch, "source_block_id = ?", blockID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM chapter_completions WHERE chapter_id = ?", ch.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ch).Error; err != nil {
			return err
		}
		logger.Debug("removed mirrored chapter", "blockId", blockID, "chapterId", ch.ID)
		return nil
	})
}
