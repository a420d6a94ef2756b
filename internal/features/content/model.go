package content

import (
	"strings"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/services/chaptersync"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// CourseModule is a top-level section of a course in the hierarchical
// content graph.
type CourseModule struct {
	types.BaseModel

	CourseID  uuid.UUID `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	Title     string    `gorm:"type:varchar(160);not null" json:"title"`
	Position  int       `gorm:"type:int;not null;default:0" json:"position"`
	Published bool      `gorm:"type:boolean;not null;default:false;column:is_published" json:"isPublished"`

	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE" json:"lessons,omitempty"`
}

// TableName overrides the default table name.
func (CourseModule) TableName() string { return "course_modules" }

// Lesson groups blocks beneath a module.
type Lesson struct {
	types.BaseModel

	ModuleID  uuid.UUID `gorm:"type:uuid;not null;column:module_id;index" json:"moduleId"`
	Title     string    `gorm:"type:varchar(160);not null" json:"title"`
	Position  int       `gorm:"type:int;not null;default:0" json:"position"`
	Published bool      `gorm:"type:boolean;not null;default:false;column:is_published" json:"isPublished"`

	Blocks []LessonBlock `gorm:"foreignKey:LessonID;constraint:OnDelete:CASCADE" json:"blocks,omitempty"`
}

// TableName overrides the default table name.
func (Lesson) TableName() string { return "lessons" }

// LessonBlock is the atomic content unit. Video and live-session blocks count
// toward completion and are mirrored into the flat chapter catalog.
type LessonBlock struct {
	types.BaseModel

	LessonID     uuid.UUID       `gorm:"type:uuid;not null;column:lesson_id;index" json:"lessonId"`
	Kind         types.BlockKind `gorm:"type:varchar(20);not null" json:"kind"`
	Title        string          `gorm:"type:varchar(160);not null" json:"title"`
	Description  *string         `gorm:"type:varchar(4000)" json:"description,omitempty"`
	VideoURL     *string         `gorm:"type:varchar(500);column:video_url" json:"videoUrl,omitempty"`
	Body         *string         `gorm:"type:text" json:"body,omitempty"`
	Position     int             `gorm:"type:int;not null;default:0" json:"position"`
	Published    bool            `gorm:"type:boolean;not null;default:false;column:is_published" json:"isPublished"`
	Preview      bool            `gorm:"type:boolean;not null;default:false;column:is_preview" json:"isPreview"`
	PointsReward int             `gorm:"type:int;not null;default:0;column:points_reward" json:"pointsReward"`
}

// TableName overrides the default table name.
func (LessonBlock) TableName() string { return "lesson_blocks" }

// ModuleInput carries data for creating or updating a module.
type ModuleInput struct {
	Title     string
	Position  *int
	Published *bool
}

// LessonInput carries data for creating or updating a lesson.
type LessonInput struct {
	Title     string
	Position  *int
	Published *bool
}

// BlockInput carries data for creating or updating a lesson block.
type BlockInput struct {
	Kind         *types.BlockKind
	Title        string
	Description  *string
	VideoURL     *string
	Body         *string
	Position     *int
	Published    *bool
	Preview      *bool
	PointsReward *int
}

// ListModules retrieves the content graph of a course, modules with nested
// lessons and blocks, ordered by position.
func ListModules(db *gorm.DB, courseID uuid.UUID, publishedOnly bool) ([]CourseModule, error) {
	query := db.Where("course_id = ?", courseID).Order("position ASC")

	lessonScope := func(tx *gorm.DB) *gorm.DB { return tx.Order("lessons.position ASC") }
	blockScope := func(tx *gorm.DB) *gorm.DB { return tx.Order("lesson_blocks.position ASC") }

	if publishedOnly {
		query = query.Where("is_published = ?", true)
		lessonScope = func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_published = ?", true).Order("lessons.position ASC")
		}
		blockScope = func(tx *gorm.DB) *gorm.DB {
			return tx.Where("is_published = ?", true).Order("lesson_blocks.position ASC")
		}
	}

	var modules []CourseModule
	err := query.Preload("Lessons", lessonScope).Preload("Lessons.Blocks", blockScope).Find(&modules).Error
	return modules, err
}

// GetModule retrieves a module by ID.
func GetModule(db *gorm.DB, id uuid.UUID) (CourseModule, error) {
	var mod CourseModule
	if err := db.First(&mod, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return mod, ErrModuleNotFound
		}
		return mod, err
	}
	return mod, nil
}

// GetLesson retrieves a lesson by ID.
func GetLesson(db *gorm.DB, id uuid.UUID) (Lesson, error) {
	var lsn Lesson
	if err := db.First(&lsn, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return lsn, ErrLessonNotFound
		}
		return lsn, err
	}
	return lsn, nil
}

// GetBlock retrieves a block by ID.
func GetBlock(db *gorm.DB, id uuid.UUID) (LessonBlock, error) {
	var blk LessonBlock
	if err := db.First(&blk, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return blk, ErrBlockNotFound
		}
		return blk, err
	}
	return blk, nil
}

// CreateModule inserts a module into a course.
func CreateModule(db *gorm.DB, courseID uuid.UUID, input ModuleInput) (CourseModule, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return CourseModule{}, ErrTitleRequired
	}

	mod := CourseModule{CourseID: courseID, Title: title}
	if input.Position != nil {
		mod.Position = *input.Position
	}
	if input.Published != nil {
		mod.Published = *input.Published
	}

	if err := db.Create(&mod).Error; err != nil {
		return CourseModule{}, err
	}
	return mod, nil
}

// UpdateModule modifies a module and resyncs the mirrors of every block
// beneath it, since position and published state flow into the projection.
func UpdateModule(db *gorm.DB, logger *slog.Logger, id uuid.UUID, input ModuleInput) (CourseModule, error) {
	mod, err := GetModule(db, id)
	if err != nil {
		return mod, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		mod.Title = title
	}
	if input.Position != nil {
		mod.Position = *input.Position
	}
	if input.Published != nil {
		mod.Published = *input.Published
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&mod).Error; err != nil {
			return err
		}
		return resyncModule(tx, logger, mod)
	})
	return mod, err
}

// DeleteModule removes a module with its lessons and blocks, dropping any
// mirrored chapters first.
func DeleteModule(db *gorm.DB, logger *slog.Logger, id uuid.UUID) error {
	mod, err := GetModule(db, id)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		blocks, err := blocksUnderModule(tx, mod.ID)
		if err != nil {
			return err
		}
		for _, blk := range blocks {
			if err := chaptersync.RemoveMirror(tx, logger, blk.ID); err != nil {
				return err
			}
		}
		if err := tx.Exec("DELETE FROM lesson_blocks WHERE lesson_id IN (SELECT id FROM lessons WHERE module_id = ?)", mod.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", mod.ID).Delete(&Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&mod).Error
	})
}

// CreateLesson inserts a lesson into a module.
func CreateLesson(db *gorm.DB, moduleID uuid.UUID, input LessonInput) (Lesson, error) {
	if _, err := GetModule(db, moduleID); err != nil {
		return Lesson{}, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Lesson{}, ErrTitleRequired
	}

	lsn := Lesson{ModuleID: moduleID, Title: title}
	if input.Position != nil {
		lsn.Position = *input.Position
	}
	if input.Published != nil {
		lsn.Published = *input.Published
	}

	if err := db.Create(&lsn).Error; err != nil {
		return Lesson{}, err
	}
	return lsn, nil
}

// UpdateLesson modifies a lesson and resyncs the mirrors of its blocks.
func UpdateLesson(db *gorm.DB, logger *slog.Logger, id uuid.UUID, input LessonInput) (Lesson, error) {
	lsn, err := GetLesson(db, id)
	if err != nil {
		return lsn, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		lsn.Title = title
	}
	if input.Position != nil {
		lsn.Position = *input.Position
	}
	if input.Published != nil {
		lsn.Published = *input.Published
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&lsn).Error; err != nil {
			return err
		}
		return resyncLesson(tx, logger, lsn)
	})
	return lsn, err
}

// DeleteLesson removes a lesson and its blocks, dropping mirrors first.
func DeleteLesson(db *gorm.DB, logger *slog.Logger, id uuid.UUID) error {
	lsn, err := GetLesson(db, id)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var blocks []LessonBlock
		if err := tx.Where("lesson_id = ?", lsn.ID).Find(&blocks).Error; err != nil {
			return err
		}
		for _, blk := range blocks {
			if err := chaptersync.RemoveMirror(tx, logger, blk.ID); err != nil {
				return err
			}
		}
		if err := tx.Where("lesson_id = ?", lsn.ID).Delete(&LessonBlock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&lsn).Error
	})
}

// CreateBlock inserts a block into a lesson and projects its mirror.
func CreateBlock(db *gorm.DB, logger *slog.Logger, lessonID uuid.UUID, input BlockInput) (LessonBlock, error) {
	lsn, err := GetLesson(db, lessonID)
	if err != nil {
		return LessonBlock{}, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return LessonBlock{}, ErrTitleRequired
	}
	if input.Kind == nil || !input.Kind.IsValid() {
		return LessonBlock{}, ErrKindInvalid
	}

	blk := LessonBlock{
		LessonID:    lessonID,
		Kind:        *input.Kind,
		Title:       title,
		Description: input.Description,
		VideoURL:    input.VideoURL,
		Body:        input.Body,
	}
	if input.Position != nil {
		blk.Position = *input.Position
	}
	if input.Published != nil {
		blk.Published = *input.Published
	}
	if input.Preview != nil {
		blk.Preview = *input.Preview
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return LessonBlock{}, ErrPointsInvalid
		}
		blk.PointsReward = *input.PointsReward
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&blk).Error; err != nil {
			return err
		}
		return syncBlock(tx, logger, blk, lsn)
	})
	return blk, err
}

// UpdateBlock modifies a block and reprojects its mirror.
func UpdateBlock(db *gorm.DB, logger *slog.Logger, id uuid.UUID, input BlockInput) (LessonBlock, error) {
	blk, err := GetBlock(db, id)
	if err != nil {
		return blk, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		blk.Title = title
	}
	if input.Kind != nil {
		if !input.Kind.IsValid() {
			return blk, ErrKindInvalid
		}
		blk.Kind = *input.Kind
	}
	if input.Description != nil {
		blk.Description = input.Description
	}
	if input.VideoURL != nil {
		blk.VideoURL = input.VideoURL
	}
	if input.Body != nil {
		blk.Body = input.Body
	}
	if input.Position != nil {
		blk.Position = *input.Position
	}
	if input.Published != nil {
		blk.Published = *input.Published
	}
	if input.Preview != nil {
		blk.Preview = *input.Preview
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return blk, ErrPointsInvalid
		}
		blk.PointsReward = *input.PointsReward
	}

	lsn, err := GetLesson(db, blk.LessonID)
	if err != nil {
		return blk, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&blk).Error; err != nil {
			return err
		}
		return syncBlock(tx, logger, blk, lsn)
	})
	return blk, err
}

// DeleteBlock removes a block and its mirrored chapter.
func DeleteBlock(db *gorm.DB, logger *slog.Logger, id uuid.UUID) error {
	blk, err := GetBlock(db, id)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := chaptersync.RemoveMirror(tx, logger, blk.ID); err != nil {
			return err
		}
		return tx.Delete(&blk).Error
	})
}

// syncBlock projects one block into the chapter catalog using its loaded
// lesson and the lesson's module. The mirror's published flag is the AND of
// the block, lesson, module and course publication flags.
func syncBlock(tx *gorm.DB, logger *slog.Logger, blk LessonBlock, lsn Lesson) error {
	mod, err := GetModule(tx, lsn.ModuleID)
	if err != nil {
		return err
	}
	crs, err := course.Get(tx, mod.CourseID)
	if err != nil {
		return err
	}

	return chaptersync.SyncBlock(tx, logger, chaptersync.BlockView{
		BlockID:        blk.ID,
		CourseID:       mod.CourseID,
		Title:          blk.Title,
		Description:    blk.Description,
		VideoURL:       blk.VideoURL,
		Kind:           blk.Kind,
		Preview:        blk.Preview,
		PointsReward:   blk.PointsReward,
		ModulePosition: mod.Position,
		LessonPosition: lsn.Position,
		BlockPosition:  blk.Position,
		Published:      crs.Published && mod.Published && lsn.Published && blk.Published,
	})
}

// ResyncCourse reprojects every block of a course. Run after a change to the
// course's own published flag, which flows into each mirror.
func ResyncCourse(db *gorm.DB, logger *slog.Logger, courseID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var modules []CourseModule
		if err := tx.Where("course_id = ?", courseID).Find(&modules).Error; err != nil {
			return err
		}
		for _, mod := range modules {
			if err := resyncModule(tx, logger, mod); err != nil {
				return err
			}
		}
		return nil
	})
}

func resyncLesson(tx *gorm.DB, logger *slog.Logger, lsn Lesson) error {
	var blocks []LessonBlock
	if err := tx.Where("lesson_id = ?", lsn.ID).Find(&blocks).Error; err != nil {
		return err
	}
	for _, blk := range blocks {
		if err := syncBlock(tx, logger, blk, lsn); err != nil {
			return err
		}
	}
	return nil
}

func resyncModule(tx *gorm.DB, logger *slog.Logger, mod CourseModule) error {
	var lessons []Lesson
	if err := tx.Where("module_id = ?", mod.ID).Find(&lessons).Error; err != nil {
		return err
	}
	for _, lsn := range lessons {
		if err := resyncLesson(tx, logger, lsn); err != nil {
			return err
		}
	}
	return nil
}

func blocksUnderModule(tx *gorm.DB, moduleID uuid.UUID) ([]LessonBlock, error) {
	var blocks []LessonBlock
	err := tx.Joins("JOIN lessons ON lessons.id = lesson_blocks.lesson_id").
		Where("lessons.module_id = ?", moduleID).
		Find(&blocks).Error
	return blocks, err
}
