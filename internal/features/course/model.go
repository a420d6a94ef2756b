package course

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Course represents a course owned by a company.
type Course struct {
	types.BaseModel

	CompanyID   uuid.UUID `gorm:"type:uuid;not null;column:company_id;index" json:"companyId"`
	Name        string    `gorm:"type:varchar(120);not null" json:"name"`
	Description *string   `gorm:"type:varchar(2000)" json:"description,omitempty"`
	ImageURL    *string   `gorm:"type:varchar(500);column:image_url" json:"imageUrl,omitempty"`
	Published   bool      `gorm:"type:boolean;not null;default:false;column:is_published;index" json:"isPublished"`
	Order       int       `gorm:"type:int;not null;default:0" json:"order"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// Chapter is the flat legacy content unit. A chapter either stands on its own
// (legacy-authored course) or mirrors a hierarchical lesson block, in which
// case SourceBlockID is set and the chapter is fully derived: the sync is its
// only writer and it is deleted with its source block.
type Chapter struct {
	types.BaseModel

	CourseID      uuid.UUID  `gorm:"type:uuid;not null;column:course_id;index" json:"courseId"`
	Title         string     `gorm:"type:varchar(160);not null" json:"title"`
	Description   *string    `gorm:"type:varchar(4000)" json:"description,omitempty"`
	VideoURL      *string    `gorm:"type:varchar(500);column:video_url" json:"videoUrl,omitempty"`
	Position      int        `gorm:"type:int;not null;default:0" json:"position"`
	Published     bool       `gorm:"type:boolean;not null;default:false;column:is_published;index" json:"isPublished"`
	Preview       bool       `gorm:"type:boolean;not null;default:false;column:is_preview" json:"isPreview"`
	PointsReward  int        `gorm:"type:int;not null;default:0;column:points_reward" json:"pointsReward"`
	SourceBlockID *uuid.UUID `gorm:"type:uuid;column:source_block_id;uniqueIndex" json:"sourceBlockId,omitempty"`
}

// TableName overrides the default table name.
func (Chapter) TableName() string { return "chapters" }

// IsMirrored reports whether this chapter is derived from a lesson block.
func (ch *Chapter) IsMirrored() bool { return ch.SourceBlockID != nil }

// ListFilters defines course query filters.
type ListFilters struct {
	CompanyID     uuid.UUID
	Keyword       string
	PublishedOnly bool
}

// CreateInput carries data for creating a new course.
type CreateInput struct {
	CompanyID   uuid.UUID
	Name        string
	Description *string
	ImageURL    *string
	Order       *int
}

// UpdateInput captures mutable course fields.
type UpdateInput struct {
	Name          *string
	Description   *string
	DescProvided  bool
	ImageURL      *string
	ImageProvided bool
	Published     *bool
	Order         *int
}

// ChapterInput carries data for creating or updating a legacy chapter.
type ChapterInput struct {
	Title        string
	Description  *string
	VideoURL     *string
	Position     *int
	Published    *bool
	Preview      *bool
	PointsReward *int
}

// List retrieves paginated courses with filters.
func List(db *gorm.DB, filters ListFilters, params pagination.Params) ([]Course, int64, error) {
	query := db.Model(&Course{}).Where("company_id = ?", filters.CompanyID)

	if filters.Keyword != "" {
		like := "%" + strings.ToLower(filters.Keyword) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filters.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, total, err
	}

	var courses []Course
	err := query.Order("\"order\" ASC, name ASC").Offset(params.Skip).Limit(params.Limit).Find(&courses).Error
	return courses, total, err
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uuid.UUID) (Course, error) {
	var crs Course
	if err := db.First(&crs, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return crs, ErrCourseNotFound
		}
		return crs, err
	}
	return crs, nil
}

// Create inserts a new course.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Course{}, ErrNameRequired
	}
	if n := utf8.RuneCountInString(name); n < 3 || n > 120 {
		return Course{}, ErrNameLength
	}

	order := 0
	if input.Order != nil {
		order = *input.Order
	}

	crs := Course{
		CompanyID:   input.CompanyID,
		Name:        name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Order:       order,
	}

	if err := db.Create(&crs).Error; err != nil {
		return Course{}, err
	}

	return crs, nil
}

// Update modifies an existing course.
func Update(db *gorm.DB, id uuid.UUID, input UpdateInput) (Course, error) {
	crs, err := Get(db, id)
	if err != nil {
		return crs, err
	}

	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return crs, ErrNameRequired
		}
		if n := utf8.RuneCountInString(trimmed); n < 3 || n > 120 {
			return crs, ErrNameLength
		}
		crs.Name = trimmed
	}

	if input.DescProvided {
		crs.Description = input.Description
	}
	if input.ImageProvided {
		crs.ImageURL = input.ImageURL
	}
	if input.Published != nil {
		crs.Published = *input.Published
	}
	if input.Order != nil {
		crs.Order = *input.Order
	}

	if err := db.Save(&crs).Error; err != nil {
		return crs, err
	}

	return crs, nil
}

// Delete removes a course.
func Delete(db *gorm.DB, id uuid.UUID) error {
	result := db.Delete(&Course{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCourseNotFound
	}
	return nil
}

// GetChapter retrieves a chapter by ID.
func GetChapter(db *gorm.DB, id uuid.UUID) (Chapter, error) {
	var ch Chapter
	if err := db.First(&ch, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ch, ErrChapterNotFound
		}
		return ch, err
	}
	return ch, nil
}

// ListChapters retrieves chapters for a course ordered by position.
func ListChapters(db *gorm.DB, courseID uuid.UUID, publishedOnly bool) ([]Chapter, error) {
	query := db.Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var chapters []Chapter
	err := query.Order("position ASC, title ASC").Find(&chapters).Error
	return chapters, err
}

// CreateChapter inserts a legacy-authored chapter. Mirrored chapters are
// created only by the block sync, never through this path.
func CreateChapter(db *gorm.DB, courseID uuid.UUID, input ChapterInput) (Chapter, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Chapter{}, ErrTitleRequired
	}

	ch := Chapter{
		CourseID:    courseID,
		Title:       title,
		Description: input.Description,
		VideoURL:    input.VideoURL,
	}
	if input.Position != nil {
		ch.Position = *input.Position
	}
	if input.Published != nil {
		ch.Published = *input.Published
	}
	if input.Preview != nil {
		ch.Preview = *input.Preview
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return Chapter{}, ErrPointsInvalid
		}
		ch.PointsReward = *input.PointsReward
	}

	if err := db.Create(&ch).Error; err != nil {
		return Chapter{}, err
	}

	return ch, nil
}

// UpdateChapter modifies a legacy-authored chapter. Chapters that mirror a
// lesson block are strictly derived and reject edits through this path.
func UpdateChapter(db *gorm.DB, id uuid.UUID, input ChapterInput) (Chapter, error) {
	ch, err := GetChapter(db, id)
	if err != nil {
		return ch, err
	}

	if ch.IsMirrored() {
		return ch, ErrChapterDerived
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		ch.Title = title
	}
	if input.Description != nil {
		ch.Description = input.Description
	}
	if input.VideoURL != nil {
		ch.VideoURL = input.VideoURL
	}
	if input.Position != nil {
		ch.Position = *input.Position
	}
	if input.Published != nil {
		ch.Published = *input.Published
	}
	if input.Preview != nil {
		ch.Preview = *input.Preview
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return ch, ErrPointsInvalid
		}
		ch.PointsReward = *input.PointsReward
	}

	if err := db.Save(&ch).Error; err != nil {
		return ch, err
	}

	return ch, nil
}

// DeleteChapter removes a legacy-authored chapter.
func DeleteChapter(db *gorm.DB, id uuid.UUID) error {
	ch, err := GetChapter(db, id)
	if err != nil {
		return err
	}

	if ch.IsMirrored() {
		return ErrChapterDerived
	}

	return db.Delete(&ch).Error
}
