package course

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/response"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// ResyncFunc reprojects the derived chapters of a course. Injected at wiring
// time to keep this package off the content graph.
type ResyncFunc func(db *gorm.DB, logger *slog.Logger, courseID uuid.UUID) error

// Handler processes course HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
	resync ResyncFunc
}

// NewHandler constructs a course handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger, resync ResyncFunc) *Handler {
	return &Handler{db: db, logger: logger, resync: resync}
}

// List returns paginated courses for a company. Learners see published
// courses only.
func (h *Handler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	params := pagination.Extract(c)

	filters := ListFilters{
		CompanyID: companyID,
		Keyword:   c.Query("filterKeyword"),
	}
	if u, ok := middleware.GetUserFromContext(c); ok && u.UserType == types.UserTypeLearner {
		filters.PublishedOnly = true
	}

	courses, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list courses", err)
		return
	}

	response.Success(c, http.StatusOK, courses, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a single course with its chapters.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	crs, err := Get(h.db, id)
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}

	publishedOnly := false
	if u, ok := middleware.GetUserFromContext(c); ok && u.UserType == types.UserTypeLearner {
		if !crs.Published {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", ErrCourseNotFound)
			return
		}
		publishedOnly = true
	}

	chapters, err := ListChapters(h.db, id, publishedOnly)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load chapters", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": crs, "chapters": chapters}, "", nil)
}

// Create inserts a new course.
func (h *Handler) Create(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	var req struct {
		Name        string  `json:"name" binding:"required"`
		Description *string `json:"description"`
		ImageURL    *string `json:"imageUrl"`
		Order       *int    `json:"order"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	crs, err := Create(h.db, CreateInput{
		CompanyID:   companyID,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Order:       req.Order,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameLength):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create course", err)
		}
		return
	}

	response.Created(c, crs, "Course created successfully.")
}

// Update modifies an existing course.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course payload", err)
		return
	}

	input := UpdateInput{}
	if v, ok := raw["name"].(string); ok {
		input.Name = &v
	}
	if _, ok := raw["description"]; ok {
		input.DescProvided = true
		if v, ok := raw["description"].(string); ok {
			input.Description = &v
		}
	}
	if _, ok := raw["imageUrl"]; ok {
		input.ImageProvided = true
		if v, ok := raw["imageUrl"].(string); ok {
			input.ImageURL = &v
		}
	}
	if v, ok := raw["isPublished"].(bool); ok {
		input.Published = &v
	}
	if v, ok := raw["order"].(float64); ok {
		o := int(v)
		input.Order = &o
	}

	crs, err := Update(h.db, id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrCourseNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameLength):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update course", err)
		}
		return
	}

	// A publish toggle flows into every mirrored chapter.
	if input.Published != nil && h.resync != nil {
		if err := h.resync(h.db, h.logger, crs.ID); err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to resync chapters", err)
			return
		}
	}

	response.Success(c, http.StatusOK, crs, "Course updated successfully.", nil)
}

// Delete removes a course.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete course", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Course deleted successfully.", nil)
}

// CreateChapter inserts a legacy chapter into a course.
func (h *Handler) CreateChapter(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	if _, err := Get(h.db, courseID); err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}

	var req struct {
		Title        string  `json:"title" binding:"required"`
		Description  *string `json:"description"`
		VideoURL     *string `json:"videoUrl"`
		Position     *int    `json:"position"`
		Published    *bool   `json:"isPublished"`
		Preview      *bool   `json:"isPreview"`
		PointsReward *int    `json:"pointsReward"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter payload", err)
		return
	}

	ch, err := CreateChapter(h.db, courseID, ChapterInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		Position:     req.Position,
		Published:    req.Published,
		Preview:      req.Preview,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrPointsInvalid):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create chapter", err)
		}
		return
	}

	response.Created(c, ch, "Chapter created successfully.")
}

// UpdateChapter modifies a legacy chapter.
func (h *Handler) UpdateChapter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter id", err)
		return
	}

	var req struct {
		Title        string  `json:"title"`
		Description  *string `json:"description"`
		VideoURL     *string `json:"videoUrl"`
		Position     *int    `json:"position"`
		Published    *bool   `json:"isPublished"`
		Preview      *bool   `json:"isPreview"`
		PointsReward *int    `json:"pointsReward"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter payload", err)
		return
	}

	ch, err := UpdateChapter(h.db, id, ChapterInput{
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		Position:     req.Position,
		Published:    req.Published,
		Preview:      req.Preview,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrChapterNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "chapter not found", err)
		case errors.Is(err, ErrChapterDerived):
			response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
		case errors.Is(err, ErrPointsInvalid):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update chapter", err)
		}
		return
	}

	response.Success(c, http.StatusOK, ch, "Chapter updated successfully.", nil)
}

// DeleteChapter removes a legacy chapter.
func (h *Handler) DeleteChapter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter id", err)
		return
	}

	if err := DeleteChapter(h.db, id); err != nil {
		switch {
		case errors.Is(err, ErrChapterNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "chapter not found", err)
		case errors.Is(err, ErrChapterDerived):
			response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete chapter", err)
		}
		return
	}

	response.Success(c, http.StatusOK, nil, "Chapter deleted successfully.", nil)
}
