package content

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/response"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Handler processes content graph HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a content handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrModuleNotFound), errors.Is(err, ErrLessonNotFound), errors.Is(err, ErrBlockNotFound):
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrKindInvalid), errors.Is(err, ErrPointsInvalid):
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}

// ListModules returns the content graph of a course. Learners see published
// branches only.
func (h *Handler) ListModules(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	publishedOnly := false
	if u, ok := middleware.GetUserFromContext(c); ok && u.UserType == types.UserTypeLearner {
		publishedOnly = true
	}

	modules, err := ListModules(h.db, courseID, publishedOnly)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list modules", err)
		return
	}

	response.Success(c, http.StatusOK, modules, "", nil)
}

// CreateModule inserts a module into a course.
func (h *Handler) CreateModule(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var req struct {
		Title     string `json:"title" binding:"required"`
		Position  *int   `json:"position"`
		Published *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module payload", err)
		return
	}

	mod, err := CreateModule(h.db, courseID, ModuleInput{Title: req.Title, Position: req.Position, Published: req.Published})
	if err != nil {
		h.fail(c, err, "failed to create module")
		return
	}

	response.Created(c, mod, "Module created successfully.")
}

// UpdateModule modifies a module.
func (h *Handler) UpdateModule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	var req struct {
		Title     string `json:"title"`
		Position  *int   `json:"position"`
		Published *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module payload", err)
		return
	}

	mod, err := UpdateModule(h.db, h.logger, id, ModuleInput{Title: req.Title, Position: req.Position, Published: req.Published})
	if err != nil {
		h.fail(c, err, "failed to update module")
		return
	}

	response.Success(c, http.StatusOK, mod, "Module updated successfully.", nil)
}

// DeleteModule removes a module and everything beneath it.
func (h *Handler) DeleteModule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	if err := DeleteModule(h.db, h.logger, id); err != nil {
		h.fail(c, err, "failed to delete module")
		return
	}

	response.Success(c, http.StatusOK, nil, "Module deleted successfully.", nil)
}

// CreateLesson inserts a lesson into a module.
func (h *Handler) CreateLesson(c *gin.Context) {
	moduleID, err := uuid.Parse(c.Param("moduleId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid module id", err)
		return
	}

	var req struct {
		Title     string `json:"title" binding:"required"`
		Position  *int   `json:"position"`
		Published *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	lsn, err := CreateLesson(h.db, moduleID, LessonInput{Title: req.Title, Position: req.Position, Published: req.Published})
	if err != nil {
		h.fail(c, err, "failed to create lesson")
		return
	}

	response.Created(c, lsn, "Lesson created successfully.")
}

// UpdateLesson modifies a lesson.
func (h *Handler) UpdateLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	var req struct {
		Title     string `json:"title"`
		Position  *int   `json:"position"`
		Published *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson payload", err)
		return
	}

	lsn, err := UpdateLesson(h.db, h.logger, id, LessonInput{Title: req.Title, Position: req.Position, Published: req.Published})
	if err != nil {
		h.fail(c, err, "failed to update lesson")
		return
	}

	response.Success(c, http.StatusOK, lsn, "Lesson updated successfully.", nil)
}

// DeleteLesson removes a lesson and its blocks.
func (h *Handler) DeleteLesson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	if err := DeleteLesson(h.db, h.logger, id); err != nil {
		h.fail(c, err, "failed to delete lesson")
		return
	}

	response.Success(c, http.StatusOK, nil, "Lesson deleted successfully.", nil)
}

// CreateBlock inserts a block into a lesson.
func (h *Handler) CreateBlock(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	var req struct {
		Kind         types.BlockKind `json:"kind" binding:"required"`
		Title        string          `json:"title" binding:"required"`
		Description  *string         `json:"description"`
		VideoURL     *string         `json:"videoUrl"`
		Body         *string         `json:"body"`
		Position     *int            `json:"position"`
		Published    *bool           `json:"isPublished"`
		Preview      *bool           `json:"isPreview"`
		PointsReward *int            `json:"pointsReward"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid block payload", err)
		return
	}

	blk, err := CreateBlock(h.db, h.logger, lessonID, BlockInput{
		Kind:         &req.Kind,
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		Body:         req.Body,
		Position:     req.Position,
		Published:    req.Published,
		Preview:      req.Preview,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		h.fail(c, err, "failed to create block")
		return
	}

	response.Created(c, blk, "Block created successfully.")
}

// UpdateBlock modifies a block.
func (h *Handler) UpdateBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid block id", err)
		return
	}

	var req struct {
		Kind         *types.BlockKind `json:"kind"`
		Title        string           `json:"title"`
		Description  *string          `json:"description"`
		VideoURL     *string          `json:"videoUrl"`
		Body         *string          `json:"body"`
		Position     *int             `json:"position"`
		Published    *bool            `json:"isPublished"`
		Preview      *bool            `json:"isPreview"`
		PointsReward *int             `json:"pointsReward"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid block payload", err)
		return
	}

	blk, err := UpdateBlock(h.db, h.logger, id, BlockInput{
		Kind:         req.Kind,
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		Body:         req.Body,
		Position:     req.Position,
		Published:    req.Published,
		Preview:      req.Preview,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		h.fail(c, err, "failed to update block")
		return
	}

	response.Success(c, http.StatusOK, blk, "Block updated successfully.", nil)
}

// DeleteBlock removes a block along with its mirrored chapter.
func (h *Handler) DeleteBlock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("blockId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid block id", err)
		return
	}

	if err := DeleteBlock(h.db, h.logger, id); err != nil {
		h.fail(c, err, "failed to delete block")
		return
	}

	response.Success(c, http.StatusOK, nil, "Block deleted successfully.", nil)
}
