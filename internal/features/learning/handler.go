// Package learning exposes the learner-facing completion endpoints on top of
// the completion pipeline.
package learning

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/internal/services/completion"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes completion HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a learning handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// CompleteChapter marks a chapter complete for the authenticated user.
func (h *Handler) CompleteChapter(c *gin.Context) {
	chapterID, err := uuid.Parse(c.Param("chapterId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid chapter id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	res, err := completion.CompleteChapter(h.db, h.logger, u.ID, chapterID)
	if err != nil {
		switch {
		case errors.Is(err, course.ErrChapterNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
		case errors.Is(err, completion.ErrNotEnrolled):
			response.ErrorWithLog(h.logger, c, http.StatusForbidden, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to complete chapter", err)
		}
		return
	}

	response.Success(c, http.StatusOK, res, "Chapter completed.", nil)
}

// CompleteLesson marks a lesson complete for the authenticated user.
func (h *Handler) CompleteLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	res, err := completion.CompleteLesson(h.db, h.logger, u.ID, lessonID)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrLessonNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
		case errors.Is(err, completion.ErrNotEnrolled):
			response.ErrorWithLog(h.logger, c, http.StatusForbidden, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to complete lesson", err)
		}
		return
	}

	response.Success(c, http.StatusOK, res, "Lesson completed.", nil)
}
