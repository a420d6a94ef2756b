package progress

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes progress HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a progress handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// GetMine returns the authenticated user's progress in a course. This is a
// dashboard read: internal errors degrade to 0 with a log line instead of
// failing the page.
func (h *Handler) GetMine(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	percent, err := ComputeProgress(h.db, u.ID, courseID)
	if err != nil {
		h.logger.Error("progress read failed, degrading to zero",
			"userId", u.ID, "courseId", courseID, "error", err)
		percent = 0
	}

	units, err := ResolveUnits(h.db, courseID)
	if err != nil {
		h.logger.Error("unit resolution failed, degrading to empty",
			"courseId", courseID, "error", err)
		units = UnitSet{Kind: UnitChapters}
	}

	var completed []uuid.UUID
	switch units.Kind {
	case UnitChapters:
		completed, err = CompletedChapterIDs(h.db, u.ID, units.IDs)
	default:
		completed, err = CompletedLessonIDs(h.db, u.ID, units.IDs)
	}
	if err != nil {
		h.logger.Error("completion read failed, degrading to empty",
			"userId", u.ID, "courseId", courseID, "error", err)
		completed = nil
	}

	response.Success(c, http.StatusOK, gin.H{
		"progress":         percent,
		"unitKind":         units.Kind,
		"totalUnits":       len(units.IDs),
		"completedUnitIds": completed,
	}, "", nil)
}

// GetForUser returns a specific user's progress in a course, for managers
// and admins.
func (h *Handler) GetForUser(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	percent, err := ComputeProgress(h.db, userID, courseID)
	if err != nil {
		h.logger.Error("progress read failed, degrading to zero",
			"userId", userID, "courseId", courseID, "error", err)
		percent = 0
	}

	response.Success(c, http.StatusOK, gin.H{"userId": userID, "courseId": courseID, "progress": percent}, "", nil)
}
