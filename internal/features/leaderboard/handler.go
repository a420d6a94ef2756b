package leaderboard

import (
	"net/http"
	"strconv"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes leaderboard HTTP requests.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a leaderboard handler instance.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// ForCourse returns a course's standings. A failed aggregation degrades to
// an empty list: the leaderboard panel must not take the dashboard down.
func (h *Handler) ForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	entries, err := h.service.ForCourse(c.Request.Context(), courseID, limit)
	if err != nil {
		h.logger.Error("leaderboard aggregation failed, degrading to empty",
			"courseId", courseID, "error", err)
		entries = []Entry{}
	}

	response.Success(c, http.StatusOK, entries, "", nil)
}
