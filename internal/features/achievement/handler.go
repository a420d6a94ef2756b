package achievement

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

// Handler processes achievement HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs an achievement handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrAchievementNotFound):
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrUnlockTypeInvalid),
		errors.Is(err, ErrTargetModuleRequired), errors.Is(err, ErrPointsInvalid):
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}

// List returns the achievements of a course.
func (h *Handler) List(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	achievements, err := List(h.db, courseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list achievements", err)
		return
	}

	response.Success(c, http.StatusOK, achievements, "", nil)
}

// ListMine returns the authenticated user's granted achievements.
func (h *Handler) ListMine(c *gin.Context) {
	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	awards, err := ListAwardsForUser(h.db, u.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list awards", err)
		return
	}

	response.Success(c, http.StatusOK, awards, "", nil)
}

type achievementRequest struct {
	Name           string            `json:"name"`
	Description    *string           `json:"description"`
	UnlockType     *types.UnlockType `json:"unlockType"`
	TargetModuleID *string           `json:"targetModuleId"`
	PointsReward   *int              `json:"pointsReward"`
	Active         *bool             `json:"isActive"`
}

func (r *achievementRequest) toInput() (Input, error) {
	input := Input{
		Name:         r.Name,
		Description:  r.Description,
		UnlockType:   r.UnlockType,
		PointsReward: r.PointsReward,
		Active:       r.Active,
	}
	if r.TargetModuleID != nil {
		id, err := uuid.Parse(*r.TargetModuleID)
		if err != nil {
			return input, err
		}
		input.TargetModuleID = &id
	}
	return input, nil
}

// Create inserts an achievement on a course.
func (h *Handler) Create(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var req achievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid achievement payload", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid target module id", err)
		return
	}

	ach, err := Create(h.db, courseID, input)
	if err != nil {
		h.fail(c, err, "failed to create achievement")
		return
	}

	response.Created(c, ach, "Achievement created successfully.")
}

// Update modifies an achievement.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("achievementId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid achievement id", err)
		return
	}

	var req achievementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid achievement payload", err)
		return
	}

	input, err := req.toInput()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid target module id", err)
		return
	}

	ach, err := Update(h.db, id, input)
	if err != nil {
		h.fail(c, err, "failed to update achievement")
		return
	}

	response.Success(c, http.StatusOK, ach, "Achievement updated successfully.", nil)
}

// Delete removes an achievement.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("achievementId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid achievement id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.fail(c, err, "failed to delete achievement")
		return
	}

	response.Success(c, http.StatusOK, nil, "Achievement deleted successfully.", nil)
}
