package badge

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes badge HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a badge handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrBadgeNotFound):
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrNameRequired), errors.Is(err, ErrPointsInvalid):
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}

// List returns a company's badges.
func (h *Handler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	badges, err := List(h.db, companyID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list badges", err)
		return
	}

	response.Success(c, http.StatusOK, badges, "", nil)
}

// ListMine returns the authenticated user's badges.
func (h *Handler) ListMine(c *gin.Context) {
	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	grants, err := ListForUser(h.db, u.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list badges", err)
		return
	}

	response.Success(c, http.StatusOK, grants, "", nil)
}

type badgeRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	ImageURL     *string `json:"imageUrl"`
	PointsReward *int    `json:"pointsReward"`
}

// Create inserts a badge.
func (h *Handler) Create(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	var req badgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid badge payload", err)
		return
	}

	b, err := Create(h.db, companyID, Input{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		h.fail(c, err, "failed to create badge")
		return
	}

	response.Created(c, b, "Badge created successfully.")
}

// Update modifies a badge.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("badgeId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid badge id", err)
		return
	}

	var req badgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid badge payload", err)
		return
	}

	b, err := Update(h.db, id, Input{
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		PointsReward: req.PointsReward,
	})
	if err != nil {
		h.fail(c, err, "failed to update badge")
		return
	}

	response.Success(c, http.StatusOK, b, "Badge updated successfully.", nil)
}

// Delete removes a badge.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("badgeId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid badge id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.fail(c, err, "failed to delete badge")
		return
	}

	response.Success(c, http.StatusOK, nil, "Badge deleted successfully.", nil)
}

// Grant awards a badge to a user.
func (h *Handler) Grant(c *gin.Context) {
	badgeID, err := uuid.Parse(c.Param("badgeId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid badge id", err)
		return
	}

	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid grant payload", err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	grant, granted, err := GrantToUser(h.db, badgeID, userID)
	if err != nil {
		h.fail(c, err, "failed to grant badge")
		return
	}

	if !granted {
		response.Success(c, http.StatusOK, grant, "Badge was already granted.", nil)
		return
	}
	response.Created(c, grant, "Badge granted successfully.")
}
