package points

import (
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

// Handler processes points HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a points handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// ListMine returns the authenticated user's ledger.
func (h *Handler) ListMine(c *gin.Context) {
	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	params := pagination.Extract(c)
	entries, total, err := ListForUser(h.db, u.ID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list ledger entries", err)
		return
	}

	response.Success(c, http.StatusOK, entries, "", pagination.MetadataFrom(total, params))
}

// ListForUser returns a specific user's ledger, for managers and admins.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	params := pagination.Extract(c)
	entries, total, err := ListForUser(h.db, userID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list ledger entries", err)
		return
	}

	response.Success(c, http.StatusOK, entries, "", pagination.MetadataFrom(total, params))
}

// Adjust appends a manual adjustment entry for a user. The reference id is
// minted per adjustment, so each call is a distinct award.
func (h *Handler) Adjust(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid adjustment payload", err)
		return
	}

	var entry LedgerEntry
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		entry, _, txErr = Award(tx, AwardInput{
			UserID:      userID,
			ReferenceID: uuid.New(),
			Type:        types.PointsTypeAdjustment,
			Delta:       req.Delta,
			Reason:      req.Reason,
		})
		return txErr
	})
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to adjust points", err)
		return
	}

	response.Created(c, entry, "Points adjusted successfully.")
}
