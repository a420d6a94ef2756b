package user

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

// Handler processes user HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a user handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated users scoped to the caller's company.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)

	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	filters := ListFilters{
		CompanyID: &companyID,
		Keyword:   c.Query("filterKeyword"),
	}
	if userType := c.Query("userType"); userType != "" {
		filters.UserTypes = []types.UserType{types.UserType(userType)}
	}

	users, total, err := List(h.db, filters, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list users", err)
		return
	}

	response.Success(c, http.StatusOK, users, "", pagination.MetadataFrom(total, params))
}

// Me returns the authenticated user's profile including the points total.
func (h *Handler) Me(c *gin.Context) {
	usr, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.ErrorWithLog(h.logger, c, http.StatusUnauthorized, "Authentication required.", nil)
		return
	}

	profile, err := Get(h.db, usr.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, profile, "", nil)
}

// Create inserts a new user in the caller's company.
func (h *Handler) Create(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	var req struct {
		FullName string         `json:"fullName" binding:"required"`
		Email    string         `json:"email" binding:"required"`
		Password string         `json:"password" binding:"required"`
		UserType types.UserType `json:"userType"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	usr, err := Create(h.db, CreateInput{
		CompanyID: &companyID,
		FullName:  req.FullName,
		Email:     req.Email,
		Password:  req.Password,
		UserType:  req.UserType,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrEmailInvalid), errors.Is(err, ErrPasswordTooShort):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create user", err)
		}
		return
	}

	response.Created(c, usr, "User created successfully.")
}

// Update modifies an existing user.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	var req struct {
		FullName *string         `json:"fullName"`
		Password *string         `json:"password"`
		UserType *types.UserType `json:"userType"`
		Active   *bool           `json:"isActive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user payload", err)
		return
	}

	usr, err := Update(h.db, id, UpdateInput{
		FullName: req.FullName,
		Password: req.Password,
		UserType: req.UserType,
		Active:   req.Active,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "user not found", err)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrPasswordTooShort):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update user", err)
		}
		return
	}

	response.Success(c, http.StatusOK, usr, "User updated successfully.", nil)
}

// Delete removes a user.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "user not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete user", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "User deleted successfully.", nil)
}
