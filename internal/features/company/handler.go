package company

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes company HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a company handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// List returns paginated companies.
func (h *Handler) List(c *gin.Context) {
	params := pagination.Extract(c)

	companies, total, err := List(h.db, c.Query("filterKeyword"), params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list companies", err)
		return
	}

	response.Success(c, http.StatusOK, companies, "", pagination.MetadataFrom(total, params))
}

// GetByID returns a single company.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	company, err := Get(h.db, id)
	if err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "company not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load company", err)
		return
	}

	response.Success(c, http.StatusOK, company, "", nil)
}

// Create inserts a new company.
func (h *Handler) Create(c *gin.Context) {
	var req struct {
		Name       string  `json:"name" binding:"required"`
		Identifier string  `json:"identifier" binding:"required"`
		LogoURL    *string `json:"logoUrl"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company payload", err)
		return
	}

	company, err := Create(h.db, CreateInput{
		Name:       req.Name,
		Identifier: req.Identifier,
		LogoURL:    req.LogoURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrIdentifierTaken):
			response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameLength), errors.Is(err, ErrIdentifierInvalid):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to create company", err)
		}
		return
	}

	response.Created(c, company, "Company created successfully.")
}

// Update modifies an existing company.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company payload", err)
		return
	}

	input := UpdateInput{}
	if v, ok := raw["name"].(string); ok {
		input.Name = &v
	}
	if _, ok := raw["logoUrl"]; ok {
		input.LogoURLProvided = true
		if v, ok := raw["logoUrl"].(string); ok {
			input.LogoURL = &v
		}
	}
	if v, ok := raw["isActive"].(bool); ok {
		input.Active = &v
	}

	company, err := Update(h.db, id, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrCompanyNotFound):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "company not found", err)
		case errors.Is(err, ErrNameRequired), errors.Is(err, ErrNameLength):
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update company", err)
		}
		return
	}

	response.Success(c, http.StatusOK, company, "Company updated successfully.", nil)
}

// Delete removes a company.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		if errors.Is(err, ErrCompanyNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "company not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to delete company", err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Company deleted successfully.", nil)
}
