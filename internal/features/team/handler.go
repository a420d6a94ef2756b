package team

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/request"
	"github.com/skillbase/learn-server-go/pkg/response"
)

// Handler processes team HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a team handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTeamNotFound), errors.Is(err, ErrMemberNotFound):
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrNameRequired):
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}

// List returns a company's teams.
func (h *Handler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	teams, err := List(h.db, companyID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list teams", err)
		return
	}

	response.Success(c, http.StatusOK, teams, "", nil)
}

// GetByID returns a team with its members.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}

	t, err := Get(h.db, id)
	if err != nil {
		h.fail(c, err, "failed to load team")
		return
	}

	members, err := Members(h.db, id)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load members", err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"team": t, "members": members}, "", nil)
}

type teamRequest struct {
	Name      string  `json:"name"`
	ManagerID *string `json:"managerId"`
}

func (r *teamRequest) managerUUID() (*uuid.UUID, error) {
	if r.ManagerID == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*r.ManagerID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Create inserts a team.
func (h *Handler) Create(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("companyId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid company id", err)
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team payload", err)
		return
	}

	managerID, err := req.managerUUID()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid manager id", err)
		return
	}

	t, err := Create(h.db, companyID, req.Name, managerID)
	if err != nil {
		h.fail(c, err, "failed to create team")
		return
	}

	response.Created(c, t, "Team created successfully.")
}

// Update modifies a team.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team payload", err)
		return
	}

	managerID, err := req.managerUUID()
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid manager id", err)
		return
	}

	t, err := Update(h.db, id, req.Name, managerID)
	if err != nil {
		h.fail(c, err, "failed to update team")
		return
	}

	response.Success(c, http.StatusOK, t, "Team updated successfully.", nil)
}

// Delete removes a team.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.fail(c, err, "failed to delete team")
		return
	}

	response.Success(c, http.StatusOK, nil, "Team deleted successfully.", nil)
}

// AddMember links a user to a team.
func (h *Handler) AddMember(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}

	var req struct {
		UserID string `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid member payload", err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	m, err := AddMember(h.db, teamID, userID)
	if err != nil {
		h.fail(c, err, "failed to add member")
		return
	}

	response.Created(c, m, "Member added successfully.")
}

// RemoveMember unlinks a user from a team.
func (h *Handler) RemoveMember(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	if err := RemoveMember(h.db, teamID, userID); err != nil {
		h.fail(c, err, "failed to remove member")
		return
	}

	response.Success(c, http.StatusOK, nil, "Member removed successfully.", nil)
}

// AssignCourse enrolls every team member in a course.
func (h *Handler) AssignCourse(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("teamId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid team id", err)
		return
	}

	var req struct {
		CourseID string  `json:"courseId" binding:"required"`
		DueDate  *string `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid assignment payload", err)
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	dueDate, err := request.ParseRFC3339Ptr(req.DueDate)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid due date", err)
		return
	}

	enrolled, err := AssignCourse(h.db, teamID, courseID, dueDate)
	if err != nil {
		h.fail(c, err, "failed to assign course")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"enrolled": enrolled}, "Course assigned to team.", nil)
}
