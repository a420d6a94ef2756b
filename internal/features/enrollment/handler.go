package enrollment

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/request"
	"github.com/skillbase/learn-server-go/pkg/response"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Handler processes enrollment HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs an enrollment handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

// View is an enrollment with its derived status attached.
type View struct {
	Enrollment
	EffectiveStatus types.EnrollmentStatus `json:"effectiveStatus"`
}

func viewOf(enr Enrollment, now time.Time) View {
	return View{Enrollment: enr, EffectiveStatus: enr.EffectiveStatus(now)}
}

func viewsOf(enrollments []Enrollment, now time.Time) []View {
	views := make([]View, 0, len(enrollments))
	for _, enr := range enrollments {
		views = append(views, viewOf(enr, now))
	}
	return views
}

// SelfEnroll enrolls the authenticated user in a published course.
func (h *Handler) SelfEnroll(c *gin.Context) {
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

	crs, err := course.Get(h.db, courseID)
	if err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}
	if !crs.Published {
		response.ErrorWithLog(h.logger, c, http.StatusConflict, ErrCourseUnpublished.Error(), ErrCourseUnpublished)
		return
	}

	enr, err := Enroll(h.db, u.ID, courseID, types.EnrollmentSourceSelf, nil)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to enroll", err)
		return
	}

	response.Created(c, viewOf(enr, time.Now()), "Enrolled successfully.")
}

// EnrollUser enrolls a specific user on behalf of a manager or admin.
func (h *Handler) EnrollUser(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	var req struct {
		UserID  string  `json:"userId" binding:"required"`
		DueDate *string `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid enrollment payload", err)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid user id", err)
		return
	}

	dueDate, err := request.ParseRFC3339Ptr(req.DueDate)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid due date", err)
		return
	}

	if _, err := course.Get(h.db, courseID); err != nil {
		if errors.Is(err, course.ErrCourseNotFound) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "course not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to load course", err)
		return
	}

	enr, err := Enroll(h.db, userID, courseID, types.EnrollmentSourceManual, dueDate)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to enroll user", err)
		return
	}

	response.Created(c, viewOf(enr, time.Now()), "User enrolled successfully.")
}

// ListMine returns the authenticated user's enrollments.
func (h *Handler) ListMine(c *gin.Context) {
	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	enrollments, err := ListForUser(h.db, u.ID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, viewsOf(enrollments, time.Now()), "", nil)
}

// ListForCourse returns paginated enrollments in a course.
func (h *Handler) ListForCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("courseId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid course id", err)
		return
	}

	params := pagination.Extract(c)

	enrollments, total, err := ListForCourse(h.db, courseID, params)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list enrollments", err)
		return
	}

	response.Success(c, http.StatusOK, viewsOf(enrollments, time.Now()), "", pagination.MetadataFrom(total, params))
}

// SetDueDate updates an enrollment's deadline.
func (h *Handler) SetDueDate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("enrollmentId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid enrollment id", err)
		return
	}

	var req struct {
		DueDate *string `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	dueDate, err := request.ParseRFC3339Ptr(req.DueDate)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid due date", err)
		return
	}

	enr, err := SetDueDate(h.db, id, dueDate)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, "enrollment not found", err)
			return
		}
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to update due date", err)
		return
	}

	response.Success(c, http.StatusOK, viewOf(enr, time.Now()), "Due date updated successfully.", nil)
}

// Unenroll removes the authenticated user's enrollment in a course.
func (h *Handler) Unenroll(c *gin.Context) {
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

	if err := Unenroll(h.db, u.ID, courseID); err != nil {
		switch {
		case errors.Is(err, ErrNotEnrolled):
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
		case errors.Is(err, ErrCompletedEnrollment):
			response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
		default:
			response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to unenroll", err)
		}
		return
	}

	response.Success(c, http.StatusOK, nil, "Unenrolled successfully.", nil)
}
