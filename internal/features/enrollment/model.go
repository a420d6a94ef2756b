package enrollment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Enrollment ties a user to a course. Status moves strictly forward:
// NOT_STARTED -> IN_PROGRESS -> COMPLETED, driven by computed progress.
// COMPLETED is terminal; content removed afterwards never reopens it.
type Enrollment struct {
	types.BaseModel

	UserID   uuid.UUID `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_enrollments_user_course" json:"userId"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;column:course_id;uniqueIndex:idx_enrollments_user_course;index" json:"courseId"`

	Status   types.EnrollmentStatus `gorm:"type:varchar(20);not null;default:'NOT_STARTED'" json:"status"`
	Source   types.EnrollmentSource `gorm:"type:varchar(20);not null" json:"source"`
	Progress int                    `gorm:"type:int;not null;default:0" json:"progress"`

	StartedAt   *time.Time `gorm:"column:started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completedAt,omitempty"`
	DueDate     *time.Time `gorm:"column:due_date" json:"dueDate,omitempty"`
}

// TableName overrides the default table name.
func (Enrollment) TableName() string { return "enrollments" }

// EffectiveStatus returns the status clients should display. OVERDUE is
// derived here from the due date and never written to the row, so a due-date
// extension restores the underlying status on its own.
func (e *Enrollment) EffectiveStatus(now time.Time) types.EnrollmentStatus {
	if e.Status != types.EnrollmentCompleted && e.DueDate != nil && now.After(*e.DueDate) {
		return types.EnrollmentOverdue
	}
	return e.Status
}

// Enroll creates an enrollment for a user in a course. Enrolling twice is an
// idempotent no-op returning the existing row.
func Enroll(db *gorm.DB, userID, courseID uuid.UUID, source types.EnrollmentSource, dueDate *time.Time) (Enrollment, error) {
	enr := Enrollment{
		UserID:   userID,
		CourseID: courseID,
		Status:   types.EnrollmentNotStarted,
		Source:   source,
		DueDate:  dueDate,
	}

	err := db.Create(&enr).Error
	if err == nil {
		return enr, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Get(db, userID, courseID)
	}
	return Enrollment{}, err
}

// Get retrieves the enrollment of a user in a course.
func Get(db *gorm.DB, userID, courseID uuid.UUID) (Enrollment, error) {
	var enr Enrollment
	if err := db.First(&enr, "user_id = ? AND course_id = ?", userID, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enr, ErrNotEnrolled
		}
		return enr, err
	}
	return enr, nil
}

// ListForUser retrieves a user's enrollments.
func ListForUser(db *gorm.DB, userID uuid.UUID) ([]Enrollment, error) {
	var enrollments []Enrollment
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&enrollments).Error
	return enrollments, err
}

// ListForCourse retrieves paginated enrollments in a course.
func ListForCourse(db *gorm.DB, courseID uuid.UUID, params pagination.Params) ([]Enrollment, int64, error) {
	query := db.Model(&Enrollment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, total, err
	}

	var enrollments []Enrollment
	err := query.Order("created_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&enrollments).Error
	return enrollments, total, err
}

// SetDueDate updates the enrollment deadline.
func SetDueDate(db *gorm.DB, id uuid.UUID, dueDate *time.Time) (Enrollment, error) {
	var enr Enrollment
	if err := db.First(&enr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return enr, ErrNotEnrolled
		}
		return enr, err
	}

	enr.DueDate = dueDate
	if err := db.Save(&enr).Error; err != nil {
		return enr, err
	}
	return enr, nil
}

// ApplyProgress advances the enrollment state machine from a freshly computed
// progress percentage. Transitions only move forward and reapplying the same
// percentage changes nothing. COMPLETED is terminal even if percent later
// drops below 100.
func ApplyProgress(tx *gorm.DB, enr *Enrollment, percent int, now time.Time) error {
	if enr.Status == types.EnrollmentCompleted {
		return nil
	}

	changed := false
	if enr.Progress != percent {
		enr.Progress = percent
		changed = true
	}

	switch {
	case percent >= 100:
		if enr.StartedAt == nil {
			enr.StartedAt = &now
		}
		enr.Status = types.EnrollmentCompleted
		enr.CompletedAt = &now
		changed = true
	case percent > 0:
		if enr.Status == types.EnrollmentNotStarted {
			enr.Status = types.EnrollmentInProgress
			enr.StartedAt = &now
			changed = true
		}
	}

	if !changed {
		return nil
	}
	return tx.Save(enr).Error
}

// Unenroll removes an enrollment. Completed enrollments are kept for the
// record and cannot be removed.
func Unenroll(db *gorm.DB, userID, courseID uuid.UUID) error {
	enr, err := Get(db, userID, courseID)
	if err != nil {
		return err
	}
	if enr.Status == types.EnrollmentCompleted {
		return ErrCompletedEnrollment
	}
	return db.Delete(&enr).Error
}
