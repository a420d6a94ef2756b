package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserType represents user role levels
type UserType string

const (
	UserTypeLearner    UserType = "learner"
	UserTypeManager    UserType = "manager"
	UserTypeAdmin      UserType = "admin"
	UserTypeSuperAdmin UserType = "superadmin"
	UserTypeAll        UserType = "all"
)

// EnrollmentStatus represents the lifecycle state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentNotStarted EnrollmentStatus = "NOT_STARTED"
	EnrollmentInProgress EnrollmentStatus = "IN_PROGRESS"
	EnrollmentCompleted  EnrollmentStatus = "COMPLETED"
	// EnrollmentOverdue is derived at read time from the due date; it is
	// never persisted as a status transition.
	EnrollmentOverdue EnrollmentStatus = "OVERDUE"
)

// EnrollmentSource records how a learner ended up enrolled.
type EnrollmentSource string

const (
	EnrollmentSourceSelf   EnrollmentSource = "SELF_ENROLL"
	EnrollmentSourceManual EnrollmentSource = "MANUAL"
	EnrollmentSourceTeam   EnrollmentSource = "TEAM_ASSIGNMENT"
)

// PointsType classifies ledger entries.
type PointsType string

const (
	PointsTypeCompletion  PointsType = "completion"
	PointsTypeAchievement PointsType = "achievement"
	PointsTypeBadge       PointsType = "badge"
	PointsTypeBonus       PointsType = "bonus"
	PointsTypeAdjustment  PointsType = "adjustment"
)

// UnlockType identifies the rule an achievement checks.
type UnlockType string

const (
	UnlockFirstChapter     UnlockType = "FIRST_CHAPTER"
	UnlockModuleCompletion UnlockType = "MODULE_COMPLETION"
	UnlockCourseCompletion UnlockType = "COURSE_COMPLETION"
)

// BlockKind identifies the content type of a lesson block.
type BlockKind string

const (
	BlockKindVideo       BlockKind = "video"
	BlockKindLiveSession BlockKind = "live_session"
	BlockKindText        BlockKind = "text"
	BlockKindQuiz        BlockKind = "quiz"
	BlockKindFlashcards  BlockKind = "flashcards"
)

// IsCompletable reports whether blocks of this kind count toward course
// progress (and carry a mirrored legacy chapter).
func (k BlockKind) IsCompletable() bool {
	return k == BlockKindVideo || k == BlockKindLiveSession
}

// IsValid reports whether the kind is one of the known block kinds.
func (k BlockKind) IsValid() bool {
	switch k {
	case BlockKindVideo, BlockKindLiveSession, BlockKindText, BlockKindQuiz, BlockKindFlashcards:
		return true
	}
	return false
}

// QuestionType identifies how a quiz question is answered and scored.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
)

// IsValid reports whether the type is one of the known question types.
func (t QuestionType) IsValid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer:
		return true
	}
	return false
}

// BaseModel contains common fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// BeforeCreate assigns an ID when the caller did not. Generating the UUID in
// the application keeps the models portable across the postgres and sqlite
// drivers.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
