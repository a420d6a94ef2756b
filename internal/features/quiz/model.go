package quiz

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/types"
)

// Quiz belongs to a lesson; passing it completes that lesson.
type Quiz struct {
	types.BaseModel

	LessonID     uuid.UUID `gorm:"type:uuid;not null;column:lesson_id;index" json:"lessonId"`
	Title        string    `gorm:"type:varchar(160);not null" json:"title"`
	PassScore    int       `gorm:"type:int;not null;default:0;column:pass_score" json:"passScore"`
	PointsReward int       `gorm:"type:int;not null;default:0;column:points_reward" json:"pointsReward"`
	Published    bool      `gorm:"type:boolean;not null;default:false;column:is_published" json:"isPublished"`

	Questions []Question `gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// TableName overrides the default table name.
func (Quiz) TableName() string { return "quizzes" }

// Question holds one prompt. Points, when positive, is a flat score that
// overrides the summed option points for a fully correct answer.
type Question struct {
	types.BaseModel

	QuizID   uuid.UUID          `gorm:"type:uuid;not null;column:quiz_id;index" json:"quizId"`
	Type     types.QuestionType `gorm:"type:varchar(20);not null" json:"type"`
	Prompt   string             `gorm:"type:varchar(2000);not null" json:"prompt"`
	Points   int                `gorm:"type:int;not null;default:0" json:"points"`
	Position int                `gorm:"type:int;not null;default:0" json:"position"`

	Options []Option `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// TableName overrides the default table name.
func (Question) TableName() string { return "quiz_questions" }

// Option is one selectable answer.
type Option struct {
	types.BaseModel

	QuestionID uuid.UUID `gorm:"type:uuid;not null;column:question_id;index" json:"questionId"`
	Text       string    `gorm:"type:varchar(500);not null" json:"text"`
	Correct    bool      `gorm:"type:boolean;not null;default:false;column:is_correct" json:"isCorrect"`
	Points     int       `gorm:"type:int;not null;default:0" json:"points"`
	Position   int       `gorm:"type:int;not null;default:0" json:"position"`
}

// TableName overrides the default table name.
func (Option) TableName() string { return "quiz_options" }

// Attempt is one learner's run through a quiz. Submission is terminal:
// SubmittedAt set means the attempt can never be scored again.
type Attempt struct {
	types.BaseModel

	QuizID uuid.UUID `gorm:"type:uuid;not null;column:quiz_id;index" json:"quizId"`
	UserID uuid.UUID `gorm:"type:uuid;not null;column:user_id;index" json:"userId"`

	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submittedAt,omitempty"`
	Score       int        `gorm:"type:int;not null;default:0" json:"score"`
	MaxScore    int        `gorm:"type:int;not null;default:0;column:max_score" json:"maxScore"`
	Percent     int        `gorm:"type:int;not null;default:0" json:"percent"`
	Passed      bool       `gorm:"type:boolean;not null;default:false" json:"passed"`

	Answers []Answer `gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// TableName overrides the default table name.
func (Attempt) TableName() string { return "quiz_attempts" }

// Answer holds the learner's response to one question.
type Answer struct {
	types.BaseModel

	AttemptID  uuid.UUID `gorm:"type:uuid;not null;column:attempt_id;index" json:"attemptId"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;column:question_id" json:"questionId"`

	SelectedOptionIDs pq.StringArray `gorm:"type:text[];column:selected_option_ids" json:"selectedOptionIds"`
	FreeText          *string        `gorm:"type:text;column:free_text" json:"freeText,omitempty"`
	Correct           bool           `gorm:"type:boolean;not null;default:false;column:is_correct" json:"isCorrect"`
	ScoreAwarded      int            `gorm:"type:int;not null;default:0;column:score_awarded" json:"scoreAwarded"`
}

// TableName overrides the default table name.
func (Answer) TableName() string { return "quiz_answers" }

// QuizInput carries data for creating or updating a quiz.
type QuizInput struct {
	Title        string
	PassScore    *int
	PointsReward *int
	Published    *bool
}

// OptionInput carries one option of a new question.
type OptionInput struct {
	Text     string
	Correct  bool
	Points   int
	Position int
}

// QuestionInput carries a new question with its options.
type QuestionInput struct {
	Type     types.QuestionType
	Prompt   string
	Points   int
	Position int
	Options  []OptionInput
}

// Get retrieves a quiz with questions and options.
func Get(db *gorm.DB, id uuid.UUID) (Quiz, error) {
	var q Quiz
	err := db.Preload("Questions", func(tx *gorm.DB) *gorm.DB { return tx.Order("quiz_questions.position ASC") }).
		Preload("Questions.Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("quiz_options.position ASC") }).
		First(&q, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return q, ErrQuizNotFound
		}
		return q, err
	}
	return q, nil
}

// ListForLesson retrieves the quizzes of a lesson.
func ListForLesson(db *gorm.DB, lessonID uuid.UUID) ([]Quiz, error) {
	var quizzes []Quiz
	err := db.Where("lesson_id = ?", lessonID).Order("created_at ASC").Find(&quizzes).Error
	return quizzes, err
}

// Create inserts a quiz on a lesson.
func Create(db *gorm.DB, lessonID uuid.UUID, input QuizInput) (Quiz, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Quiz{}, ErrTitleRequired
	}

	q := Quiz{LessonID: lessonID, Title: title}
	if input.PassScore != nil {
		if *input.PassScore < 0 || *input.PassScore > 100 {
			return Quiz{}, ErrPassScoreInvalid
		}
		q.PassScore = *input.PassScore
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return Quiz{}, ErrPointsInvalid
		}
		q.PointsReward = *input.PointsReward
	}
	if input.Published != nil {
		q.Published = *input.Published
	}

	if err := db.Create(&q).Error; err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// Update modifies a quiz.
func Update(db *gorm.DB, id uuid.UUID, input QuizInput) (Quiz, error) {
	var q Quiz
	if err := db.First(&q, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return q, ErrQuizNotFound
		}
		return q, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		q.Title = title
	}
	if input.PassScore != nil {
		if *input.PassScore < 0 || *input.PassScore > 100 {
			return q, ErrPassScoreInvalid
		}
		q.PassScore = *input.PassScore
	}
	if input.PointsReward != nil {
		if *input.PointsReward < 0 {
			return q, ErrPointsInvalid
		}
		q.PointsReward = *input.PointsReward
	}
	if input.Published != nil {
		q.Published = *input.Published
	}

	if err := db.Save(&q).Error; err != nil {
		return q, err
	}
	return q, nil
}

// Delete removes a quiz with its questions, options, attempts and answers.
func Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var q Quiz
		if err := tx.First(&q, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrQuizNotFound
			}
			return err
		}

		if err := tx.Exec("DELETE FROM quiz_answers WHERE attempt_id IN (SELECT id FROM quiz_attempts WHERE quiz_id = ?)", id).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&Attempt{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM quiz_options WHERE question_id IN (SELECT id FROM quiz_questions WHERE quiz_id = ?)", id).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&q).Error
	})
}

// AddQuestion inserts a question with its options.
func AddQuestion(db *gorm.DB, quizID uuid.UUID, input QuestionInput) (Question, error) {
	if _, err := Get(db, quizID); err != nil {
		return Question{}, err
	}

	if !input.Type.IsValid() {
		return Question{}, ErrQuestionTypeInvalid
	}
	prompt := strings.TrimSpace(input.Prompt)
	if prompt == "" {
		return Question{}, ErrPromptRequired
	}
	if input.Points < 0 {
		return Question{}, ErrPointsInvalid
	}
	if input.Type != types.QuestionShortAnswer && len(input.Options) == 0 {
		return Question{}, ErrOptionsRequired
	}

	question := Question{
		QuizID:   quizID,
		Type:     input.Type,
		Prompt:   prompt,
		Points:   input.Points,
		Position: input.Position,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		for _, opt := range input.Options {
			text := strings.TrimSpace(opt.Text)
			if text == "" {
				return ErrOptionTextRequired
			}
			if opt.Points < 0 {
				return ErrPointsInvalid
			}
			option := Option{
				QuestionID: question.ID,
				Text:       text,
				Correct:    opt.Correct,
				Points:     opt.Points,
				Position:   opt.Position,
			}
			if err := tx.Create(&option).Error; err != nil {
				return err
			}
			question.Options = append(question.Options, option)
		}
		return nil
	})
	if err != nil {
		return Question{}, err
	}
	return question, nil
}

// DeleteQuestion removes a question and its options.
func DeleteQuestion(db *gorm.DB, id uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var question Question
		if err := tx.First(&question, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrQuestionNotFound
			}
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&question).Error
	})
}
