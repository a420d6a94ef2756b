package quiz

import (
	"errors"
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/middleware"
	"github.com/skillbase/learn-server-go/internal/services/completion"
	"github.com/skillbase/learn-server-go/pkg/response"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// Handler processes quiz HTTP requests.
type Handler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewHandler constructs a quiz handler instance.
func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{db: db, logger: logger}
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrQuizNotFound), errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrAttemptNotFound):
		response.ErrorWithLog(h.logger, c, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, ErrAlreadySubmitted), errors.Is(err, ErrQuizUnpublished):
		response.ErrorWithLog(h.logger, c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, completion.ErrNotEnrolled):
		response.ErrorWithLog(h.logger, c, http.StatusForbidden, err.Error(), err)
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrPromptRequired), errors.Is(err, ErrOptionTextRequired),
		errors.Is(err, ErrOptionsRequired), errors.Is(err, ErrQuestionTypeInvalid), errors.Is(err, ErrPassScoreInvalid),
		errors.Is(err, ErrPointsInvalid), errors.Is(err, ErrUnknownOption):
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, err.Error(), err)
	default:
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, fallback, err)
	}
}

// learnerView strips scoring data before a quiz reaches a learner.
func learnerView(q Quiz) gin.H {
	questions := make([]gin.H, 0, len(q.Questions))
	for _, question := range q.Questions {
		options := make([]gin.H, 0, len(question.Options))
		for _, opt := range question.Options {
			options = append(options, gin.H{"id": opt.ID, "text": opt.Text, "position": opt.Position})
		}
		questions = append(questions, gin.H{
			"id":       question.ID,
			"type":     question.Type,
			"prompt":   question.Prompt,
			"position": question.Position,
			"options":  options,
		})
	}
	return gin.H{
		"id":        q.ID,
		"lessonId":  q.LessonID,
		"title":     q.Title,
		"passScore": q.PassScore,
		"questions": questions,
	}
}

// GetByID returns a quiz. Learners get it without correct flags or points.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	q, err := Get(h.db, id)
	if err != nil {
		h.fail(c, err, "failed to load quiz")
		return
	}

	if u, ok := middleware.GetUserFromContext(c); ok && u.UserType == types.UserTypeLearner {
		if !q.Published {
			response.ErrorWithLog(h.logger, c, http.StatusNotFound, ErrQuizNotFound.Error(), ErrQuizNotFound)
			return
		}
		response.Success(c, http.StatusOK, learnerView(q), "", nil)
		return
	}

	response.Success(c, http.StatusOK, q, "", nil)
}

// ListForLesson returns the quizzes of a lesson.
func (h *Handler) ListForLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	quizzes, err := ListForLesson(h.db, lessonID)
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list quizzes", err)
		return
	}

	response.Success(c, http.StatusOK, quizzes, "", nil)
}

// Create inserts a quiz on a lesson.
func (h *Handler) Create(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("lessonId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid lesson id", err)
		return
	}

	var req struct {
		Title        string `json:"title" binding:"required"`
		PassScore    *int   `json:"passScore"`
		PointsReward *int   `json:"pointsReward"`
		Published    *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz payload", err)
		return
	}

	q, err := Create(h.db, lessonID, QuizInput{
		Title:        req.Title,
		PassScore:    req.PassScore,
		PointsReward: req.PointsReward,
		Published:    req.Published,
	})
	if err != nil {
		h.fail(c, err, "failed to create quiz")
		return
	}

	response.Created(c, q, "Quiz created successfully.")
}

// Update modifies a quiz.
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	var req struct {
		Title        string `json:"title"`
		PassScore    *int   `json:"passScore"`
		PointsReward *int   `json:"pointsReward"`
		Published    *bool  `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz payload", err)
		return
	}

	q, err := Update(h.db, id, QuizInput{
		Title:        req.Title,
		PassScore:    req.PassScore,
		PointsReward: req.PointsReward,
		Published:    req.Published,
	})
	if err != nil {
		h.fail(c, err, "failed to update quiz")
		return
	}

	response.Success(c, http.StatusOK, q, "Quiz updated successfully.", nil)
}

// Delete removes a quiz.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	if err := Delete(h.db, id); err != nil {
		h.fail(c, err, "failed to delete quiz")
		return
	}

	response.Success(c, http.StatusOK, nil, "Quiz deleted successfully.", nil)
}

// AddQuestion inserts a question with options.
func (h *Handler) AddQuestion(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	var req struct {
		Type     types.QuestionType `json:"type" binding:"required"`
		Prompt   string             `json:"prompt" binding:"required"`
		Points   int                `json:"points"`
		Position int                `json:"position"`
		Options  []struct {
			Text     string `json:"text" binding:"required"`
			Correct  bool   `json:"isCorrect"`
			Points   int    `json:"points"`
			Position int    `json:"position"`
		} `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid question payload", err)
		return
	}

	input := QuestionInput{
		Type:     req.Type,
		Prompt:   req.Prompt,
		Points:   req.Points,
		Position: req.Position,
	}
	for _, opt := range req.Options {
		input.Options = append(input.Options, OptionInput{
			Text:     opt.Text,
			Correct:  opt.Correct,
			Points:   opt.Points,
			Position: opt.Position,
		})
	}

	question, err := AddQuestion(h.db, quizID, input)
	if err != nil {
		h.fail(c, err, "failed to add question")
		return
	}

	response.Created(c, question, "Question added successfully.")
}

// DeleteQuestion removes a question.
func (h *Handler) DeleteQuestion(c *gin.Context) {
	id, err := uuid.Parse(c.Param("questionId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid question id", err)
		return
	}

	if err := DeleteQuestion(h.db, id); err != nil {
		h.fail(c, err, "failed to delete question")
		return
	}

	response.Success(c, http.StatusOK, nil, "Question deleted successfully.", nil)
}

// StartAttempt opens an attempt for the authenticated user.
func (h *Handler) StartAttempt(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	attempt, err := StartAttempt(h.db, quizID, u.ID)
	if err != nil {
		h.fail(c, err, "failed to start attempt")
		return
	}

	response.Created(c, attempt, "Attempt started.")
}

// SubmitAttempt scores and closes an attempt.
func (h *Handler) SubmitAttempt(c *gin.Context) {
	attemptID, err := uuid.Parse(c.Param("attemptId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid attempt id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var req struct {
		Answers []struct {
			QuestionID        string   `json:"questionId" binding:"required"`
			SelectedOptionIDs []string `json:"selectedOptionIds"`
			FreeText          *string  `json:"freeText"`
		} `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid submission payload", err)
		return
	}

	answers := make([]AnswerInput, 0, len(req.Answers))
	for _, ans := range req.Answers {
		questionID, err := uuid.Parse(ans.QuestionID)
		if err != nil {
			response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid question id", err)
			return
		}
		input := AnswerInput{QuestionID: questionID, FreeText: ans.FreeText}
		for _, raw := range ans.SelectedOptionIDs {
			optionID, err := uuid.Parse(raw)
			if err != nil {
				response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid option id", err)
				return
			}
			input.SelectedOptionIDs = append(input.SelectedOptionIDs, optionID)
		}
		answers = append(answers, input)
	}

	res, err := SubmitAttempt(h.db, h.logger, attemptID, u.ID, answers)
	if err != nil {
		h.fail(c, err, "failed to submit attempt")
		return
	}

	response.Success(c, http.StatusOK, res, "Attempt submitted.", nil)
}

// ListMyAttempts returns the authenticated user's attempts on a quiz.
func (h *Handler) ListMyAttempts(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("quizId"))
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusBadRequest, "invalid quiz id", err)
		return
	}

	u, ok := middleware.GetUserFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	var attempts []Attempt
	err = h.db.Where("quiz_id = ? AND user_id = ?", quizID, u.ID).
		Order("created_at DESC").Find(&attempts).Error
	if err != nil {
		response.ErrorWithLog(h.logger, c, http.StatusInternalServerError, "failed to list attempts", err)
		return
	}

	response.Success(c, http.StatusOK, attempts, "", nil)
}
