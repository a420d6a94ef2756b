package quiz

import (
	"errors"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/services/completion"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID        uuid.UUID
	SelectedOptionIDs []uuid.UUID
	FreeText          *string
}

// SubmitResult is what the quiz-taking client gets back.
type SubmitResult struct {
	Score    int  `json:"score"`
	MaxScore int  `json:"maxScore"`
	Percent  int  `json:"percent"`
	Passed   bool `json:"passed"`
}

// StartAttempt opens an attempt on a published quiz. An existing unsubmitted
// attempt is returned instead of opening a second one; submitted attempts
// are terminal, so a retake opens a fresh attempt.
func StartAttempt(db *gorm.DB, quizID, userID uuid.UUID) (Attempt, error) {
	var q Quiz
	if err := db.First(&q, "id = ?", quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Attempt{}, ErrQuizNotFound
		}
		return Attempt{}, err
	}
	if !q.Published {
		return Attempt{}, ErrQuizUnpublished
	}

	var open Attempt
	err := db.First(&open, "quiz_id = ? AND user_id = ? AND submitted_at IS NULL", quizID, userID).Error
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Attempt{}, err
	}

	attempt := Attempt{QuizID: quizID, UserID: userID}
	if err := db.Create(&attempt).Error; err != nil {
		return Attempt{}, err
	}
	return attempt, nil
}

// SubmitAttempt scores the submitted answers and closes the attempt.
// Submission is one-way: a second submit is rejected, inside the transaction
// so two concurrent submits cannot both pass the guard. Answers are
// persisted before pass/fail is decided; on pass the quiz's points are
// awarded and the owning lesson is completed, all in the same transaction.
func SubmitAttempt(db *gorm.DB, logger *slog.Logger, attemptID, userID uuid.UUID, answers []AnswerInput) (SubmitResult, error) {
	var res SubmitResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var attempt Attempt
		if err := tx.First(&attempt, "id = ? AND user_id = ?", attemptID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAttemptNotFound
			}
			return err
		}
		if attempt.SubmittedAt != nil {
			return ErrAlreadySubmitted
		}

		q, err := Get(tx, attempt.QuizID)
		if err != nil {
			return err
		}

		byQuestion := make(map[uuid.UUID]AnswerInput, len(answers))
		for _, ans := range answers {
			byQuestion[ans.QuestionID] = ans
		}

		total := 0
		maxScore := 0
		for _, question := range q.Questions {
			maxScore += questionMax(question)

			ans, answered := byQuestion[question.ID]
			correct, score, err := scoreAnswer(question, ans, answered)
			if err != nil {
				return err
			}
			total += score

			row := Answer{
				AttemptID:    attempt.ID,
				QuestionID:   question.ID,
				FreeText:     ans.FreeText,
				Correct:      correct,
				ScoreAwarded: score,
			}
			if answered {
				row.SelectedOptionIDs = optionIDStrings(ans.SelectedOptionIDs)
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		percent := 0
		if maxScore > 0 {
			percent = (total*100*2 + maxScore) / (maxScore * 2)
		}
		passed := percent >= q.PassScore

		now := time.Now()
		attempt.SubmittedAt = &now
		attempt.Score = total
		attempt.MaxScore = maxScore
		attempt.Percent = percent
		attempt.Passed = passed
		if err := tx.Save(&attempt).Error; err != nil {
			return err
		}

		if passed {
			if q.PointsReward > 0 {
				_, _, err := points.Award(tx, points.AwardInput{
					UserID:      userID,
					ReferenceID: q.ID,
					Type:        types.PointsTypeCompletion,
					Delta:       q.PointsReward,
					Reason:      "Quiz passed: " + q.Title,
				})
				if err != nil {
					return err
				}
			}
			if _, err := completion.CompleteLesson(tx, logger, userID, q.LessonID); err != nil {
				return err
			}
		}

		res = SubmitResult{Score: total, MaxScore: maxScore, Percent: percent, Passed: passed}
		return nil
	})
	return res, err
}

// questionMax is the flat points when defined, else the sum of the
// correct-option points.
func questionMax(question Question) int {
	if question.Points > 0 {
		return question.Points
	}
	sum := 0
	for _, opt := range question.Options {
		if opt.Correct {
			sum += opt.Points
		}
	}
	return sum
}

// scoreAnswer evaluates one question independently of the rest. Short-answer
// questions are never auto-scored. Choice questions are correct only on an
// exact match of the selected set against the correct set; a superset or
// subset is wrong. Awarded score sums the selected correct options, with the
// question's flat points overriding on a fully correct answer.
func scoreAnswer(question Question, ans AnswerInput, answered bool) (bool, int, error) {
	if question.Type == types.QuestionShortAnswer {
		return false, 0, nil
	}
	if !answered {
		return false, 0, nil
	}

	known := make(map[uuid.UUID]Option, len(question.Options))
	correctCount := 0
	for _, opt := range question.Options {
		known[opt.ID] = opt
		if opt.Correct {
			correctCount++
		}
	}

	score := 0
	selectedCorrect := 0
	seen := make(map[uuid.UUID]bool, len(ans.SelectedOptionIDs))
	for _, id := range ans.SelectedOptionIDs {
		opt, ok := known[id]
		if !ok {
			return false, 0, ErrUnknownOption
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if opt.Correct {
			selectedCorrect++
			score += opt.Points
		}
	}

	exact := len(seen) == correctCount && selectedCorrect == correctCount && correctCount > 0
	if exact && question.Points > 0 {
		score = question.Points
	}
	return exact, score, nil
}

func optionIDStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
