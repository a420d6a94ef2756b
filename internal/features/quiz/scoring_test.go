package quiz_test

import (
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/features/quiz"
	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/pkg/database"
	"github.com/skillbase/learn-server-go/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type quizFixture struct {
	user     user.User
	courseID uuid.UUID
	lesson   content.Lesson
	quiz     quiz.Quiz
}

// newQuizFixture seeds a course skeleton, an enrolled learner and a published
// quiz on the lesson.
func newQuizFixture(t *testing.T, db *gorm.DB, passScore, pointsReward int) quizFixture {
	t.Helper()

	u := user.User{
		FullName: "Quiz Taker",
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		UserType: types.UserTypeLearner,
		Active:   true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	courseID := uuid.New()
	mod := content.CourseModule{CourseID: courseID, Title: "Module", Published: true}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	lsn := content.Lesson{ModuleID: mod.ID, Title: "Lesson", Published: true}
	if err := db.Create(&lsn).Error; err != nil {
		t.Fatalf("seed lesson: %v", err)
	}

	if _, err := enrollment.Enroll(db, u.ID, courseID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	published := true
	q, err := quiz.Create(db, lsn.ID, quiz.QuizInput{
		Title:        "Checkpoint",
		PassScore:    &passScore,
		PointsReward: &pointsReward,
		Published:    &published,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	return quizFixture{user: u, courseID: courseID, lesson: lsn, quiz: q}
}

func optionID(t *testing.T, question quiz.Question, text string) uuid.UUID {
	t.Helper()
	for _, opt := range question.Options {
		if opt.Text == text {
			return opt.ID
		}
	}
	t.Fatalf("option %q not found", text)
	return uuid.Nil
}

func TestSubmitAttemptScoring(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 70, 0)

	// True/false worth 1 point through its correct option.
	tf, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionTrueFalse,
		Prompt: "The sky is blue.",
		Options: []quiz.OptionInput{
			{Text: "True", Correct: true, Points: 1},
			{Text: "False"},
		},
	})
	if err != nil {
		t.Fatalf("add tf question: %v", err)
	}

	// Multiple choice with flat 5 points and two correct options.
	mc, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:     types.QuestionMultipleChoice,
		Prompt:   "Pick the primary colors.",
		Points:   5,
		Position: 1,
		Options: []quiz.OptionInput{
			{Text: "Red", Correct: true, Points: 2},
			{Text: "Blue", Correct: true, Points: 2},
			{Text: "Green"},
		},
	})
	if err != nil {
		t.Fatalf("add mc question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, tf, "True")}},
		{QuestionID: mc.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, mc, "Red"), optionID(t, mc, "Blue")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// TF pays its option point; the fully correct MC pays the flat 5, not
	// the option sum.
	if res.Score != 6 || res.MaxScore != 6 {
		t.Errorf("score = %d/%d, want 6/6", res.Score, res.MaxScore)
	}
	if res.Percent != 100 {
		t.Errorf("percent = %d, want 100", res.Percent)
	}
	if !res.Passed {
		t.Error("attempt should pass at 100% against a 70 pass score")
	}
}

func TestSubmitAttemptSupersetIsWrong(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 0)

	mc, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionMultipleChoice,
		Prompt: "Pick the even numbers.",
		Points: 4,
		Options: []quiz.OptionInput{
			{Text: "2", Correct: true, Points: 2},
			{Text: "4", Correct: true, Points: 2},
			{Text: "7"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	// All three selected: both correct options are paid but the answer is
	// not an exact match, so the flat points do not apply and the question
	// is wrong.
	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: mc.ID, SelectedOptionIDs: []uuid.UUID{
			optionID(t, mc, "2"), optionID(t, mc, "4"), optionID(t, mc, "7"),
		}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 4 || res.MaxScore != 4 {
		t.Errorf("score = %d/%d, want 4/4 from summed correct options", res.Score, res.MaxScore)
	}

	var answer quiz.Answer
	if err := db.First(&answer, "attempt_id = ?", attempt.ID).Error; err != nil {
		t.Fatalf("load answer: %v", err)
	}
	if answer.Correct {
		t.Error("superset selection marked correct")
	}
}

func TestSubmitAttemptSubsetIsWrong(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 90, 0)

	mc, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionMultipleChoice,
		Prompt: "Pick the even numbers.",
		Options: []quiz.OptionInput{
			{Text: "2", Correct: true, Points: 3},
			{Text: "4", Correct: true, Points: 3},
			{Text: "7"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: mc.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, mc, "2")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 3 || res.MaxScore != 6 {
		t.Errorf("score = %d/%d, want 3/6", res.Score, res.MaxScore)
	}
	if res.Passed {
		t.Error("half-right answer passed a 90 pass score")
	}
}

func TestShortAnswerNeverAutoScored(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 0, 0)

	sa, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionShortAnswer,
		Prompt: "Explain polymorphism.",
		Points: 10,
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	text := "It is when types share an interface."
	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: sa.ID, FreeText: &text},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("score = %d, want 0 for ungraded short answer", res.Score)
	}
	if res.MaxScore != 10 {
		t.Errorf("maxScore = %d, want 10", res.MaxScore)
	}

	var answer quiz.Answer
	if err := db.First(&answer, "attempt_id = ?", attempt.ID).Error; err != nil {
		t.Fatalf("load answer: %v", err)
	}
	if answer.FreeText == nil || *answer.FreeText != text {
		t.Error("free text not persisted for later review")
	}
	if answer.Correct {
		t.Error("short answer auto-marked correct")
	}
}

func TestSubmitAttemptEmptyQuizScoresZero(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 0)

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Percent != 0 || res.Passed {
		t.Errorf("empty quiz: percent = %d passed = %v, want 0/false", res.Percent, res.Passed)
	}
}

func TestResubmitRejected(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 100, 0)

	tf, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionTrueFalse,
		Prompt: "Water is wet.",
		Options: []quiz.OptionInput{
			{Text: "True", Correct: true, Points: 1},
			{Text: "False"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	answers := []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, tf, "False")}},
	}
	if _, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, answers); err != nil {
		t.Fatalf("submit: %v", err)
	}

	var answerRows, ledgerRows int64
	if err := db.Model(&quiz.Answer{}).Count(&answerRows).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if err := db.Model(&points.LedgerEntry{}).Count(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}

	// The second submit, better answers and all, must bounce off the
	// terminal attempt without touching the stored rows.
	better := []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, tf, "True")}},
	}
	if _, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, better); !errors.Is(err, quiz.ErrAlreadySubmitted) {
		t.Fatalf("resubmit: %v, want ErrAlreadySubmitted", err)
	}

	var afterAnswers, afterLedger int64
	if err := db.Model(&quiz.Answer{}).Count(&afterAnswers).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if err := db.Model(&points.LedgerEntry{}).Count(&afterLedger).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if afterAnswers != answerRows || afterLedger != ledgerRows {
		t.Errorf("resubmit changed rows: answers %d -> %d, ledger %d -> %d",
			answerRows, afterAnswers, ledgerRows, afterLedger)
	}
}

func TestPassAwardsPointsAndCompletesLesson(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 30)

	tf, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionTrueFalse,
		Prompt: "Go has goroutines.",
		Options: []quiz.OptionInput{
			{Text: "True", Correct: true, Points: 1},
			{Text: "False"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}

	res, err := quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, tf, "True")}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Passed {
		t.Fatal("expected a pass")
	}

	total, err := points.TotalForUser(db, fx.user.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 30 {
		t.Errorf("points after pass = %d, want 30", total)
	}

	var lessonCompletions int64
	err = db.Table("lesson_completions").
		Where("user_id = ? AND lesson_id = ? AND is_completed = ?", fx.user.ID, fx.lesson.ID, true).
		Count(&lessonCompletions).Error
	if err != nil {
		t.Fatalf("count lesson completions: %v", err)
	}
	if lessonCompletions != 1 {
		t.Errorf("lesson completions = %d, want 1", lessonCompletions)
	}

	// A retake after passing reopens nothing and pays nothing extra.
	retake, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("retake: %v", err)
	}
	if retake.ID == attempt.ID {
		t.Error("retake reused the submitted attempt")
	}
	if _, err := quiz.SubmitAttempt(db, discardLogger(), retake.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{optionID(t, tf, "True")}},
	}); err != nil {
		t.Fatalf("retake submit: %v", err)
	}
	total, err = points.TotalForUser(db, fx.user.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 30 {
		t.Errorf("points after retake = %d, want 30", total)
	}
}

func TestStartAttemptReusesOpenAttempt(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 0)

	first, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("open attempt not reused: %s != %s", second.ID, first.ID)
	}
}

func TestStartAttemptUnpublishedQuiz(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 0)

	unpublished := false
	if _, err := quiz.Update(db, fx.quiz.ID, quiz.QuizInput{Published: &unpublished}); err != nil {
		t.Fatalf("unpublish: %v", err)
	}

	if _, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID); !errors.Is(err, quiz.ErrQuizUnpublished) {
		t.Errorf("start on unpublished quiz: %v, want ErrQuizUnpublished", err)
	}
}

func TestSubmitUnknownOptionRejected(t *testing.T) {
	db := openTestDB(t)
	fx := newQuizFixture(t, db, 50, 0)

	tf, err := quiz.AddQuestion(db, fx.quiz.ID, quiz.QuestionInput{
		Type:   types.QuestionTrueFalse,
		Prompt: "Water is wet.",
		Options: []quiz.OptionInput{
			{Text: "True", Correct: true, Points: 1},
			{Text: "False"},
		},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}

	attempt, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = quiz.SubmitAttempt(db, discardLogger(), attempt.ID, fx.user.ID, []quiz.AnswerInput{
		{QuestionID: tf.ID, SelectedOptionIDs: []uuid.UUID{uuid.New()}},
	})
	if !errors.Is(err, quiz.ErrUnknownOption) {
		t.Fatalf("submit foreign option: %v, want ErrUnknownOption", err)
	}

	// The failed transaction must leave the attempt open.
	reloaded, err := quiz.StartAttempt(db, fx.quiz.ID, fx.user.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if reloaded.ID != attempt.ID {
		t.Error("attempt was closed by a rejected submission")
	}
}
