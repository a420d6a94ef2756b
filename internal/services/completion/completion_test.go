package completion_test

import (
	"errors"
	"io"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/achievement"
	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/internal/features/points"
	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/internal/services/completion"
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

func boolPtr(b bool) *bool { return &b }

func kindPtr(k types.BlockKind) *types.BlockKind { return &k }

func intPtr(i int) *int { return &i }

func seedLearner(t *testing.T, db *gorm.DB) user.User {
	t.Helper()
	u := user.User{
		FullName: "Test Learner",
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		UserType: types.UserTypeLearner,
		Active:   true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// legacyCourse seeds a flat course with the given published chapter rewards.
func legacyCourse(t *testing.T, db *gorm.DB, rewards ...int) (course.Course, []course.Chapter) {
	t.Helper()
	crs, err := course.Create(db, course.CreateInput{CompanyID: uuid.New(), Name: "Legacy"})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	chapters := make([]course.Chapter, 0, len(rewards))
	for i, reward := range rewards {
		ch, err := course.CreateChapter(db, crs.ID, course.ChapterInput{
			Title:        "Chapter",
			Position:     intPtr(i),
			Published:    boolPtr(true),
			PointsReward: intPtr(reward),
		})
		if err != nil {
			t.Fatalf("create chapter: %v", err)
		}
		chapters = append(chapters, ch)
	}
	return crs, chapters
}

func TestCompleteChapterPipeline(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	crs, chapters := legacyCourse(t, db, 10, 20)

	if _, err := enrollment.Enroll(db, u.ID, crs.ID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	res, err := completion.CompleteChapter(db, logger, u.ID, chapters[0].ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Progress != 50 {
		t.Errorf("progress = %d, want 50", res.Progress)
	}
	if res.Enrollment.Status != types.EnrollmentInProgress {
		t.Errorf("status = %q, want IN_PROGRESS", res.Enrollment.Status)
	}
	if !res.Awarded {
		t.Error("first completion did not pay points")
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 10 {
		t.Errorf("points = %d, want 10", total)
	}

	// Repeat completion: no state change, no second payout.
	res, err = completion.CompleteChapter(db, logger, u.ID, chapters[0].ID)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if res.Awarded {
		t.Error("repeat completion paid points")
	}
	total, err = points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 10 {
		t.Errorf("points after repeat = %d, want 10", total)
	}

	// Second chapter finishes the course.
	res, err = completion.CompleteChapter(db, logger, u.ID, chapters[1].ID)
	if err != nil {
		t.Fatalf("complete second: %v", err)
	}
	if res.Progress != 100 {
		t.Errorf("progress = %d, want 100", res.Progress)
	}
	if res.Enrollment.Status != types.EnrollmentCompleted {
		t.Errorf("status = %q, want COMPLETED", res.Enrollment.Status)
	}
}

func TestCompleteChapterRequiresEnrollment(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)
	_, chapters := legacyCourse(t, db, 10)

	_, err := completion.CompleteChapter(db, discardLogger(), u.ID, chapters[0].ID)
	if !errors.Is(err, completion.ErrNotEnrolled) {
		t.Fatalf("complete unenrolled: %v, want ErrNotEnrolled", err)
	}

	// The aborted transaction must not leave any partial state behind.
	var completions, ledger int64
	if err := db.Table("chapter_completions").Count(&completions).Error; err != nil {
		t.Fatalf("count completions: %v", err)
	}
	if err := db.Model(&points.LedgerEntry{}).Count(&ledger).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if completions != 0 || ledger != 0 {
		t.Errorf("partial state: completions = %d ledger = %d", completions, ledger)
	}
}

func TestPreviewChapterSelfEnrolls(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)

	crs, err := course.Create(db, course.CreateInput{CompanyID: uuid.New(), Name: "Open Course"})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	ch, err := course.CreateChapter(db, crs.ID, course.ChapterInput{
		Title:     "Teaser",
		Published: boolPtr(true),
		Preview:   boolPtr(true),
	})
	if err != nil {
		t.Fatalf("create chapter: %v", err)
	}

	res, err := completion.CompleteChapter(db, discardLogger(), u.ID, ch.ID)
	if err != nil {
		t.Fatalf("complete preview: %v", err)
	}
	if res.Enrollment.Source != types.EnrollmentSourceSelf {
		t.Errorf("source = %q, want SELF_ENROLL", res.Enrollment.Source)
	}

	enr, err := enrollment.Get(db, u.ID, crs.ID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if enr.Status != types.EnrollmentCompleted {
		t.Errorf("status = %q, want COMPLETED for a one-chapter course", enr.Status)
	}
}

// hierarchicalCourse seeds a published course with one module, one lesson and
// one published video block, returning the block's mirrored chapter.
func hierarchicalCourse(t *testing.T, db *gorm.DB) (course.Course, content.Lesson, content.LessonBlock, course.Chapter) {
	t.Helper()
	logger := discardLogger()

	crs, err := course.Create(db, course.CreateInput{CompanyID: uuid.New(), Name: "Hierarchical"})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	if _, err := course.Update(db, crs.ID, course.UpdateInput{Published: boolPtr(true)}); err != nil {
		t.Fatalf("publish course: %v", err)
	}
	mod, err := content.CreateModule(db, crs.ID, content.ModuleInput{Title: "Module", Published: boolPtr(true)})
	if err != nil {
		t.Fatalf("create module: %v", err)
	}
	lsn, err := content.CreateLesson(db, mod.ID, content.LessonInput{Title: "Lesson", Published: boolPtr(true)})
	if err != nil {
		t.Fatalf("create lesson: %v", err)
	}
	blk, err := content.CreateBlock(db, logger, lsn.ID, content.BlockInput{
		Kind:         kindPtr(types.BlockKindVideo),
		Title:        "Video",
		Published:    boolPtr(true),
		PointsReward: intPtr(25),
	})
	if err != nil {
		t.Fatalf("create block: %v", err)
	}

	var mirror course.Chapter
	if err := db.First(&mirror, "source_block_id = ?", blk.ID).Error; err != nil {
		t.Fatalf("load mirror: %v", err)
	}
	return crs, lsn, blk, mirror
}

func TestCompleteMirroredChapterCompletesLesson(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)
	crs, lsn, _, mirror := hierarchicalCourse(t, db)

	if _, err := enrollment.Enroll(db, u.ID, crs.ID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	res, err := completion.CompleteChapter(db, discardLogger(), u.ID, mirror.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if res.Progress != 100 {
		t.Errorf("progress = %d, want 100", res.Progress)
	}

	// The lesson side must agree, without a second payout.
	var lessonDone int64
	err = db.Table("lesson_completions").
		Where("user_id = ? AND lesson_id = ? AND is_completed = ?", u.ID, lsn.ID, true).
		Count(&lessonDone).Error
	if err != nil {
		t.Fatalf("count lesson completions: %v", err)
	}
	if lessonDone != 1 {
		t.Errorf("lesson completions = %d, want 1", lessonDone)
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 25 {
		t.Errorf("points = %d, want the chapter reward 25 once", total)
	}
}

func TestCompleteLessonMirrorsToChapter(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)
	crs, lsn, _, mirror := hierarchicalCourse(t, db)

	if _, err := enrollment.Enroll(db, u.ID, crs.ID, types.EnrollmentSourceTeam, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	res, err := completion.CompleteLesson(db, discardLogger(), u.ID, lsn.ID)
	if err != nil {
		t.Fatalf("complete lesson: %v", err)
	}
	if res.Progress != 100 {
		t.Errorf("progress = %d, want 100", res.Progress)
	}

	var chapterDone int64
	err = db.Table("chapter_completions").
		Where("user_id = ? AND chapter_id = ? AND is_completed = ?", u.ID, mirror.ID, true).
		Count(&chapterDone).Error
	if err != nil {
		t.Fatalf("count chapter completions: %v", err)
	}
	if chapterDone != 1 {
		t.Errorf("mirrored chapter completions = %d, want 1", chapterDone)
	}

	// The lesson path pays the mirror's reward on first completion, the
	// same amount the chapter endpoint would have paid.
	if !res.Awarded {
		t.Error("first lesson completion should pay the mirror reward")
	}
	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 25 {
		t.Errorf("points = %d, want the mirror reward 25", total)
	}

	// Completing the same content through the chapter endpoint afterwards
	// earns nothing more.
	if _, err := completion.CompleteChapter(db, discardLogger(), u.ID, mirror.ID); err != nil {
		t.Fatalf("complete mirror chapter: %v", err)
	}
	total, err = points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total after chapter repeat: %v", err)
	}
	if total != 25 {
		t.Errorf("points = %d, want 25 from either path but never both", total)
	}
}

func TestLessonAndChapterPathsPayEqually(t *testing.T) {
	db := openTestDB(t)
	crs, lsn, _, mirror := hierarchicalCourse(t, db)

	viaChapter := seedLearner(t, db)
	viaLesson := seedLearner(t, db)
	for _, u := range []user.User{viaChapter, viaLesson} {
		if _, err := enrollment.Enroll(db, u.ID, crs.ID, types.EnrollmentSourceManual, nil); err != nil {
			t.Fatalf("enroll: %v", err)
		}
	}

	if _, err := completion.CompleteChapter(db, discardLogger(), viaChapter.ID, mirror.ID); err != nil {
		t.Fatalf("complete chapter: %v", err)
	}
	if _, err := completion.CompleteLesson(db, discardLogger(), viaLesson.ID, lsn.ID); err != nil {
		t.Fatalf("complete lesson: %v", err)
	}

	chapterTotal, err := points.TotalForUser(db, viaChapter.ID)
	if err != nil {
		t.Fatalf("chapter-path total: %v", err)
	}
	lessonTotal, err := points.TotalForUser(db, viaLesson.ID)
	if err != nil {
		t.Fatalf("lesson-path total: %v", err)
	}
	if chapterTotal != 25 || lessonTotal != 25 {
		t.Errorf("totals = %d via chapter, %d via lesson, want 25 and 25", chapterTotal, lessonTotal)
	}
}

func TestCompletionTriggersAchievements(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)
	crs, chapters := legacyCourse(t, db, 0)

	ach := achievement.Achievement{
		CourseID:     crs.ID,
		Name:         "Finisher",
		UnlockType:   types.UnlockCourseCompletion,
		PointsReward: 100,
		Active:       true,
	}
	if err := db.Create(&ach).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	if _, err := enrollment.Enroll(db, u.ID, crs.ID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	if _, err := completion.CompleteChapter(db, discardLogger(), u.ID, chapters[0].ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	awards, err := achievement.ListAwardsForUser(db, u.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("awards = %d, want 1", len(awards))
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 100 {
		t.Errorf("points = %d, want the achievement reward 100", total)
	}
}
