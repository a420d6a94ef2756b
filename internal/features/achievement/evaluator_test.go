package achievement_test

import (
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/achievement"
	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/progress"
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

func seedAchievement(t *testing.T, db *gorm.DB, courseID uuid.UUID, unlock types.UnlockType, targetModule *uuid.UUID, reward int) achievement.Achievement {
	t.Helper()
	ach := achievement.Achievement{
		CourseID:       courseID,
		Name:           "Test " + string(unlock),
		UnlockType:     unlock,
		TargetModuleID: targetModule,
		PointsReward:   reward,
		Active:         true,
	}
	if err := db.Create(&ach).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	return ach
}

func awardCount(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&achievement.Award{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count awards: %v", err)
	}
	return count
}

func TestFirstChapterGrantedOnce(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	ch := course.Chapter{CourseID: courseID, Title: "Intro", Published: true}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatalf("seed chapter: %v", err)
	}
	ach := seedAchievement(t, db, courseID, types.UnlockFirstChapter, nil, 10)

	// Nothing completed yet: no grant.
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 0); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 0 {
		t.Fatalf("awards before completion = %d, want 0", got)
	}

	if _, _, err := progress.MarkChapterComplete(db, u.ID, ch.ID, 0, time.Now()); err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 50); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 1 {
		t.Fatalf("awards after completion = %d, want 1", got)
	}

	// Re-evaluation does not grant or pay again.
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 50); err != nil {
		t.Fatalf("re-evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 1 {
		t.Errorf("awards after re-evaluation = %d, want 1", got)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != ach.PointsReward {
		t.Errorf("points = %d, want %d", reloaded.Points, ach.PointsReward)
	}
}

func TestCourseCompletionNeedsFullProgress(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	seedAchievement(t, db, courseID, types.UnlockCourseCompletion, nil, 100)

	if err := achievement.Evaluate(db, logger, courseID, u.ID, 99); err != nil {
		t.Fatalf("evaluate 99: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 0 {
		t.Fatalf("granted at 99%%: awards = %d", got)
	}

	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate 100: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 1 {
		t.Errorf("awards at 100%% = %d, want 1", got)
	}
}

func TestModuleCompletion(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	mod := content.CourseModule{CourseID: courseID, Title: "Module", Published: true}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	lessons := make([]content.Lesson, 2)
	for i := range lessons {
		lessons[i] = content.Lesson{ModuleID: mod.ID, Title: "Lesson", Published: true}
		if err := db.Create(&lessons[i]).Error; err != nil {
			t.Fatalf("seed lesson: %v", err)
		}
		blk := content.LessonBlock{LessonID: lessons[i].ID, Kind: types.BlockKindVideo, Title: "Video", Published: true}
		if err := db.Create(&blk).Error; err != nil {
			t.Fatalf("seed block: %v", err)
		}
	}

	seedAchievement(t, db, courseID, types.UnlockModuleCompletion, &mod.ID, 20)

	// One of two lessons done: not complete.
	if _, _, err := progress.MarkLessonComplete(db, u.ID, lessons[0].ID, 0, time.Now()); err != nil {
		t.Fatalf("mark lesson: %v", err)
	}
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 50); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 0 {
		t.Fatalf("granted with module half done: awards = %d", got)
	}

	if _, _, err := progress.MarkLessonComplete(db, u.ID, lessons[1].ID, 0, time.Now()); err != nil {
		t.Fatalf("mark lesson: %v", err)
	}
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 1 {
		t.Errorf("awards with module done = %d, want 1", got)
	}
}

func TestEmptyModuleNeverGrants(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	mod := content.CourseModule{CourseID: courseID, Title: "Empty", Published: true}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	seedAchievement(t, db, courseID, types.UnlockModuleCompletion, &mod.ID, 20)

	// A module with no completable units cannot be "100% complete".
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 0 {
		t.Errorf("empty module granted: awards = %d", got)
	}
}

func TestInactiveAchievementSkipped(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	ach := achievement.Achievement{
		CourseID:   courseID,
		Name:       "Retired",
		UnlockType: types.UnlockCourseCompletion,
		Active:     false,
	}
	if err := db.Create(&ach).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}

	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 0 {
		t.Errorf("inactive achievement granted: awards = %d", got)
	}
}

func TestAwardSurvivesDeactivation(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	ach := seedAchievement(t, db, courseID, types.UnlockCourseCompletion, nil, 0)
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got := awardCount(t, db, u.ID); got != 1 {
		t.Fatalf("awards = %d, want 1", got)
	}

	inactive := false
	if _, err := achievement.Update(db, ach.ID, achievement.Input{Active: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	awards, err := achievement.ListAwardsForUser(db, u.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 1 {
		t.Errorf("awards after deactivation = %d, want 1", len(awards))
	}
}

func TestGrantFreezesPoints(t *testing.T) {
	db := openTestDB(t)
	logger := discardLogger()
	u := seedLearner(t, db)
	courseID := uuid.New()

	ach := seedAchievement(t, db, courseID, types.UnlockCourseCompletion, nil, 10)
	if err := achievement.Evaluate(db, logger, courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	// Raising the reward after the grant changes nothing for the holder.
	raised := 50
	if _, err := achievement.Update(db, ach.ID, achievement.Input{PointsReward: &raised}); err != nil {
		t.Fatalf("raise reward: %v", err)
	}

	awards, err := achievement.ListAwardsForUser(db, u.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("awards = %d, want 1", len(awards))
	}
	if awards[0].PointsGranted != 10 {
		t.Errorf("points granted = %d, want the reward at grant time 10", awards[0].PointsGranted)
	}
	if awards[0].CourseID != courseID {
		t.Errorf("award course = %s, want %s", awards[0].CourseID, courseID)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != 10 {
		t.Errorf("points = %d, want 10", reloaded.Points)
	}
}
