package leaderboard_test

import (
	"context"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/achievement"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/enrollment"
	"github.com/skillbase/learn-server-go/internal/features/leaderboard"
	"github.com/skillbase/learn-server-go/internal/features/progress"
	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/pkg/cache"
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

func newTestService(t *testing.T, db *gorm.DB) *leaderboard.Service {
	t.Helper()
	return leaderboard.NewService(db, cache.NewMemoryCache(), discardLogger())
}

func seedLearner(t *testing.T, db *gorm.DB, name string) user.User {
	t.Helper()
	u := user.User{
		FullName: name,
		Email:    uuid.NewString() + "@example.com",
		Password: "irrelevant",
		UserType: types.UserTypeLearner,
		Active:   true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u
}

func TestForCourseRanksByTotal(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	courseID := uuid.New()

	alice := seedLearner(t, db, "Alice")
	bob := seedLearner(t, db, "Bob")
	for _, u := range []user.User{alice, bob} {
		if _, err := enrollment.Enroll(db, u.ID, courseID, types.EnrollmentSourceManual, nil); err != nil {
			t.Fatalf("enroll: %v", err)
		}
	}

	ch := course.Chapter{CourseID: courseID, Title: "Chapter", Published: true}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatalf("seed chapter: %v", err)
	}

	// Bob outscores Alice on chapter points.
	if _, _, err := progress.MarkChapterComplete(db, alice.ID, ch.ID, 10, time.Now()); err != nil {
		t.Fatalf("mark alice: %v", err)
	}
	if _, _, err := progress.MarkChapterComplete(db, bob.ID, ch.ID, 10, time.Now()); err != nil {
		t.Fatalf("mark bob: %v", err)
	}
	if err := db.Model(&progress.ChapterCompletion{}).
		Where("user_id = ?", bob.ID).Update("points_awarded", 40).Error; err != nil {
		t.Fatalf("bump bob: %v", err)
	}

	entries, err := svc.ForCourse(context.Background(), courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != bob.ID || entries[0].Rank != 1 {
		t.Errorf("rank 1 = %s (%d), want Bob first", entries[0].FullName, entries[0].Rank)
	}
	if entries[0].ChapterPoints != 40 || entries[0].Total != 40 {
		t.Errorf("Bob rollup = %+v", entries[0])
	}
	if entries[1].UserID != alice.ID || entries[1].Total != 10 {
		t.Errorf("rank 2 = %+v, want Alice with 10", entries[1])
	}
}

func TestForCourseOnlyEnrolledUsers(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	courseID := uuid.New()

	enrolled := seedLearner(t, db, "Enrolled")
	seedLearner(t, db, "Bystander")
	if _, err := enrollment.Enroll(db, enrolled.ID, courseID, types.EnrollmentSourceSelf, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	entries, err := svc.ForCourse(context.Background(), courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != enrolled.ID {
		t.Errorf("entries = %+v, want only the enrolled user", entries)
	}
}

func TestForCourseLimit(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	courseID := uuid.New()

	for i := 0; i < 5; i++ {
		u := seedLearner(t, db, "Learner")
		if _, err := enrollment.Enroll(db, u.ID, courseID, types.EnrollmentSourceManual, nil); err != nil {
			t.Fatalf("enroll: %v", err)
		}
	}

	entries, err := svc.ForCourse(context.Background(), courseID, 3)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want limit 3", len(entries))
	}
}

func TestForCourseServesCacheUntilInvalidated(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	courseID := uuid.New()

	u := seedLearner(t, db, "Learner")
	if _, err := enrollment.Enroll(db, u.ID, courseID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	ch := course.Chapter{CourseID: courseID, Title: "Chapter", Published: true}
	if err := db.Create(&ch).Error; err != nil {
		t.Fatalf("seed chapter: %v", err)
	}

	entries, err := svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].Total != 0 {
		t.Fatalf("total = %d, want 0 before completion", entries[0].Total)
	}

	if _, _, err := progress.MarkChapterComplete(db, u.ID, ch.ID, 50, time.Now()); err != nil {
		t.Fatalf("mark complete: %v", err)
	}

	// Still the cached rollup.
	entries, err = svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].Total != 0 {
		t.Errorf("total = %d, cached rollup expected", entries[0].Total)
	}

	svc.Invalidate(ctx, courseID)
	entries, err = svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].Total != 50 {
		t.Errorf("total after invalidation = %d, want 50", entries[0].Total)
	}
}

func TestForCourseSumsGrantedAchievementPoints(t *testing.T) {
	db := openTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	courseID := uuid.New()

	u := seedLearner(t, db, "Learner")
	if _, err := enrollment.Enroll(db, u.ID, courseID, types.EnrollmentSourceManual, nil); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	ach := achievement.Achievement{
		CourseID:     courseID,
		Name:         "Starter",
		UnlockType:   types.UnlockCourseCompletion,
		PointsReward: 10,
		Active:       true,
	}
	if err := db.Create(&ach).Error; err != nil {
		t.Fatalf("seed achievement: %v", err)
	}
	if err := achievement.Evaluate(db, discardLogger(), courseID, u.ID, 100); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	entries, err := svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].AchievementPoints != 10 || entries[0].Total != 10 {
		t.Fatalf("rollup = %+v, want 10 achievement points", entries[0])
	}

	// Editing the reward after the grant must not move the standings.
	raised := 50
	if _, err := achievement.Update(db, ach.ID, achievement.Input{PointsReward: &raised}); err != nil {
		t.Fatalf("raise reward: %v", err)
	}
	svc.Invalidate(ctx, courseID)
	entries, err = svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].AchievementPoints != 10 {
		t.Errorf("achievement points after reward edit = %d, want the granted 10", entries[0].AchievementPoints)
	}

	// Deleting the achievement keeps the granted points on the board.
	if err := achievement.Delete(db, ach.ID); err != nil {
		t.Fatalf("delete achievement: %v", err)
	}
	svc.Invalidate(ctx, courseID)
	entries, err = svc.ForCourse(ctx, courseID, 20)
	if err != nil {
		t.Fatalf("for course: %v", err)
	}
	if entries[0].AchievementPoints != 10 {
		t.Errorf("achievement points after delete = %d, want the granted 10", entries[0].AchievementPoints)
	}
}
