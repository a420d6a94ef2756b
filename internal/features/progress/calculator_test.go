package progress_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/content"
	"github.com/skillbase/learn-server-go/internal/features/course"
	"github.com/skillbase/learn-server-go/internal/features/progress"
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

func seedChapters(t *testing.T, db *gorm.DB, courseID uuid.UUID, published, unpublished int) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	for i := 0; i < published; i++ {
		ch := course.Chapter{CourseID: courseID, Title: "Chapter", Position: i, Published: true}
		if err := db.Create(&ch).Error; err != nil {
			t.Fatalf("seed chapter: %v", err)
		}
		ids = append(ids, ch.ID)
	}
	for i := 0; i < unpublished; i++ {
		ch := course.Chapter{CourseID: courseID, Title: "Draft", Position: published + i}
		if err := db.Create(&ch).Error; err != nil {
			t.Fatalf("seed draft chapter: %v", err)
		}
	}
	return ids
}

func completeChapters(t *testing.T, db *gorm.DB, userID uuid.UUID, chapterIDs []uuid.UUID) {
	t.Helper()
	for _, id := range chapterIDs {
		if _, _, err := progress.MarkChapterComplete(db, userID, id, 0, time.Now()); err != nil {
			t.Fatalf("mark chapter complete: %v", err)
		}
	}
}

func TestComputeProgressChapters(t *testing.T) {
	db := openTestDB(t)
	courseID := uuid.New()
	userID := uuid.New()

	chapters := seedChapters(t, db, courseID, 4, 0)
	completeChapters(t, db, userID, chapters[:3])

	percent, err := progress.ComputeProgress(db, userID, courseID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if percent != 75 {
		t.Errorf("3 of 4 chapters = %d%%, want 75", percent)
	}

	completeChapters(t, db, userID, chapters[3:])
	percent, err = progress.ComputeProgress(db, userID, courseID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if percent != 100 {
		t.Errorf("4 of 4 chapters = %d%%, want 100", percent)
	}
}

func TestComputeProgressRoundsHalfUp(t *testing.T) {
	tests := []struct {
		total, done, want int
	}{
		{3, 1, 33},
		{3, 2, 67},
		{8, 1, 13}, // 12.5 rounds up
		{6, 1, 17}, // 16.66...
		{7, 0, 0},
	}

	for _, tt := range tests {
		db := openTestDB(t)
		courseID := uuid.New()
		userID := uuid.New()

		chapters := seedChapters(t, db, courseID, tt.total, 0)
		completeChapters(t, db, userID, chapters[:tt.done])

		percent, err := progress.ComputeProgress(db, userID, courseID)
		if err != nil {
			t.Fatalf("compute %d/%d: %v", tt.done, tt.total, err)
		}
		if percent != tt.want {
			t.Errorf("%d of %d = %d%%, want %d", tt.done, tt.total, percent, tt.want)
		}
	}
}

func TestComputeProgressEmptyCourse(t *testing.T) {
	db := openTestDB(t)

	percent, err := progress.ComputeProgress(db, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if percent != 0 {
		t.Errorf("empty course = %d%%, want 0", percent)
	}
}

func TestComputeProgressIgnoresUnpublishedChapters(t *testing.T) {
	db := openTestDB(t)
	courseID := uuid.New()
	userID := uuid.New()

	chapters := seedChapters(t, db, courseID, 2, 3)
	completeChapters(t, db, userID, chapters)

	percent, err := progress.ComputeProgress(db, userID, courseID)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if percent != 100 {
		t.Errorf("all published chapters done = %d%%, want 100", percent)
	}
}

func TestResolveUnitsChaptersWin(t *testing.T) {
	db := openTestDB(t)
	courseID := uuid.New()

	seedChapters(t, db, courseID, 2, 0)

	units, err := progress.ResolveUnits(db, courseID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if units.Kind != progress.UnitChapters {
		t.Errorf("kind = %q, want %q", units.Kind, progress.UnitChapters)
	}
	if len(units.IDs) != 2 {
		t.Errorf("unit count = %d, want 2", len(units.IDs))
	}
}

func TestResolveUnitsLessonFallback(t *testing.T) {
	db := openTestDB(t)
	courseID := uuid.New()

	mod := content.CourseModule{CourseID: courseID, Title: "Module", Published: true}
	if err := db.Create(&mod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}

	// Counts: published lesson with a published video block.
	counted := content.Lesson{ModuleID: mod.ID, Title: "Counted", Published: true}
	if err := db.Create(&counted).Error; err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	video := content.LessonBlock{LessonID: counted.ID, Kind: types.BlockKindVideo, Title: "Video", Published: true}
	if err := db.Create(&video).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	// Does not count: only a text block, no completable content.
	textOnly := content.Lesson{ModuleID: mod.ID, Title: "Reading", Published: true}
	if err := db.Create(&textOnly).Error; err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	text := content.LessonBlock{LessonID: textOnly.ID, Kind: types.BlockKindText, Title: "Text", Published: true}
	if err := db.Create(&text).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	// Does not count: lesson under an unpublished module.
	draftMod := content.CourseModule{CourseID: courseID, Title: "Draft"}
	if err := db.Create(&draftMod).Error; err != nil {
		t.Fatalf("seed module: %v", err)
	}
	hidden := content.Lesson{ModuleID: draftMod.ID, Title: "Hidden", Published: true}
	if err := db.Create(&hidden).Error; err != nil {
		t.Fatalf("seed lesson: %v", err)
	}
	hiddenBlock := content.LessonBlock{LessonID: hidden.ID, Kind: types.BlockKindVideo, Title: "Video", Published: true}
	if err := db.Create(&hiddenBlock).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	units, err := progress.ResolveUnits(db, courseID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if units.Kind != progress.UnitLessons {
		t.Fatalf("kind = %q, want %q", units.Kind, progress.UnitLessons)
	}
	if len(units.IDs) != 1 || units.IDs[0] != counted.ID {
		t.Errorf("unit ids = %v, want [%s]", units.IDs, counted.ID)
	}
}

func TestMarkChapterCompleteIdempotent(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()
	chapterID := uuid.New()
	now := time.Now()

	rec, already, err := progress.MarkChapterComplete(db, userID, chapterID, 15, now)
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if already {
		t.Error("first mark reported already completed")
	}
	if rec.PointsAwarded != 15 {
		t.Errorf("pointsAwarded = %d, want 15", rec.PointsAwarded)
	}

	rec2, already, err := progress.MarkChapterComplete(db, userID, chapterID, 15, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !already {
		t.Error("second mark not reported as already completed")
	}
	if rec2.ID != rec.ID {
		t.Errorf("second mark returned a new row: %s != %s", rec2.ID, rec.ID)
	}

	var count int64
	if err := db.Model(&progress.ChapterCompletion{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("completion rows = %d, want 1", count)
	}
}

func TestMarkLessonCompleteIdempotent(t *testing.T) {
	db := openTestDB(t)
	userID := uuid.New()
	lessonID := uuid.New()
	now := time.Now()

	_, already, err := progress.MarkLessonComplete(db, userID, lessonID, 0, now)
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if already {
		t.Error("first mark reported already completed")
	}

	_, already, err = progress.MarkLessonComplete(db, userID, lessonID, 0, now)
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if !already {
		t.Error("second mark not reported as already completed")
	}
}
