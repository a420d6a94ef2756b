package points_test

import (
	"context"
	"io"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/points"
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

func seedUser(t *testing.T, db *gorm.DB) user.User {
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

func TestAwardIdempotent(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db)
	ref := uuid.New()

	input := points.AwardInput{
		UserID:      u.ID,
		ReferenceID: ref,
		Type:        types.PointsTypeCompletion,
		Delta:       25,
		Reason:      "Chapter completed: Intro",
	}

	entry, awarded, err := points.Award(db, input)
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if !awarded {
		t.Error("first award not reported as awarded")
	}
	if entry.Delta != 25 {
		t.Errorf("delta = %d, want 25", entry.Delta)
	}

	entry2, awarded, err := points.Award(db, input)
	if err != nil {
		t.Fatalf("repeat award: %v", err)
	}
	if awarded {
		t.Error("repeat award reported as awarded")
	}
	if entry2.ID != entry.ID {
		t.Errorf("repeat award returned a new entry: %s != %s", entry2.ID, entry.ID)
	}

	var count int64
	if err := db.Model(&points.LedgerEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("ledger rows = %d, want 1", count)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != 25 {
		t.Errorf("profile points = %d, want 25", reloaded.Points)
	}
}

func TestAwardSameReferenceDifferentType(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db)
	ref := uuid.New()

	// The same reference may legitimately appear under different entry
	// types; only the (user, reference, type) triple is unique.
	for _, typ := range []types.PointsType{types.PointsTypeCompletion, types.PointsTypeBonus} {
		_, awarded, err := points.Award(db, points.AwardInput{
			UserID:      u.ID,
			ReferenceID: ref,
			Type:        typ,
			Delta:       10,
			Reason:      "test",
		})
		if err != nil {
			t.Fatalf("award %s: %v", typ, err)
		}
		if !awarded {
			t.Errorf("award %s not reported as awarded", typ)
		}
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 20 {
		t.Errorf("ledger total = %d, want 20", total)
	}
}

func TestProfileMatchesLedgerSum(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db)

	deltas := []int{25, 10, 50, -5}
	for _, d := range deltas {
		_, _, err := points.Award(db, points.AwardInput{
			UserID:      u.ID,
			ReferenceID: uuid.New(),
			Type:        types.PointsTypeAdjustment,
			Delta:       d,
			Reason:      "adjustment",
		})
		if err != nil {
			t.Fatalf("award %d: %v", d, err)
		}
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 80 {
		t.Errorf("ledger total = %d, want 80", total)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != total {
		t.Errorf("profile = %d, ledger = %d; must match", reloaded.Points, total)
	}

	drifts, err := points.FindDrift(db)
	if err != nil {
		t.Fatalf("find drift: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("drift reported for a consistent user: %+v", drifts)
	}
}

func TestFindDriftAndRepair(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db)

	_, _, err := points.Award(db, points.AwardInput{
		UserID:      u.ID,
		ReferenceID: uuid.New(),
		Type:        types.PointsTypeCompletion,
		Delta:       30,
		Reason:      "test",
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}

	// Corrupt the cached counter behind the ledger's back.
	if err := db.Model(&user.User{}).Where("id = ?", u.ID).Update("points", 999).Error; err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}

	drifts, err := points.FindDrift(db)
	if err != nil {
		t.Fatalf("find drift: %v", err)
	}
	if len(drifts) != 1 {
		t.Fatalf("drift count = %d, want 1", len(drifts))
	}
	if drifts[0].UserID != u.ID || drifts[0].Profile != 999 || drifts[0].LedgerTotal != 30 {
		t.Errorf("drift = %+v, want user %s profile 999 ledger 30", drifts[0], u.ID)
	}

	if err := points.Repair(db, u.ID); err != nil {
		t.Fatalf("repair: %v", err)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != 30 {
		t.Errorf("points after repair = %d, want 30", reloaded.Points)
	}

	drifts, err = points.FindDrift(db)
	if err != nil {
		t.Fatalf("find drift after repair: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("drift remains after repair: %+v", drifts)
	}
}

func TestReconcileJobAutoRepair(t *testing.T) {
	db := openTestDB(t)
	u := seedUser(t, db)

	_, _, err := points.Award(db, points.AwardInput{
		UserID:      u.ID,
		ReferenceID: uuid.New(),
		Type:        types.PointsTypeBadge,
		Delta:       40,
		Reason:      "test",
	})
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if err := db.Model(&user.User{}).Where("id = ?", u.ID).Update("points", 0).Error; err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	job := points.NewReconcileJob(db, logger, true)
	if job.Name() != "points-reconcile" {
		t.Errorf("job name = %q", job.Name())
	}
	if err := job.Execute(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}

	reloaded, err := user.Get(db, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if reloaded.Points != 40 {
		t.Errorf("points after reconcile = %d, want 40", reloaded.Points)
	}
}

func TestTotalForUserEmpty(t *testing.T) {
	db := openTestDB(t)

	total, err := points.TotalForUser(db, uuid.New())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Errorf("total for unknown user = %d, want 0", total)
	}
}
