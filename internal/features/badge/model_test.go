package badge_test

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillbase/learn-server-go/internal/features/badge"
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

func TestGrantToUserPaysOnce(t *testing.T) {
	db := openTestDB(t)
	u := seedLearner(t, db)

	reward := 50
	b, err := badge.Create(db, uuid.New(), badge.Input{Name: "Early Adopter", PointsReward: &reward})
	if err != nil {
		t.Fatalf("create badge: %v", err)
	}

	_, granted, err := badge.GrantToUser(db, b.ID, u.ID)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !granted {
		t.Error("first grant not reported as granted")
	}

	_, granted, err = badge.GrantToUser(db, b.ID, u.ID)
	if err != nil {
		t.Fatalf("re-grant: %v", err)
	}
	if granted {
		t.Error("repeat grant reported as granted")
	}

	total, err := points.TotalForUser(db, u.ID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 50 {
		t.Errorf("points = %d, want 50 once", total)
	}

	grants, err := badge.ListForUser(db, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(grants) != 1 {
		t.Errorf("grants = %d, want 1", len(grants))
	}
}
