package points

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/internal/features/user"
	"github.com/skillbase/learn-server-go/pkg/metrics"
	"github.com/skillbase/learn-server-go/pkg/pagination"
	"github.com/skillbase/learn-server-go/pkg/types"
)

// LedgerEntry is one immutable point delta. The ledger is append-only and is
// the source of truth for a user's total; the profile counter is a cache
// updated in the same transaction and reconciled by a background job.
type LedgerEntry struct {
	types.BaseModel

	UserID      uuid.UUID        `gorm:"type:uuid;not null;column:user_id;uniqueIndex:idx_ledger_user_ref_type;index" json:"userId"`
	ReferenceID uuid.UUID        `gorm:"type:uuid;not null;column:reference_id;uniqueIndex:idx_ledger_user_ref_type" json:"referenceId"`
	Type        types.PointsType `gorm:"type:varchar(20);not null;uniqueIndex:idx_ledger_user_ref_type" json:"type"`
	Delta       int              `gorm:"type:int;not null" json:"delta"`
	Reason      string           `gorm:"type:varchar(300);not null" json:"reason"`
}

// TableName overrides the default table name.
func (LedgerEntry) TableName() string { return "points_ledger_entries" }

// AwardInput describes one point award.
type AwardInput struct {
	UserID      uuid.UUID
	ReferenceID uuid.UUID
	Type        types.PointsType
	Delta       int
	Reason      string
}

// Award appends a ledger entry and bumps the profile counter in the caller's
// transaction. Awarding the same (user, reference, type) twice is an
// idempotent no-op returning the original entry and awarded = false: the
// in-transaction existence check handles the common case and the unique
// index closes the race between concurrent awards.
func Award(tx *gorm.DB, input AwardInput) (LedgerEntry, bool, error) {
	var existing LedgerEntry
	err := tx.First(&existing, "user_id = ? AND reference_id = ? AND type = ?",
		input.UserID, input.ReferenceID, input.Type).Error
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return LedgerEntry{}, false, err
	}

	entry := LedgerEntry{
		UserID:      input.UserID,
		ReferenceID: input.ReferenceID,
		Type:        input.Type,
		Delta:       input.Delta,
		Reason:      input.Reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entry, false, nil
		}
		return LedgerEntry{}, false, err
	}

	if err := user.IncrementPoints(tx, input.UserID, input.Delta); err != nil {
		return LedgerEntry{}, false, err
	}

	metrics.RecordPointsAwarded(string(input.Type), input.Delta)
	return entry, true, nil
}

// ListForUser retrieves a user's ledger, newest first.
func ListForUser(db *gorm.DB, userID uuid.UUID, params pagination.Params) ([]LedgerEntry, int64, error) {
	query := db.Model(&LedgerEntry{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, total, err
	}

	var entries []LedgerEntry
	err := query.Order("created_at DESC").Offset(params.Skip).Limit(params.Limit).Find(&entries).Error
	return entries, total, err
}

// TotalForUser sums a user's ledger deltas.
func TotalForUser(db *gorm.DB, userID uuid.UUID) (int, error) {
	var total int
	err := db.Model(&LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	return total, err
}

// Drift is a user whose cached profile total disagrees with the ledger.
type Drift struct {
	UserID      uuid.UUID `json:"userId"`
	Profile     int       `json:"profile"`
	LedgerTotal int       `json:"ledgerTotal"`
}

// FindDrift returns every user whose profile counter differs from the sum of
// their ledger entries.
func FindDrift(db *gorm.DB) ([]Drift, error) {
	var drifts []Drift
	err := db.Table("users").
		Select("users.id AS user_id, users.points AS profile, COALESCE(SUM(points_ledger_entries.delta), 0) AS ledger_total").
		Joins("LEFT JOIN points_ledger_entries ON points_ledger_entries.user_id = users.id").
		Group("users.id, users.points").
		Having("users.points <> COALESCE(SUM(points_ledger_entries.delta), 0)").
		Scan(&drifts).Error
	return drifts, err
}

// Repair resets a user's profile counter to the ledger sum.
func Repair(db *gorm.DB, userID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		total, err := TotalForUser(tx, userID)
		if err != nil {
			return err
		}
		return tx.Model(&user.User{}).Where("id = ?", userID).Update("points", total).Error
	})
}
