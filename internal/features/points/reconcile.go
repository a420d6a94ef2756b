package points

import (
	"context"

	"log/slog"

	"gorm.io/gorm"

	"github.com/skillbase/learn-server-go/pkg/metrics"
)

// ReconcileJob periodically checks the profile counters against the ledger.
// The ledger is authoritative; with autoRepair on, drifting counters are
// reset to the ledger sum, otherwise drift is only reported.
type ReconcileJob struct {
	db         *gorm.DB
	logger     *slog.Logger
	autoRepair bool
}

// NewReconcileJob constructs the reconciliation job.
func NewReconcileJob(db *gorm.DB, logger *slog.Logger, autoRepair bool) *ReconcileJob {
	return &ReconcileJob{db: db, logger: logger, autoRepair: autoRepair}
}

// Name identifies the job in scheduler logs.
func (j *ReconcileJob) Name() string { return "points-reconcile" }

// Execute runs one reconciliation pass.
func (j *ReconcileJob) Execute(ctx context.Context) error {
	drifts, err := FindDrift(j.db.WithContext(ctx))
	if err != nil {
		return err
	}

	metrics.SetLedgerDrift(len(drifts))
	if len(drifts) == 0 {
		return nil
	}

	for _, d := range drifts {
		j.logger.Warn("points drift detected",
			"userId", d.UserID, "profile", d.Profile, "ledgerTotal", d.LedgerTotal)
		if j.autoRepair {
			if err := Repair(j.db.WithContext(ctx), d.UserID); err != nil {
				return err
			}
			j.logger.Info("points drift repaired", "userId", d.UserID, "total", d.LedgerTotal)
		}
	}

	return nil
}
