package jobs

import (
	"context"
	"fmt"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// StatsReconcileJob re-derives the denormalized creator counters for
// every creator from the tip table. Sweeps refresh the creators they
// touch; this nightly pass catches drift from anything they missed.
type StatsReconcileJob struct {
	tips   contracts.TipRepository
	logger *logger.Logger
}

// NewStatsReconcileJob creates a new stats reconcile job
func NewStatsReconcileJob(tips contracts.TipRepository, log *logger.Logger) *StatsReconcileJob {
	return &StatsReconcileJob{
		tips:   tips,
		logger: log,
	}
}

// Name returns the job name
func (j *StatsReconcileJob) Name() string {
	return JobStatsReconcile
}

// Schedule returns the cron schedule (3:30 AM daily)
func (j *StatsReconcileJob) Schedule() string {
	return "0 30 3 * * *" // 3:30 AM daily (with seconds)
}

// Run executes the reconcile
func (j *StatsReconcileJob) Run(ctx context.Context) error {
	j.logger.Info("Starting creator stats reconcile")

	creatorIDs, err := j.tips.ListActiveCreatorIDs(ctx)
	if err != nil {
		return fmt.Errorf("enumerate creators: %w", err)
	}

	var refreshed, failed int
	for _, creatorID := range creatorIDs {
		if _, err := j.tips.RefreshCreatorStats(ctx, creatorID); err != nil {
			failed++
			j.logger.WithFields(map[string]interface{}{
				"creator_id": creatorID,
				"error":      err.Error(),
			}).Error("Failed to refresh creator stats")
			continue
		}
		refreshed++
	}

	j.logger.WithFields(map[string]interface{}{
		"creators":  len(creatorIDs),
		"refreshed": refreshed,
		"failed":    failed,
	}).Info("Creator stats reconcile completed")

	if failed > 0 {
		return fmt.Errorf("stats reconcile: %d of %d creators failed", failed, len(creatorIDs))
	}

	return nil
}
