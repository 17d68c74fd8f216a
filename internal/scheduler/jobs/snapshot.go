package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// SnapshotJob writes today's score snapshot row for every rated
// creator, so the history series has a daily point even for creators
// whose score did not move.
// Schedule: 4 AM daily as a safety net; normally runs chained after a
// successful recompute.
type SnapshotJob struct {
	scores   contracts.ScoreRepository
	location *time.Location
	logger   *logger.Logger
}

// NewSnapshotJob creates a new snapshot job keyed to the market
// timezone's calendar date
func NewSnapshotJob(scores contracts.ScoreRepository, loc *time.Location, log *logger.Logger) *SnapshotJob {
	return &SnapshotJob{
		scores:   scores,
		location: loc,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return JobScoreSnapshot
}

// Schedule returns the cron schedule (4 AM daily)
func (j *SnapshotJob) Schedule() string {
	return "0 0 4 * * *" // 4:00 AM daily (with seconds)
}

// Run executes the snapshot
func (j *SnapshotJob) Run(ctx context.Context) error {
	today := contracts.SnapshotDate(time.Now(), j.location)

	count, err := j.scores.SnapshotAll(ctx, today)
	if err != nil {
		return fmt.Errorf("snapshot scores: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":      today.Format("2006-01-02"),
		"snapshots": count,
	}).Info("Score snapshots written")

	return nil
}
