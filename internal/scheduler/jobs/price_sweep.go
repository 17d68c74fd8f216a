package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ratemytip/tipscore/internal/lifecycle"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// PriceSweepJob evaluates every open tip against current prices
// Schedule: 9:45 AM and 3:45 PM on trading days
type PriceSweepJob struct {
	sweep  *lifecycle.Sweep
	chain  Chainer
	logger *logger.Logger
}

// NewPriceSweepJob creates a new price sweep job
func NewPriceSweepJob(sweep *lifecycle.Sweep, chain Chainer, log *logger.Logger) *PriceSweepJob {
	return &PriceSweepJob{
		sweep:  sweep,
		chain:  chain,
		logger: log,
	}
}

// Name returns the job name
func (j *PriceSweepJob) Name() string {
	return JobPriceSweep
}

// Schedule returns the cron schedule (shortly after open and before close, weekdays)
func (j *PriceSweepJob) Schedule() string {
	return "0 45 9,15 * * 1-5" // 9:45 AM and 3:45 PM, Mon-Fri (with seconds)
}

// Run executes a price sweep and, on success, enqueues the full score
// recompute so closed tips are reflected in reputation the same day.
func (j *PriceSweepJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled price sweep")

	result, err := j.sweep.Run(ctx, lifecycle.SweepModePrice, time.Now())
	if err != nil {
		return fmt.Errorf("price sweep: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"open_tips":    result.OpenTips,
		"transitioned": result.Transitioned,
		"closed":       result.Closed,
		"failed":       result.Failed,
	}).Info("Price sweep completed")

	// 실패한 잡은 체인하지 않음 (위의 early return)
	if err := j.chain.RunJob(JobScoreRecompute); err != nil {
		j.logger.WithField("error", err.Error()).Warn("Failed to chain score recompute")
	}

	return nil
}
