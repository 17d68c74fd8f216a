package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ratemytip/tipscore/internal/lifecycle"
	"github.com/ratemytip/tipscore/internal/scoring"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// ExpirySweepJob closes tips whose expiry has passed. Runs hourly so
// expiries land close to their deadline even outside trading hours,
// when no price sweep would catch them.
type ExpirySweepJob struct {
	sweep        *lifecycle.Sweep
	orchestrator *scoring.Orchestrator
	logger       *logger.Logger
}

// NewExpirySweepJob creates a new expiry sweep job
func NewExpirySweepJob(sweep *lifecycle.Sweep, orchestrator *scoring.Orchestrator, log *logger.Logger) *ExpirySweepJob {
	return &ExpirySweepJob{
		sweep:        sweep,
		orchestrator: orchestrator,
		logger:       log,
	}
}

// Name returns the job name
func (j *ExpirySweepJob) Name() string {
	return JobExpirySweep
}

// Schedule returns the cron schedule (hourly)
func (j *ExpirySweepJob) Schedule() string {
	return "0 0 * * * *" // Every hour (with seconds)
}

// Run executes an expiry sweep, then rescores just the creators whose
// tips closed. A full recompute hourly would be wasteful; expiry closes
// touch few creators.
func (j *ExpirySweepJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled expiry sweep")

	result, err := j.sweep.Run(ctx, lifecycle.SweepModeExpiry, time.Now())
	if err != nil {
		return fmt.Errorf("expiry sweep: %w", err)
	}

	if result.Closed == 0 {
		return nil
	}

	now := time.Now()
	var rescored int
	for _, creatorID := range result.ClosedCreators {
		if _, err := j.orchestrator.RecomputeCreator(ctx, creatorID, now); err != nil {
			j.logger.WithFields(map[string]interface{}{
				"creator_id": creatorID,
				"error":      err.Error(),
			}).Error("Failed to rescore creator after expiry close")
			continue
		}
		rescored++
	}

	j.logger.WithFields(map[string]interface{}{
		"closed":   result.Closed,
		"rescored": rescored,
	}).Info("Expiry sweep completed")

	return nil
}
