package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ratemytip/tipscore/internal/scoring"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// ScoreRecomputeJob rescores the full creator population
// Schedule: 2 AM daily (recency decay shifts scores even without new
// closes), plus chained runs after each price sweep
type ScoreRecomputeJob struct {
	orchestrator *scoring.Orchestrator
	chain        Chainer

	// settlingDelay before the chained snapshot job, letting score
	// writes converge first.
	settlingDelay time.Duration

	logger *logger.Logger
}

// NewScoreRecomputeJob creates a new score recompute job
func NewScoreRecomputeJob(orchestrator *scoring.Orchestrator, chain Chainer, settlingDelay time.Duration, log *logger.Logger) *ScoreRecomputeJob {
	return &ScoreRecomputeJob{
		orchestrator:  orchestrator,
		chain:         chain,
		settlingDelay: settlingDelay,
		logger:        log,
	}
}

// Name returns the job name
func (j *ScoreRecomputeJob) Name() string {
	return JobScoreRecompute
}

// Schedule returns the cron schedule (2 AM daily)
func (j *ScoreRecomputeJob) Schedule() string {
	return "0 0 2 * * *" // 2:00 AM daily (with seconds)
}

// Run executes a full recompute and, on success, schedules the daily
// snapshot after the settling delay.
func (j *ScoreRecomputeJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled score recompute")

	result, err := j.orchestrator.RecomputeAll(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("score recompute: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"total":     result.Total,
		"published": result.Published,
		"withheld":  result.Withheld,
		"failed":    result.Failed,
		"duration":  result.Duration,
	}).Info("Score recompute completed")

	if err := j.chain.RunJobAfter(JobScoreSnapshot, j.settlingDelay); err != nil {
		j.logger.WithField("error", err.Error()).Warn("Failed to chain snapshot job")
	}

	return nil
}
