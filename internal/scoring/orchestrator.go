package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// RecomputeResult aggregates one scoring run. Per-creator failures are
// counted and logged with the creator's identity, never raised; only a
// failure to enumerate the creator population aborts the run.
type RecomputeResult struct {
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Published int           `json:"published"`
	Withheld  int           `json:"withheld"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Orchestrator schedules score recomputes over the creator population:
// a full sweep in fixed-size batches with bounded concurrency, or a
// single creator after one of their tips closes.
// ⭐ SSOT: 점수 재계산 오케스트레이션은 여기서만
type Orchestrator struct {
	tips   contracts.TipRepository
	scores contracts.ScoreRepository
	scorer *CompositeScorer

	batchSize      int
	maxConcurrency int
	location       *time.Location

	logger *logger.Logger
}

// NewOrchestrator creates a scoring orchestrator.
func NewOrchestrator(
	tips contracts.TipRepository,
	scores contracts.ScoreRepository,
	scorer *CompositeScorer,
	cfg config.ScoringConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		tips:           tips,
		scores:         scores,
		scorer:         scorer,
		batchSize:      cfg.BatchSize,
		maxConcurrency: cfg.MaxConcurrency,
		location:       cfg.Timezone,
		logger:         log.WithComponent("scoring.orchestrator"),
	}
}

// RecomputeAll rescores every active creator. Creator work is
// independent, so each batch runs with bounded parallelism.
func (o *Orchestrator) RecomputeAll(ctx context.Context, now time.Time) (*RecomputeResult, error) {
	startTime := time.Now()

	creatorIDs, err := o.tips.ListActiveCreatorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate creators: %w", err)
	}

	result := &RecomputeResult{Total: len(creatorIDs)}

	o.logger.WithFields(map[string]interface{}{
		"creators":   len(creatorIDs),
		"batch_size": o.batchSize,
	}).Info("Starting full score recompute")

	for start := 0; start < len(creatorIDs); start += o.batchSize {
		end := start + o.batchSize
		if end > len(creatorIDs) {
			end = len(creatorIDs)
		}

		o.recomputeBatch(ctx, creatorIDs[start:end], now, result)
	}

	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"processed": result.Processed,
		"published": result.Published,
		"withheld":  result.Withheld,
		"failed":    result.Failed,
		"duration":  result.Duration,
	}).Info("Full score recompute completed")

	return result, nil
}

// recomputeBatch scores one batch of creators with bounded concurrency.
func (o *Orchestrator) recomputeBatch(ctx context.Context, creatorIDs []int64, now time.Time, result *RecomputeResult) {
	var wg sync.WaitGroup
	var mu sync.Mutex

	sem := make(chan struct{}, o.maxConcurrency)

	for _, creatorID := range creatorIDs {
		select {
		case <-ctx.Done():
			o.logger.Warn("Context cancelled during score recompute")
			return
		default:
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			published, err := o.RecomputeCreator(ctx, id, now)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				o.logger.WithFields(map[string]interface{}{
					"creator_id": id,
					"error":      err.Error(),
				}).Error("Failed to score creator")
				return
			}
			result.Processed++
			if published {
				result.Published++
			} else {
				result.Withheld++
			}
		}(creatorID)
	}

	wg.Wait()
}

// RecomputeCreator rescores one creator and reports whether a score
// was published. Below the minimum sample the published score row is
// withdrawn, but the tier and counters are still refreshed.
func (o *Orchestrator) RecomputeCreator(ctx context.Context, creatorID int64, now time.Time) (bool, error) {
	tips, err := o.tips.GetCompletedTipsByCreator(ctx, creatorID)
	if err != nil {
		return false, fmt.Errorf("fetch completed tips for creator %d: %w", creatorID, err)
	}

	score, ok := o.scorer.Compute(creatorID, tips, now)
	if !ok {
		if err := o.scores.DeleteCreatorScore(ctx, creatorID); err != nil {
			return false, fmt.Errorf("withdraw score for creator %d: %w", creatorID, err)
		}
		if _, err := o.tips.RefreshCreatorStats(ctx, creatorID); err != nil {
			return false, fmt.Errorf("refresh stats for creator %d: %w", creatorID, err)
		}
		return false, nil
	}

	if err := o.scores.UpsertCreatorScore(ctx, score); err != nil {
		return false, fmt.Errorf("persist score for creator %d: %w", creatorID, err)
	}

	snapshot := &contracts.ScoreSnapshot{
		CreatorID:       creatorID,
		Date:            contracts.SnapshotDate(now, o.location),
		RMTScore:        score.RMTScore,
		AccuracyRate:    score.AccuracyRate,
		TotalScoredTips: score.TotalScoredTips,
	}
	if err := o.scores.UpsertSnapshot(ctx, snapshot); err != nil {
		return false, fmt.Errorf("persist snapshot for creator %d: %w", creatorID, err)
	}

	if _, err := o.tips.RefreshCreatorStats(ctx, creatorID); err != nil {
		return false, fmt.Errorf("refresh stats for creator %d: %w", creatorID, err)
	}

	return true, nil
}
