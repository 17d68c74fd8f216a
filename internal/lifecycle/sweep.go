package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// SweepMode selects which tips a sweep evaluates.
type SweepMode string

const (
	// SweepModePrice evaluates every open tip against current prices.
	SweepModePrice SweepMode = "price"

	// SweepModeExpiry only closes tips whose expiry has passed. Runs
	// more often than the price sweep and outside trading hours.
	SweepModeExpiry SweepMode = "expiry"
)

// SweepResult aggregates one sweep run. Per-tip failures are counted,
// never raised; only a failure to enumerate open tips aborts the sweep.
type SweepResult struct {
	Mode         SweepMode `json:"mode"`
	OpenTips     int       `json:"open_tips"`
	Transitioned int       `json:"transitioned"`
	Closed       int       `json:"closed"`
	Failed       int       `json:"failed"`

	// ClosedCreators lists creators who had a tip close this sweep,
	// for targeted score recomputes.
	ClosedCreators []int64 `json:"closed_creators,omitempty"`
}

// SymbolTracker receives the open-tip symbol set so a push source can
// keep its subscription aligned with the tips under evaluation.
type SymbolTracker interface {
	UpdateSymbols(symbols []string)
}

// Sweep runs evaluation ticks over the open tip population.
// ⭐ SSOT: 가격/만기 스윕 실행은 여기서만
type Sweep struct {
	tips      contracts.TipRepository
	prices    contracts.PriceSource
	evaluator *Evaluator
	tracker   SymbolTracker
	logger    *logger.Logger
}

// NewSweep creates a sweep runner.
func NewSweep(tips contracts.TipRepository, prices contracts.PriceSource, evaluator *Evaluator, log *logger.Logger) *Sweep {
	return &Sweep{
		tips:      tips,
		prices:    prices,
		evaluator: evaluator,
		logger:    log.WithComponent("lifecycle.sweep"),
	}
}

// WithSymbolTracker registers a tracker fed the full open-tip symbol
// set on every price sweep.
func (s *Sweep) WithSymbolTracker(tracker SymbolTracker) *Sweep {
	s.tracker = tracker
	return s
}

// Run executes one sweep at the given instant. The quote snapshot is
// built once per run, owned by this invocation and discarded with it;
// nothing price-related outlives the sweep.
func (s *Sweep) Run(ctx context.Context, mode SweepMode, now time.Time) (*SweepResult, error) {
	result := &SweepResult{Mode: mode}

	openTips, err := s.tips.GetOpenTips(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate open tips: %w", err)
	}

	if mode == SweepModeExpiry {
		expired := openTips[:0]
		for _, tip := range openTips {
			if !now.Before(tip.ExpiresAt) {
				expired = append(expired, tip)
			}
		}
		openTips = expired
	}

	result.OpenTips = len(openTips)
	if len(openTips) == 0 {
		s.logger.WithField("mode", mode).Info("No tips to evaluate")
		return result, nil
	}

	symbols := distinctSymbols(openTips)

	// Price sweeps see the whole open population, so this is the point
	// where the streaming subscription learns which symbols matter.
	// Expiry sweeps see a filtered subset and must not shrink it.
	if mode == SweepModePrice && s.tracker != nil {
		s.tracker.UpdateSymbols(symbols)
	}

	quotes, err := s.prices.Quotes(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("build quote snapshot: %w", err)
	}

	closedCreators := make(map[int64]bool)

	for i := range openTips {
		tip := openTips[i]
		quote, hasQuote := quotes[tip.Symbol]

		updated, changed := s.evaluator.Evaluate(tip, quote, hasQuote, now)
		if !changed {
			continue
		}

		if err := s.tips.ApplyTransition(ctx, &updated); err != nil {
			result.Failed++
			s.logger.WithFields(map[string]interface{}{
				"tip_id": tip.ID,
				"status": updated.Status,
				"error":  err.Error(),
			}).Error("Failed to persist tip transition")
			continue
		}

		result.Transitioned++
		if updated.Status.IsTerminal() {
			result.Closed++
			closedCreators[updated.CreatorID] = true
		}
	}

	// Re-derive the denormalized counters for every creator touched by
	// a close, from the authoritative tip table.
	for creatorID := range closedCreators {
		if _, err := s.tips.RefreshCreatorStats(ctx, creatorID); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"creator_id": creatorID,
				"error":      err.Error(),
			}).Error("Failed to refresh creator stats")
		}
		result.ClosedCreators = append(result.ClosedCreators, creatorID)
	}
	sort.Slice(result.ClosedCreators, func(i, j int) bool {
		return result.ClosedCreators[i] < result.ClosedCreators[j]
	})

	s.logger.WithFields(map[string]interface{}{
		"mode":         mode,
		"open_tips":    result.OpenTips,
		"transitioned": result.Transitioned,
		"closed":       result.Closed,
		"failed":       result.Failed,
	}).Info("Sweep completed")

	return result, nil
}

// distinctSymbols collects the unique symbols of a tip set.
func distinctSymbols(tips []contracts.Tip) []string {
	seen := make(map[string]bool, len(tips))
	symbols := make([]string, 0, len(tips))
	for i := range tips {
		if !seen[tips[i].Symbol] {
			seen[tips[i].Symbol] = true
			symbols = append(symbols, tips[i].Symbol)
		}
	}
	return symbols
}
