package lifecycle

import (
	"math"
	"testing"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func freshQuote(symbol string, price float64, now time.Time) contracts.Quote {
	return contracts.Quote{Symbol: symbol, Price: price, Timestamp: now, Source: "rest"}
}

func buyTip(now time.Time) contracts.Tip {
	return contracts.Tip{
		ID:           1,
		CreatorID:    10,
		Symbol:       "RELIANCE",
		Direction:    contracts.DirectionBuy,
		Timeframe:    contracts.TimeframeSwing,
		EntryPrice:   100,
		Target1:      110,
		StopLoss:     95,
		Status:       contracts.StatusActive,
		TipTimestamp: now.Add(-24 * time.Hour),
		ExpiresAt:    now.Add(7 * 24 * time.Hour),
	}
}

func TestEvaluator_TargetClose(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	updated, changed := e.Evaluate(tip, freshQuote("RELIANCE", 111, now), true, now)

	if !changed {
		t.Fatal("expected a transition")
	}
	if updated.Status != contracts.StatusAllTargetsHit {
		t.Fatalf("Status = %s, want ALL_TARGETS_HIT", updated.Status)
	}

	// Closed price records the actual tick, the return books the planned
	// target move.
	if updated.ClosedPrice == nil || *updated.ClosedPrice != 111 {
		t.Errorf("ClosedPrice = %v, want 111", updated.ClosedPrice)
	}
	if updated.ReturnPct == nil || math.Abs(*updated.ReturnPct-10) > 0.0001 {
		t.Errorf("ReturnPct = %v, want 10", updated.ReturnPct)
	}
	if updated.RiskRewardRatio == nil || math.Abs(*updated.RiskRewardRatio-2) > 0.0001 {
		t.Errorf("RiskRewardRatio = %v, want 2", updated.RiskRewardRatio)
	}
	if updated.Target1HitAt == nil {
		t.Error("Target1HitAt not set")
	}
}

func TestEvaluator_StopLossBeatsTarget(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	// SELL tip where one price satisfies both the stop-loss and the
	// target conditions cannot happen; for BUY use a quote below stop.
	tip := buyTip(now)
	updated, changed := e.Evaluate(tip, freshQuote("RELIANCE", 94, now), true, now)

	if !changed {
		t.Fatal("expected a transition")
	}
	if updated.Status != contracts.StatusStopLossHit {
		t.Fatalf("Status = %s, want STOPLOSS_HIT", updated.Status)
	}
	if updated.ReturnPct == nil || math.Abs(*updated.ReturnPct-(-5)) > 0.0001 {
		t.Errorf("ReturnPct = %v, want -5 (full planned loss)", updated.ReturnPct)
	}
	if updated.StopLossHitAt == nil {
		t.Error("StopLossHitAt not set")
	}
}

func TestEvaluator_ExpiryBeatsStopLoss(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	tip.ExpiresAt = now.Add(-time.Hour)

	// Price is below the stop, but the tip is past expiry: expiry wins.
	updated, changed := e.Evaluate(tip, freshQuote("RELIANCE", 94, now), true, now)

	if !changed {
		t.Fatal("expected a transition")
	}
	if updated.Status != contracts.StatusExpired {
		t.Fatalf("Status = %s, want EXPIRED", updated.Status)
	}
	if updated.ReturnPct == nil || math.Abs(*updated.ReturnPct-(-6)) > 0.0001 {
		t.Errorf("ReturnPct = %v, want -6 (actual move)", updated.ReturnPct)
	}
}

func TestEvaluator_ExpiryUsesStaleQuote(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	tip.ExpiresAt = now.Add(-time.Hour)

	quote := freshQuote("RELIANCE", 102, now.Add(-2*time.Hour))
	quote.Stale = true

	updated, changed := e.Evaluate(tip, quote, true, now)
	if !changed {
		t.Fatal("expected expiry close at stale price")
	}
	if updated.Status != contracts.StatusExpired {
		t.Fatalf("Status = %s, want EXPIRED", updated.Status)
	}
	if updated.ClosedPrice == nil || *updated.ClosedPrice != 102 {
		t.Errorf("ClosedPrice = %v, want 102", updated.ClosedPrice)
	}
}

func TestEvaluator_StaleQuoteBlocksLiveChecks(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	quote := freshQuote("RELIANCE", 111, now.Add(-2*time.Hour))
	quote.Stale = true

	updated, changed := e.Evaluate(tip, quote, true, now)
	if changed {
		t.Errorf("stale quote should not trigger a live transition, got %s", updated.Status)
	}
}

func TestEvaluator_NoQuoteCarriesOver(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	if _, changed := e.Evaluate(tip, contracts.Quote{}, false, now); changed {
		t.Error("tip with no quote should carry over unchanged")
	}

	// Even past expiry, no known price means wait for the next tick.
	tip.ExpiresAt = now.Add(-time.Hour)
	if _, changed := e.Evaluate(tip, contracts.Quote{}, false, now); changed {
		t.Error("expired tip with no known price should carry over unchanged")
	}
}

func TestEvaluator_MultiTargetAdvance(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	tip.Target2 = ptr(120)
	tip.Target3 = ptr(130)

	// One tick past targets 1 and 2 advances through both.
	updated, changed := e.Evaluate(tip, freshQuote("RELIANCE", 121, now), true, now)
	if !changed {
		t.Fatal("expected a transition")
	}
	if updated.Status != contracts.StatusTarget2Hit {
		t.Fatalf("Status = %s, want TARGET_2_HIT", updated.Status)
	}
	if updated.Target1HitAt == nil || updated.Target2HitAt == nil {
		t.Error("hit timestamps for targets 1 and 2 should be set")
	}
	if updated.ClosedAt != nil {
		t.Error("intermediate state must not close the tip")
	}

	// Next tick past the last target closes with the blended return.
	final, changed := e.Evaluate(updated, freshQuote("RELIANCE", 131, now.Add(time.Hour)), true, now.Add(time.Hour))
	if !changed {
		t.Fatal("expected the closing transition")
	}
	if final.Status != contracts.StatusAllTargetsHit {
		t.Fatalf("Status = %s, want ALL_TARGETS_HIT", final.Status)
	}
	wantReturn := 0.33*10 + 0.33*20 + 0.34*30
	if final.ReturnPct == nil || math.Abs(*final.ReturnPct-wantReturn) > 0.0001 {
		t.Errorf("ReturnPct = %v, want %v", final.ReturnPct, wantReturn)
	}
}

func TestEvaluator_TerminalTipNeverChanges(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	tip.Status = contracts.StatusStopLossHit
	closedAt := now.Add(-time.Hour)
	tip.ClosedAt = &closedAt

	if _, changed := e.Evaluate(tip, freshQuote("RELIANCE", 111, now), true, now); changed {
		t.Error("terminal tip must never transition again")
	}
}

func TestEvaluator_SellDirection(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := contracts.Tip{
		ID:         2,
		CreatorID:  10,
		Symbol:     "TCS",
		Direction:  contracts.DirectionSell,
		Timeframe:  contracts.TimeframeIntraday,
		EntryPrice: 100,
		Target1:    90,
		StopLoss:   105,
		Status:     contracts.StatusActive,
		ExpiresAt:  now.Add(24 * time.Hour),
	}

	// Price falling to the target closes a SELL tip with a gain.
	updated, changed := e.Evaluate(tip, freshQuote("TCS", 89, now), true, now)
	if !changed || updated.Status != contracts.StatusAllTargetsHit {
		t.Fatalf("Status = %s, want ALL_TARGETS_HIT", updated.Status)
	}
	if updated.ReturnPct == nil || math.Abs(*updated.ReturnPct-10) > 0.0001 {
		t.Errorf("ReturnPct = %v, want 10", updated.ReturnPct)
	}

	// Price rising through the stop closes with the planned loss.
	tip.ID = 3
	updated, changed = e.Evaluate(tip, freshQuote("TCS", 106, now), true, now)
	if !changed || updated.Status != contracts.StatusStopLossHit {
		t.Fatalf("Status = %s, want STOPLOSS_HIT", updated.Status)
	}
	if updated.ReturnPct == nil || math.Abs(*updated.ReturnPct-(-5)) > 0.0001 {
		t.Errorf("ReturnPct = %v, want -5", updated.ReturnPct)
	}
}

func TestEvaluator_ClosingFieldsSetTogether(t *testing.T) {
	e := NewEvaluator(logger.NewNop())
	now := time.Now()

	tip := buyTip(now)
	updated, _ := e.Evaluate(tip, freshQuote("RELIANCE", 111, now), true, now)

	if updated.ClosedAt == nil || updated.ClosedPrice == nil ||
		updated.ReturnPct == nil || updated.RiskRewardRatio == nil {
		t.Error("closing fields must all be set on a terminal transition")
	}
}
