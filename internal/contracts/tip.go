package contracts

import (
	"math"
	"time"
)

// Direction of a tip's predicted price move
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// Timeframe of a tip's holding horizon
type Timeframe string

const (
	TimeframeIntraday   Timeframe = "INTRADAY"
	TimeframeSwing      Timeframe = "SWING"
	TimeframePositional Timeframe = "POSITIONAL"
	TimeframeLongTerm   Timeframe = "LONG_TERM"
)

// AllTimeframes lists every timeframe in display order
var AllTimeframes = []Timeframe{
	TimeframeIntraday,
	TimeframeSwing,
	TimeframePositional,
	TimeframeLongTerm,
}

// TipStatus models the tip lifecycle state machine
// ⭐ SSOT: 상태 전이 규칙은 이 타입의 메서드에서만 정의
type TipStatus string

const (
	StatusActive        TipStatus = "ACTIVE"
	StatusTarget1Hit    TipStatus = "TARGET_1_HIT"
	StatusTarget2Hit    TipStatus = "TARGET_2_HIT"
	StatusTarget3Hit    TipStatus = "TARGET_3_HIT"
	StatusAllTargetsHit TipStatus = "ALL_TARGETS_HIT"
	StatusStopLossHit   TipStatus = "STOPLOSS_HIT"
	StatusExpired       TipStatus = "EXPIRED"
)

// IsTerminal reports whether the status is a closing state.
// Terminal tips are immutable and eligible for scoring.
func (s TipStatus) IsTerminal() bool {
	switch s {
	case StatusTarget3Hit, StatusAllTargetsHit, StatusStopLossHit, StatusExpired:
		return true
	}
	return false
}

// IsHit reports whether the status counts as a successful prediction.
// Historical rows may be closed in an intermediate TARGET_*_HIT state
// (e.g. migrated data), so all target states count.
func (s TipStatus) IsHit() bool {
	switch s {
	case StatusTarget1Hit, StatusTarget2Hit, StatusTarget3Hit, StatusAllTargetsHit:
		return true
	}
	return false
}

// TargetsReached returns how many targets a status implies were reached.
// For ALL_TARGETS_HIT the caller must cap by the tip's defined targets.
func (s TipStatus) TargetsReached() int {
	switch s {
	case StatusTarget1Hit:
		return 1
	case StatusTarget2Hit:
		return 2
	case StatusTarget3Hit, StatusAllTargetsHit:
		return 3
	}
	return 0
}

// minRiskPct floors the planned-risk percentage so the risk/reward
// division never blows up on a stop placed at (or on top of) entry.
const minRiskPct = 0.01

// Tip is a single directional price prediction.
// Created by the ingestion pipeline; mutated only by the lifecycle
// evaluator until terminal, then immutable.
type Tip struct {
	ID        int64     `json:"id"`
	CreatorID int64     `json:"creator_id"`
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Timeframe Timeframe `json:"timeframe"`

	EntryPrice float64  `json:"entry_price"`
	Target1    float64  `json:"target_1"`
	Target2    *float64 `json:"target_2,omitempty"`
	Target3    *float64 `json:"target_3,omitempty"`
	StopLoss   float64  `json:"stop_loss"`

	Status       TipStatus `json:"status"`
	TipTimestamp time.Time `json:"tip_timestamp"`
	ExpiresAt    time.Time `json:"expires_at"`

	// Set together exactly when the tip turns terminal
	ClosedPrice     *float64   `json:"closed_price,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	ReturnPct       *float64   `json:"return_pct,omitempty"`
	RiskRewardRatio *float64   `json:"risk_reward_ratio,omitempty"`

	Target1HitAt  *time.Time `json:"target_1_hit_at,omitempty"`
	Target2HitAt  *time.Time `json:"target_2_hit_at,omitempty"`
	Target3HitAt  *time.Time `json:"target_3_hit_at,omitempty"`
	StopLossHitAt *time.Time `json:"stop_loss_hit_at,omitempty"`
}

// IsCompleted reports whether the tip reached a terminal status with a
// recorded close.
func (t *Tip) IsCompleted() bool {
	return t.Status.IsTerminal() && t.ClosedAt != nil
}

// Targets returns the defined targets in hit order.
func (t *Tip) Targets() []float64 {
	targets := []float64{t.Target1}
	if t.Target2 != nil {
		targets = append(targets, *t.Target2)
	}
	if t.Target3 != nil {
		targets = append(targets, *t.Target3)
	}
	return targets
}

// TargetCount returns how many targets the tip defines (1-3).
func (t *Tip) TargetCount() int {
	return len(t.Targets())
}

// DirectionAdjustedReturn converts a close price into a signed
// percentage return from entry. Positive means the prediction moved in
// the tipped direction.
func (t *Tip) DirectionAdjustedReturn(closePrice float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	ret := (closePrice - t.EntryPrice) / t.EntryPrice * 100
	if t.Direction == DirectionSell {
		ret = -ret
	}
	return ret
}

// RiskPct returns the planned loss as a percentage of entry, floored to
// keep risk/reward division defined.
func (t *Tip) RiskPct() float64 {
	if t.EntryPrice == 0 {
		return minRiskPct
	}
	risk := math.Abs(t.EntryPrice-t.StopLoss) / t.EntryPrice * 100
	if risk < minRiskPct {
		return minRiskPct
	}
	return risk
}

// blendWeights maps the number of targets reached to per-target blend
// weights: 1 hit -> 100%, 2 hits -> 50/50, all 3 -> 33/33/34.
var blendWeights = [][]float64{
	1: {1.0},
	2: {0.5, 0.5},
	3: {0.33, 0.33, 0.34},
}

// BlendedTargetReturn returns the weighted blend of the per-target
// returns for the first n targets reached.
func (t *Tip) BlendedTargetReturn(n int) float64 {
	targets := t.Targets()
	if n > len(targets) {
		n = len(targets)
	}
	if n <= 0 {
		return 0
	}
	weights := blendWeights[n]
	var blended float64
	for i := 0; i < n; i++ {
		blended += weights[i] * t.DirectionAdjustedReturn(targets[i])
	}
	return blended
}

// ClosingReturn computes the scoring return for a terminal status and
// close price:
//   - target states use the blended planned-target return
//   - stop-loss closes use the full planned loss
//   - expiry uses the actual close against entry
func (t *Tip) ClosingReturn(status TipStatus, closePrice float64) float64 {
	switch status {
	case StatusStopLossHit:
		return -t.RiskPct()
	case StatusExpired:
		return t.DirectionAdjustedReturn(closePrice)
	case StatusAllTargetsHit:
		return t.BlendedTargetReturn(t.TargetCount())
	case StatusTarget1Hit, StatusTarget2Hit, StatusTarget3Hit:
		return t.BlendedTargetReturn(status.TargetsReached())
	}
	return 0
}
