package lifecycle

import (
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// Evaluator is the pure tip-lifecycle decision function. Given a tip,
// the current quote and the clock, it returns the tip after this tick.
// Priority order is fixed: expiry > stop-loss > target. A tick that
// satisfies both the stop-loss and a target resolves to STOPLOSS_HIT.
// ⭐ SSOT: 팁 상태 전이는 이 평가기에서만 결정
type Evaluator struct {
	logger *logger.Logger
}

// NewEvaluator creates a lifecycle evaluator.
func NewEvaluator(log *logger.Logger) *Evaluator {
	return &Evaluator{
		logger: log.WithComponent("lifecycle.evaluator"),
	}
}

// Evaluate applies one evaluation tick to a tip. It returns the
// updated tip and whether anything changed. Terminal tips never change
// again. A tip with no usable quote carries over unchanged; that is a
// normal condition, not an error.
func (e *Evaluator) Evaluate(tip contracts.Tip, quote contracts.Quote, hasQuote bool, now time.Time) (contracts.Tip, bool) {
	if tip.Status.IsTerminal() {
		return tip, false
	}

	// 1. Expiry has the highest priority. The close uses the latest
	// known price even if stale; with no known price at all the tip
	// waits for the next tick.
	if !now.Before(tip.ExpiresAt) {
		if !hasQuote {
			return tip, false
		}
		if quote.Stale {
			e.logger.WithFields(map[string]interface{}{
				"tip_id":   tip.ID,
				"symbol":   tip.Symbol,
				"quote_at": quote.Timestamp,
			}).Warn("Closing expired tip at stale price")
		}
		e.close(&tip, contracts.StatusExpired, quote.Price, now)
		return tip, true
	}

	// Live checks need a fresh price.
	if !hasQuote || quote.Stale {
		return tip, false
	}

	// 2. Stop-loss check
	if e.stopLossHit(&tip, quote.Price) {
		tip.StopLossHitAt = &now
		e.close(&tip, contracts.StatusStopLossHit, quote.Price, now)
		return tip, true
	}

	// 3. Advance through un-hit targets in order. A single tick can
	// clear several targets when the price has moved past them.
	targets := tip.Targets()
	reached := tip.Status.TargetsReached()

	advanced := false
	for reached < len(targets) && e.targetHit(&tip, targets[reached], quote.Price) {
		reached++
		e.markTargetHit(&tip, reached, now)
		advanced = true
	}

	if !advanced {
		return tip, false
	}

	if reached == len(targets) {
		e.close(&tip, contracts.StatusAllTargetsHit, quote.Price, now)
	} else {
		tip.Status = targetStatus(reached)
	}

	return tip, true
}

// stopLossHit checks the stop-loss condition for the tip's direction.
func (e *Evaluator) stopLossHit(tip *contracts.Tip, price float64) bool {
	if tip.Direction == contracts.DirectionSell {
		return price >= tip.StopLoss
	}
	return price <= tip.StopLoss
}

// targetHit checks whether the price reached a target.
func (e *Evaluator) targetHit(tip *contracts.Tip, target, price float64) bool {
	if tip.Direction == contracts.DirectionSell {
		return price <= target
	}
	return price >= target
}

// markTargetHit records the hit timestamp for target n (1-based).
func (e *Evaluator) markTargetHit(tip *contracts.Tip, n int, now time.Time) {
	switch n {
	case 1:
		tip.Target1HitAt = &now
	case 2:
		tip.Target2HitAt = &now
	case 3:
		tip.Target3HitAt = &now
	}
}

// targetStatus maps a reached-target count to the intermediate status.
func targetStatus(reached int) contracts.TipStatus {
	switch reached {
	case 1:
		return contracts.StatusTarget1Hit
	case 2:
		return contracts.StatusTarget2Hit
	default:
		return contracts.StatusTarget3Hit
	}
}

// close moves the tip into a terminal state. The closing fields are
// always set together: closedAt, closedPrice, returnPct and
// riskRewardRatio are either all nil (open) or all present (closed).
func (e *Evaluator) close(tip *contracts.Tip, status contracts.TipStatus, closePrice float64, now time.Time) {
	returnPct := tip.ClosingReturn(status, closePrice)
	riskReward := returnPct / tip.RiskPct()

	tip.Status = status
	tip.ClosedAt = &now
	tip.ClosedPrice = &closePrice
	tip.ReturnPct = &returnPct
	tip.RiskRewardRatio = &riskReward

	e.logger.WithFields(map[string]interface{}{
		"tip_id":      tip.ID,
		"creator_id":  tip.CreatorID,
		"symbol":      tip.Symbol,
		"status":      status,
		"close_price": closePrice,
		"return_pct":  returnPct,
	}).Debug("Tip closed")
}
