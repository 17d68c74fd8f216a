package scoring

import (
	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

const (
	// Average risk/reward is mapped linearly from this floor (-> 0)
	// to this ceiling (-> 100).
	riskRewardFloor   = -2.0
	riskRewardCeiling = 5.0
)

// RiskReturnCalculator scores how much reward a creator's tips earn
// per unit of planned risk.
// ⭐ SSOT: 위험조정수익 계산은 여기서만
type RiskReturnCalculator struct {
	logger *logger.Logger
}

// NewRiskReturnCalculator creates a risk-adjusted-return calculator.
func NewRiskReturnCalculator(log *logger.Logger) *RiskReturnCalculator {
	return &RiskReturnCalculator{
		logger: log.WithComponent("scoring.riskreturn"),
	}
}

// Calculate returns the risk-adjusted-return score (0-100), the
// average per-tip return percentage and the average risk/reward ratio.
func (c *RiskReturnCalculator) Calculate(tips []contracts.Tip) (float64, float64, float64) {
	if len(tips) == 0 {
		return 0, 0, 0
	}

	var returnSum, ratioSum float64
	var counted int

	for i := range tips {
		tip := &tips[i]
		if tip.ClosedAt == nil {
			continue
		}

		returnPct, ratio := tipReturn(tip)
		returnSum += returnPct
		ratioSum += ratio
		counted++
	}

	if counted == 0 {
		return 0, 0, 0
	}

	avgReturn := returnSum / float64(counted)
	avgRatio := ratioSum / float64(counted)

	score := (avgRatio - riskRewardFloor) / (riskRewardCeiling - riskRewardFloor) * 100

	return clamp(score, 0, 100), avgReturn, avgRatio
}

// tipReturn resolves a completed tip's return and risk/reward ratio.
// The lifecycle evaluator persists both at close; rows migrated from
// before that change are recomputed from the close price, status-aware:
// target closes blend the planned per-target returns, stop-loss closes
// take the full planned loss, expiry takes the actual close vs entry.
func tipReturn(tip *contracts.Tip) (float64, float64) {
	if tip.ReturnPct != nil && tip.RiskRewardRatio != nil {
		return *tip.ReturnPct, *tip.RiskRewardRatio
	}

	var closePrice float64
	if tip.ClosedPrice != nil {
		closePrice = *tip.ClosedPrice
	}

	returnPct := tip.ClosingReturn(tip.Status, closePrice)
	return returnPct, returnPct / tip.RiskPct()
}
