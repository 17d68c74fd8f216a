package scoring

import (
	"math"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// AccuracyCalculator scores how often a creator's tips hit, with
// exponential recency decay: a tip closed exactly halfLifeDays ago
// carries half the weight of one closed today.
// ⭐ SSOT: 적중률 계산은 여기서만
type AccuracyCalculator struct {
	halfLifeDays float64
	logger       *logger.Logger
}

// NewAccuracyCalculator creates an accuracy calculator.
func NewAccuracyCalculator(halfLifeDays float64, log *logger.Logger) *AccuracyCalculator {
	return &AccuracyCalculator{
		halfLifeDays: halfLifeDays,
		logger:       log.WithComponent("scoring.accuracy"),
	}
}

// Calculate returns the recency-weighted accuracy score (0-100) and
// the raw unweighted hit rate (0-1).
func (c *AccuracyCalculator) Calculate(tips []contracts.Tip, now time.Time) (float64, float64) {
	if len(tips) == 0 {
		return 0, 0
	}

	lambda := math.Ln2 / c.halfLifeDays

	var hits int
	var weightSum, weightedHits float64

	for i := range tips {
		tip := &tips[i]
		if tip.ClosedAt == nil {
			continue
		}

		daysSinceClose := now.Sub(*tip.ClosedAt).Hours() / 24
		if daysSinceClose < 0 {
			daysSinceClose = 0
		}
		weight := math.Exp(-lambda * daysSinceClose)

		weightSum += weight
		if tip.Status.IsHit() {
			hits++
			weightedHits += weight
		}
	}

	if weightSum == 0 {
		return 0, 0
	}

	rawRate := float64(hits) / float64(len(tips))
	weightedRate := weightedHits / weightSum

	return clamp(weightedRate*100, 0, 100), rawRate
}
