package scoring

import (
	"math"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

const (
	// minMonthsForConsistency is the number of distinct calendar
	// months of closes needed before variance says anything.
	minMonthsForConsistency = 3

	// neutralConsistencyScore is returned on insufficient data. It is
	// a neutral signal, not a penalty.
	neutralConsistencyScore = 50.0
)

// ConsistencyCalculator scores how stable a creator's monthly accuracy
// is, via the coefficient of variation of monthly hit rates.
// ⭐ SSOT: 일관성 계산은 여기서만
type ConsistencyCalculator struct {
	logger *logger.Logger
}

// NewConsistencyCalculator creates a consistency calculator.
func NewConsistencyCalculator(log *logger.Logger) *ConsistencyCalculator {
	return &ConsistencyCalculator{
		logger: log.WithComponent("scoring.consistency"),
	}
}

// monthKey identifies a calendar month of closes.
type monthKey struct {
	year  int
	month int
}

// Calculate returns the consistency score (0-100).
func (c *ConsistencyCalculator) Calculate(tips []contracts.Tip) float64 {
	type monthCounts struct {
		total int
		hits  int
	}

	months := make(map[monthKey]*monthCounts)
	for i := range tips {
		tip := &tips[i]
		if tip.ClosedAt == nil {
			continue
		}

		key := monthKey{year: tip.ClosedAt.Year(), month: int(tip.ClosedAt.Month())}
		counts := months[key]
		if counts == nil {
			counts = &monthCounts{}
			months[key] = counts
		}
		counts.total++
		if tip.Status.IsHit() {
			counts.hits++
		}
	}

	if len(months) < minMonthsForConsistency {
		return neutralConsistencyScore
	}

	rates := make([]float64, 0, len(months))
	for _, counts := range months {
		rates = append(rates, float64(counts.hits)/float64(counts.total))
	}

	mean := meanOf(rates)
	if mean == 0 {
		// Consistently wrong is not "consistent" in a good sense.
		return 0
	}

	cv := populationStdDev(rates, mean) / mean
	return clamp((1-cv)*100, 0, 100)
}

// meanOf returns the arithmetic mean.
func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStdDev returns the population standard deviation.
func populationStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sumSquares float64
	for _, v := range values {
		d := v - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}
