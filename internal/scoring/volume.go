package scoring

import (
	"math"

	"github.com/ratemytip/tipscore/pkg/logger"
)

// volumeCeiling is the completed-tip count at which the volume factor
// saturates at 100.
const volumeCeiling = 2000

// VolumeFactorCalculator scores sample size on a log scale: doubling a
// small track record matters much more than doubling a large one.
// ⭐ SSOT: 볼륨 팩터 계산은 여기서만
type VolumeFactorCalculator struct {
	logger *logger.Logger
}

// NewVolumeFactorCalculator creates a volume-factor calculator.
func NewVolumeFactorCalculator(log *logger.Logger) *VolumeFactorCalculator {
	return &VolumeFactorCalculator{
		logger: log.WithComponent("scoring.volume"),
	}
}

// Calculate returns the volume-factor score (0-100) for a completed
// tip count. Zero or negative counts score 0.
func (c *VolumeFactorCalculator) Calculate(totalScoredTips int) float64 {
	if totalScoredTips <= 0 {
		return 0
	}

	factor := math.Log10(float64(totalScoredTips)) / math.Log10(volumeCeiling)
	return clamp(factor*100, 0, 100)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
