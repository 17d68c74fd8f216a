package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// Component weights of the composite RMT score.
const (
	weightAccuracy    = 0.40
	weightRiskReturn  = 0.30
	weightConsistency = 0.20
	weightVolume      = 0.10
)

// CompositeScorer combines the four component calculators into one
// 0-100 RMT score plus the derived statistics published alongside it.
// ⭐ SSOT: 종합 점수 산출은 여기서만
type CompositeScorer struct {
	params contracts.ScoringParams

	accuracy    *AccuracyCalculator
	riskReturn  *RiskReturnCalculator
	consistency *ConsistencyCalculator
	volume      *VolumeFactorCalculator

	logger *logger.Logger
}

// NewCompositeScorer creates a composite scorer.
func NewCompositeScorer(params contracts.ScoringParams, log *logger.Logger) *CompositeScorer {
	return &CompositeScorer{
		params:      params,
		accuracy:    NewAccuracyCalculator(params.HalfLifeDays, log),
		riskReturn:  NewRiskReturnCalculator(log),
		consistency: NewConsistencyCalculator(log),
		volume:      NewVolumeFactorCalculator(log),
		logger:      log.WithComponent("scoring.composite"),
	}
}

// Compute scores one creator's completed tips. Below the minimum
// sample size no score is computed at all: the second return value is
// false and the caller publishes nothing (the tier on the creator
// aggregate is still refreshed elsewhere).
func (s *CompositeScorer) Compute(creatorID int64, tips []contracts.Tip, now time.Time) (*contracts.CreatorScore, bool) {
	completed := tips[:0:0]
	for i := range tips {
		if tips[i].IsCompleted() {
			completed = append(completed, tips[i])
		}
	}

	if len(completed) < s.params.MinSampleSize {
		s.logger.WithFields(map[string]interface{}{
			"creator_id": creatorID,
			"completed":  len(completed),
			"min_sample": s.params.MinSampleSize,
		}).Debug("Below minimum sample, withholding score")
		return nil, false
	}

	accuracyScore, rawRate := s.accuracy.Calculate(completed, now)
	riskReturnScore, avgReturn, avgRatio := s.riskReturn.Calculate(completed)
	consistencyScore := s.consistency.Calculate(completed)
	volumeScore := s.volume.Calculate(len(completed))

	rmt := weightAccuracy*accuracyScore +
		weightRiskReturn*riskReturnScore +
		weightConsistency*consistencyScore +
		weightVolume*volumeScore

	score := &contracts.CreatorScore{
		CreatorID:          creatorID,
		AccuracyScore:      accuracyScore,
		RiskReturnScore:    riskReturnScore,
		ConsistencyScore:   consistencyScore,
		VolumeFactorScore:  volumeScore,
		RMTScore:           clamp(rmt, 0, 100),
		ConfidenceInterval: confidenceInterval(rawRate, len(completed)),
		AccuracyRate:       rawRate,
		AvgReturnPct:       avgReturn,
		AvgRiskRewardRatio: avgRatio,
		TotalScoredTips:    len(completed),
		CalculatedAt:       now,
		Tier:               contracts.TierFor(len(completed)),
	}

	s.fillStreaks(score, completed)
	s.fillExtremes(score, completed)
	s.fillTimeframes(score, completed)
	s.fillPeriod(score, completed)

	s.logger.WithFields(map[string]interface{}{
		"creator_id":  creatorID,
		"rmt_score":   score.RMTScore,
		"accuracy":    accuracyScore,
		"risk_return": riskReturnScore,
		"consistency": consistencyScore,
		"volume":      volumeScore,
		"tips":        len(completed),
	}).Debug("Computed creator score")

	return score, true
}

// confidenceInterval is the 95% margin on the raw accuracy rate,
// narrowing as the sample grows. Zero when there is no sample.
func confidenceInterval(rate float64, n int) float64 {
	if n == 0 {
		return 0
	}
	p := clamp(rate, 0, 1)
	return 1.96 * math.Sqrt(p*(1-p)/float64(n)) * 100
}

// fillStreaks counts the run of hits (or misses) from the most recent
// close backwards. Only one of the two streaks is ever non-zero.
func (s *CompositeScorer) fillStreaks(score *contracts.CreatorScore, tips []contracts.Tip) {
	byCloseDesc := make([]contracts.Tip, len(tips))
	copy(byCloseDesc, tips)
	sort.Slice(byCloseDesc, func(i, j int) bool {
		return byCloseDesc[i].ClosedAt.After(*byCloseDesc[j].ClosedAt)
	})

	if len(byCloseDesc) == 0 {
		return
	}

	winning := byCloseDesc[0].Status.IsHit()
	streak := 0
	for i := range byCloseDesc {
		if byCloseDesc[i].Status.IsHit() != winning {
			break
		}
		streak++
	}

	if winning {
		score.WinStreak = streak
	} else {
		score.LossStreak = streak
	}
}

// fillExtremes records the best and worst tip return.
func (s *CompositeScorer) fillExtremes(score *contracts.CreatorScore, tips []contracts.Tip) {
	best := math.Inf(-1)
	worst := math.Inf(1)

	for i := range tips {
		returnPct, _ := tipReturn(&tips[i])
		if returnPct > best {
			best = returnPct
		}
		if returnPct < worst {
			worst = returnPct
		}
	}

	if len(tips) > 0 {
		score.BestTipReturn = best
		score.WorstTipReturn = worst
	}
}

// fillTimeframes computes accuracy independently per timeframe,
// leaving a timeframe nil when the creator has no completed tips in it.
func (s *CompositeScorer) fillTimeframes(score *contracts.CreatorScore, tips []contracts.Tip) {
	for _, tf := range contracts.AllTimeframes {
		var total, hits int
		for i := range tips {
			if tips[i].Timeframe != tf {
				continue
			}
			total++
			if tips[i].Status.IsHit() {
				hits++
			}
		}

		if total == 0 {
			score.SetTimeframeAccuracy(tf, nil)
			continue
		}

		rate := float64(hits) / float64(total)
		score.SetTimeframeAccuracy(tf, &rate)
	}
}

// fillPeriod records the span of closes the score covers.
func (s *CompositeScorer) fillPeriod(score *contracts.CreatorScore, tips []contracts.Tip) {
	for i := range tips {
		closedAt := *tips[i].ClosedAt
		if score.ScorePeriodStart.IsZero() || closedAt.Before(score.ScorePeriodStart) {
			score.ScorePeriodStart = closedAt
		}
		if closedAt.After(score.ScorePeriodEnd) {
			score.ScorePeriodEnd = closedAt
		}
	}
}
