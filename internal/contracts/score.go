package contracts

import "time"

// Tier is the ordinal reputation bucket, derived purely from the size
// of a creator's completed-tip sample.
type Tier string

const (
	TierUnrated  Tier = "UNRATED"
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
	TierDiamond  Tier = "DIAMOND"
)

// TierFor buckets a completed-tip count into a tier
// ⭐ SSOT: 티어 임계값은 여기서만
func TierFor(totalScoredTips int) Tier {
	switch {
	case totalScoredTips < 20:
		return TierUnrated
	case totalScoredTips < 50:
		return TierBronze
	case totalScoredTips < 200:
		return TierSilver
	case totalScoredTips < 500:
		return TierGold
	case totalScoredTips < 1000:
		return TierPlatinum
	default:
		return TierDiamond
	}
}

// CreatorScore is the composite reputation row for one creator,
// overwritten on every recompute.
type CreatorScore struct {
	CreatorID int64 `json:"creator_id"`

	// Component scores, 0-100 each
	AccuracyScore     float64 `json:"accuracy_score"`
	RiskReturnScore   float64 `json:"risk_return_score"`
	ConsistencyScore  float64 `json:"consistency_score"`
	VolumeFactorScore float64 `json:"volume_factor_score"`

	RMTScore           float64 `json:"rmt_score"`
	ConfidenceInterval float64 `json:"confidence_interval"`

	AccuracyRate       float64 `json:"accuracy_rate"`
	AvgReturnPct       float64 `json:"avg_return_pct"`
	AvgRiskRewardRatio float64 `json:"avg_risk_reward_ratio"`
	WinStreak          int     `json:"win_streak"`
	LossStreak         int     `json:"loss_streak"`
	BestTipReturn      float64 `json:"best_tip_return"`
	WorstTipReturn     float64 `json:"worst_tip_return"`

	// Per-timeframe accuracy, nil when the creator has no completed
	// tips in that timeframe
	IntradayAccuracy   *float64 `json:"intraday_accuracy,omitempty"`
	SwingAccuracy      *float64 `json:"swing_accuracy,omitempty"`
	PositionalAccuracy *float64 `json:"positional_accuracy,omitempty"`
	LongTermAccuracy   *float64 `json:"long_term_accuracy,omitempty"`

	TotalScoredTips  int       `json:"total_scored_tips"`
	ScorePeriodStart time.Time `json:"score_period_start"`
	ScorePeriodEnd   time.Time `json:"score_period_end"`
	CalculatedAt     time.Time `json:"calculated_at"`
	Tier             Tier      `json:"tier"`
}

// TimeframeAccuracy returns the accuracy pointer for a timeframe.
func (s *CreatorScore) TimeframeAccuracy(tf Timeframe) *float64 {
	switch tf {
	case TimeframeIntraday:
		return s.IntradayAccuracy
	case TimeframeSwing:
		return s.SwingAccuracy
	case TimeframePositional:
		return s.PositionalAccuracy
	case TimeframeLongTerm:
		return s.LongTermAccuracy
	}
	return nil
}

// SetTimeframeAccuracy stores a timeframe accuracy value.
func (s *CreatorScore) SetTimeframeAccuracy(tf Timeframe, rate *float64) {
	switch tf {
	case TimeframeIntraday:
		s.IntradayAccuracy = rate
	case TimeframeSwing:
		s.SwingAccuracy = rate
	case TimeframePositional:
		s.PositionalAccuracy = rate
	case TimeframeLongTerm:
		s.LongTermAccuracy = rate
	}
}

// ScoreSnapshot is one immutable row per (creator, calendar date) for
// historical charting. Recomputing twice the same day upserts it.
type ScoreSnapshot struct {
	CreatorID       int64     `json:"creator_id"`
	Date            time.Time `json:"date"`
	RMTScore        float64   `json:"rmt_score"`
	AccuracyRate    float64   `json:"accuracy_rate"`
	TotalScoredTips int       `json:"total_scored_tips"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreatorStats are the denormalized counters kept on the creator
// aggregate, re-derived from the tip table after each sweep.
type CreatorStats struct {
	CreatorID     int64 `json:"creator_id"`
	ActiveTips    int   `json:"active_tips"`
	CompletedTips int   `json:"completed_tips"`
	Tier          Tier  `json:"tier"`
}

// LeaderboardEntry is a read-model row for the ops leaderboard.
type LeaderboardEntry struct {
	CreatorID       int64   `json:"creator_id"`
	RMTScore        float64 `json:"rmt_score"`
	AccuracyRate    float64 `json:"accuracy_rate"`
	TotalScoredTips int     `json:"total_scored_tips"`
	Tier            Tier    `json:"tier"`
	WinStreak       int     `json:"win_streak"`
}

// ScoringParams tune the reputation engine.
type ScoringParams struct {
	// HalfLifeDays controls recency decay: a tip closed exactly this
	// many days ago carries half the weight of one closed today.
	HalfLifeDays float64

	// MinSampleSize is the completed-tip count below which no score is
	// published (tier is still refreshed).
	MinSampleSize int
}

// DefaultScoringParams returns the production scoring parameters.
func DefaultScoringParams() ScoringParams {
	return ScoringParams{
		HalfLifeDays:  30,
		MinSampleSize: 20,
	}
}

// SnapshotDate derives the snapshot key for an instant: the calendar
// date in the market's timezone, stored at UTC midnight so the key is
// comparable regardless of server timezone. Truncating the instant
// itself would key by UTC-epoch day and split early-morning runs
// across two dates.
func SnapshotDate(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
