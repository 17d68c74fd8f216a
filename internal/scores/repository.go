package scores

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratemytip/tipscore/internal/contracts"
)

// Repository is the pgx-backed store for reputation output
// ⭐ SSOT: 점수/스냅샷 테이블 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a score repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertCreatorScore overwrites the creator's score row. One row per
// creator, keyed by creator_id, so retried jobs are idempotent.
func (r *Repository) UpsertCreatorScore(ctx context.Context, s *contracts.CreatorScore) error {
	query := `
		INSERT INTO creator_scores
			(creator_id, accuracy_score, risk_return_score, consistency_score, volume_factor_score,
			 rmt_score, confidence_interval, accuracy_rate, avg_return_pct, avg_risk_reward_ratio,
			 win_streak, loss_streak, best_tip_return, worst_tip_return,
			 intraday_accuracy, swing_accuracy, positional_accuracy, long_term_accuracy,
			 total_scored_tips, score_period_start, score_period_end, calculated_at, tier)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (creator_id) DO UPDATE SET
			accuracy_score = EXCLUDED.accuracy_score,
			risk_return_score = EXCLUDED.risk_return_score,
			consistency_score = EXCLUDED.consistency_score,
			volume_factor_score = EXCLUDED.volume_factor_score,
			rmt_score = EXCLUDED.rmt_score,
			confidence_interval = EXCLUDED.confidence_interval,
			accuracy_rate = EXCLUDED.accuracy_rate,
			avg_return_pct = EXCLUDED.avg_return_pct,
			avg_risk_reward_ratio = EXCLUDED.avg_risk_reward_ratio,
			win_streak = EXCLUDED.win_streak,
			loss_streak = EXCLUDED.loss_streak,
			best_tip_return = EXCLUDED.best_tip_return,
			worst_tip_return = EXCLUDED.worst_tip_return,
			intraday_accuracy = EXCLUDED.intraday_accuracy,
			swing_accuracy = EXCLUDED.swing_accuracy,
			positional_accuracy = EXCLUDED.positional_accuracy,
			long_term_accuracy = EXCLUDED.long_term_accuracy,
			total_scored_tips = EXCLUDED.total_scored_tips,
			score_period_start = EXCLUDED.score_period_start,
			score_period_end = EXCLUDED.score_period_end,
			calculated_at = EXCLUDED.calculated_at,
			tier = EXCLUDED.tier`

	_, err := r.pool.Exec(ctx, query,
		s.CreatorID, s.AccuracyScore, s.RiskReturnScore, s.ConsistencyScore, s.VolumeFactorScore,
		s.RMTScore, s.ConfidenceInterval, s.AccuracyRate, s.AvgReturnPct, s.AvgRiskRewardRatio,
		s.WinStreak, s.LossStreak, s.BestTipReturn, s.WorstTipReturn,
		s.IntradayAccuracy, s.SwingAccuracy, s.PositionalAccuracy, s.LongTermAccuracy,
		s.TotalScoredTips, s.ScorePeriodStart, s.ScorePeriodEnd, s.CalculatedAt, s.Tier,
	)
	return err
}

// DeleteCreatorScore withdraws a published score. Deleting a row that
// does not exist is fine.
func (r *Repository) DeleteCreatorScore(ctx context.Context, creatorID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM creator_scores WHERE creator_id = $1`, creatorID)
	return err
}

// GetCreatorScore returns the published score, or nil if none.
func (r *Repository) GetCreatorScore(ctx context.Context, creatorID int64) (*contracts.CreatorScore, error) {
	query := `
		SELECT creator_id, accuracy_score, risk_return_score, consistency_score, volume_factor_score,
			   rmt_score, confidence_interval, accuracy_rate, avg_return_pct, avg_risk_reward_ratio,
			   win_streak, loss_streak, best_tip_return, worst_tip_return,
			   intraday_accuracy, swing_accuracy, positional_accuracy, long_term_accuracy,
			   total_scored_tips, score_period_start, score_period_end, calculated_at, tier
		FROM creator_scores
		WHERE creator_id = $1`

	var s contracts.CreatorScore
	err := r.pool.QueryRow(ctx, query, creatorID).Scan(
		&s.CreatorID, &s.AccuracyScore, &s.RiskReturnScore, &s.ConsistencyScore, &s.VolumeFactorScore,
		&s.RMTScore, &s.ConfidenceInterval, &s.AccuracyRate, &s.AvgReturnPct, &s.AvgRiskRewardRatio,
		&s.WinStreak, &s.LossStreak, &s.BestTipReturn, &s.WorstTipReturn,
		&s.IntradayAccuracy, &s.SwingAccuracy, &s.PositionalAccuracy, &s.LongTermAccuracy,
		&s.TotalScoredTips, &s.ScorePeriodStart, &s.ScorePeriodEnd, &s.CalculatedAt, &s.Tier,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// UpsertSnapshot writes the (creator, date) snapshot row. Recomputing
// more than once the same day overwrites it.
func (r *Repository) UpsertSnapshot(ctx context.Context, snap *contracts.ScoreSnapshot) error {
	query := `
		INSERT INTO score_snapshots
			(creator_id, snapshot_date, rmt_score, accuracy_rate, total_scored_tips)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (creator_id, snapshot_date) DO UPDATE SET
			rmt_score = EXCLUDED.rmt_score,
			accuracy_rate = EXCLUDED.accuracy_rate,
			total_scored_tips = EXCLUDED.total_scored_tips`

	_, err := r.pool.Exec(ctx, query,
		snap.CreatorID, snap.Date, snap.RMTScore, snap.AccuracyRate, snap.TotalScoredTips,
	)
	return err
}

// SnapshotAll upserts today's snapshot row for every published score
// in a single statement, so the daily charting series has a point for
// each rated creator even when their score did not change today.
func (r *Repository) SnapshotAll(ctx context.Context, date time.Time) (int64, error) {
	query := `
		INSERT INTO score_snapshots
			(creator_id, snapshot_date, rmt_score, accuracy_rate, total_scored_tips)
		SELECT creator_id, $1, rmt_score, accuracy_rate, total_scored_tips
		FROM creator_scores
		ON CONFLICT (creator_id, snapshot_date) DO UPDATE SET
			rmt_score = EXCLUDED.rmt_score,
			accuracy_rate = EXCLUDED.accuracy_rate,
			total_scored_tips = EXCLUDED.total_scored_tips`

	tag, err := r.pool.Exec(ctx, query, date)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// Leaderboard returns the top published scores by RMT score.
func (r *Repository) Leaderboard(ctx context.Context, limit int) ([]contracts.LeaderboardEntry, error) {
	query := `
		SELECT creator_id, rmt_score, accuracy_rate, total_scored_tips, tier, win_streak
		FROM creator_scores
		ORDER BY rmt_score DESC, total_scored_tips DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []contracts.LeaderboardEntry
	for rows.Next() {
		var e contracts.LeaderboardEntry
		if err := rows.Scan(
			&e.CreatorID, &e.RMTScore, &e.AccuracyRate, &e.TotalScoredTips, &e.Tier, &e.WinStreak,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
