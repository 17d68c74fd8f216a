package tips

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratemytip/tipscore/internal/contracts"
)

// tipColumns is the shared select list for tip scans.
const tipColumns = `
	id, creator_id, symbol, direction, timeframe,
	entry_price, target_1, target_2, target_3, stop_loss,
	status, tip_timestamp, expires_at,
	closed_price, closed_at, return_pct, risk_reward_ratio,
	target_1_hit_at, target_2_hit_at, target_3_hit_at, stop_loss_hit_at`

// Repository is the pgx-backed tip store
// ⭐ SSOT: 팁 테이블 접근은 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tip repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetOpenTips returns every non-terminal tip.
func (r *Repository) GetOpenTips(ctx context.Context) ([]contracts.Tip, error) {
	query := `
		SELECT ` + tipColumns + `
		FROM tips
		WHERE status IN ('ACTIVE', 'TARGET_1_HIT', 'TARGET_2_HIT')
		ORDER BY symbol, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTips(rows)
}

// GetCompletedTipsByCreator returns the creator's terminal tips,
// newest close first.
func (r *Repository) GetCompletedTipsByCreator(ctx context.Context, creatorID int64) ([]contracts.Tip, error) {
	query := `
		SELECT ` + tipColumns + `
		FROM tips
		WHERE creator_id = $1
		  AND closed_at IS NOT NULL
		ORDER BY closed_at DESC`

	rows, err := r.pool.Query(ctx, query, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTips(rows)
}

// ApplyTransition persists one evaluation tick's output. The guard on
// status keeps terminal rows immutable: an already-closed tip is never
// regressed, even under a retried sweep.
func (r *Repository) ApplyTransition(ctx context.Context, tip *contracts.Tip) error {
	query := `
		UPDATE tips SET
			status = $2,
			closed_price = $3,
			closed_at = $4,
			return_pct = $5,
			risk_reward_ratio = $6,
			target_1_hit_at = COALESCE(target_1_hit_at, $7),
			target_2_hit_at = COALESCE(target_2_hit_at, $8),
			target_3_hit_at = COALESCE(target_3_hit_at, $9),
			stop_loss_hit_at = COALESCE(stop_loss_hit_at, $10),
			updated_at = NOW()
		WHERE id = $1
		  AND status IN ('ACTIVE', 'TARGET_1_HIT', 'TARGET_2_HIT')`

	tag, err := r.pool.Exec(ctx, query,
		tip.ID, tip.Status,
		tip.ClosedPrice, tip.ClosedAt, tip.ReturnPct, tip.RiskRewardRatio,
		tip.Target1HitAt, tip.Target2HitAt, tip.Target3HitAt, tip.StopLossHitAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tip %d already terminal, transition to %s rejected", tip.ID, tip.Status)
	}

	return nil
}

// ListActiveCreatorIDs enumerates creators with at least one tip.
func (r *Repository) ListActiveCreatorIDs(ctx context.Context) ([]int64, error) {
	query := `
		SELECT DISTINCT creator_id
		FROM tips
		ORDER BY creator_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// RefreshCreatorStats re-derives the denormalized counters from the
// tip table and overwrites the creator aggregate. Re-deriving instead
// of incrementing keeps the counters drift-free under retries.
func (r *Repository) RefreshCreatorStats(ctx context.Context, creatorID int64) (*contracts.CreatorStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE closed_at IS NULL),
			COUNT(*) FILTER (WHERE closed_at IS NOT NULL)
		FROM tips
		WHERE creator_id = $1`

	stats := &contracts.CreatorStats{CreatorID: creatorID}
	err := r.pool.QueryRow(ctx, query, creatorID).Scan(&stats.ActiveTips, &stats.CompletedTips)
	if err != nil {
		return nil, err
	}

	stats.Tier = contracts.TierFor(stats.CompletedTips)

	update := `
		UPDATE creators SET
			active_tips = $2,
			completed_tips = $3,
			tier = $4,
			stats_updated_at = NOW()
		WHERE id = $1`

	if _, err := r.pool.Exec(ctx, update, creatorID, stats.ActiveTips, stats.CompletedTips, stats.Tier); err != nil {
		return nil, err
	}

	return stats, nil
}

// scanTips collects tips from a query result.
func scanTips(rows pgx.Rows) ([]contracts.Tip, error) {
	var tips []contracts.Tip
	for rows.Next() {
		var t contracts.Tip
		if err := rows.Scan(
			&t.ID, &t.CreatorID, &t.Symbol, &t.Direction, &t.Timeframe,
			&t.EntryPrice, &t.Target1, &t.Target2, &t.Target3, &t.StopLoss,
			&t.Status, &t.TipTimestamp, &t.ExpiresAt,
			&t.ClosedPrice, &t.ClosedAt, &t.ReturnPct, &t.RiskRewardRatio,
			&t.Target1HitAt, &t.Target2HitAt, &t.Target3HitAt, &t.StopLossHitAt,
		); err != nil {
			return nil, err
		}
		tips = append(tips, t)
	}

	return tips, rows.Err()
}
