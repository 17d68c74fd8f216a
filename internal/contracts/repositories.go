package contracts

import (
	"context"
	"time"
)

// Quote is the latest known price for a symbol at evaluation time.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`

	// Stale marks a quote older than the feed TTL. Expiry closes still
	// use it (latest known price), everything else treats it as absent.
	Stale bool `json:"stale"`
}

// TipRepository is the persistence boundary for tips
// ⭐ SSOT: 팁 영속성 인터페이스는 여기서만 정의
type TipRepository interface {
	// GetOpenTips returns every non-terminal tip.
	GetOpenTips(ctx context.Context) ([]Tip, error)

	// GetCompletedTipsByCreator returns the creator's terminal tips,
	// newest close first.
	GetCompletedTipsByCreator(ctx context.Context, creatorID int64) ([]Tip, error)

	// ApplyTransition persists the evaluator's output for one tip:
	// status, hit timestamps and, for terminal transitions, the
	// closing fields. It must not regress a terminal row.
	ApplyTransition(ctx context.Context, tip *Tip) error

	// ListActiveCreatorIDs enumerates creators with at least one tip.
	ListActiveCreatorIDs(ctx context.Context) ([]int64, error)

	// RefreshCreatorStats re-derives the denormalized counters and
	// tier for one creator from the authoritative tip table.
	RefreshCreatorStats(ctx context.Context, creatorID int64) (*CreatorStats, error)
}

// ScoreRepository is the persistence boundary for reputation output.
type ScoreRepository interface {
	// UpsertCreatorScore overwrites the creator's score row.
	UpsertCreatorScore(ctx context.Context, score *CreatorScore) error

	// DeleteCreatorScore withdraws a published score (creator fell
	// below the minimum sample).
	DeleteCreatorScore(ctx context.Context, creatorID int64) error

	// UpsertSnapshot writes the (creator, date) snapshot row.
	UpsertSnapshot(ctx context.Context, snap *ScoreSnapshot) error

	// SnapshotAll upserts a snapshot row for every published score as
	// of the given date. Returns the number of rows written.
	SnapshotAll(ctx context.Context, date time.Time) (int64, error)

	// GetCreatorScore returns the published score, or nil if none.
	GetCreatorScore(ctx context.Context, creatorID int64) (*CreatorScore, error)

	// Leaderboard returns the top published scores.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

// PriceSource supplies current prices for a set of symbols. Symbols
// with no obtainable quote are simply absent from the result; their
// tips carry over unchanged this tick.
type PriceSource interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}
