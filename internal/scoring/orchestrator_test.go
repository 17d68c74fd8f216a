package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/logger"
)

type fakeTipRepo struct {
	mu             sync.Mutex
	creators       []int64
	creatorsErr    error
	tipsByCreator  map[int64][]contracts.Tip
	failCreatorIDs map[int64]bool
	refreshed      []int64
}

func (f *fakeTipRepo) GetOpenTips(ctx context.Context) ([]contracts.Tip, error) {
	return nil, nil
}

func (f *fakeTipRepo) GetCompletedTipsByCreator(ctx context.Context, creatorID int64) ([]contracts.Tip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreatorIDs[creatorID] {
		return nil, errors.New("query failed")
	}
	return f.tipsByCreator[creatorID], nil
}

func (f *fakeTipRepo) ApplyTransition(ctx context.Context, tip *contracts.Tip) error {
	return nil
}

func (f *fakeTipRepo) ListActiveCreatorIDs(ctx context.Context) ([]int64, error) {
	return f.creators, f.creatorsErr
}

func (f *fakeTipRepo) RefreshCreatorStats(ctx context.Context, creatorID int64) (*contracts.CreatorStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, creatorID)
	return &contracts.CreatorStats{CreatorID: creatorID}, nil
}

type fakeScoreRepo struct {
	mu        sync.Mutex
	upserted  map[int64]*contracts.CreatorScore
	deleted   []int64
	snapshots []*contracts.ScoreSnapshot
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{upserted: make(map[int64]*contracts.CreatorScore)}
}

func (f *fakeScoreRepo) UpsertCreatorScore(ctx context.Context, score *contracts.CreatorScore) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted[score.CreatorID] = score
	return nil
}

func (f *fakeScoreRepo) DeleteCreatorScore(ctx context.Context, creatorID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, creatorID)
	return nil
}

func (f *fakeScoreRepo) UpsertSnapshot(ctx context.Context, snap *contracts.ScoreSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snap)
	return nil
}

func (f *fakeScoreRepo) SnapshotAll(ctx context.Context, date time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeScoreRepo) GetCreatorScore(ctx context.Context, creatorID int64) (*contracts.CreatorScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserted[creatorID], nil
}

func (f *fakeScoreRepo) Leaderboard(ctx context.Context, limit int) ([]contracts.LeaderboardEntry, error) {
	return nil, nil
}

func ratedTips(n int, closedAt time.Time) []contracts.Tip {
	tips := make([]contracts.Tip, 0, n)
	for i := 0; i < n; i++ {
		tips = append(tips, closedTip(contracts.StatusAllTargetsHit, closedAt))
	}
	return tips
}

func newTestOrchestrator(tips *fakeTipRepo, scores *fakeScoreRepo) *Orchestrator {
	log := logger.NewNop()
	cfg := config.ScoringConfig{
		HalfLifeDays:   30,
		MinSampleSize:  20,
		BatchSize:      2,
		MaxConcurrency: 2,
	}
	scorer := NewCompositeScorer(contracts.ScoringParams{
		HalfLifeDays:  cfg.HalfLifeDays,
		MinSampleSize: cfg.MinSampleSize,
	}, log)
	return NewOrchestrator(tips, scores, scorer, cfg, log)
}

func TestOrchestrator_RecomputeAll(t *testing.T) {
	now := time.Now()

	tips := &fakeTipRepo{
		creators: []int64{1, 2, 3},
		tipsByCreator: map[int64][]contracts.Tip{
			1: ratedTips(25, now),
			2: ratedTips(5, now), // below minimum sample
			3: ratedTips(30, now),
		},
	}
	scores := newFakeScoreRepo()

	result, err := newTestOrchestrator(tips, scores).RecomputeAll(context.Background(), now)
	if err != nil {
		t.Fatalf("RecomputeAll() error = %v", err)
	}

	if result.Total != 3 || result.Processed != 3 {
		t.Errorf("Total/Processed = %d/%d, want 3/3", result.Total, result.Processed)
	}
	if result.Published != 2 {
		t.Errorf("Published = %d, want 2", result.Published)
	}
	if result.Withheld != 1 {
		t.Errorf("Withheld = %d, want 1", result.Withheld)
	}

	if scores.upserted[1] == nil || scores.upserted[3] == nil {
		t.Error("creators 1 and 3 should have published scores")
	}
	if len(scores.deleted) != 1 || scores.deleted[0] != 2 {
		t.Errorf("deleted = %v, want [2] (withheld creator's row withdrawn)", scores.deleted)
	}
	if len(scores.snapshots) != 2 {
		t.Errorf("snapshots = %d, want 2", len(scores.snapshots))
	}

	// Stats refresh runs for every creator, published or withheld.
	if len(tips.refreshed) != 3 {
		t.Errorf("refreshed = %v, want all 3 creators", tips.refreshed)
	}
}

func TestOrchestrator_PerCreatorFaultIsolation(t *testing.T) {
	now := time.Now()

	tips := &fakeTipRepo{
		creators: []int64{1, 2, 3},
		tipsByCreator: map[int64][]contracts.Tip{
			1: ratedTips(25, now),
			3: ratedTips(25, now),
		},
		failCreatorIDs: map[int64]bool{2: true},
	}
	scores := newFakeScoreRepo()

	result, err := newTestOrchestrator(tips, scores).RecomputeAll(context.Background(), now)
	if err != nil {
		t.Fatalf("per-creator failures must not abort the run: %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Published != 2 {
		t.Errorf("Published = %d, want 2 (other creators still scored)", result.Published)
	}
}

func TestOrchestrator_EnumerationFailureAborts(t *testing.T) {
	tips := &fakeTipRepo{creatorsErr: errors.New("db down")}
	scores := newFakeScoreRepo()

	if _, err := newTestOrchestrator(tips, scores).RecomputeAll(context.Background(), time.Now()); err == nil {
		t.Fatal("population enumeration failure must abort the run")
	}
}

func TestOrchestrator_RecomputeCreator_Withheld(t *testing.T) {
	now := time.Now()

	tips := &fakeTipRepo{
		tipsByCreator: map[int64][]contracts.Tip{7: ratedTips(3, now)},
	}
	scores := newFakeScoreRepo()

	published, err := newTestOrchestrator(tips, scores).RecomputeCreator(context.Background(), 7, now)
	if err != nil {
		t.Fatalf("RecomputeCreator() error = %v", err)
	}
	if published {
		t.Error("3 tips must not publish a score")
	}

	// The stale score row is withdrawn and the tier still refreshed.
	if len(scores.deleted) != 1 || scores.deleted[0] != 7 {
		t.Errorf("deleted = %v, want [7]", scores.deleted)
	}
	if len(tips.refreshed) != 1 || tips.refreshed[0] != 7 {
		t.Errorf("refreshed = %v, want [7]", tips.refreshed)
	}
	if len(scores.snapshots) != 0 {
		t.Error("withheld creator must not get a snapshot")
	}
}
