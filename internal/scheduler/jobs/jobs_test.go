package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/internal/lifecycle"
	"github.com/ratemytip/tipscore/internal/scoring"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/logger"
)

type fakeChainer struct {
	ran     []string
	delayed map[string]time.Duration
}

func newFakeChainer() *fakeChainer {
	return &fakeChainer{delayed: make(map[string]time.Duration)}
}

func (f *fakeChainer) RunJob(jobName string) error {
	f.ran = append(f.ran, jobName)
	return nil
}

func (f *fakeChainer) RunJobAfter(jobName string, delay time.Duration) error {
	f.delayed[jobName] = delay
	return nil
}

type fakeTipRepo struct {
	openErr  error
	creators []int64
}

func (f *fakeTipRepo) GetOpenTips(ctx context.Context) ([]contracts.Tip, error) {
	return nil, f.openErr
}

func (f *fakeTipRepo) GetCompletedTipsByCreator(ctx context.Context, creatorID int64) ([]contracts.Tip, error) {
	return nil, nil
}

func (f *fakeTipRepo) ApplyTransition(ctx context.Context, tip *contracts.Tip) error {
	return nil
}

func (f *fakeTipRepo) ListActiveCreatorIDs(ctx context.Context) ([]int64, error) {
	return f.creators, nil
}

func (f *fakeTipRepo) RefreshCreatorStats(ctx context.Context, creatorID int64) (*contracts.CreatorStats, error) {
	return &contracts.CreatorStats{CreatorID: creatorID}, nil
}

type fakeScoreRepo struct{}

func (f *fakeScoreRepo) UpsertCreatorScore(ctx context.Context, score *contracts.CreatorScore) error {
	return nil
}
func (f *fakeScoreRepo) DeleteCreatorScore(ctx context.Context, creatorID int64) error { return nil }
func (f *fakeScoreRepo) UpsertSnapshot(ctx context.Context, snap *contracts.ScoreSnapshot) error {
	return nil
}
func (f *fakeScoreRepo) SnapshotAll(ctx context.Context, date time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeScoreRepo) GetCreatorScore(ctx context.Context, creatorID int64) (*contracts.CreatorScore, error) {
	return nil, nil
}
func (f *fakeScoreRepo) Leaderboard(ctx context.Context, limit int) ([]contracts.LeaderboardEntry, error) {
	return nil, nil
}

type fakePrices struct{}

func (f *fakePrices) Quotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error) {
	return map[string]contracts.Quote{}, nil
}

func testSweep(repo *fakeTipRepo) *lifecycle.Sweep {
	log := logger.NewNop()
	return lifecycle.NewSweep(repo, &fakePrices{}, lifecycle.NewEvaluator(log), log)
}

func testOrchestrator(repo *fakeTipRepo) *scoring.Orchestrator {
	log := logger.NewNop()
	cfg := config.ScoringConfig{HalfLifeDays: 30, MinSampleSize: 20, BatchSize: 50, MaxConcurrency: 2}
	scorer := scoring.NewCompositeScorer(contracts.DefaultScoringParams(), log)
	return scoring.NewOrchestrator(repo, &fakeScoreRepo{}, scorer, cfg, log)
}

func TestPriceSweepJob_ChainsRecompute(t *testing.T) {
	chain := newFakeChainer()
	job := NewPriceSweepJob(testSweep(&fakeTipRepo{}), chain, logger.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(chain.ran) != 1 || chain.ran[0] != JobScoreRecompute {
		t.Errorf("chained jobs = %v, want [%s]", chain.ran, JobScoreRecompute)
	}
}

func TestPriceSweepJob_FailureDoesNotChain(t *testing.T) {
	chain := newFakeChainer()
	repo := &fakeTipRepo{openErr: errors.New("db down")}
	job := NewPriceSweepJob(testSweep(repo), chain, logger.NewNop())

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("sweep failure must surface as a job failure")
	}

	if len(chain.ran) != 0 {
		t.Errorf("failed job must not chain, chained %v", chain.ran)
	}
}

func TestScoreRecomputeJob_ChainsSnapshotAfterSettling(t *testing.T) {
	chain := newFakeChainer()
	settling := 5 * time.Minute
	job := NewScoreRecomputeJob(testOrchestrator(&fakeTipRepo{}), chain, settling, logger.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	delay, ok := chain.delayed[JobScoreSnapshot]
	if !ok {
		t.Fatal("successful recompute must chain the snapshot job")
	}
	if delay != settling {
		t.Errorf("settling delay = %v, want %v", delay, settling)
	}
}

func TestStatsReconcileJob(t *testing.T) {
	repo := &fakeTipRepo{creators: []int64{1, 2, 3}}
	job := NewStatsReconcileJob(repo, logger.NewNop())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestJobSchedules(t *testing.T) {
	// Every job must carry a non-empty cron expression and a stable name.
	log := logger.NewNop()
	repo := &fakeTipRepo{}

	jobs := map[string]interface {
		Name() string
		Schedule() string
	}{
		JobPriceSweep:     NewPriceSweepJob(testSweep(repo), newFakeChainer(), log),
		JobExpirySweep:    NewExpirySweepJob(testSweep(repo), testOrchestrator(repo), log),
		JobScoreRecompute: NewScoreRecomputeJob(testOrchestrator(repo), newFakeChainer(), time.Minute, log),
		JobScoreSnapshot:  NewSnapshotJob(&fakeScoreRepo{}, time.UTC, log),
		JobStatsReconcile: NewStatsReconcileJob(repo, log),
	}

	for wantName, job := range jobs {
		if job.Name() != wantName {
			t.Errorf("Name() = %s, want %s", job.Name(), wantName)
		}
		if job.Schedule() == "" {
			t.Errorf("%s has an empty schedule", wantName)
		}
	}
}
