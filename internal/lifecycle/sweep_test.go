package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

type fakeTipRepo struct {
	open        []contracts.Tip
	openErr     error
	transitions []contracts.Tip
	failTipIDs  map[int64]bool
	refreshed   []int64
}

func (f *fakeTipRepo) GetOpenTips(ctx context.Context) ([]contracts.Tip, error) {
	return f.open, f.openErr
}

func (f *fakeTipRepo) GetCompletedTipsByCreator(ctx context.Context, creatorID int64) ([]contracts.Tip, error) {
	return nil, nil
}

func (f *fakeTipRepo) ApplyTransition(ctx context.Context, tip *contracts.Tip) error {
	if f.failTipIDs[tip.ID] {
		return errors.New("write conflict")
	}
	f.transitions = append(f.transitions, *tip)
	return nil
}

func (f *fakeTipRepo) ListActiveCreatorIDs(ctx context.Context) ([]int64, error) {
	return nil, nil
}

func (f *fakeTipRepo) RefreshCreatorStats(ctx context.Context, creatorID int64) (*contracts.CreatorStats, error) {
	f.refreshed = append(f.refreshed, creatorID)
	return &contracts.CreatorStats{CreatorID: creatorID}, nil
}

type fakePriceSource struct {
	quotes map[string]contracts.Quote
	err    error
}

func (f *fakePriceSource) Quotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error) {
	return f.quotes, f.err
}

func newTestSweep(repo *fakeTipRepo, prices *fakePriceSource) *Sweep {
	log := logger.NewNop()
	return NewSweep(repo, prices, NewEvaluator(log), log)
}

func TestSweep_ClosesAndRefreshesCreators(t *testing.T) {
	now := time.Now()

	tipA := buyTip(now)
	tipA.ID = 1
	tipA.CreatorID = 7

	tipB := buyTip(now)
	tipB.ID = 2
	tipB.CreatorID = 8
	tipB.Symbol = "INFY"

	repo := &fakeTipRepo{open: []contracts.Tip{tipA, tipB}}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{
		"RELIANCE": freshQuote("RELIANCE", 111, now), // closes tipA
		"INFY":     freshQuote("INFY", 101, now),     // no transition
	}}

	result, err := newTestSweep(repo, prices).Run(context.Background(), SweepModePrice, now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.OpenTips != 2 {
		t.Errorf("OpenTips = %d, want 2", result.OpenTips)
	}
	if result.Closed != 1 {
		t.Errorf("Closed = %d, want 1", result.Closed)
	}
	if len(repo.refreshed) != 1 || repo.refreshed[0] != 7 {
		t.Errorf("refreshed creators = %v, want [7]", repo.refreshed)
	}
	if len(result.ClosedCreators) != 1 || result.ClosedCreators[0] != 7 {
		t.Errorf("ClosedCreators = %v, want [7]", result.ClosedCreators)
	}
}

func TestSweep_MissingPriceCarriesOver(t *testing.T) {
	now := time.Now()

	tip := buyTip(now)
	repo := &fakeTipRepo{open: []contracts.Tip{tip}}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{}}

	result, err := newTestSweep(repo, prices).Run(context.Background(), SweepModePrice, now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Transitioned != 0 || result.Failed != 0 {
		t.Errorf("missing price should neither transition nor fail, got %+v", result)
	}
	if len(repo.transitions) != 0 {
		t.Errorf("no transition should be persisted, got %d", len(repo.transitions))
	}
}

func TestSweep_PerTipFaultIsolation(t *testing.T) {
	now := time.Now()

	tipA := buyTip(now)
	tipA.ID = 1
	tipA.CreatorID = 7

	tipB := buyTip(now)
	tipB.ID = 2
	tipB.CreatorID = 8

	repo := &fakeTipRepo{
		open:       []contracts.Tip{tipA, tipB},
		failTipIDs: map[int64]bool{1: true},
	}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{
		"RELIANCE": freshQuote("RELIANCE", 111, now),
	}}

	result, err := newTestSweep(repo, prices).Run(context.Background(), SweepModePrice, now)
	if err != nil {
		t.Fatalf("per-tip failures must not abort the sweep: %v", err)
	}

	if result.Failed != 1 {
		t.Errorf("Failed = %d, want 1", result.Failed)
	}
	if result.Closed != 1 {
		t.Errorf("Closed = %d, want 1 (second tip still processed)", result.Closed)
	}
}

func TestSweep_EnumerationFailureAborts(t *testing.T) {
	repo := &fakeTipRepo{openErr: errors.New("db down")}
	prices := &fakePriceSource{}

	if _, err := newTestSweep(repo, prices).Run(context.Background(), SweepModePrice, time.Now()); err == nil {
		t.Fatal("enumeration failure must abort the sweep")
	}
}

type fakeSymbolTracker struct {
	updates [][]string
}

func (f *fakeSymbolTracker) UpdateSymbols(symbols []string) {
	f.updates = append(f.updates, symbols)
}

func TestSweep_PriceModePushesSymbolsToTracker(t *testing.T) {
	now := time.Now()

	tipA := buyTip(now)
	tipA.ID = 1

	tipB := buyTip(now)
	tipB.ID = 2
	tipB.Symbol = "INFY"

	tipC := buyTip(now) // duplicate symbol, must not repeat
	tipC.ID = 3

	repo := &fakeTipRepo{open: []contracts.Tip{tipA, tipB, tipC}}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{}}
	tracker := &fakeSymbolTracker{}

	sweep := newTestSweep(repo, prices).WithSymbolTracker(tracker)

	if _, err := sweep.Run(context.Background(), SweepModePrice, now); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(tracker.updates) != 1 {
		t.Fatalf("tracker updates = %d, want 1", len(tracker.updates))
	}
	got := tracker.updates[0]
	if len(got) != 2 || got[0] != "RELIANCE" || got[1] != "INFY" {
		t.Errorf("tracked symbols = %v, want [RELIANCE INFY]", got)
	}
}

func TestSweep_ExpiryModeDoesNotShrinkTracker(t *testing.T) {
	now := time.Now()

	expired := buyTip(now)
	expired.ID = 1
	expired.ExpiresAt = now.Add(-time.Hour)

	live := buyTip(now)
	live.ID = 2
	live.Symbol = "INFY"

	repo := &fakeTipRepo{open: []contracts.Tip{expired, live}}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{}}
	tracker := &fakeSymbolTracker{}

	sweep := newTestSweep(repo, prices).WithSymbolTracker(tracker)

	if _, err := sweep.Run(context.Background(), SweepModeExpiry, now); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// The expiry sweep sees a filtered tip subset; feeding it to the
	// tracker would unsubscribe symbols that are still live.
	if len(tracker.updates) != 0 {
		t.Errorf("expiry sweep must not touch the tracker, got %v", tracker.updates)
	}
}

func TestSweep_ExpiryModeFiltersTips(t *testing.T) {
	now := time.Now()

	expired := buyTip(now)
	expired.ID = 1
	expired.ExpiresAt = now.Add(-time.Hour)

	live := buyTip(now)
	live.ID = 2
	live.Symbol = "INFY"

	repo := &fakeTipRepo{open: []contracts.Tip{expired, live}}
	prices := &fakePriceSource{quotes: map[string]contracts.Quote{
		"RELIANCE": freshQuote("RELIANCE", 102, now),
		// INFY at 111 would close the live tip, but expiry mode must
		// not even look at it.
		"INFY": freshQuote("INFY", 111, now),
	}}

	result, err := newTestSweep(repo, prices).Run(context.Background(), SweepModeExpiry, now)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.OpenTips != 1 {
		t.Errorf("OpenTips = %d, want 1 (only the expired tip)", result.OpenTips)
	}
	if result.Closed != 1 {
		t.Errorf("Closed = %d, want 1", result.Closed)
	}
	if repo.transitions[0].Status != contracts.StatusExpired {
		t.Errorf("Status = %s, want EXPIRED", repo.transitions[0].Status)
	}
}
