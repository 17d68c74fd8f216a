package commands

import (
	"fmt"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/internal/lifecycle"
	"github.com/ratemytip/tipscore/internal/pricefeed"
	"github.com/ratemytip/tipscore/internal/scheduler"
	"github.com/ratemytip/tipscore/internal/scheduler/jobs"
	"github.com/ratemytip/tipscore/internal/scores"
	"github.com/ratemytip/tipscore/internal/scoring"
	"github.com/ratemytip/tipscore/internal/tips"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/database"
	"github.com/ratemytip/tipscore/pkg/httputil"
	"github.com/ratemytip/tipscore/pkg/logger"
	"github.com/ratemytip/tipscore/pkg/redis"
)

// app holds the wired application graph shared by all commands
// ⭐ SSOT: 의존성 조립은 이 파일에서만
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  *database.DB
	rdb *redis.Client

	tipRepo   *tips.Repository
	scoreRepo *scores.Repository
	cache     *redis.Cache

	store  *pricefeed.QuoteStore
	feed   *pricefeed.Feed
	stream *pricefeed.StreamClient

	sweep        *lifecycle.Sweep
	orchestrator *scoring.Orchestrator
	sched        *scheduler.Scheduler
}

// initApp builds the full dependency graph
func initApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis (optional, degrades to no caching)
	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	cache := redis.NewCache(rdb, "tipscore")
	limiter := redis.NewRateLimiter(rdb, "tipscore")

	// 5. Create HTTP client for the quote vendor
	httpClient := httputil.New(log, cfg.PriceFeed.Timeout).
		WithRetry(cfg.PriceFeed.MaxRetries, 1*time.Second).
		WithRateLimiter(limiter, redis.PriceFeedRateLimit)

	// 6. Price feed: shared quote store, REST client, streaming client
	store := pricefeed.NewQuoteStore(cfg.PriceFeed.QuoteTTL, log)
	restClient := pricefeed.NewClient(cfg.PriceFeed, httpClient, cache, log)
	feed := pricefeed.NewFeed(store, restClient, log)
	stream := pricefeed.NewStreamClient(cfg.PriceFeed, store, log)

	// 7. Create repositories
	tipRepo := tips.NewRepository(db.Pool)
	scoreRepo := scores.NewRepository(db.Pool)

	// 8. Lifecycle: evaluator + sweep runner. Each price sweep pushes
	// the open-tip symbols into the stream subscription.
	evaluator := lifecycle.NewEvaluator(log)
	sweep := lifecycle.NewSweep(tipRepo, feed, evaluator, log).WithSymbolTracker(stream)

	// 9. Scoring: composite scorer + orchestrator
	params := contracts.ScoringParams{
		HalfLifeDays:  cfg.Scoring.HalfLifeDays,
		MinSampleSize: cfg.Scoring.MinSampleSize,
	}
	scorer := scoring.NewCompositeScorer(params, log)
	orchestrator := scoring.NewOrchestrator(tipRepo, scoreRepo, scorer, cfg.Scoring, log)

	// 10. Scheduler with registered jobs
	sched := scheduler.New(log)

	jobList := []scheduler.Job{
		jobs.NewPriceSweepJob(sweep, sched, log),
		jobs.NewExpirySweepJob(sweep, orchestrator, log),
		jobs.NewScoreRecomputeJob(orchestrator, sched, cfg.Scoring.SettlingDelay, log),
		jobs.NewSnapshotJob(scoreRepo, cfg.Scoring.Timezone, log),
		jobs.NewStatsReconcileJob(tipRepo, log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("register job: %w", err)
		}
	}

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		rdb:          rdb,
		tipRepo:      tipRepo,
		scoreRepo:    scoreRepo,
		cache:        cache,
		store:        store,
		feed:         feed,
		stream:       stream,
		sweep:        sweep,
		orchestrator: orchestrator,
		sched:        sched,
	}, nil
}

// close releases held connections
func (a *app) close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
