package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/httputil"
	"github.com/ratemytip/tipscore/pkg/logger"
	"github.com/ratemytip/tipscore/pkg/redis"
)

// Client fetches quotes from the upstream REST quote API.
type Client struct {
	cfg        config.PriceFeedConfig
	httpClient *httputil.Client
	limiter    *rate.Limiter
	quoteCache *redis.Cache
	logger     *logger.Logger
}

// quoteResponse is the upstream wire format.
type quoteResponse struct {
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	Timestamp int64   `json:"timestamp"` // unix millis
}

// NewClient creates a quote API client. The local limiter smooths the
// request rate inside a single process; the redis limiter on the HTTP
// client enforces the account-wide vendor quota.
func NewClient(cfg config.PriceFeedConfig, httpClient *httputil.Client, quoteCache *redis.Cache, log *logger.Logger) *Client {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 8
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)),
		quoteCache: quoteCache,
		logger:     log.WithComponent("pricefeed.client"),
	}
}

// FetchQuote fetches the current quote for one symbol, consulting the
// redis cache first.
func (c *Client) FetchQuote(ctx context.Context, symbol string) (contracts.Quote, error) {
	if c.quoteCache != nil {
		var cached contracts.Quote
		found, err := c.quoteCache.Get(ctx, redis.QuoteKey(symbol), &cached)
		if err == nil && found {
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return contracts.Quote{}, err
	}

	endpoint := fmt.Sprintf("%s/v1/quote/%s?apikey=%s",
		c.cfg.BaseURL, url.PathEscape(symbol), url.QueryEscape(c.cfg.APIKey))

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return contracts.Quote{}, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return contracts.Quote{}, fmt.Errorf("fetch quote %s: status %d", symbol, resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return contracts.Quote{}, fmt.Errorf("decode quote %s: %w", symbol, err)
	}

	quote := contracts.Quote{
		Symbol:    body.Symbol,
		Price:     body.LastPrice,
		Timestamp: time.UnixMilli(body.Timestamp),
		Source:    "rest",
	}

	if c.quoteCache != nil {
		_ = c.quoteCache.Set(ctx, redis.QuoteKey(symbol), quote, redis.TTLQuote)
	}

	return quote, nil
}
