package pricefeed

import (
	"context"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// Feed combines the streaming store and the REST client into the
// PriceSource the lifecycle sweep consumes. A symbol whose quote cannot
// be obtained this tick is left out of the result; its tips carry over
// unchanged.
// ⭐ SSOT: 스윕용 시세 스냅샷은 여기서만 조립
type Feed struct {
	store  *QuoteStore
	client *Client
	logger *logger.Logger
}

// NewFeed creates a price feed over a quote store and REST client.
func NewFeed(store *QuoteStore, client *Client, log *logger.Logger) *Feed {
	return &Feed{
		store:  store,
		client: client,
		logger: log.WithComponent("pricefeed.feed"),
	}
}

// Quotes builds the price snapshot for one sweep. Fresh streamed quotes
// are preferred; the REST client fills the gaps. Stale quotes are
// returned flagged so expiry closes can still use the latest known
// price.
func (f *Feed) Quotes(ctx context.Context, symbols []string) (map[string]contracts.Quote, error) {
	quotes := make(map[string]contracts.Quote, len(symbols))

	var missing, stale int
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			return quotes, ctx.Err()
		default:
		}

		if quote, ok := f.store.Get(symbol); ok && !quote.Stale {
			quotes[symbol] = quote
			continue
		}

		quote, err := f.client.FetchQuote(ctx, symbol)
		if err != nil {
			// Retries are exhausted inside the HTTP client. Fall back
			// to the latest known quote, flagged stale, or skip the
			// symbol for this tick.
			if cached, ok := f.store.Get(symbol); ok {
				cached.Stale = true
				quotes[symbol] = cached
				stale++
			} else {
				missing++
			}
			f.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			}).Warn("Quote unavailable this tick")
			continue
		}

		f.store.Update(quote)
		quotes[symbol] = quote
	}

	f.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"resolved":  len(quotes),
		"stale":     stale,
		"missing":   missing,
	}).Debug("Built sweep quote snapshot")

	return quotes, nil
}
