package pricefeed

import (
	"sync"
	"time"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/logger"
)

// QuoteStore is the in-memory latest-quote table shared by the REST
// poller and the streaming source. Newest timestamp wins.
// ⭐ SSOT: 최신 시세는 이 구조체에서만 보관
type QuoteStore struct {
	mu     sync.RWMutex
	quotes map[string]contracts.Quote
	ttl    time.Duration
	logger *logger.Logger
}

// NewQuoteStore creates a quote store with the given staleness horizon.
func NewQuoteStore(ttl time.Duration, log *logger.Logger) *QuoteStore {
	return &QuoteStore{
		quotes: make(map[string]contracts.Quote),
		ttl:    ttl,
		logger: log.WithComponent("pricefeed.store"),
	}
}

// Update stores a quote unless a newer one is already present.
func (s *QuoteStore) Update(quote contracts.Quote) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.quotes[quote.Symbol]
	if exists && quote.Timestamp.Before(existing.Timestamp) {
		s.logger.WithFields(map[string]interface{}{
			"symbol":     quote.Symbol,
			"new_source": quote.Source,
			"old_source": existing.Source,
		}).Debug("Rejected older quote")
		return false
	}

	s.quotes[quote.Symbol] = quote
	return true
}

// Get returns the latest known quote for a symbol. The Stale flag is
// set when the quote is older than the TTL; callers that need a live
// price must treat stale quotes as absent, while expiry closes may
// still use them.
func (s *QuoteStore) Get(symbol string) (contracts.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[symbol]
	if !ok {
		return contracts.Quote{}, false
	}

	quote.Stale = time.Since(quote.Timestamp) > s.ttl
	return quote, true
}

// Len returns the number of tracked symbols.
func (s *QuoteStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}
