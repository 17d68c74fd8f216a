package pricefeed

import (
	"context"
	"testing"
	"time"

	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/logger"
)

func newTestStream(streamURL string) (*StreamClient, *QuoteStore) {
	log := logger.NewNop()
	store := NewQuoteStore(15*time.Minute, log)
	cfg := config.PriceFeedConfig{StreamURL: streamURL, APIKey: "test-key"}
	return NewStreamClient(cfg, store, log), store
}

func TestStream_TrackedTickUpdatesStore(t *testing.T) {
	client, store := newTestStream("")
	client.UpdateSymbols([]string{"RELIANCE"})

	client.handleMessage([]byte(`{"type":"tick","symbol":"RELIANCE","last_price":2850.5,"timestamp":1756700000000}`))

	quote, ok := store.Get("RELIANCE")
	if !ok {
		t.Fatal("tracked tick must land in the quote store")
	}
	if quote.Price != 2850.5 {
		t.Errorf("Price = %v, want 2850.5", quote.Price)
	}
	if quote.Source != "stream" {
		t.Errorf("Source = %s, want stream", quote.Source)
	}
	if quote.Timestamp.UnixMilli() != 1756700000000 {
		t.Errorf("Timestamp = %d, want 1756700000000", quote.Timestamp.UnixMilli())
	}
}

func TestStream_UntrackedTickDropped(t *testing.T) {
	client, store := newTestStream("")
	client.UpdateSymbols([]string{"RELIANCE"})

	client.handleMessage([]byte(`{"type":"tick","symbol":"INFY","last_price":1500,"timestamp":1756700000000}`))

	if _, ok := store.Get("INFY"); ok {
		t.Error("tick for an untracked symbol must be dropped")
	}
}

func TestStream_NonTickMessagesIgnored(t *testing.T) {
	client, store := newTestStream("")
	client.UpdateSymbols([]string{"RELIANCE"})

	client.handleMessage([]byte(`{"type":"heartbeat"}`))
	client.handleMessage([]byte(`not json`))

	if store.Len() != 0 {
		t.Errorf("store has %d quotes, want 0", store.Len())
	}
}

func TestStream_UpdateSymbolsReplacesSet(t *testing.T) {
	client, store := newTestStream("")
	client.UpdateSymbols([]string{"RELIANCE"})
	client.UpdateSymbols([]string{"INFY"})

	client.handleMessage([]byte(`{"type":"tick","symbol":"RELIANCE","last_price":2850,"timestamp":1756700000000}`))
	client.handleMessage([]byte(`{"type":"tick","symbol":"INFY","last_price":1500,"timestamp":1756700000000}`))

	if _, ok := store.Get("RELIANCE"); ok {
		t.Error("symbol dropped from the set must no longer be tracked")
	}
	if _, ok := store.Get("INFY"); !ok {
		t.Error("newly tracked symbol must receive ticks")
	}
}

func TestStream_StopReturnsAfterFailedStart(t *testing.T) {
	// Nothing listens on this port, so the initial dial fails.
	client, _ := newTestStream("ws://127.0.0.1:1/stream")

	if err := client.Start(context.Background()); err == nil {
		t.Fatal("Start() against an unreachable endpoint must fail")
	}

	done := make(chan struct{})
	go func() {
		client.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop() blocked after a failed Start()")
	}
}

func TestStream_DisabledStartAndStop(t *testing.T) {
	client, _ := newTestStream("")

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("Start() with streaming disabled should be a no-op, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		client.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked with streaming disabled")
	}
}
