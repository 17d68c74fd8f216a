package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ratemytip/tipscore/internal/contracts"
	"github.com/ratemytip/tipscore/pkg/config"
	"github.com/ratemytip/tipscore/pkg/logger"
)

const (
	// Reconnect settings
	reconnectDelay    = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute

	// Ping/Pong settings
	pongWait  = 60 * time.Second
	writeWait = 10 * time.Second
)

// StreamClient keeps the quote store warm between polling sweeps by
// subscribing to the vendor's websocket tick stream. It is an
// optimization only: sweeps fall back to REST when the stream is down.
// ⭐ SSOT: 스트리밍 시세 구독은 이 클라이언트에서만
type StreamClient struct {
	cfg    config.PriceFeedConfig
	store  *QuoteStore
	logger *logger.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	symbols   map[string]bool
	symbolsMu sync.RWMutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// tickMessage is the vendor's streaming wire format.
type tickMessage struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	LastPrice float64 `json:"last_price"`
	Timestamp int64   `json:"timestamp"` // unix millis
}

// subscribeMessage subscribes the connection to a symbol list.
type subscribeMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
	APIKey  string   `json:"apikey"`
}

// NewStreamClient creates a streaming quote client.
func NewStreamClient(cfg config.PriceFeedConfig, store *QuoteStore, log *logger.Logger) *StreamClient {
	return &StreamClient{
		cfg:     cfg,
		store:   store,
		logger:  log.WithComponent("pricefeed.stream"),
		symbols: make(map[string]bool),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start connects and begins the read loop. A configuration without a
// stream URL disables streaming silently.
func (c *StreamClient) Start(ctx context.Context) error {
	if c.cfg.StreamURL == "" {
		c.logger.Info("Streaming disabled, sweeps will use REST only")
		close(c.doneCh)
		return nil
	}

	if err := c.connect(ctx); err != nil {
		// The read loop never started, so nothing will close doneCh;
		// close it here or a later Stop blocks forever.
		close(c.doneCh)
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go c.readLoop(ctx)
	return nil
}

// Stop closes the connection and waits for the read loop to exit.
func (c *StreamClient) Stop() {
	if c.cfg.StreamURL == "" {
		return
	}

	close(c.stopCh)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	<-c.doneCh
}

// UpdateSymbols replaces the subscribed symbol set. The sweep calls
// this with the open-tip symbols so ticks for them land in the store.
func (c *StreamClient) UpdateSymbols(symbols []string) {
	c.symbolsMu.Lock()
	c.symbols = make(map[string]bool, len(symbols))
	for _, s := range symbols {
		c.symbols[s] = true
	}
	c.symbolsMu.Unlock()

	if c.cfg.StreamURL == "" {
		return
	}

	if err := c.subscribe(); err != nil {
		c.logger.WithError(err).Warn("Failed to refresh stream subscription")
	}
}

// connect establishes the websocket connection and subscribes.
func (c *StreamClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.StreamURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.conn = conn
	c.logger.WithField("url", c.cfg.StreamURL).Info("Connected to quote stream")

	return nil
}

// subscribe sends the current symbol set to the stream.
func (c *StreamClient) subscribe() error {
	c.symbolsMu.RLock()
	symbols := make([]string, 0, len(c.symbols))
	for s := range c.symbols {
		symbols = append(symbols, s)
	}
	c.symbolsMu.RUnlock()

	if len(symbols) == 0 {
		return nil
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(subscribeMessage{
		Action:  "subscribe",
		Symbols: symbols,
		APIKey:  c.cfg.APIKey,
	})
}

// readLoop consumes tick messages and reconnects with backoff.
func (c *StreamClient) readLoop(ctx context.Context) {
	defer close(c.doneCh)

	delay := reconnectDelay

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
		}

		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			if err := c.connect(ctx); err != nil {
				c.logger.WithFields(map[string]interface{}{
					"delay": delay,
					"error": err.Error(),
				}).Warn("Stream reconnect failed")

				select {
				case <-time.After(delay):
				case <-c.stopCh:
					return
				case <-ctx.Done():
					return
				}

				delay *= 2
				if delay > maxReconnectDelay {
					delay = maxReconnectDelay
				}
				continue
			}

			delay = reconnectDelay
			if err := c.subscribe(); err != nil {
				c.logger.WithError(err).Warn("Stream resubscribe failed")
			}
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}

			c.logger.WithError(err).Warn("Stream read failed, reconnecting")
			c.connMu.Lock()
			c.conn.Close()
			c.conn = nil
			c.connMu.Unlock()
			continue
		}

		c.handleMessage(data)
	}
}

// handleMessage parses one tick and updates the store.
func (c *StreamClient) handleMessage(data []byte) {
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.WithError(err).Debug("Dropped malformed stream message")
		return
	}

	if msg.Type != "tick" || msg.Symbol == "" {
		return
	}

	c.symbolsMu.RLock()
	tracked := c.symbols[msg.Symbol]
	c.symbolsMu.RUnlock()
	if !tracked {
		return
	}

	c.store.Update(contracts.Quote{
		Symbol:    msg.Symbol,
		Price:     msg.LastPrice,
		Timestamp: time.UnixMilli(msg.Timestamp),
		Source:    "stream",
	})
}
