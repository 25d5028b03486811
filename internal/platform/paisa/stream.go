package paisa

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// OddsUpdate is one message on the service's live odds channel. Updates are
// display-only; they never substitute for the odds snapshot captured on a
// placed bet.
type OddsUpdate struct {
	MarketID int64           `json:"marketId"`
	OddsYes  decimal.Decimal `json:"oddsYes"`
	OddsNo   decimal.Decimal `json:"oddsNo"`
	Status   string          `json:"status,omitempty"`
	At       time.Time       `json:"at"`
}

// OddsHandler is called for each odds update received on the stream.
type OddsHandler func(ctx context.Context, update OddsUpdate)

// OddsStream subscribes to the service's websocket odds channel for one
// market and invokes the handler on each update. It reconnects on
// disconnect until the context is cancelled or Close is called.
type OddsStream struct {
	wsURL     string
	marketID  int64
	handler   OddsHandler
	logger    *slog.Logger
	closeOnce sync.Once
	done      chan struct{}
}

// NewOddsStream creates a stream for the given market. wsURL is the
// websocket endpoint, e.g. "wss://api.paisapredict.example/ws/markets".
func NewOddsStream(wsURL string, marketID int64, handler OddsHandler, logger *slog.Logger) *OddsStream {
	return &OddsStream{
		wsURL:    wsURL,
		marketID: marketID,
		handler:  handler,
		logger:   logger.With(slog.String("component", "odds_stream")),
		done:     make(chan struct{}),
	}
}

// Run connects, subscribes, and dispatches updates until ctx is cancelled.
// Reconnects with a short backoff on disconnect.
func (s *OddsStream) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		default:
		}

		err := s.runConnection(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("odds stream disconnected, reconnecting",
			slog.Int64("market_id", s.marketID),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-time.After(2 * time.Second):
		}
	}
}

func (s *OddsStream) runConnection(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, s.wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.wsURL, err)
	}
	defer conn.Close()

	sub := map[string]any{"type": "subscribe", "marketId": s.marketID}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.logger.Info("odds stream subscribed", slog.Int64("market_id", s.marketID))

	// Unblock ReadMessage when the context ends.
	go func() {
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var update OddsUpdate
		if err := json.Unmarshal(raw, &update); err != nil {
			s.logger.Warn("odds stream: skipping undecodable message",
				slog.String("error", err.Error()),
			)
			continue
		}
		if update.MarketID != s.marketID {
			continue
		}
		if s.handler != nil {
			s.handler(ctx, update)
		}
	}
}

// Close stops the stream.
func (s *OddsStream) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
