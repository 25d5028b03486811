// Package settlement implements the two-phase administrative transition a
// market passes through before funds move: lock, then resolve. Resolution
// is the one irreversible operation in the system, so the two phases are
// deliberately separate calls: an operator inspects the frozen market
// before paying it out.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/engine"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

// Workflow drives the lock/resolve lifecycle against the remote service.
// It never mutates a snapshot locally: after every successful call it
// re-fetches the authoritative state, and a failed call leaves the market
// exactly as it was.
type Workflow struct {
	client *paisa.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewWorkflow creates a Workflow over the given API client.
func NewWorkflow(client *paisa.Client, logger *slog.Logger) *Workflow {
	return &Workflow{
		client: client,
		logger: logger.With(slog.String("component", "settlement")),
		now:    time.Now,
	}
}

// Lock freezes wagering on a market. Valid only from ACTIVE: locking an
// already-locked or resolved market fails with InvalidTransition rather
// than silently succeeding, so a resolution race cannot be masked by a
// redundant lock.
func (w *Workflow) Lock(ctx context.Context, marketID int64) (domain.Market, error) {
	m, err := w.client.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement: fetch market before lock: %w", err)
	}

	if status := engine.Status(m, w.now()); status != domain.MarketStatusActive {
		return domain.Market{}, &domain.InvalidTransitionError{Action: "lock", Status: status}
	}

	if _, err := w.client.LockMarket(ctx, marketID); err != nil {
		return domain.Market{}, err
	}

	locked, err := w.client.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement: refetch after lock: %w", err)
	}

	w.logger.InfoContext(ctx, "market locked",
		slog.Int64("market_id", marketID),
		slog.String("title", locked.Title),
	)
	return locked, nil
}

// Resolve fixes the winning outcome of a locked market. Valid only from
// LOCKED; the service settles all pending wagers as a consequence. There is
// no compensating action once this call is issued.
func (w *Workflow) Resolve(ctx context.Context, marketID int64, outcome domain.Outcome) (domain.Market, error) {
	if !outcome.Valid() {
		return domain.Market{}, fmt.Errorf("settlement: invalid outcome %q", outcome)
	}

	m, err := w.client.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement: fetch market before resolve: %w", err)
	}

	if status := engine.Status(m, w.now()); status != domain.MarketStatusLocked {
		return domain.Market{}, &domain.InvalidTransitionError{Action: "resolve", Status: status}
	}

	if err := w.client.ResolveMarket(ctx, marketID, outcome); err != nil {
		return domain.Market{}, err
	}

	resolved, err := w.client.GetMarket(ctx, marketID)
	if err != nil {
		return domain.Market{}, fmt.Errorf("settlement: refetch after resolve: %w", err)
	}

	w.logger.InfoContext(ctx, "market resolved",
		slog.Int64("market_id", marketID),
		slog.String("outcome", string(outcome)),
	)
	return resolved, nil
}
