// Package trading places wagers: local validation first, then the
// submission round-trip, then a sequential refresh of the market and
// profile so the caller always observes its own write.
package trading

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/paisapredict/predictctl/internal/domain"
	"github.com/paisapredict/predictctl/internal/engine"
	"github.com/paisapredict/predictctl/internal/platform/paisa"
)

// Result is everything a caller needs to show after a placed wager: the
// service's receipt (with the authoritative odds snapshot) and the
// refreshed market and profile.
type Result struct {
	Receipt paisa.BetReceipt
	Market  domain.Market
	User    domain.User
}

// Service validates and places wagers.
type Service struct {
	client   *paisa.Client
	minStake domain.Money
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a trading Service. minStake is the smallest accepted
// stake in paise.
func NewService(client *paisa.Client, minStake domain.Money, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		minStake: minStake,
		logger:   logger.With(slog.String("component", "trading")),
		now:      time.Now,
	}
}

// PlaceWager validates the stake against the user's balance and the
// market's tradability, submits the bet, and refreshes state. Validation
// failures return a *domain.ValidationError before any network call; the
// service remains the final arbiter and re-validates on its side.
//
// The refresh calls run after the placement completes, strictly in
// sequence, so the returned snapshots are guaranteed to reflect the
// just-placed wager. They must not be parallelised with the placement.
func (s *Service) PlaceWager(ctx context.Context, user domain.User, m domain.Market, outcome domain.Outcome, stake domain.Money) (Result, error) {
	if !outcome.Valid() {
		return Result{}, &domain.ValidationError{
			Kind:    domain.ValidationMarketNotTradable,
			Message: fmt.Sprintf("unknown outcome %q", outcome),
		}
	}
	if err := engine.ValidateStake(stake, user.Balance, s.minStake, m, s.now()); err != nil {
		return Result{}, err
	}

	receipt, err := s.client.PlaceBet(ctx, m.ID, outcome, stake)
	if err != nil {
		return Result{}, err
	}

	refreshedMarket, err := s.client.GetMarket(ctx, m.ID)
	if err != nil {
		return Result{}, fmt.Errorf("trading: refresh market after bet: %w", err)
	}
	refreshedUser, err := s.client.GetMe(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("trading: refresh profile after bet: %w", err)
	}

	s.logger.InfoContext(ctx, "wager placed",
		slog.Int64("market_id", m.ID),
		slog.String("outcome", string(outcome)),
		slog.Int64("stake_paise", int64(stake)),
		slog.String("odds", receipt.Bet.Odds.String()),
	)

	return Result{Receipt: receipt, Market: refreshedMarket, User: refreshedUser}, nil
}
