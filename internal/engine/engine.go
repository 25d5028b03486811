// Package engine derives a market's lifecycle state from its raw snapshot
// and computes odds-based payout projections. Every "is this market
// biddable" and "what is this stake worth" question in the client goes
// through this package, so the rules live in exactly one place.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paisapredict/predictctl/internal/domain"
)

// defaultOdds is the multiplier assumed when the service has not yet
// computed live odds for a side.
var defaultOdds = decimal.NewFromInt(2)

// Status derives the display status of a market at the given instant.
//
// Precedence is load-bearing: a resolved market is RESOLVED no matter what
// its lock or end-time fields say, and expiry by time renders the same as
// an explicit lock. The time-based lock is display-only; the remote
// service remains the authority for anything that moves funds.
func Status(m domain.Market, now time.Time) domain.MarketStatus {
	switch {
	case m.Outcome != nil:
		return domain.MarketStatusResolved
	case m.IsLocked || !m.EndTime.After(now):
		return domain.MarketStatusLocked
	case m.IsOpen:
		return domain.MarketStatusActive
	default:
		return domain.MarketStatusClosed
	}
}

// Tradable reports whether the market accepts wagers at the given instant.
// This is a client-side pre-check; the service re-validates on submission.
func Tradable(m domain.Market, now time.Time) bool {
	return m.IsOpen && !m.IsLocked && m.EndTime.After(now) && m.Outcome == nil
}

// Odds returns the multiplier for the chosen outcome, substituting the
// 2.00 default when the service has not set the field. A present zero is
// returned as-is rather than treated as absent.
func Odds(m domain.Market, outcome domain.Outcome) decimal.Decimal {
	var o *decimal.Decimal
	if outcome == domain.OutcomeYes {
		o = m.OddsYes
	} else {
		o = m.OddsNo
	}
	if o == nil {
		return defaultOdds
	}
	return *o
}

// ProjectedPayout computes floor(stake x odds) in paise. This is the single
// rounding point for payout projection; displaying and settling through the
// same function keeps the two from drifting.
func ProjectedPayout(stake domain.Money, outcome domain.Outcome, m domain.Market) domain.Money {
	payout := decimal.NewFromInt(int64(stake)).Mul(Odds(m, outcome)).Floor()
	return domain.Money(payout.IntPart())
}

// ProjectedProfit is the projected payout net of the stake. It is a plain
// subtraction: odds below 1.00 legitimately project a negative profit.
func ProjectedProfit(stake domain.Money, outcome domain.Outcome, m domain.Market) domain.Money {
	return ProjectedPayout(stake, outcome, m) - stake
}

// ValidateStake runs the local pre-submission checks for a wager: the stake
// must be at least minStake, must not exceed the user's balance, and the
// market must currently be tradable. Violations return a
// *domain.ValidationError without any network round-trip.
func ValidateStake(stake, balance, minStake domain.Money, m domain.Market, now time.Time) error {
	if stake < minStake || stake <= 0 {
		return &domain.ValidationError{
			Kind:    domain.ValidationBelowMinimum,
			Message: fmt.Sprintf("stake %s is below the minimum of %s", stake, minStake),
		}
	}
	if stake > balance {
		return &domain.ValidationError{
			Kind:    domain.ValidationInsufficientBalance,
			Message: fmt.Sprintf("stake %s exceeds balance %s", stake, balance),
		}
	}
	if !Tradable(m, now) {
		return &domain.ValidationError{
			Kind:    domain.ValidationMarketNotTradable,
			Message: fmt.Sprintf("market %d is %s and not accepting wagers", m.ID, Status(m, now)),
		}
	}
	return nil
}
