package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus tracks a wager through settlement.
type BetStatus string

const (
	BetStatusPending BetStatus = "PENDING"
	BetStatusWon     BetStatus = "WON"
	BetStatusLost    BetStatus = "LOST"
)

// Bet is a wager snapshot owned by the remote service. Odds is the
// multiplier captured at placement time; it is authoritative for payout
// computation even when the market's displayed odds have since moved.
type Bet struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	MarketID  int64           `json:"marketId"`
	Outcome   Outcome         `json:"outcome_chosen"`
	Amount    Money           `json:"amount"`
	Odds      decimal.Decimal `json:"odds"`
	Status    BetStatus       `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
