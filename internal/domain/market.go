package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is one side of a binary market.
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Valid reports whether o is one of the two recognised outcomes.
func (o Outcome) Valid() bool {
	return o == OutcomeYes || o == OutcomeNo
}

// MarketStatus is the lifecycle state of a market as displayed to users.
// It is derived from the raw snapshot fields, never stored.
type MarketStatus string

const (
	MarketStatusActive   MarketStatus = "ACTIVE"
	MarketStatusLocked   MarketStatus = "LOCKED"
	MarketStatusResolved MarketStatus = "RESOLVED"
	MarketStatusClosed   MarketStatus = "CLOSED"
)

// Category classifies a market.
type Category string

const (
	CategorySports  Category = "Sports"
	CategoryEsports Category = "Esports"
)

// Valid reports whether c is a recognised category.
func (c Category) Valid() bool {
	return c == CategorySports || c == CategoryEsports
}

// Market is a read-only snapshot of a binary-outcome market as returned by
// the remote service. Snapshots are immutable within a single decision
// cycle; state transitions are observed only by re-fetching.
//
// The JSON field names (including the "catagory" spelling and the Oddsyes /
// Oddsno casing) follow the service's wire contract.
type Market struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"catagory"`
	IsOpen      bool      `json:"isOpen"`
	IsLocked    bool      `json:"isLocked"`
	EndTime     time.Time `json:"end_time"`
	// Outcome is nil until the market is resolved; once set it never changes.
	Outcome *Outcome `json:"outcome,omitempty"`
	// OddsYes and OddsNo are nil until the service computes live odds.
	// Nil means "absent", which callers must not conflate with zero;
	// engine.Odds substitutes the 2.00 default.
	OddsYes   *decimal.Decimal `json:"Oddsyes,omitempty"`
	OddsNo    *decimal.Decimal `json:"Oddsno,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	CreatorID int64            `json:"creatorId"`
}
