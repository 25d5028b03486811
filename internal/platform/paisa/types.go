package paisa

import (
	"github.com/shopspring/decimal"

	"github.com/paisapredict/predictctl/internal/domain"
)

// CreateMarketRequest is the admin market-creation payload. The "catagory"
// key follows the service's wire contract.
type CreateMarketRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	EndTime     string          `json:"end_time"` // RFC 3339
	Category    domain.Category `json:"catagory"`
}

// BetReceipt is the service's response to a placed wager: the odds snapshot
// captured on the bet plus the market's freshly recomputed live odds.
type BetReceipt struct {
	Message string `json:"message"`
	Bet     struct {
		Amount  domain.Money    `json:"amount"`
		Outcome domain.Outcome  `json:"outcome_chosen"`
		Odds    decimal.Decimal `json:"odds"`
	} `json:"bet"`
	UpdatedOdds struct {
		OddsYes decimal.Decimal `json:"oddsYes"`
		OddsNo  decimal.Decimal `json:"oddsNo"`
	} `json:"updatedMarketOdds"`
}

// apiError is the service's error envelope.
type apiError struct {
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}
