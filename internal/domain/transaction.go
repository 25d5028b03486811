package domain

import "time"

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit   TransactionType = "DEPOSIT"
	TransactionWithdraw  TransactionType = "WITHDRAW"
	TransactionBetPlaced TransactionType = "BET_PLACED"
	TransactionBetWon    TransactionType = "BET_WON"
)

// Transaction is a typed ledger entry owned by the remote service.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Type      TransactionType `json:"type"`
	Amount    Money           `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SumWinnings totals the BET_WON entries, the figure shown as a user's
// lifetime winnings.
func SumWinnings(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		if tx.Type == TransactionBetWon {
			total += tx.Amount
		}
	}
	return total
}
