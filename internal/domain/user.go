package domain

// User is the authenticated account profile. Balance is mutated only by
// the remote ledger; clients read it for validation and display.
type User struct {
	ID      int64  `json:"id"`
	Email   string `json:"email"`
	Balance Money  `json:"balance"`
	IsAdmin bool   `json:"isAdmin"`
}

// LeaderboardEntry is one row of the winnings leaderboard.
type LeaderboardEntry struct {
	UserID        int64  `json:"userId"`
	Email         string `json:"email"`
	TotalWinnings Money  `json:"totalWinnings"`
}
