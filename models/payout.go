package models

import "github.com/uptrace/bun"

// Payout is the dividend for one winning combination of a bet type.
type Payout struct {
	bun.BaseModel `bun:"table:payouts,alias:po"`

	PayoutID    int    `bun:"payout_id,pk,autoincrement" json:"payoutID"`
	RaceID      int    `bun:"race_id,notnull" json:"raceID"`
	BetType     string `bun:"bet_type,notnull" json:"betType"`
	Combination string `bun:"combination,notnull" json:"combination"`
	Amount      int    `bun:"amount,notnull" json:"amount"`
	Popularity  *int   `bun:"popularity,type:smallint" json:"popularity,omitempty"`
}
