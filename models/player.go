package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Player is a racer. PlayerID is the registration number assigned by the
// federation and is never generated locally.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	PlayerID  int        `bun:"player_id,pk" json:"playerID"`
	Name      *string    `bun:"name" json:"name,omitempty"`
	Branch    *string    `bun:"branch" json:"branch,omitempty"`
	Hometown  *string    `bun:"hometown" json:"hometown,omitempty"`
	BirthDate *time.Time `bun:"birth_date,type:date" json:"birthDate,omitempty"`
}
