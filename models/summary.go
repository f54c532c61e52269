package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PlayerSeasonSummary holds a player's aggregate statistics for one
// half-year term, as published in the fanbook files.
type PlayerSeasonSummary struct {
	bun.BaseModel `bun:"table:player_season_summaries,alias:pss"`

	PlayerID int `bun:"player_id,pk" json:"playerID"`
	Year     int `bun:"year,pk,type:smallint" json:"year"`
	Term     int `bun:"term,pk,type:smallint" json:"term"`

	CalcStart time.Time `bun:"calc_start,notnull,type:date" json:"calcStart"`
	CalcEnd   time.Time `bun:"calc_end,notnull,type:date" json:"calcEnd"`

	Grade          *string          `bun:"grade" json:"grade,omitempty"`
	WinRate        *decimal.Decimal `bun:"win_rate,type:numeric(4,2)" json:"winRate,omitempty"`
	QuinellaRate   *decimal.Decimal `bun:"quinella_rate,type:numeric(5,2)" json:"quinellaRate,omitempty"`
	Starts         *int             `bun:"starts,type:smallint" json:"starts,omitempty"`
	Wins           *int             `bun:"wins,type:smallint" json:"wins,omitempty"`
	Seconds        *int             `bun:"seconds,type:smallint" json:"seconds,omitempty"`
	AvgST          *decimal.Decimal `bun:"avg_st,type:numeric(3,2)" json:"avgST,omitempty"`
	AbilityIdx     *decimal.Decimal `bun:"ability_idx,type:numeric(5,2)" json:"abilityIdx,omitempty"`
	PrevAbilityIdx *decimal.Decimal `bun:"prev_ability_idx,type:numeric(5,2)" json:"prevAbilityIdx,omitempty"`
}

// PlayerLaneSummary holds per-course statistics for one term. Lane 0 counts
// incidents that happened without a course being taken.
type PlayerLaneSummary struct {
	bun.BaseModel `bun:"table:player_lane_summaries,alias:pls"`

	PlayerID int `bun:"player_id,pk" json:"playerID"`
	Year     int `bun:"year,pk,type:smallint" json:"year"`
	Term     int `bun:"term,pk,type:smallint" json:"term"`
	Lane     int `bun:"lane,pk,type:smallint" json:"lane"`

	Starts  *int `bun:"starts,type:smallint" json:"starts,omitempty"`
	Wins    *int `bun:"wins,type:smallint" json:"wins,omitempty"`
	Seconds *int `bun:"seconds,type:smallint" json:"seconds,omitempty"`
	Thirds  *int `bun:"thirds,type:smallint" json:"thirds,omitempty"`
	Fourths *int `bun:"fourths,type:smallint" json:"fourths,omitempty"`
	Fifths  *int `bun:"fifths,type:smallint" json:"fifths,omitempty"`
	Sixths  *int `bun:"sixths,type:smallint" json:"sixths,omitempty"`
	FCount  *int `bun:"f_count,type:smallint" json:"fCount,omitempty"`
	L0Count *int `bun:"l0_count,type:smallint" json:"l0Count,omitempty"`
	L1Count *int `bun:"l1_count,type:smallint" json:"l1Count,omitempty"`
	K0Count *int `bun:"k0_count,type:smallint" json:"k0Count,omitempty"`
	K1Count *int `bun:"k1_count,type:smallint" json:"k1Count,omitempty"`
	S0Count *int `bun:"s0_count,type:smallint" json:"s0Count,omitempty"`
	S1Count *int `bun:"s1_count,type:smallint" json:"s1Count,omitempty"`
	S2Count *int `bun:"s2_count,type:smallint" json:"s2Count,omitempty"`

	QuinellaRate *decimal.Decimal `bun:"quinella_rate,type:numeric(5,2)" json:"quinellaRate,omitempty"`
	AvgST        *decimal.Decimal `bun:"avg_st,type:numeric(3,2)" json:"avgST,omitempty"`
	AvgStartRank *decimal.Decimal `bun:"avg_start_rank,type:numeric(4,2)" json:"avgStartRank,omitempty"`
}
