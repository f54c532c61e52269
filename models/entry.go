package models

import "github.com/uptrace/bun"

// RaceEntry is one lane of a race. It is created from the entry sheet and
// enriched in place by the live-condition and result pages.
type RaceEntry struct {
	bun.BaseModel `bun:"table:race_entries,alias:re"`

	EntryID  int `bun:"entry_id,pk,autoincrement" json:"entryID"`
	RaceID   int `bun:"race_id,notnull,unique:race_entries_no_dupes" json:"raceID"`
	Lane     int `bun:"lane,notnull,type:smallint,unique:race_entries_no_dupes" json:"lane"`
	PlayerID int `bun:"player_id,notnull" json:"playerID"`

	// entry sheet
	Class                  *string  `bun:"class" json:"class,omitempty"`
	Age                    *int     `bun:"age,type:smallint" json:"age,omitempty"`
	Weight                 *float64 `bun:"weight,type:numeric(4,1)" json:"weight,omitempty"`
	FCount                 *int     `bun:"f_count,type:smallint" json:"fCount,omitempty"`
	LCount                 *int     `bun:"l_count,type:smallint" json:"lCount,omitempty"`
	AvgST                  *float64 `bun:"avg_st,type:numeric(3,2)" json:"avgST,omitempty"`
	NationwideWinRate      *float64 `bun:"nationwide_win_rate,type:numeric(4,2)" json:"nationwideWinRate,omitempty"`
	NationwideTwoWinRate   *float64 `bun:"nationwide_two_win_rate,type:numeric(5,2)" json:"nationwideTwoWinRate,omitempty"`
	NationwideThreeWinRate *float64 `bun:"nationwide_three_win_rate,type:numeric(5,2)" json:"nationwideThreeWinRate,omitempty"`
	LocalWinRate           *float64 `bun:"local_win_rate,type:numeric(4,2)" json:"localWinRate,omitempty"`
	LocalTwoWinRate        *float64 `bun:"local_two_win_rate,type:numeric(5,2)" json:"localTwoWinRate,omitempty"`
	LocalThreeWinRate      *float64 `bun:"local_three_win_rate,type:numeric(5,2)" json:"localThreeWinRate,omitempty"`
	MotorNo                *int     `bun:"motor_no,type:smallint" json:"motorNo,omitempty"`
	MotorTwoWinRate        *float64 `bun:"motor_two_win_rate,type:numeric(5,2)" json:"motorTwoWinRate,omitempty"`
	MotorThreeWinRate      *float64 `bun:"motor_three_win_rate,type:numeric(5,2)" json:"motorThreeWinRate,omitempty"`
	BoatNo                 *int     `bun:"boat_no,type:smallint" json:"boatNo,omitempty"`
	BoatTwoWinRate         *float64 `bun:"boat_two_win_rate,type:numeric(5,2)" json:"boatTwoWinRate,omitempty"`
	BoatThreeWinRate       *float64 `bun:"boat_three_win_rate,type:numeric(5,2)" json:"boatThreeWinRate,omitempty"`

	// live condition
	LiveWeight       *float64 `bun:"live_weight,type:numeric(4,1)" json:"liveWeight,omitempty"`
	TuningWeight     *float64 `bun:"tuning_weight,type:numeric(4,1)" json:"tuningWeight,omitempty"`
	ExhibitionTime   *float64 `bun:"exhibition_time,type:numeric(4,2)" json:"exhibitionTime,omitempty"`
	Tilt             *float64 `bun:"tilt,type:numeric(3,1)" json:"tilt,omitempty"`
	Propeller        *string  `bun:"propeller" json:"propeller,omitempty"`
	PartsChanged     *string  `bun:"parts_changed" json:"partsChanged,omitempty"`
	ExhibitionST     *float64 `bun:"exhibition_st,type:numeric(3,2)" json:"exhibitionST,omitempty"`
	ExhibitionFlying *bool    `bun:"exhibition_flying" json:"exhibitionFlying,omitempty"`

	// result
	RankRaw     *string  `bun:"rank_raw" json:"rankRaw,omitempty"`
	Rank        *int     `bun:"rank,type:smallint" json:"rank,omitempty"`
	RaceTime    *string  `bun:"race_time" json:"raceTime,omitempty"`
	StartCourse *int     `bun:"start_course,type:smallint" json:"startCourse,omitempty"`
	StartST     *float64 `bun:"start_st,type:numeric(3,2)" json:"startST,omitempty"`
	Decision    *string  `bun:"decision" json:"decision,omitempty"`

	Player *Player `bun:"rel:belongs-to,join:player_id=player_id" json:"player,omitempty"`
}
