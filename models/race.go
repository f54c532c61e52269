package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race is one race on one day at one venue. (hd, jcd, rno) is unique.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	RaceID int       `bun:"race_id,pk,autoincrement" json:"raceID"`
	Hd     time.Time `bun:"hd,notnull,type:date,unique:races_no_dupes" json:"hd"`
	Jcd    string    `bun:"jcd,notnull,type:char(2),unique:races_no_dupes" json:"jcd"`
	Rno    int       `bun:"rno,notnull,type:smallint,unique:races_no_dupes" json:"rno"`

	RaceName          *string `bun:"race_name" json:"raceName,omitempty"`
	Distance          *int    `bun:"distance,type:smallint" json:"distance,omitempty"`
	Deadline          *string `bun:"deadline" json:"deadline,omitempty"`
	IsStablePlateUsed *bool   `bun:"is_stable_plate_used" json:"isStablePlateUsed,omitempty"`

	Weather        *string  `bun:"weather" json:"weather,omitempty"`
	Temperature    *float64 `bun:"temperature,type:numeric(4,1)" json:"temperature,omitempty"`
	WindSpeed      *int     `bun:"wind_speed,type:smallint" json:"windSpeed,omitempty"`
	WindDir        *int     `bun:"wind_dir,type:smallint" json:"windDir,omitempty"`
	WaterTemp      *float64 `bun:"water_temp,type:numeric(4,1)" json:"waterTemp,omitempty"`
	WaveHeight     *int     `bun:"wave_height,type:smallint" json:"waveHeight,omitempty"`
	WeatherUpdated *string  `bun:"weather_updated" json:"weatherUpdated,omitempty"`

	SeasonYear int `bun:"season_year,notnull,type:smallint" json:"seasonYear"`
	SeasonTerm int `bun:"season_term,notnull,type:smallint" json:"seasonTerm"`

	Venue   *Venue       `bun:"rel:belongs-to,join:jcd=jcd" json:"venue,omitempty"`
	Entries []*RaceEntry `bun:"rel:has-many,join:race_id=race_id" json:"entries,omitempty"`
	Payouts []*Payout    `bun:"rel:has-many,join:race_id=race_id" json:"payouts,omitempty"`
}
