// Package record merges the partial records scraped from the three race
// pages into one storable race and normalizes units on the way.
package record

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/scrape"
)

// Key identifies a race.
type Key struct {
	Hd  time.Time `validate:"required"`
	Jcd string    `validate:"len=2,numeric"`
	Rno int       `validate:"min=1,max=12"`
}

// Entry is one merged lane. Row carries every column of the race_entries
// row; nil columns are left untouched when stored.
type Entry struct {
	Lane     int `validate:"min=1,max=6"`
	PlayerID int `validate:"omitempty,gt=0"`

	Player models.Player    `validate:"-"`
	Row    models.RaceEntry `validate:"-"`
}

// Race is a merged race ready for storage.
type Race struct {
	Key

	SeasonYear int `validate:"gte=2000"`
	SeasonTerm int `validate:"oneof=1 2"`

	Row     models.Race     `validate:"-"`
	Entries []Entry         `validate:"-"`
	Payouts []models.Payout `validate:"dive"`
}

var validate = validator.New()

// Validate checks identity fields of the race and its payouts. Entries are
// checked one lane at a time with ValidateEntry.
func (r *Race) Validate() error {
	return errors.Wrap(validate.Struct(r), "invalid race")
}

// ValidateEntry checks a single lane.
func ValidateEntry(e *Entry) error {
	return errors.Wrapf(validate.Struct(e), "invalid entry for lane %d", e.Lane)
}

// Merge combines the pages of one race. Any page may be nil. Lanes are
// outer joined: a lane seen on any page yields an entry, with nil columns
// for pages that did not mention it.
func Merge(key Key, entry *scrape.EntrySheet, live *scrape.LiveInfo, result *scrape.Result) Race {
	year, term := SeasonOf(key.Hd)
	race := Race{
		Key:        key,
		SeasonYear: year,
		SeasonTerm: term,
		Row: models.Race{
			Hd:         key.Hd,
			Jcd:        key.Jcd,
			Rno:        key.Rno,
			SeasonYear: year,
			SeasonTerm: term,
		},
	}

	lanes := map[int]*Entry{}
	lane := func(n int) *Entry {
		e, ok := lanes[n]
		if !ok {
			e = &Entry{Lane: n}
			e.Row.Lane = n
			lanes[n] = e
		}
		return e
	}

	if entry != nil {
		mergeRaceInfo(&race.Row, entry.Race)
		for _, l := range entry.Lanes {
			mergeEntryLane(lane(l.Lane), l)
		}
	}

	if live != nil {
		mergeWeather(&race.Row, live.Weather)
		for _, l := range live.Lanes {
			mergeLiveLane(lane(l.Lane), l)
		}
		for _, s := range live.Starts {
			e := lane(s.Course)
			e.Row.ExhibitionST = s.ST
			e.Row.ExhibitionFlying = ptr(s.Flying)
		}
	}

	if result != nil {
		for _, f := range result.Finishes {
			mergeFinish(lane(f.Lane), f, result.Technique)
		}
		for _, s := range result.Starts {
			e := lane(s.Lane)
			e.Row.StartCourse = ptr(s.Course)
			e.Row.StartST = s.ST
		}
		race.Payouts = flattenPayouts(result)
	}

	for _, e := range lanes {
		e.Row.PlayerID = e.PlayerID
		e.Player.PlayerID = e.PlayerID
		race.Entries = append(race.Entries, *e)
	}
	sort.Slice(race.Entries, func(i, j int) bool { return race.Entries[i].Lane < race.Entries[j].Lane })

	return race
}

func mergeRaceInfo(row *models.Race, info scrape.RaceInfo) {
	row.RaceName = info.Name
	row.Distance = info.Distance
	row.Deadline = info.Deadline
	row.IsStablePlateUsed = ptr(info.IsStablePlateUsed)
}

func mergeWeather(row *models.Race, w *scrape.Weather) {
	if w == nil {
		return
	}
	row.WeatherUpdated = w.Updated
	row.Weather = w.Weather
	row.Temperature = w.Temperature
	row.WindSpeed = w.WindSpeed
	row.WindDir = w.WindDir
	row.WaterTemp = w.WaterTemp
	row.WaveHeight = w.WaveHeight
}

func mergeEntryLane(e *Entry, l scrape.EntryLane) {
	e.PlayerID = l.PlayerID
	e.Player.Name = coalesce(l.Name, e.Player.Name)
	e.Player.Branch = l.Branch
	e.Player.Hometown = l.Hometown

	r := &e.Row
	r.Class = l.Class
	r.Age = l.Age
	r.Weight = l.Weight
	r.FCount = l.FCount
	r.LCount = l.LCount
	r.AvgST = l.AvgST
	r.NationwideWinRate = l.NationwideWinRate
	r.NationwideTwoWinRate = l.NationwideTwoWinRate
	r.NationwideThreeWinRate = l.NationwideThreeWinRate
	r.LocalWinRate = l.LocalWinRate
	r.LocalTwoWinRate = l.LocalTwoWinRate
	r.LocalThreeWinRate = l.LocalThreeWinRate
	r.MotorNo = l.MotorNo
	r.MotorTwoWinRate = l.MotorTwoWinRate
	r.MotorThreeWinRate = l.MotorThreeWinRate
	r.BoatNo = l.BoatNo
	r.BoatTwoWinRate = l.BoatTwoWinRate
	r.BoatThreeWinRate = l.BoatThreeWinRate
}

func mergeLiveLane(e *Entry, l scrape.LiveLane) {
	r := &e.Row
	r.LiveWeight = l.Weight
	r.TuningWeight = l.TuningWeight
	r.ExhibitionTime = l.ExhibitionTime
	r.Tilt = l.Tilt
	r.Propeller = l.Propeller
	r.PartsChanged = PartsJSON(l.Parts)
}

func mergeFinish(e *Entry, f scrape.Finish, technique *string) {
	// The entry sheet is authoritative for who raced; the result page only
	// fills a lane the entry sheet did not provide.
	if e.PlayerID == 0 && f.PlayerID != nil {
		e.PlayerID = *f.PlayerID
	}
	e.Player.Name = coalesce(e.Player.Name, f.Name)

	r := &e.Row
	r.RankRaw = ptr(f.RankRaw)
	r.Rank = RankOf(r.RankRaw)
	r.RaceTime = f.RaceTime
	if r.Rank != nil && *r.Rank == 1 {
		r.Decision = technique
	}
}

func flattenPayouts(result *scrape.Result) []models.Payout {
	var out []models.Payout
	for _, label := range result.BetTypes {
		code := BetTypeCode(label)
		for _, line := range result.Payouts[label] {
			out = append(out, models.Payout{
				BetType:     code,
				Combination: Combination(line.Boats),
				Amount:      line.Amount,
				Popularity:  line.Popularity,
			})
		}
	}
	return out
}

func coalesce[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }
