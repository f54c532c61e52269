// Package store persists merged races and bulk statistics. Every function
// takes the handle to write through, normally a bun.Tx owned by the caller.
package store

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/db"
	"github.com/padraicbc/boatrace/logger"
	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/record"
)

// ErrInvalidRecord marks input that cannot be stored as given.
var ErrInvalidRecord = errors.New("invalid record")

// patch collects the columns a partial update touches.
type patch struct {
	cols []string
}

// set copies src into dst and records col, unless src is nil.
func set[T any](p *patch, col string, dst **T, src *T) {
	if src == nil {
		return
	}
	*dst = src
	p.cols = append(p.cols, col)
}

func (p *patch) apply(ctx context.Context, idb bun.IDB, model any) error {
	if len(p.cols) == 0 {
		return nil
	}
	_, err := idb.NewUpdate().Model(model).Column(p.cols...).WherePK().Exec(ctx)
	return err
}

// UpsertPlayer creates a player or updates the supplied columns. A new name
// on an existing registration number replaces the stored one.
func UpsertPlayer(ctx context.Context, idb bun.IDB, in *models.Player, log *zap.Logger) error {
	log = logger.OrNop(log)
	if in.PlayerID <= 0 {
		return errors.Wrapf(ErrInvalidRecord, "player id %d", in.PlayerID)
	}

	cur := models.Player{PlayerID: in.PlayerID}
	err := idb.NewSelect().Model(&cur).WherePK().Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := idb.NewInsert().Model(in).Exec(ctx); err != nil {
			return errors.Wrapf(err, "inserting player %d", in.PlayerID)
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "selecting player %d", in.PlayerID)
	}

	if in.Name != nil && cur.Name != nil && *in.Name != *cur.Name {
		log.Info("player name changed",
			zap.Int("player_id", in.PlayerID), zap.String("old", *cur.Name), zap.String("new", *in.Name))
	}

	var p patch
	set(&p, "name", &cur.Name, in.Name)
	set(&p, "branch", &cur.Branch, in.Branch)
	set(&p, "hometown", &cur.Hometown, in.Hometown)
	set(&p, "birth_date", &cur.BirthDate, in.BirthDate)
	return errors.Wrapf(p.apply(ctx, idb, &cur), "updating player %d", in.PlayerID)
}

// UpsertRace finds the race by (hd, jcd, rno), creating it when absent, and
// applies the supplied columns. The stored row is returned.
func UpsertRace(ctx context.Context, idb bun.IDB, in *models.Race) (*models.Race, error) {
	cur := new(models.Race)
	err := idb.NewSelect().
		Model(cur).
		Where("hd = ? AND jcd = ? AND rno = ?", in.Hd, in.Jcd, in.Rno).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := idb.NewInsert().Model(in).Exec(ctx); err != nil {
			return nil, errors.Wrapf(err, "inserting race %s/%s/%d", in.Hd.Format("20060102"), in.Jcd, in.Rno)
		}
		return in, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting race")
	}

	var p patch
	set(&p, "race_name", &cur.RaceName, in.RaceName)
	set(&p, "distance", &cur.Distance, in.Distance)
	set(&p, "deadline", &cur.Deadline, in.Deadline)
	set(&p, "is_stable_plate_used", &cur.IsStablePlateUsed, in.IsStablePlateUsed)
	if err := p.apply(ctx, idb, cur); err != nil {
		return nil, errors.Wrapf(err, "updating race %d", cur.RaceID)
	}

	if err := UpdateRaceWeather(ctx, idb, cur, in); err != nil {
		return nil, err
	}
	return cur, nil
}

// UpdateRaceWeather copies the supplied condition columns of in onto the
// stored race cur.
func UpdateRaceWeather(ctx context.Context, idb bun.IDB, cur, in *models.Race) error {
	var p patch
	set(&p, "weather", &cur.Weather, in.Weather)
	set(&p, "temperature", &cur.Temperature, in.Temperature)
	set(&p, "wind_speed", &cur.WindSpeed, in.WindSpeed)
	set(&p, "wind_dir", &cur.WindDir, in.WindDir)
	set(&p, "water_temp", &cur.WaterTemp, in.WaterTemp)
	set(&p, "wave_height", &cur.WaveHeight, in.WaveHeight)
	set(&p, "weather_updated", &cur.WeatherUpdated, in.WeatherUpdated)
	return errors.Wrapf(p.apply(ctx, idb, cur), "updating weather for race %d", cur.RaceID)
}

// UpsertRaceEntry finds the entry by (race, lane), creating it when absent,
// and applies the supplied columns. An entry can only be created with a
// player. A different player on an existing entry is overwritten and logged.
func UpsertRaceEntry(ctx context.Context, idb bun.IDB, raceID int, in *models.RaceEntry, log *zap.Logger) error {
	log = logger.OrNop(log)
	in.RaceID = raceID

	cur := new(models.RaceEntry)
	err := idb.NewSelect().
		Model(cur).
		Where("race_id = ? AND lane = ?", raceID, in.Lane).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		if in.PlayerID == 0 {
			return errors.Wrapf(ErrInvalidRecord, "race %d lane %d has no player", raceID, in.Lane)
		}
		if _, err := idb.NewInsert().Model(in).Exec(ctx); err != nil {
			return errors.Wrapf(err, "inserting race %d lane %d", raceID, in.Lane)
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "selecting race %d lane %d", raceID, in.Lane)
	}

	var p patch
	if in.PlayerID != 0 && in.PlayerID != cur.PlayerID {
		log.Warn("entry player changed, overwriting",
			zap.Int("race_id", raceID), zap.Int("lane", in.Lane),
			zap.Int("old", cur.PlayerID), zap.Int("new", in.PlayerID))
		cur.PlayerID = in.PlayerID
		p.cols = append(p.cols, "player_id")
	}

	set(&p, "class", &cur.Class, in.Class)
	set(&p, "age", &cur.Age, in.Age)
	set(&p, "weight", &cur.Weight, in.Weight)
	set(&p, "f_count", &cur.FCount, in.FCount)
	set(&p, "l_count", &cur.LCount, in.LCount)
	set(&p, "avg_st", &cur.AvgST, in.AvgST)
	set(&p, "nationwide_win_rate", &cur.NationwideWinRate, in.NationwideWinRate)
	set(&p, "nationwide_two_win_rate", &cur.NationwideTwoWinRate, in.NationwideTwoWinRate)
	set(&p, "nationwide_three_win_rate", &cur.NationwideThreeWinRate, in.NationwideThreeWinRate)
	set(&p, "local_win_rate", &cur.LocalWinRate, in.LocalWinRate)
	set(&p, "local_two_win_rate", &cur.LocalTwoWinRate, in.LocalTwoWinRate)
	set(&p, "local_three_win_rate", &cur.LocalThreeWinRate, in.LocalThreeWinRate)
	set(&p, "motor_no", &cur.MotorNo, in.MotorNo)
	set(&p, "motor_two_win_rate", &cur.MotorTwoWinRate, in.MotorTwoWinRate)
	set(&p, "motor_three_win_rate", &cur.MotorThreeWinRate, in.MotorThreeWinRate)
	set(&p, "boat_no", &cur.BoatNo, in.BoatNo)
	set(&p, "boat_two_win_rate", &cur.BoatTwoWinRate, in.BoatTwoWinRate)
	set(&p, "boat_three_win_rate", &cur.BoatThreeWinRate, in.BoatThreeWinRate)

	set(&p, "live_weight", &cur.LiveWeight, in.LiveWeight)
	set(&p, "tuning_weight", &cur.TuningWeight, in.TuningWeight)
	set(&p, "exhibition_time", &cur.ExhibitionTime, in.ExhibitionTime)
	set(&p, "tilt", &cur.Tilt, in.Tilt)
	set(&p, "propeller", &cur.Propeller, in.Propeller)
	set(&p, "parts_changed", &cur.PartsChanged, in.PartsChanged)
	set(&p, "exhibition_st", &cur.ExhibitionST, in.ExhibitionST)
	set(&p, "exhibition_flying", &cur.ExhibitionFlying, in.ExhibitionFlying)

	set(&p, "rank_raw", &cur.RankRaw, in.RankRaw)
	set(&p, "rank", &cur.Rank, in.Rank)
	set(&p, "race_time", &cur.RaceTime, in.RaceTime)
	set(&p, "start_course", &cur.StartCourse, in.StartCourse)
	set(&p, "start_st", &cur.StartST, in.StartST)
	set(&p, "decision", &cur.Decision, in.Decision)

	return errors.Wrapf(p.apply(ctx, idb, cur), "updating race %d lane %d", raceID, in.Lane)
}

// ReplacePayouts deletes every payout of the race and inserts payouts.
func ReplacePayouts(ctx context.Context, idb bun.IDB, raceID int, payouts []models.Payout) error {
	_, err := idb.NewDelete().Model((*models.Payout)(nil)).Where("race_id = ?", raceID).Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "deleting payouts of race %d", raceID)
	}
	if len(payouts) == 0 {
		return nil
	}

	rows := make([]models.Payout, len(payouts))
	for i, po := range payouts {
		po.PayoutID = 0
		po.RaceID = raceID
		rows[i] = po
	}
	if _, err := idb.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return errors.Wrapf(err, "inserting payouts of race %d", raceID)
	}
	return nil
}

// Saved summarizes what SaveRace wrote.
type Saved struct {
	RaceID  int
	Entries int
	Skipped int
	Payouts int
}

// SaveRace stores a merged race in one transaction: the race row, the
// players and entries of every valid lane, and, when any were scraped, the
// payouts. Any storage error rolls the whole race back.
func SaveRace(ctx context.Context, bdb *bun.DB, race *record.Race, log *zap.Logger) (Saved, error) {
	log = logger.OrNop(log).With(
		zap.String("hd", race.Hd.Format("20060102")), zap.String("jcd", race.Jcd), zap.Int("rno", race.Rno))

	var saved Saved
	if err := race.Validate(); err != nil {
		return saved, errors.Mark(err, ErrInvalidRecord)
	}

	err := db.WithTx(ctx, bdb, func(ctx context.Context, tx bun.Tx) error {
		saved = Saved{}
		row := race.Row
		stored, err := UpsertRace(ctx, tx, &row)
		if err != nil {
			return err
		}
		saved.RaceID = stored.RaceID

		for i := range race.Entries {
			e := race.Entries[i]
			if err := record.ValidateEntry(&e); err != nil {
				log.Warn("skipping entry", zap.Int("lane", e.Lane), zap.Error(err))
				saved.Skipped++
				continue
			}
			if e.PlayerID != 0 {
				if err := UpsertPlayer(ctx, tx, &e.Player, log); err != nil {
					return err
				}
			}
			err := UpsertRaceEntry(ctx, tx, stored.RaceID, &e.Row, log)
			if errors.Is(err, ErrInvalidRecord) {
				log.Warn("skipping entry", zap.Int("lane", e.Lane), zap.Error(err))
				saved.Skipped++
				continue
			}
			if err != nil {
				return err
			}
			saved.Entries++
		}

		if len(race.Payouts) == 0 {
			log.Info("no payouts scraped, keeping stored payouts")
			return nil
		}
		if err := ReplacePayouts(ctx, tx, stored.RaceID, race.Payouts); err != nil {
			return err
		}
		saved.Payouts = len(race.Payouts)
		return nil
	})
	if err != nil {
		return Saved{}, err
	}
	return saved, nil
}
