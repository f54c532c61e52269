// cmd/migrate/main.go
// Copies a legacy SQLite boat_data.db (singular table names) into the
// configured database.
//
// Usage:
//
//	LEGACY_SQLITE_PATH=data/boat_data.db \
//	DB_PASS="pgpass" \
//	go run ./cmd/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.uber.org/zap"

	"github.com/padraicbc/boatrace/config"
	bundb "github.com/padraicbc/boatrace/db"
	applog "github.com/padraicbc/boatrace/logger"
	"github.com/padraicbc/boatrace/models"
	"github.com/padraicbc/boatrace/record"
)

const batchSize = 500

func main() {
	ctx := context.Background()

	cfg := config.LoadScraper()
	log, err := applog.New(cfg.Debug, "migrate")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// --- legacy SQLite ---
	src, err := bundb.Open(ctx, config.DB{Driver: config.DriverSQLite, SQLitePath: cfg.LegacySQLitePath}, false)
	if err != nil {
		log.Fatal("open legacy sqlite", zap.String("path", cfg.LegacySQLitePath), zap.Error(err))
	}
	defer src.Close()
	log.Info("connected to legacy SQLite", zap.String("path", cfg.LegacySQLitePath))

	// --- target ---
	dst := bundb.Setup(cfg.DB, cfg.Debug)
	defer dst.Close()
	if err := bundb.Init(ctx, dst); err != nil {
		log.Fatal("init target", zap.Error(err))
	}
	log.Info("connected to target", zap.String("driver", cfg.DB.Driver))

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"players", func() (int, error) { return migratePlayers(ctx, src.DB, dst) }},
		{"races", func() (int, error) { return migrateRaces(ctx, src.DB, dst) }},
		{"race_entries", func() (int, error) { return migrateEntries(ctx, src.DB, dst) }},
		{"payouts", func() (int, error) { return migratePayouts(ctx, src.DB, dst) }},
		{"player_season_summaries", func() (int, error) { return migrateSeasonSummaries(ctx, src.DB, dst) }},
		{"player_lane_summaries", func() (int, error) { return migrateLaneSummaries(ctx, src.DB, dst) }},
	}

	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatal("migrate failed", zap.String("table", s.name), zap.Error(err))
		}
		log.Info("rows migrated", zap.String("table", s.name), zap.Int("rows", n))
	}

	if dst.Dialect().Name() == dialect.PG {
		resetSequences(ctx, dst, log)
	}
	log.Info("migration complete")
}

// --- helpers ---

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func nullStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

func nullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal.Round(2)
	return &d
}

// nullDate reads the YYYY-MM-DD text SQLite keeps dates as.
func nullDate(n sql.NullString) *time.Time {
	if !n.Valid || len(n.String) < len(time.DateOnly) {
		return nil
	}
	t, err := time.Parse(time.DateOnly, n.String[:len(time.DateOnly)])
	if err != nil {
		return nil
	}
	return &t
}

// nullClock trims a stored time of day such as 15:05:00.000000 to 15:05.
func nullClock(n sql.NullString) *string {
	if !n.Valid || len(n.String) < 5 {
		return nil
	}
	s := n.String[:5]
	return &s
}

func nullAtoi(n sql.NullString) *int {
	if !n.Valid {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.String))
	if err != nil {
		return nil
	}
	return &v
}

// bulkInsert inserts a batch, skipping rows that already exist (idempotent re-runs).
func bulkInsert[T any](ctx context.Context, dst *bun.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := dst.NewInsert().Model(&rows).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

// copyRows runs query against the legacy database and inserts every row
// scan returns, batchSize at a time.
func copyRows[T any](ctx context.Context, src *sql.DB, dst *bun.DB, query string, scan func(*sql.Rows) (T, error)) (int, error) {
	rows, err := src.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var batch []T
	total := 0
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return total, err
		}
		batch = append(batch, r)
		if len(batch) >= batchSize {
			if err := bulkInsert(ctx, dst, batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return total, err
	}
	if err := bulkInsert(ctx, dst, batch); err != nil {
		return total, err
	}
	return total + len(batch), nil
}

// --- per-table migrations ---

func migratePlayers(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		"SELECT player_id, name, branch, hometown, birth_date FROM player",
		func(rows *sql.Rows) (models.Player, error) {
			var (
				r                        models.Player
				name, branch, home, born sql.NullString
			)
			if err := rows.Scan(&r.PlayerID, &name, &branch, &home, &born); err != nil {
				return r, err
			}
			r.Name, r.Branch, r.Hometown = nullStr(name), nullStr(branch), nullStr(home)
			r.BirthDate = nullDate(born)
			return r, nil
		})
}

func migrateRaces(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		`SELECT race_id, hd, jcd, rno, race_name, distance, deadline, weather,
		        wind_speed, wind_dir, water_temp, wave_height, season_year, season_term
		 FROM race`,
		func(rows *sql.Rows) (models.Race, error) {
			var (
				r                       models.Race
				hd                      sql.NullString
				name, deadline, weather sql.NullString
				windDir                 sql.NullString
				distance, speed, wave   sql.NullInt64
				waterTemp               sql.NullFloat64
				seasonYear, seasonTerm  sql.NullInt64
			)
			if err := rows.Scan(&r.RaceID, &hd, &r.Jcd, &r.Rno, &name, &distance, &deadline, &weather,
				&speed, &windDir, &waterTemp, &wave, &seasonYear, &seasonTerm); err != nil {
				return r, err
			}
			day := nullDate(hd)
			if day == nil {
				return r, errors.Newf("race %d: unreadable hd %q", r.RaceID, hd.String)
			}
			r.Hd = *day
			r.RaceName = nullStr(name)
			r.Distance = nullInt(distance)
			r.Deadline = nullClock(deadline)
			r.Weather = nullStr(weather)
			r.WindSpeed = nullInt(speed)
			r.WindDir = nullAtoi(windDir)
			r.WaterTemp = nullFloat(waterTemp)
			r.WaveHeight = nullInt(wave)
			r.SeasonYear, r.SeasonTerm = record.SeasonOf(r.Hd)
			if seasonYear.Valid && seasonTerm.Valid {
				r.SeasonYear, r.SeasonTerm = int(seasonYear.Int64), int(seasonTerm.Int64)
			}
			return r, nil
		})
}

func migrateEntries(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		`SELECT entry_id, race_id, lane, player_id, class, age, weight, f_count, l_count, avg_st,
		        nationwide_two_win_rate, nationwide_three_win_rate, local_two_win_rate, local_three_win_rate,
		        motor_no, motor_two_win_rate, motor_three_win_rate, boat_no, boat_two_win_rate, boat_three_win_rate,
		        tuning_weight, exhibition_time, tilt, parts_changed,
		        rank_raw, rank, race_time, start_course, start_st, decision
		 FROM race_entry`,
		func(rows *sql.Rows) (models.RaceEntry, error) {
			var (
				r                                      models.RaceEntry
				class, parts, rankRaw, raceTime, decis sql.NullString
				age, fCount, lCount, motorNo, boatNo   sql.NullInt64
				rank, startCourse                      sql.NullInt64
				weight, avgST, nat2, nat3, loc2, loc3  sql.NullFloat64
				motor2, motor3, boat2, boat3           sql.NullFloat64
				tuning, exTime, tilt, startST          sql.NullFloat64
			)
			if err := rows.Scan(&r.EntryID, &r.RaceID, &r.Lane, &r.PlayerID, &class, &age, &weight, &fCount, &lCount, &avgST,
				&nat2, &nat3, &loc2, &loc3,
				&motorNo, &motor2, &motor3, &boatNo, &boat2, &boat3,
				&tuning, &exTime, &tilt, &parts,
				&rankRaw, &rank, &raceTime, &startCourse, &startST, &decis); err != nil {
				return r, err
			}
			r.Class, r.Age, r.Weight = nullStr(class), nullInt(age), nullFloat(weight)
			r.FCount, r.LCount, r.AvgST = nullInt(fCount), nullInt(lCount), nullFloat(avgST)
			r.NationwideTwoWinRate, r.NationwideThreeWinRate = nullFloat(nat2), nullFloat(nat3)
			r.LocalTwoWinRate, r.LocalThreeWinRate = nullFloat(loc2), nullFloat(loc3)
			r.MotorNo, r.MotorTwoWinRate, r.MotorThreeWinRate = nullInt(motorNo), nullFloat(motor2), nullFloat(motor3)
			r.BoatNo, r.BoatTwoWinRate, r.BoatThreeWinRate = nullInt(boatNo), nullFloat(boat2), nullFloat(boat3)
			r.TuningWeight, r.ExhibitionTime, r.Tilt = nullFloat(tuning), nullFloat(exTime), nullFloat(tilt)
			r.PartsChanged = nullStr(parts)
			r.RankRaw, r.RaceTime, r.Decision = nullStr(rankRaw), nullStr(raceTime), nullStr(decis)
			r.Rank = nullInt(rank)
			if r.Rank == nil && r.RankRaw != nil {
				r.Rank = record.RankOf(r.RankRaw)
			}
			r.StartCourse, r.StartST = nullInt(startCourse), nullFloat(startST)
			return r, nil
		})
}

func migratePayouts(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		"SELECT payout_id, race_id, bet_type, combination, amount, popularity FROM payout WHERE amount IS NOT NULL",
		func(rows *sql.Rows) (models.Payout, error) {
			var (
				r          models.Payout
				popularity sql.NullInt64
			)
			if err := rows.Scan(&r.PayoutID, &r.RaceID, &r.BetType, &r.Combination, &r.Amount, &popularity); err != nil {
				return r, err
			}
			r.BetType = record.BetTypeCode(r.BetType)
			r.Popularity = nullInt(popularity)
			return r, nil
		})
}

func migrateSeasonSummaries(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		`SELECT player_id, year, term, calc_start, calc_end, grade, win_rate, quinella_rate,
		        starts, wins, seconds, avg_st, ability_idx, prev_ability_idx
		 FROM player_season_summary`,
		func(rows *sql.Rows) (models.PlayerSeasonSummary, error) {
			var (
				r                         models.PlayerSeasonSummary
				calcStart, calcEnd, grade sql.NullString
				winRate, quinella, avgST  decimal.NullDecimal
				ability, prevAbility      decimal.NullDecimal
				starts, wins, seconds     sql.NullInt64
			)
			if err := rows.Scan(&r.PlayerID, &r.Year, &r.Term, &calcStart, &calcEnd, &grade, &winRate, &quinella,
				&starts, &wins, &seconds, &avgST, &ability, &prevAbility); err != nil {
				return r, err
			}
			r.CalcStart, r.CalcEnd = record.TermDates(r.Year, r.Term)
			if d := nullDate(calcStart); d != nil {
				r.CalcStart = *d
			}
			if d := nullDate(calcEnd); d != nil {
				r.CalcEnd = *d
			}
			r.Grade = nullStr(grade)
			r.WinRate, r.QuinellaRate, r.AvgST = nullDecimal(winRate), nullDecimal(quinella), nullDecimal(avgST)
			r.AbilityIdx, r.PrevAbilityIdx = nullDecimal(ability), nullDecimal(prevAbility)
			r.Starts, r.Wins, r.Seconds = nullInt(starts), nullInt(wins), nullInt(seconds)
			return r, nil
		})
}

func migrateLaneSummaries(ctx context.Context, src *sql.DB, dst *bun.DB) (int, error) {
	return copyRows(ctx, src, dst,
		`SELECT player_id, year, term, lane, starts, wins, seconds, thirds, fourths, fifths, sixths,
		        f_count, l0_count, l1_count, k0_count, k1_count, s0_count, s1_count, s2_count,
		        quinella_rate, avg_st, avg_start_rank
		 FROM player_lane_summary`,
		func(rows *sql.Rows) (models.PlayerLaneSummary, error) {
			var (
				r      models.PlayerLaneSummary
				counts [15]sql.NullInt64
				rates  [3]decimal.NullDecimal
			)
			dest := []any{&r.PlayerID, &r.Year, &r.Term, &r.Lane}
			for i := range counts {
				dest = append(dest, &counts[i])
			}
			for i := range rates {
				dest = append(dest, &rates[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return r, err
			}
			for i, p := range []**int{
				&r.Starts, &r.Wins, &r.Seconds, &r.Thirds, &r.Fourths, &r.Fifths, &r.Sixths,
				&r.FCount, &r.L0Count, &r.L1Count, &r.K0Count, &r.K1Count, &r.S0Count, &r.S1Count, &r.S2Count,
			} {
				*p = nullInt(counts[i])
			}
			r.QuinellaRate, r.AvgST, r.AvgStartRank = nullDecimal(rates[0]), nullDecimal(rates[1]), nullDecimal(rates[2])
			return r, nil
		})
}

func resetSequences(ctx context.Context, dst *bun.DB, log *zap.Logger) {
	seqs := []struct{ seq, table, col string }{
		{"races_race_id_seq", "races", "race_id"},
		{"race_entries_entry_id_seq", "race_entries", "entry_id"},
		{"payouts_payout_id_seq", "payouts", "payout_id"},
	}
	for _, s := range seqs {
		q := fmt.Sprintf(
			"SELECT setval('%s', COALESCE((SELECT MAX(%s) FROM %s), 1))",
			s.seq, s.col, s.table,
		)
		if _, err := dst.ExecContext(ctx, q); err != nil {
			log.Warn("reset sequence failed", zap.String("seq", s.seq), zap.Error(err))
		}
	}
	log.Info("sequences reset")
}
