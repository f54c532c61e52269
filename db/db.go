package db

import (
	"context"
	"database/sql"
	"log"

	"github.com/cockroachdb/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"github.com/padraicbc/boatrace/config"
	"github.com/padraicbc/boatrace/models"
)

// Setup opens the configured database and exits the process on failure.
func Setup(cfg config.DB, debug bool) *bun.DB {
	db, err := Open(context.Background(), cfg, debug)
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}
	return db
}

// Open connects to PostgreSQL or SQLite depending on cfg.Driver and pings it.
func Open(ctx context.Context, cfg config.DB, debug bool) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case config.DriverSQLite:
		sqldb, err := sql.Open("sqlite", cfg.SQLiteDSN())
		if err != nil {
			return nil, err
		}
		// SQLite allows a single writer; in-memory databases live per connection.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.PostgresDSN())))
		db = bun.NewDB(sqldb, pgdialect.New())
	}

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type table struct {
	model       any
	foreignKeys []string
}

// tables lists models in dependency order.
var tables = []table{
	{model: (*models.User)(nil)},
	{model: (*models.Venue)(nil)},
	{model: (*models.Player)(nil)},
	{model: (*models.Race)(nil), foreignKeys: []string{
		`("jcd") REFERENCES "venues" ("jcd")`,
	}},
	{model: (*models.RaceEntry)(nil), foreignKeys: []string{
		`("race_id") REFERENCES "races" ("race_id") ON DELETE CASCADE`,
		`("player_id") REFERENCES "players" ("player_id")`,
	}},
	{model: (*models.Payout)(nil), foreignKeys: []string{
		`("race_id") REFERENCES "races" ("race_id") ON DELETE CASCADE`,
	}},
	{model: (*models.PlayerSeasonSummary)(nil), foreignKeys: []string{
		`("player_id") REFERENCES "players" ("player_id")`,
	}},
	{model: (*models.PlayerLaneSummary)(nil), foreignKeys: []string{
		`("player_id", "year", "term") REFERENCES "player_season_summaries" ("player_id", "year", "term") ON DELETE CASCADE`,
	}},
}

// CreateTables creates all tables in dependency order, then secondary indexes.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return errors.Wrapf(err, "creating table for %T", t.model)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*models.Race)(nil), "idx_races_hd_jcd", []string{"hd", "jcd"}},
		{(*models.Payout)(nil), "idx_payouts_race", []string{"race_id"}},
		{(*models.RaceEntry)(nil), "idx_race_entries_player", []string{"player_id"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "creating index %s", idx.name)
		}
	}

	return nil
}

// SeedVenues inserts the fixed venue list. Existing rows are left alone.
func SeedVenues(ctx context.Context, db bun.IDB) (int64, error) {
	venues := make([]models.Venue, len(models.Venues))
	copy(venues, models.Venues)

	res, err := db.NewInsert().Model(&venues).On("CONFLICT (jcd) DO NOTHING").Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "seeding venues")
	}
	return res.RowsAffected()
}

// Init creates the schema and seeds reference data.
func Init(ctx context.Context, db *bun.DB) error {
	if err := CreateTables(ctx, db); err != nil {
		return err
	}
	_, err := SeedVenues(ctx, db)
	return err
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise; the error from fn is returned as is.
func WithTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	return nil
}
