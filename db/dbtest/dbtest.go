// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/padraicbc/boatrace/config"
	"github.com/padraicbc/boatrace/db"
)

// New returns an in-memory database with the schema created and venues seeded.
func New(t testing.TB) *bun.DB {
	t.Helper()

	ctx := context.Background()
	bdb, err := db.Open(ctx, config.DB{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bdb.Close() })

	require.NoError(t, db.Init(ctx, bdb))
	return bdb
}
