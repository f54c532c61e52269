package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	testCases := []struct {
		name string
		db   DB
		want string
	}{
		{
			name: "fields",
			db:   DB{User: "u", Pass: "p", Host: "h", Port: "5432", Name: "boatrace", SSLMode: "disable"},
			want: "postgres://u:p@h:5432/boatrace?sslmode=disable",
		},
		{
			name: "url wins",
			db:   DB{DatabaseURL: "postgres://x@y/z", User: "u", Pass: "p"},
			want: "postgres://x@y/z",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.db.PostgresDSN())
		})
	}
}

func TestDBValidate(t *testing.T) {
	require.NoError(t, DB{Driver: DriverSQLite, SQLitePath: "x.db"}.validate())
	require.NoError(t, DB{Driver: DriverPostgres, Pass: "p"}.validate())
	require.Error(t, DB{Driver: DriverPostgres}.validate())
	require.ErrorContains(t, DB{Driver: "oracle"}.validate(), `unknown DB_DRIVER "oracle"`)
}

func TestLoadScraperDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")
	t.Setenv("SCRAPE_INTERVAL", "250ms")

	cfg := LoadScraper()
	require.Equal(t, "https://www.boatrace.jp/owpc/pc/race", cfg.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Equal(t, 250*time.Millisecond, cfg.Interval)
	require.Equal(t, 24, cfg.MaxVenue)
	require.Equal(t, "utf-8", cfg.FanbookEncoding)
	require.Equal(t, "file:test.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.DB.SQLiteDSN())
}

func TestIsAdmin(t *testing.T) {
	cfg := &Config{AdminUsers: splitTrimmed("admin, Mike ,")}
	require.True(t, cfg.IsAdmin("ADMIN"))
	require.True(t, cfg.IsAdmin(" mike"))
	require.False(t, cfg.IsAdmin("guest"))
}

func TestLoadTokenTTL(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")
	t.Setenv("JWT_SECRET", "s")

	require.Equal(t, 720*time.Hour, Load().TokenTTL)

	t.Setenv("TOKEN_TTL", "12h")
	require.Equal(t, 12*time.Hour, Load().TokenTTL)
}
