// Package config loads application settings from a .env file and environment variables.
// Environment variables always take precedence over .env file values.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DB describes how to reach the database.
type DB struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver string

	// PostgreSQL – either set DatabaseURL directly, or the individual fields.
	DatabaseURL string
	User        string
	Pass        string
	Host        string
	Port        string
	Name        string
	SSLMode     string

	// SQLitePath is used when Driver is "sqlite".
	SQLitePath string
}

// Config holds the API server configuration.
type Config struct {
	DB DB

	// JWT signing secret (required in production).
	JWTSecret string
	// TokenTTL is how long a sign-in token stays valid.
	TokenTTL time.Duration

	// Server
	Debug      bool
	Port       string
	TLSDomains []string
	AdminUsers []string
}

// ScraperConfig holds configuration used by the boatrace CLI.
type ScraperConfig struct {
	DB    DB
	Debug bool

	BaseURL   string        `validate:"required,url"`
	UserAgent string        `validate:"required"`
	Timeout   time.Duration `validate:"gt=0"`
	Interval  time.Duration `validate:"gte=0"`
	MaxVenue  int           `validate:"min=1,max=24"`

	// FanbookEncoding is the character encoding of fanbook CSV files.
	FanbookEncoding string `validate:"oneof=utf-8 shift_jis"`

	// LegacySQLitePath is read only by cmd/migrate.
	LegacySQLitePath string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()
	v.SetDefault("PORT", ":9000")
	v.SetDefault("TLS_DOMAINS", "boatrace.padraicbc.com")
	v.SetDefault("ADMIN_USERS", "admin")
	v.SetDefault("TOKEN_TTL", "720h")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		DB:         loadDB(v),
		JWTSecret:  v.GetString("JWT_SECRET"),
		TokenTTL:   v.GetDuration("TOKEN_TTL"),
		Debug:      v.GetBool("DEBUG"),
		Port:       v.GetString("PORT"),
		TLSDomains: splitTrimmed(v.GetString("TLS_DOMAINS")),
		AdminUsers: splitTrimmed(v.GetString("ADMIN_USERS")),
	}

	cfg.validate()
	return cfg
}

// LoadScraper reads config for the scrape/import commands from .env and environment variables.
func LoadScraper() *ScraperConfig {
	v := newViper()
	v.SetDefault("DEBUG", false)
	v.SetDefault("SCRAPE_BASE_URL", "https://www.boatrace.jp/owpc/pc/race")
	v.SetDefault("SCRAPE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("SCRAPE_TIMEOUT", "30s")
	v.SetDefault("SCRAPE_INTERVAL", "1s")
	v.SetDefault("SCRAPE_MAX_VENUE", 24)
	v.SetDefault("FANBOOK_ENCODING", "utf-8")
	v.SetDefault("LEGACY_SQLITE_PATH", "data/boat_data.db")

	cfg := &ScraperConfig{
		DB:               loadDB(v),
		Debug:            v.GetBool("DEBUG"),
		BaseURL:          strings.TrimSuffix(v.GetString("SCRAPE_BASE_URL"), "/"),
		UserAgent:        v.GetString("SCRAPE_USER_AGENT"),
		Timeout:          v.GetDuration("SCRAPE_TIMEOUT"),
		Interval:         v.GetDuration("SCRAPE_INTERVAL"),
		MaxVenue:         v.GetInt("SCRAPE_MAX_VENUE"),
		FanbookEncoding:  strings.ToLower(v.GetString("FANBOOK_ENCODING")),
		LegacySQLitePath: v.GetString("LEGACY_SQLITE_PATH"),
	}

	cfg.validate()
	return cfg
}

func loadDB(v *viper.Viper) DB {
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_USER", "padraic")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "boatrace")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "data/boatrace.db")

	return DB{
		Driver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL: v.GetString("DATABASE_URL"),
		User:        v.GetString("DB_USER"),
		Pass:        v.GetString("DB_PASS"),
		Host:        v.GetString("DB_HOST"),
		Port:        v.GetString("DB_PORT"),
		Name:        v.GetString("DB_NAME"),
		SSLMode:     v.GetString("DB_SSLMODE"),
		SQLitePath:  v.GetString("SQLITE_PATH"),
	}
}

// PostgresDSN returns the full PostgreSQL connection string.
// DATABASE_URL takes precedence over individual fields.
func (d DB) PostgresDSN() string {
	if d.DatabaseURL != "" {
		return d.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User,
		d.Pass,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// SQLiteDSN returns a modernc.org/sqlite DSN with foreign keys enabled.
func (d DB) SQLiteDSN() string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", d.SQLitePath)
}

// JWTKey returns the JWT signing key as a byte slice.
func (c *Config) JWTKey() []byte {
	return []byte(c.JWTSecret)
}

// IsAdmin reports whether username is listed in ADMIN_USERS.
func (c *Config) IsAdmin(username string) bool {
	normalized := strings.ToLower(strings.TrimSpace(username))
	for _, admin := range c.AdminUsers {
		if normalized == strings.ToLower(admin) {
			return true
		}
	}
	return false
}

func (d DB) validate() error {
	switch d.Driver {
	case DriverPostgres:
		if d.DatabaseURL == "" && d.Pass == "" {
			return errors.New("DATABASE_URL or DB_PASS must be set")
		}
	case DriverSQLite:
		if d.SQLitePath == "" {
			return errors.New("SQLITE_PATH must be set")
		}
	default:
		return errors.Newf("unknown DB_DRIVER %q", d.Driver)
	}
	return nil
}

func (c *Config) validate() {
	if err := c.DB.validate(); err != nil {
		log.Fatal("config: ", err)
	}
	if c.JWTSecret == "" {
		log.Fatal("config: JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		log.Fatal("config: TOKEN_TTL must be positive")
	}
}

func (c *ScraperConfig) validate() {
	if err := c.DB.validate(); err != nil {
		log.Fatal("config: ", err)
	}
	if err := validator.New().Struct(c); err != nil {
		log.Fatal("config: ", err)
	}
}

func newViper() *viper.Viper {
	// Silently load .env – OK if the file doesn't exist (production uses real env vars).
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
