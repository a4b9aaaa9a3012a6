// internal/config/config.go
//
// Process configuration.
// Values come from command-line flags first, then the environment
// (optionally seeded from a .env file), then defaults.
//
// Environment:
//   PORT, LOG_LEVEL, DB_PATH, NODE_ENV
//   ALBUMS_SOURCE (rest | sqlite | static), ALBUMS_URL, ALBUMS_KEY,
//   ALBUMS_TABLE, REVIEWS_TABLE, ALBUMS_FILE
//   DIAL_SENSITIVITY, SESSION_TTL
//   JWT_SECRET, JWT_EXPIRES_DAYS, COOKIE_NAME, CLIENT_ORIGIN, DAILY_SALT

package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Album source kinds.
const (
	SourceREST   = "rest"
	SourceSQLite = "sqlite"
	SourceStatic = "static"
)

const devSecret = "dev_secret_change_me"

// Config is the resolved server configuration.
type Config struct {
	Port     int
	LogLevel string
	DBPath   string
	Env      string

	AlbumsSource string
	AlbumsURL    string
	AlbumsKey    string
	AlbumsTable  string
	ReviewsTable string
	AlbumsFile   string

	DialSensitivity float64
	SessionTTL      time.Duration

	JWTSecret      string
	JWTExpiresDays int
	CookieName     string
	AnonCookieName string
	ClientOrigin   string
	DailySalt      string
}

// Production reports whether cookies must be Secure/SameSite=None.
func (c Config) Production() bool { return c.Env == "production" }

// Load reads .env (if present) and resolves the configuration from args and the process environment.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()
	return Parse(args, os.Getenv)
}

// Parse resolves the configuration. getenv is os.Getenv outside tests.
func Parse(args []string, getenv func(string) string) (Config, error) {
	env := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	var cfg Config
	fs := flag.NewFlagSet("pitchdork", flag.ContinueOnError)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DBPath, "d", "", "SQLite database path")
	fs.StringVar(&cfg.AlbumsSource, "albums", "", "Album source (rest, sqlite or static)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		p, err := strconv.Atoi(env("PORT", "5175"))
		if err != nil || p <= 0 || p > 65535 {
			return Config{}, errors.New("invalid PORT env variable")
		}
		cfg.Port = p
	}
	if cfg.DBPath == "" {
		cfg.DBPath = env("DB_PATH", "./data/pitchdork.db")
	}
	cfg.LogLevel = env("LOG_LEVEL", "info")
	cfg.Env = env("NODE_ENV", "development")

	if cfg.AlbumsSource == "" {
		cfg.AlbumsSource = env("ALBUMS_SOURCE", "")
	}
	cfg.AlbumsURL = env("ALBUMS_URL", "")
	cfg.AlbumsKey = env("ALBUMS_KEY", "")
	cfg.AlbumsTable = env("ALBUMS_TABLE", "random_albums")
	cfg.ReviewsTable = env("REVIEWS_TABLE", "pitchfork_reviews")
	cfg.AlbumsFile = env("ALBUMS_FILE", "")
	if cfg.AlbumsSource == "" {
		// A configured backend implies the REST source.
		if cfg.AlbumsURL != "" {
			cfg.AlbumsSource = SourceREST
		} else {
			cfg.AlbumsSource = SourceSQLite
		}
	}
	switch cfg.AlbumsSource {
	case SourceREST:
		if cfg.AlbumsURL == "" || cfg.AlbumsKey == "" {
			return Config{}, errors.New("ALBUMS_URL and ALBUMS_KEY required for the rest album source")
		}
	case SourceSQLite, SourceStatic:
	default:
		return Config{}, fmt.Errorf("unknown ALBUMS_SOURCE %q", cfg.AlbumsSource)
	}

	sens, err := strconv.ParseFloat(env("DIAL_SENSITIVITY", "3"), 64)
	if err != nil || sens <= 0 {
		return Config{}, errors.New("DIAL_SENSITIVITY must be a positive number")
	}
	cfg.DialSensitivity = sens

	ttl, err := time.ParseDuration(env("SESSION_TTL", "2h"))
	if err != nil || ttl <= 0 {
		return Config{}, errors.New("SESSION_TTL must be a positive duration")
	}
	cfg.SessionTTL = ttl

	cfg.JWTSecret = env("JWT_SECRET", devSecret)
	if cfg.Production() && cfg.JWTSecret == devSecret {
		return Config{}, errors.New("JWT_SECRET required in production")
	}
	days, err := strconv.Atoi(env("JWT_EXPIRES_DAYS", "14"))
	if err != nil || days <= 0 {
		return Config{}, errors.New("JWT_EXPIRES_DAYS must be a positive integer")
	}
	cfg.JWTExpiresDays = days
	cfg.CookieName = env("COOKIE_NAME", "pitchdork_token")
	cfg.AnonCookieName = env("ANON_COOKIE_NAME", "pitchdork_anon")
	cfg.ClientOrigin = env("CLIENT_ORIGIN", "http://localhost:5173")
	cfg.DailySalt = env("DAILY_SALT", "local_dev_salt")

	return cfg, nil
}
