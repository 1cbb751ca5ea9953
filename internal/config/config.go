// internal/config/config.go
//
// Runtime configuration for the compose client.
// Values come from the process environment, optionally seeded from a .env
// file in the working directory. Unset or unparsable values fall back to
// the defaults below.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port     string
	LogLevel string
	Log      LogFile

	GameServiceURL     string
	GameServiceTimeout time.Duration
	SnapshotCacheTTL   time.Duration
	SnapshotCacheSize  int
	RefreshInterval    time.Duration
	SeedCenterAnchor   bool

	DBPath          string
	JWTSecret       string
	JWTExpiresHours int
	CookieName      string
	ClientOrigin    string
	LettersFile     string
	Production      bool
}

// LogFile configures the optional rolling log file.
type LogFile struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	c := Config{
		Port:     getEnv("PORT", "5180"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Log: LogFile{
			Path:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 10),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 7),
		},

		GameServiceURL:     getEnv("GAME_SERVICE_URL", "http://localhost:5175"),
		GameServiceTimeout: envDuration("GAME_SERVICE_TIMEOUT", 5*time.Second),
		SnapshotCacheTTL:   envDuration("SNAPSHOT_CACHE_TTL", 2*time.Second),
		SnapshotCacheSize:  envInt("SNAPSHOT_CACHE_SIZE", 256),
		RefreshInterval:    envDuration("REFRESH_INTERVAL", 3*time.Second),
		SeedCenterAnchor:   envBool("SEED_CENTER_ANCHOR", true),

		DBPath:          getEnv("DB_PATH", "./data/prefs.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiresHours: envInt("JWT_EXPIRES_HOURS", 12),
		CookieName:      getEnv("COOKIE_NAME", "crossplay_session"),
		ClientOrigin:    getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		LettersFile:     os.Getenv("LETTERS_FILE"),
		Production:      os.Getenv("NODE_ENV") == "production",
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set; using an insecure development secret")
		c.JWTSecret = "dev-secret-change-me"
	}
	return c
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		return def
	}
	return n
}

// envDuration accepts Go durations ("750ms", "2s") or bare seconds.
func envDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Warn().Str("key", k).Str("value", v).Msg("not a duration, using default")
	return def
}

func envBool(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
		return def
	}
	return b
}
