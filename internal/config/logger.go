package config

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger installs the global zerolog logger: console output on
// stderr plus, when a log file is configured, a rolling JSON file.
// The returned closer flushes and closes the file.
func SetupLogger(c Config) io.Closer {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if c.Log.Path == "" {
		log.Logger = zerolog.New(console).With().Timestamp().Logger()
		return nopCloser{}
	}

	lj := &lumberjack.Logger{
		Filename:   c.Log.Path,
		MaxSize:    c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAgeDays,
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(console, lj)).With().Timestamp().Logger()
	return lj
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
