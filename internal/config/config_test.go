package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "GAME_SERVICE_TIMEOUT", "SEED_CENTER_ANCHOR", "JWT_SECRET", "NODE_ENV", "LOG_FILE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ":5180", c.Addr())
	assert.Equal(t, 5*time.Second, c.GameServiceTimeout)
	assert.True(t, c.SeedCenterAnchor)
	assert.NotEmpty(t, c.JWTSecret)
	assert.False(t, c.Production)
	assert.Empty(t, c.Log.Path)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GAME_SERVICE_TIMEOUT", "750ms")
	t.Setenv("REFRESH_INTERVAL", "10")
	t.Setenv("SNAPSHOT_CACHE_SIZE", "32")
	t.Setenv("SEED_CENTER_ANCHOR", "false")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	c := FromEnv()
	assert.Equal(t, ":9000", c.Addr())
	assert.Equal(t, 750*time.Millisecond, c.GameServiceTimeout)
	assert.Equal(t, 10*time.Second, c.RefreshInterval)
	assert.Equal(t, 32, c.SnapshotCacheSize)
	assert.False(t, c.SeedCenterAnchor)
	assert.True(t, c.Production)
	assert.Equal(t, "s3cret", c.JWTSecret)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("SNAPSHOT_CACHE_SIZE", "lots")
	t.Setenv("GAME_SERVICE_TIMEOUT", "soon")
	t.Setenv("SEED_CENTER_ANCHOR", "perhaps")

	c := FromEnv()
	assert.Equal(t, 256, c.SnapshotCacheSize)
	assert.Equal(t, 5*time.Second, c.GameServiceTimeout)
	assert.True(t, c.SeedCenterAnchor)
}

func TestSetupLogger_File(t *testing.T) {
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "client.log")
	closer := SetupLogger(Config{LogLevel: "debug", Log: LogFile{Path: path, MaxSizeMB: 1}})
	log.Info().Str("probe", "yes").Msg("hello")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"probe":"yes"`)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
