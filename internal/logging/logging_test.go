package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_ConsoleLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	logger, closer, err := Init(Options{Level: "warn", Console: &buf, NoColor: true})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info().Msg("hidden")
	log.Warn().Str("port", "/dev/ttyACM0").Msg("stale input")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "stale input")
	assert.Contains(t, out, "port=/dev/ttyACM0")
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestInit_DefaultLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	logger, closer, err := Init(Options{Console: &bytes.Buffer{}})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestInit_BadLevel(t *testing.T) {
	_, _, err := Init(Options{Level: "loud", Console: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestInit_File(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	path := filepath.Join(t.TempDir(), "logs", "touch-lcd.log")
	logger, closer, err := Init(Options{File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	logger.Info().Str("cmd", "xy 0 0").Msg("exchange")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cmd":"xy 0 0"`)
	assert.Contains(t, string(data), `"message":"exchange"`)
}
