package config

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottnuma/touch-lcd/internal/lcd"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Default().Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/touch-lcd.toml", []byte(`
port = "/dev/ttyUSB1"
read_timeout = "10ms"
poll_interval = "5ms"
clear_on_open = false
background = "black"
foreground = "white"
allowed_font_sizes = [24, 36, 48, 72]

[log]
level = "debug"

[status]
interval = "500ms"
`), 0o600))

	cfg, err := Load(fs, "/etc/touch-lcd.toml")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB1", cfg.Port)
	assert.Equal(t, 115200, cfg.Baud, "unset keys keep defaults")
	assert.Equal(t, 10*time.Millisecond, cfg.ReadTimeout.Duration)
	assert.Equal(t, 5*time.Millisecond, cfg.PollInterval.Duration)
	assert.False(t, cfg.ClearOnOpen)
	assert.Equal(t, lcd.LegacyFontSizes, cfg.AllowedFontSizes)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Status.Interval.Duration)
	assert.Equal(t, 24, cfg.Status.FontSize)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	_, err := Load(fs, "/nope.toml")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	cfg, err := LoadOrDefault(fs, "/nope.toml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "syntax", body: `port = `},
		{name: "bad duration", body: `read_timeout = "soon"`},
		{name: "zero baud", body: `baud = 0`},
		{name: "empty port", body: `port = ""`},
		{name: "color with space", body: `background = "dark red"`},
		{name: "bad level", body: "[log]\nlevel = \"loud\""},
		{name: "negative size", body: `allowed_font_sizes = [24, -1]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/c.toml", []byte(tt.body), 0o600))

			_, err := LoadOrDefault(fs, "/c.toml")
			assert.Error(t, err)
		})
	}
}

func TestLoad_ValidationErrorType(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/c.toml", []byte(`read_attempts = 0`), 0o600))

	_, err := Load(fs, "/c.toml")
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	assert.Equal(t, "ReadAttempts", vErrs[0].Field())
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	want := Default()
	want.Port = "COM4"
	want.PollInterval = Duration{15 * time.Millisecond}
	want.AllowedFontSizes = []int{24, 36}
	want.Log.File = "/var/log/touch-lcd.log"

	require.NoError(t, Save(fs, "/home/u/.config/touch-lcd/config.toml", want))

	got, err := Load(fs, "/home/u/.config/touch-lcd/config.toml")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDisplay(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Port = "/dev/ttyACM3"
	cfg.ReadAttempts = 7
	cfg.AllowedFontSizes = []int{24}

	d := cfg.Display()
	assert.Equal(t, "/dev/ttyACM3", d.Serial.Path)
	assert.Equal(t, 115200, d.Serial.BaudRate)
	assert.Equal(t, 7, d.ReadAttempts)
	assert.True(t, d.ClearOnOpen)
	assert.Equal(t, []int{24}, d.AllowedFontSizes)
	assert.Nil(t, d.Logger)
}
