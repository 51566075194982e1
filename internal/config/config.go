// Package config loads the driver's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/scottnuma/touch-lcd/internal/lcd"
	"github.com/scottnuma/touch-lcd/internal/serialport"
)

// FileName is the config file looked for in the user config directory.
const FileName = "config.toml"

// Duration is a time.Duration written as a string such as "50ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the on-disk configuration.
type Config struct {
	Port             string   `toml:"port" validate:"required"`
	Baud             int      `toml:"baud" validate:"gt=0"`
	ReadTimeout      Duration `toml:"read_timeout"`
	ReadAttempts     int      `toml:"read_attempts" validate:"gt=0"`
	PollInterval     Duration `toml:"poll_interval"`
	ClearOnOpen      bool     `toml:"clear_on_open"`
	Background       string   `toml:"background" validate:"required,excludesall= \""`
	Foreground       string   `toml:"foreground" validate:"required,excludesall= \""`
	AllowedFontSizes []int    `toml:"allowed_font_sizes" validate:"dive,gt=0"`

	Log    Log    `toml:"log"`
	Status Status `toml:"status"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error"`
	File  string `toml:"file"`
}

// Status configures the status board.
type Status struct {
	Interval   Duration `toml:"interval"`
	FontSize   int      `toml:"font_size" validate:"gt=0"`
	LineHeight int      `toml:"line_height" validate:"gte=0"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	serial := serialport.DefaultConfig()
	return Config{
		Port:         serial.Path,
		Baud:         serial.BaudRate,
		ReadTimeout:  Duration{serial.ReadTimeout},
		ReadAttempts: lcd.DefaultReadAttempts,
		ClearOnOpen:  true,
		Background:   lcd.DefaultBackground,
		Foreground:   lcd.DefaultForeground,
		Log: Log{
			Level: "info",
		},
		Status: Status{
			Interval: Duration{2 * time.Second},
			FontSize: 24,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(dir, "touch-lcd", FileName)
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values. A missing file yields an error matching os.ErrNotExist.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file is not an error.
func LoadOrDefault(fs afero.Fs, path string) (Config, error) {
	cfg, err := Load(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes cfg to path, creating parent directories.
func Save(fs afero.Fs, path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Display converts the file settings into driver settings.
func (c Config) Display() lcd.Config {
	return lcd.Config{
		Serial: serialport.Config{
			Path:        c.Port,
			BaudRate:    c.Baud,
			ReadTimeout: c.ReadTimeout.Duration,
		},
		ReadAttempts:     c.ReadAttempts,
		PollInterval:     c.PollInterval.Duration,
		ClearOnOpen:      c.ClearOnOpen,
		Background:       c.Background,
		Foreground:       c.Foreground,
		AllowedFontSizes: c.AllowedFontSizes,
	}
}
