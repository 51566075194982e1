// Package lcd drives ezLCD-3xx touch displays over their line-oriented
// text command protocol.
//
// A Display owns one serial port. Every public method runs one or more
// strictly sequential command/response exchanges under the display's lock,
// so a Display may be shared between goroutines without interleaving
// commands on the wire.
package lcd

import (
	"fmt"
	"image"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scottnuma/touch-lcd/internal/serialport"
	"github.com/scottnuma/touch-lcd/internal/syncutil"
)

// Driver defaults. Font and size match the display's power-on state.
const (
	DefaultFont         = "sans"
	DefaultFontSize     = 14
	DefaultBackground   = "white"
	DefaultForeground   = "black"
	DefaultReadAttempts = 40
)

// LegacyFontSizes is the size set early firmware accepted. Assign it to
// Config.AllowedFontSizes to reject other sizes before they reach the wire.
var LegacyFontSizes = []int{24, 36, 48, 72}

// Display is a connection to an ezLCD touch display.
type Display struct {
	mu     syncutil.Mutex
	port   serialport.Port
	codec  *codec
	cfg    Config
	log    zerolog.Logger
	clock  clockwork.Clock
	state  state
	broken error
}

// Config holds display configuration.
type Config struct {
	Serial serialport.Config

	// ReadAttempts is how many consecutive empty reads a command may see
	// before failing with ErrProtocolTimeout.
	ReadAttempts int

	// PollInterval is slept between touch status polls. Zero spins.
	PollInterval time.Duration

	// ClearOnOpen clears the screen once the connection is up.
	ClearOnOpen bool
	Background  string
	Foreground  string

	// AllowedFontSizes rejects other sizes when non-empty.
	AllowedFontSizes []int

	Logger *zerolog.Logger
	Clock  clockwork.Clock
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Serial:       serialport.DefaultConfig(),
		ReadAttempts: DefaultReadAttempts,
		ClearOnOpen:  true,
		Background:   DefaultBackground,
		Foreground:   DefaultForeground,
	}
}

// Open opens the configured serial port and returns a Display on it.
func Open(cfg Config) (*Display, error) {
	port, err := serialport.Open(cfg.Serial)
	if err != nil {
		return nil, err
	}
	return New(port, cfg)
}

// New wraps an already open port. The Display owns port from here on: it
// is closed by Display.Close, or before New returns if initialization fails.
func New(port serialport.Port, cfg Config) (*Display, error) {
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = DefaultReadAttempts
	}
	if cfg.Background == "" {
		cfg.Background = DefaultBackground
	}
	if cfg.Foreground == "" {
		cfg.Foreground = DefaultForeground
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	d := &Display{
		port:  port,
		codec: newCodec(port, cfg.ReadAttempts),
		cfg:   cfg,
		log:   logger.With().Str("port", cfg.Serial.Path).Logger(),
		clock: cfg.Clock,
		state: initialState(),
	}

	if cfg.ClearOnOpen {
		if err := d.ClearScreen(); err != nil {
			d.Close()
			return nil, fmt.Errorf("initial clear: %w", err)
		}
	}

	d.log.Info().Msg("display ready")
	return d, nil
}

// Close closes the display connection. It is safe to call more than once.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	if err != nil {
		return fmt.Errorf("close serial port: %w", err)
	}
	return nil
}

// State is a snapshot of what the driver believes the display is set to.
type State struct {
	Cursor           image.Point
	CursorKnown      bool
	Font             string
	FontSize         int
	FontKnown        bool
	Orientation      int
	OrientationKnown bool
}

// State returns the cached display state without touching the wire.
func (d *Display) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.snapshot()
}
