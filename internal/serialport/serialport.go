// Package serialport owns the physical serial link to the display.
package serialport

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the only rate the display firmware ships with.
const DefaultBaudRate = 115200

// DefaultReadTimeout bounds a single Read call. The line codec retries reads,
// so this only needs to cover the gap between bytes.
const DefaultReadTimeout = 50 * time.Millisecond

// Port is the duplex byte stream the driver talks over. A Read that times
// out returns 0, nil. go.bug.st/serial.Port satisfies it.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Drain() error
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
	Close() error
}

// Config holds serial link configuration.
type Config struct {
	Path        string
	BaudRate    int
	ReadTimeout time.Duration
}

// DefaultConfig returns the link settings for the platform's usual device path.
func DefaultConfig() Config {
	return Config{
		Path:        DefaultPath(),
		BaudRate:    DefaultBaudRate,
		ReadTimeout: DefaultReadTimeout,
	}
}

// DefaultPath returns where the display usually enumerates on this platform.
func DefaultPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/dev/tty.usbmodem1422"
	case "windows":
		return "COM3"
	default:
		return "/dev/ttyACM0"
	}
}

// ConnectionError reports that the device could not be opened. Candidates
// lists serial devices present at the time of failure, if any were found.
type ConnectionError struct {
	Path       string
	Candidates []string
	Err        error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("open serial port %s: %v", e.Path, e.Err)
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Candidates, ", "))
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Open opens and configures the serial port. On failure the returned error
// is always a *ConnectionError.
func Open(cfg Config) (Port, error) {
	if cfg.Path == "" {
		return nil, &ConnectionError{
			Candidates: Candidates(),
			Err:        errors.New("serial port path is required"),
		}
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, &ConnectionError{Path: cfg.Path, Candidates: Candidates(), Err: err}
	}

	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		port.Close()
		return nil, &ConnectionError{
			Path: cfg.Path,
			Err:  fmt.Errorf("set read timeout: %w", err),
		}
	}

	return port, nil
}

// Candidates lists serial devices that look like a USB-attached display.
// It is a diagnostic aid only and returns nil when enumeration fails.
func Candidates() []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil
	}
	return filterCandidates(runtime.GOOS, ports)
}

func filterCandidates(goos string, ports []string) []string {
	var prefixes []string
	switch goos {
	case "linux":
		prefixes = []string{"/dev/ttyACM", "/dev/ttyUSB"}
	case "darwin":
		prefixes = []string{"/dev/tty.usbmodem", "/dev/tty.usbserial", "/dev/cu.usbmodem"}
	case "windows":
		prefixes = []string{"COM"}
	default:
		return ports
	}

	var devices []string
	for _, p := range ports {
		for _, prefix := range prefixes {
			if strings.HasPrefix(p, prefix) {
				devices = append(devices, p)
				break
			}
		}
	}
	return devices
}
