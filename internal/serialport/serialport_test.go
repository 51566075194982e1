package serialport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MissingDevice(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Path = "/dev/touch-lcd-does-not-exist"

	port, err := Open(cfg)
	require.Error(t, err)
	assert.Nil(t, port)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, cfg.Path, connErr.Path)
	assert.Contains(t, err.Error(), cfg.Path)
	assert.NotNil(t, connErr.Unwrap())
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "path is required")
}

func TestConnectionError_ListsCandidates(t *testing.T) {
	t.Parallel()

	err := &ConnectionError{
		Path:       "/dev/ttyACM0",
		Candidates: []string{"/dev/ttyACM1", "/dev/ttyUSB0"},
		Err:        errors.New("no such file or directory"),
	}

	assert.Equal(t,
		"open serial port /dev/ttyACM0: no such file or directory (available: /dev/ttyACM1, /dev/ttyUSB0)",
		err.Error())
}

func TestFilterCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		goos  string
		ports []string
		want  []string
	}{
		{
			name:  "linux keeps usb serial",
			goos:  "linux",
			ports: []string{"/dev/ttyS0", "/dev/ttyACM0", "/dev/ttyUSB3"},
			want:  []string{"/dev/ttyACM0", "/dev/ttyUSB3"},
		},
		{
			name:  "darwin keeps usbmodem",
			goos:  "darwin",
			ports: []string{"/dev/tty.Bluetooth-Incoming-Port", "/dev/tty.usbmodem1422"},
			want:  []string{"/dev/tty.usbmodem1422"},
		},
		{
			name:  "windows keeps COM",
			goos:  "windows",
			ports: []string{"COM1", "LPT1"},
			want:  []string{"COM1"},
		},
		{
			name:  "other platforms unfiltered",
			goos:  "plan9",
			ports: []string{"/dev/eia0"},
			want:  []string{"/dev/eia0"},
		},
		{
			name:  "nothing matches",
			goos:  "linux",
			ports: []string{"/dev/ttyS0"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, filterCandidates(tt.goos, tt.ports))
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, DefaultBaudRate, cfg.BaudRate)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	assert.NotEmpty(t, cfg.Path)
}
