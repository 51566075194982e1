//go:build deadlock

// Package syncutil provides the mutex used to serialize access to a display.
// Building with -tags deadlock swaps in go-deadlock's detector.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled reports whether lock-order checking is compiled in.
const DeadlockEnabled = true

func init() {
	// A tap wait legitimately holds the display lock for a long time.
	deadlock.Opts.DeadlockTimeout = 5 * time.Minute
}

type Mutex struct {
	deadlock.Mutex
}
