//go:build !deadlock

// Package syncutil provides the mutex used to serialize access to a display.
// Building with -tags deadlock swaps in go-deadlock's detector.
package syncutil

import "sync"

// DeadlockEnabled reports whether lock-order checking is compiled in.
const DeadlockEnabled = false

type Mutex struct {
	sync.Mutex
}
