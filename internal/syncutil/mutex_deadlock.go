//go:build deadlock

// Package syncutil provides the mutexes used by the driver. Building with
// -tags=deadlock swaps in go-deadlock so lock-order bugs show up in tests.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// lockTimeout must exceed the longest bus exchange held under a lock, which
// is a hard reset plus the reset notification wait.
const lockTimeout = 15 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = lockTimeout
}

// Mutex is a deadlock-detecting mutex.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex is a deadlock-detecting read/write mutex.
type RWMutex struct {
	deadlock.RWMutex
}
