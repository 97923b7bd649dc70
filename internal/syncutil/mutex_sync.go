//go:build !deadlock

// Package syncutil provides the mutexes used by the driver. Building with
// -tags=deadlock swaps in go-deadlock so lock-order bugs show up in tests.
package syncutil

import "sync"

// Mutex is a plain sync.Mutex outside deadlock builds.
//
//nolint:gocritic // embedding exposes Lock and Unlock
type Mutex struct {
	sync.Mutex
}

// RWMutex is a plain sync.RWMutex outside deadlock builds.
//
//nolint:gocritic // embedding exposes the full RWMutex method set
type RWMutex struct {
	sync.RWMutex
}
