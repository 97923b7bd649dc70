// go-pn7160
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pn7160.
//
// go-pn7160 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pn7160 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pn7160; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package polling

import (
	"context"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// DeviceRecoverer brings a session's device back after the transport reports
// that the controller is gone.
type DeviceRecoverer interface {
	// AttemptRecovery tries to recover the device connection.
	// Returns nil if recovery was successful, error otherwise.
	AttemptRecovery(ctx context.Context) error

	// Device returns the current device reference (may change after reconnection)
	Device() *pn7160.Device
}

// ReopenFunc opens and sets up a replacement device
type ReopenFunc func(ctx context.Context) (*pn7160.Device, error)

// DefaultRecoverer implements a tiered recovery strategy:
// 1. Setup (VEN power cycle and full initialization) on the existing transport
// 2. Full reconnection via user-provided reopen function
type DefaultRecoverer struct {
	device      *pn7160.Device
	reopenFunc  ReopenFunc
	backoff     time.Duration
	maxAttempts int
	mu          syncutil.Mutex
}

// NewDefaultRecoverer creates a recoverer with tiered recovery strategy.
// If reopenFunc is nil, only the in-place setup will be attempted.
func NewDefaultRecoverer(
	device *pn7160.Device,
	reopenFunc ReopenFunc,
	backoff time.Duration,
	maxAttempts int,
) *DefaultRecoverer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &DefaultRecoverer{
		device:      device,
		reopenFunc:  reopenFunc,
		backoff:     backoff,
		maxAttempts: maxAttempts,
	}
}

// AttemptRecovery runs up to maxAttempts rounds. Each round first power
// cycles and re-initializes the controller on the existing transport; if that
// fails and a reopen function is set, the transport is closed and a
// replacement device is opened. After the close only the reopen is retried.
func (r *DefaultRecoverer) AttemptRecovery(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := pn7160.Logger()
	closed := false
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(r.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if !closed {
			if lastErr = r.device.Setup(ctx); lastErr == nil {
				log.Info().Int("attempt", attempt).Msg("controller recovered in place")
				return nil
			}
			log.Debug().Err(lastErr).Int("attempt", attempt).Msg("in-place setup failed")
		}

		if r.reopenFunc == nil {
			continue
		}
		if !closed {
			_ = r.device.Close()
			closed = true
		}
		replacement, err := r.reopenFunc(ctx)
		if err != nil {
			lastErr = err
			log.Debug().Err(err).Int("attempt", attempt).Msg("reopen failed")
			continue
		}
		r.device = replacement
		log.Info().Int("attempt", attempt).Msg("controller reopened")
		return nil
	}

	return lastErr
}

// Device returns the current device reference.
// This may return a different device after a successful reconnection.
func (r *DefaultRecoverer) Device() *pn7160.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}
