// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pn7160

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// RetryConfig is an exponential backoff schedule. It drives connection
// retries in ConnectDevice and the advisory poll throttle in polling.
type RetryConfig struct {
	// OnRetry, when set, is called before each wait with the attempt that
	// just failed (1-based), its error and the delay about to be slept.
	OnRetry func(attempt int, err error, wait time.Duration)
	// MaxAttempts caps the number of calls; 0 or 1 means a single call
	MaxAttempts int
	// InitialBackoff is the first delay
	InitialBackoff time.Duration
	// MaxBackoff caps each delay; 0 means uncapped
	MaxBackoff time.Duration
	// BackoffMultiplier grows the delay after every failure
	BackoffMultiplier float64
	// Jitter adds up to this fraction of the delay at random
	Jitter float64
	// RetryTimeout bounds all attempts together; 0 means only ctx applies
	RetryTimeout time.Duration
}

// DefaultRetryConfig returns a short schedule suited to a single NCI step.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 2.0,
		Jitter:            0.1,
		RetryTimeout:      5 * time.Second,
	}
}

// RetryableFunc is a function that can be retried
type RetryableFunc func() error

// RetryWithConfig calls fn until it succeeds, returns an error IsRetryable
// rejects, or the attempts run out. The last error is returned; if ctx ends
// before the first call the context error is returned instead.
func RetryWithConfig(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts <= 1 {
		return fn()
	}

	if config.RetryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.RetryTimeout)
		defer cancel()
	}

	var lastErr error
	wait := config.InitialBackoff
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return fmt.Errorf("retry context cancelled: %w", ctx.Err())
		}

		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) || attempt >= config.MaxAttempts {
			return lastErr
		}

		sleep := calculateJitteredSleep(wait, config.Jitter)
		if config.OnRetry != nil {
			config.OnRetry(attempt, lastErr, sleep)
		}
		if !waitBackoff(ctx, sleep) {
			return lastErr
		}
		wait = calculateNextBackoff(wait, config)
	}
}

// waitBackoff sleeps for d and reports false when ctx ended first
func waitBackoff(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func calculateNextBackoff(backoff time.Duration, config *RetryConfig) time.Duration {
	next := time.Duration(float64(backoff) * config.BackoffMultiplier)
	if config.MaxBackoff > 0 {
		next = min(next, config.MaxBackoff)
	}
	return next
}

// NextBackoff returns the delay that follows prev in the schedule. A zero
// prev starts the schedule at InitialBackoff.
func (c *RetryConfig) NextBackoff(prev time.Duration) time.Duration {
	if prev <= 0 {
		return c.InitialBackoff
	}
	return calculateNextBackoff(prev, c)
}

// calculateJitteredSleep returns base plus a random share of base*factor.
func calculateJitteredSleep(base time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return base
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return base
	}
	frac := float64(binary.LittleEndian.Uint64(b[:])) / float64(1<<64)
	return base + time.Duration(frac*float64(base)*factor)
}
