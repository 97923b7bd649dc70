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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn7160"
)

// SleepRecoveryConfig configures an immediate health check after the host
// was suspended. A long gap between polls means the controller may have lost
// power or its RF configuration while the host slept.
type SleepRecoveryConfig struct {
	// Enabled enables sleep detection
	Enabled bool

	// TimeDiscontinuityThreshold is the minimum elapsed time beyond the expected
	// poll interval that indicates a sleep occurred. Default: 2 seconds
	TimeDiscontinuityThreshold time.Duration
}

// DefaultSleepRecoveryConfig returns sensible defaults for sleep recovery
func DefaultSleepRecoveryConfig() SleepRecoveryConfig {
	return SleepRecoveryConfig{
		Enabled:                    true,
		TimeDiscontinuityThreshold: 2 * time.Second,
	}
}

// DetectSleep checks if the elapsed time since last poll indicates a system sleep.
// Returns true if elapsed time exceeds (pollInterval + TimeDiscontinuityThreshold).
func (cfg SleepRecoveryConfig) DetectSleep(elapsed, pollInterval time.Duration) bool {
	if !cfg.Enabled {
		return false
	}
	expectedMax := pollInterval + cfg.TimeDiscontinuityThreshold
	return elapsed > expectedMax
}

// HealthConfig configures the liveness probe and auto-recovery.
type HealthConfig struct {
	// Interval between checks. Default: 60 seconds
	Interval time.Duration
	// ProbeTimeout bounds the wait for the ready line before probing. Default: 50ms
	ProbeTimeout time.Duration
	// RecoverySettle is the pause between the hard reset and re-initialization. Default: 50ms
	RecoverySettle time.Duration
	// MaxFailedChecks is the number of consecutive failures before the
	// controller is marked unhealthy. Must be 1-10. Default: 3
	MaxFailedChecks int
	// Enabled turns health checking on. Default: true
	Enabled bool
	// AutoRecover hard resets and re-initializes once unhealthy. Default: true
	AutoRecover bool
	// ResumeDiscovery restarts RF discovery after a successful probe, since
	// the CORE_RESET probe leaves the controller idle. Default: true
	ResumeDiscovery bool
}

// DefaultHealthConfig returns the default health check configuration
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		Enabled:         true,
		Interval:        60 * time.Second,
		ProbeTimeout:    50 * time.Millisecond,
		RecoverySettle:  50 * time.Millisecond,
		MaxFailedChecks: 3,
		AutoRecover:     true,
		ResumeDiscovery: true,
	}
}

// Config holds polling configuration options
type Config struct {
	// Throttle is the backoff schedule applied between polls after transport failures
	Throttle *pn7160.RetryConfig
	// Health configures the liveness probe
	Health HealthConfig
	// SleepRecovery configures checks after host sleep/wake cycles
	SleepRecovery SleepRecoveryConfig
	// PollInterval is the cadence of the tag presence cycle. Default: 1 second
	PollInterval time.Duration
	// NotificationTimeout bounds the read of a pending notification. Default: 100ms
	NotificationTimeout time.Duration
}

// DefaultConfig returns the default polling configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval:        time.Second,
		NotificationTimeout: 100 * time.Millisecond,
		Throttle:            pn7160.ThrottleConfig(),
		Health:              DefaultHealthConfig(),
		SleepRecovery:       DefaultSleepRecoveryConfig(),
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", pn7160.ErrConfiguration)
	}
	if c.NotificationTimeout <= 0 {
		return fmt.Errorf("%w: notification timeout must be positive", pn7160.ErrConfiguration)
	}
	if c.Throttle == nil {
		return fmt.Errorf("%w: throttle schedule is required", pn7160.ErrConfiguration)
	}
	if !c.Health.Enabled {
		return nil
	}
	if c.Health.Interval <= 0 || c.Health.ProbeTimeout <= 0 {
		return fmt.Errorf("%w: health interval and probe timeout must be positive", pn7160.ErrConfiguration)
	}
	if c.Health.MaxFailedChecks < 1 || c.Health.MaxFailedChecks > 10 {
		return fmt.Errorf("%w: max failed checks must be 1-10, got %d",
			pn7160.ErrConfiguration, c.Health.MaxFailedChecks)
	}
	return nil
}
