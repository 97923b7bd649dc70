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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn7160"
)

// Outcome is the result of one health check.
type Outcome int

const (
	// OutcomeSkipped means health checking is disabled
	OutcomeSkipped Outcome = iota
	// OutcomeHealthy means the probe succeeded
	OutcomeHealthy
	// OutcomeFailed means the probe failed below the failure threshold
	OutcomeFailed
	// OutcomeUnhealthy means the threshold was reached and the controller is
	// unhealthy, either without auto-recovery or after recovery failed
	OutcomeUnhealthy
	// OutcomeRecovered means auto-recovery brought the controller back
	OutcomeRecovered
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeHealthy:
		return "healthy"
	case OutcomeFailed:
		return "failed"
	case OutcomeUnhealthy:
		return "unhealthy"
	case OutcomeRecovered:
		return "recovered"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// HealthMonitor probes the controller on its own interval and re-initializes
// it after repeated failures.
type HealthMonitor struct {
	device *pn7160.Device
	err    error
	config HealthConfig
	state  HealthState
}

// NewHealthMonitor creates a monitor for device. The controller starts healthy.
func NewHealthMonitor(device *pn7160.Device, config HealthConfig) *HealthMonitor {
	return &HealthMonitor{
		device: device,
		config: config,
		state: HealthState{
			Healthy:     true,
			Interval:    config.Interval,
			MaxFailures: config.MaxFailedChecks,
			AutoRecover: config.AutoRecover,
		},
	}
}

// Reset marks the controller healthy and restarts the interval at now.
func (h *HealthMonitor) Reset(now time.Time) {
	h.state.LastCheck = now
	h.state.ConsecutiveFailures = 0
	h.state.Healthy = true
	h.err = nil
}

// Due reports whether a check is due at now.
func (h *HealthMonitor) Due(now time.Time) bool {
	return h.config.Enabled && now.Sub(h.state.LastCheck) >= h.config.Interval
}

// Healthy reports whether the controller is considered healthy. It is
// always true when health checking is disabled.
func (h *HealthMonitor) Healthy() bool {
	return !h.config.Enabled || h.state.Healthy
}

// State returns the current health state
func (h *HealthMonitor) State() HealthState {
	return h.state
}

// Err returns the surfaced fault, or nil while healthy.
func (h *HealthMonitor) Err() error {
	return h.err
}

func (h *HealthMonitor) setDevice(device *pn7160.Device) {
	h.device = device
}

// Check runs one liveness probe. The returned error is the probe failure,
// or the recovery failure once the controller is unhealthy.
func (h *HealthMonitor) Check(ctx context.Context) (Outcome, error) {
	if !h.config.Enabled {
		return OutcomeSkipped, nil
	}
	h.state.LastCheck = time.Now()
	log := h.device.Log()

	probeErr := h.probe(ctx)
	if probeErr == nil {
		h.state.ConsecutiveFailures = 0
		if !h.state.Healthy {
			log.Info().Msg("controller healthy again")
			h.state.Healthy = true
			h.err = nil
		}
		return OutcomeHealthy, nil
	}

	h.state.ConsecutiveFailures++
	log.Warn().Err(probeErr).
		Int("failures", h.state.ConsecutiveFailures).
		Int("max", h.config.MaxFailedChecks).
		Msg("health check failed")

	if h.state.ConsecutiveFailures < h.config.MaxFailedChecks {
		return OutcomeFailed, probeErr
	}

	if h.state.Healthy {
		h.state.Healthy = false
		h.err = fmt.Errorf("%w: %d consecutive health checks failed: %w",
			pn7160.ErrUnhealthy, h.state.ConsecutiveFailures, probeErr)
		log.Error().Err(h.err).Msg("controller marked unhealthy")
	}
	if !h.config.AutoRecover {
		return OutcomeUnhealthy, probeErr
	}

	if err := h.recover(ctx); err != nil {
		log.Error().Err(err).Msg("auto-recovery failed")
		return OutcomeUnhealthy, err
	}
	log.Info().Msg("auto-recovery succeeded")
	h.Reset(time.Now())
	return OutcomeRecovered, nil
}

// probe requires a pending frame on the ready line, then issues CORE_RESET.
func (h *HealthMonitor) probe(ctx context.Context) error {
	if !h.device.WaitReady(h.config.ProbeTimeout) {
		return fmt.Errorf("%w: ready line not asserted within %s", pn7160.ErrTimeout, h.config.ProbeTimeout)
	}
	if err := h.device.ClearReady(ctx); err != nil {
		return err
	}
	if err := h.device.CoreReset(ctx); err != nil {
		return err
	}
	if h.config.ResumeDiscovery {
		return h.device.ResumeDiscovery(ctx)
	}
	return nil
}

// recover power cycles the controller and runs the full initialization.
func (h *HealthMonitor) recover(ctx context.Context) error {
	h.device.Log().Warn().Msg("attempting auto-recovery")
	if err := h.device.HardReset(ctx); err != nil {
		return err
	}
	timer := time.NewTimer(h.config.RecoverySettle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return fmt.Errorf("recovery cancelled: %w", ctx.Err())
	case <-timer.C:
	}
	return h.device.Init(ctx)
}
