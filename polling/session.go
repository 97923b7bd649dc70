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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// ErrNotSetUp is returned by Update before Setup has succeeded.
var ErrNotSetUp = errors.New("session not set up")

// Session ties a device, its presence tracker and its health monitor
// together and runs them cooperatively.
//
// Update and Maintain are the two steps a host scheduler invokes; Run is a
// ready-made scheduler driving both from a single goroutine. Only Status and
// Err may be called from other goroutines.
type Session struct {
	lastUpdate time.Time
	lastCall   time.Time
	setupErr   error
	device     *pn7160.Device
	config     *Config
	tracker    *Tracker
	health     *HealthMonitor
	recoverer  DeviceRecoverer
	status     Status
	statusMu   syncutil.RWMutex
	throttle   time.Duration
	retries    int
	ready      bool
	sleepCheck bool
}

// NewSession creates a session for device. A nil config selects DefaultConfig.
func NewSession(device *pn7160.Device, config *Config) (*Session, error) {
	if device == nil {
		return nil, fmt.Errorf("%w: device is required", pn7160.ErrConfiguration)
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		device:  device,
		config:  config,
		tracker: NewTracker(device, config.NotificationTimeout),
		health:  NewHealthMonitor(device, config.Health),
	}
	s.publish()
	return s, nil
}

// Device returns the current device
func (s *Session) Device() *pn7160.Device {
	return s.device
}

// Tracker returns the presence tracker
func (s *Session) Tracker() *Tracker {
	return s.tracker
}

// Health returns the health monitor
func (s *Session) Health() *HealthMonitor {
	return s.health
}

// OnTagAppeared registers a tag appeared callback on the tracker.
func (s *Session) OnTagAppeared(cb TagCallback) {
	s.tracker.OnTagAppeared(cb)
}

// OnTagRemoved registers a tag removed callback on the tracker.
func (s *Session) OnTagRemoved(cb TagCallback) {
	s.tracker.OnTagRemoved(cb)
}

// AddBinding registers a binding on the tracker.
func (s *Session) AddBinding(b *Binding) {
	s.tracker.AddBinding(b)
}

// SetRecoverer installs a recoverer used when the transport reports that the
// controller is gone. Without one such errors are only throttled.
func (s *Session) SetRecoverer(r DeviceRecoverer) {
	s.recoverer = r
}

// Setup power cycles and initializes the controller. A failure is persistent:
// it is surfaced through Status and Err, and Update refuses to poll until a
// later Setup succeeds.
func (s *Session) Setup(ctx context.Context) error {
	defer s.publish()

	if err := s.device.Setup(ctx); err != nil {
		s.setupErr = err
		s.ready = false
		s.device.Log().Error().Err(err).Msg("controller setup failed")
		return err
	}

	s.markReady()
	if id, ok := s.device.Identity(); ok {
		s.device.Log().Info().Stringer("identity", id).Msg("controller ready")
	}
	return nil
}

// Adopt marks the session ready for a device whose Setup already succeeded,
// such as one returned by ConnectDevice, without power cycling it again.
func (s *Session) Adopt() error {
	defer s.publish()
	if _, ok := s.device.Identity(); !ok {
		return ErrNotSetUp
	}
	s.markReady()
	return nil
}

func (s *Session) markReady() {
	s.setupErr = nil
	s.ready = true
	s.throttle = 0
	s.retries = 0
	s.sleepCheck = false
	s.lastCall = time.Time{}
	s.health.Reset(time.Now())
}

// Update is the polling step. It is skipped while the controller is
// unhealthy or inside the throttle window that follows transport failures.
// A gap since the previous call longer than the sleep threshold schedules a
// health check for the next Maintain.
func (s *Session) Update(ctx context.Context) error {
	if s.setupErr != nil {
		return s.setupErr
	}
	if !s.ready {
		return ErrNotSetUp
	}

	now := time.Now()
	if !s.lastCall.IsZero() {
		gap := now.Sub(s.lastCall)
		if s.config.SleepRecovery.DetectSleep(gap, s.config.PollInterval) {
			s.device.Log().Info().Dur("gap", gap).Msg("host sleep detected, checking controller")
			s.sleepCheck = true
		}
	}
	s.lastCall = now

	if !s.health.Healthy() {
		return nil
	}
	if s.throttle > 0 && now.Sub(s.lastUpdate) < s.throttle {
		return nil
	}
	s.lastUpdate = now

	defer s.publish()
	err := s.tracker.Cycle(ctx)
	if err == nil {
		s.retries = 0
		s.throttle = 0
		return nil
	}

	s.retries++
	s.throttle = s.config.Throttle.NextBackoff(s.throttle)
	s.device.Log().Warn().Err(err).
		Int("retries", s.retries).
		Dur("throttle", s.throttle).
		Msg("poll failed")

	if pn7160.IsFatal(err) && s.recoverer != nil {
		if recErr := s.recoverDevice(ctx); recErr != nil {
			return fmt.Errorf("%w (recovery failed: %w)", err, recErr)
		}
	}
	return err
}

// Maintain is the background step. It runs a health check when one is due
// or when Update noticed the host had been asleep.
func (s *Session) Maintain(ctx context.Context) error {
	if !s.ready {
		return nil
	}
	if !s.sleepCheck && !s.health.Due(time.Now()) {
		return nil
	}
	s.sleepCheck = false
	return s.checkHealth(ctx)
}

func (s *Session) checkHealth(ctx context.Context) error {
	defer s.publish()
	outcome, err := s.health.Check(ctx)
	if outcome == OutcomeRecovered {
		s.throttle = 0
		s.retries = 0
	}
	if err != nil && pn7160.IsFatal(err) && s.recoverer != nil {
		if recErr := s.recoverDevice(ctx); recErr == nil {
			return nil
		}
	}
	return err
}

func (s *Session) recoverDevice(ctx context.Context) error {
	s.device.Log().Warn().Msg("controller gone, attempting reconnection")
	if err := s.recoverer.AttemptRecovery(ctx); err != nil {
		return err
	}
	s.device = s.recoverer.Device()
	s.tracker.device = s.device
	s.health.setDevice(s.device)
	s.health.Reset(time.Now())
	s.throttle = 0
	s.retries = 0
	return nil
}

// Run drives Update and then Maintain every PollInterval until ctx is
// cancelled. Setup runs first unless the session is already ready.
func (s *Session) Run(ctx context.Context) error {
	if !s.ready {
		if err := s.Setup(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.Update(ctx); err != nil && s.setupErr != nil {
			return err
		}
		_ = s.Maintain(ctx)
	}
}

// Status returns a snapshot of the session state
func (s *Session) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Err returns the surfaced fault: the setup failure, the unhealthy error, or nil.
func (s *Session) Err() error {
	return s.Status().Err
}

func (s *Session) publish() {
	st := Status{
		Tag:      s.tracker.State(),
		Health:   s.health.State(),
		Throttle: s.throttle,
		Retries:  s.retries,
		Ready:    s.ready,
	}
	if id, ok := s.device.Identity(); ok {
		st.Identity = id
	}
	switch {
	case s.setupErr != nil:
		st.Err = s.setupErr
	default:
		st.Err = s.health.Err()
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
}
