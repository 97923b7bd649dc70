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

package pn7160

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DeviceConfig contains timing and discovery options for the Device.
// All waits are bounded by these values.
type DeviceConfig struct {
	// Discovery selects the technologies mapped and polled during Init
	Discovery DiscoveryConfig
	// ResponseTimeout bounds the wait for a command response
	ResponseTimeout time.Duration
	// ResetNotificationTimeout bounds the wait for CORE_RESET_NTF after the response
	ResetNotificationTimeout time.Duration
	// ResetPulse is how long VEN is held low during a hard reset
	ResetPulse time.Duration
	// ResetSettle is the delay after VEN is raised again
	ResetSettle time.Duration
	// ResetNotificationWait bounds the wait for the post-reset notification
	ResetNotificationWait time.Duration
	// DrainPause is the delay between frames drained from a stuck ready line
	DrainPause time.Duration
	// ReadyPollInitial and ReadyPollMax bound the ready line polling schedule
	ReadyPollInitial time.Duration
	ReadyPollMax     time.Duration
	// MaxDrainFrames is how many frames are discarded before escalating to a hard reset
	MaxDrainFrames int
	// TraceSize is the number of wire frames kept for error traces
	TraceSize int
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Discovery:                DefaultDiscoveryConfig(),
		ResponseTimeout:          time.Second,
		ResetNotificationTimeout: time.Second,
		ResetPulse:               10 * time.Millisecond,
		ResetSettle:              10 * time.Millisecond,
		ResetNotificationWait:    time.Second,
		DrainPause:               time.Millisecond,
		ReadyPollInitial:         time.Millisecond,
		ReadyPollMax:             10 * time.Millisecond,
		MaxDrainFrames:           5,
		TraceSize:                16,
	}
}

// Validate checks the configuration for values that would make waits unbounded
func (c *DeviceConfig) Validate() error {
	switch {
	case c.ResponseTimeout <= 0:
		return fmt.Errorf("%w: response timeout must be positive", ErrConfiguration)
	case c.ResetNotificationTimeout <= 0:
		return fmt.Errorf("%w: reset notification timeout must be positive", ErrConfiguration)
	case c.ReadyPollInitial <= 0 || c.ReadyPollMax < c.ReadyPollInitial:
		return fmt.Errorf("%w: ready poll schedule %v..%v", ErrConfiguration, c.ReadyPollInitial, c.ReadyPollMax)
	case c.MaxDrainFrames < 0:
		return fmt.Errorf("%w: max drain frames must not be negative", ErrConfiguration)
	}
	return c.Discovery.Validate()
}

// Option configures a Device
type Option func(*Device) error

// WithConfig replaces the device configuration
func WithConfig(config *DeviceConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil device config", ErrConfiguration)
		}
		cfg := *config
		d.config = &cfg
		return nil
	}
}

// WithResponseTimeout sets the default command response timeout
func WithResponseTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.config.ResponseTimeout = timeout
		return nil
	}
}

// WithDiscovery overrides the technologies mapped and polled during Init
func WithDiscovery(discovery DiscoveryConfig) Option {
	return func(d *Device) error {
		d.config.Discovery = discovery
		return nil
	}
}

// WithLogger routes device logs to logger instead of the package logger
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Device) error {
		d.logger = &logger
		return nil
	}
}

// Device represents a PN7160 NFC controller.
//
// Thread Safety: Device is NOT thread-safe. Exchanges are strictly
// request/response and all methods must be called from a single goroutine.
type Device struct {
	transport Transport
	config    *DeviceConfig
	logger    *zerolog.Logger
	trace     *TraceBuffer
	identity  *Identity
	kind      TransportType
	port      string
}

// New creates a new PN7160 device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrConfiguration)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}
	device.kind, device.port = describeTransport(transport)

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	if err := device.config.Validate(); err != nil {
		return nil, err
	}

	device.trace = NewTraceBuffer(string(device.kind), device.port, device.config.TraceSize)
	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// Config returns a copy of the active configuration
func (d *Device) Config() DeviceConfig {
	return *d.config
}

// Identity returns the identity read by the last successful CORE_INIT.
// The second result is false until Init has succeeded once.
func (d *Device) Identity() (Identity, bool) {
	if d.identity == nil {
		return Identity{}, false
	}
	return *d.identity, true
}

// Log returns the logger used by this device
func (d *Device) Log() *zerolog.Logger {
	if d.logger != nil {
		return d.logger
	}
	l := Logger().With().Str("transport", string(d.kind)).Logger()
	return &l
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport == nil {
		return nil
	}
	if err := d.transport.Close(); err != nil && !errors.Is(err, ErrTransportClosed) {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
