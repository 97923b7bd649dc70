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
	"testing"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testDeviceConfig() *pn7160.DeviceConfig {
	cfg := pn7160.DefaultDeviceConfig()
	cfg.ResponseTimeout = 50 * time.Millisecond
	cfg.ResetNotificationTimeout = 50 * time.Millisecond
	cfg.ResetNotificationWait = 50 * time.Millisecond
	cfg.ResetPulse = time.Millisecond
	cfg.ResetSettle = time.Millisecond
	return cfg
}

// newTestDevice creates a device on a fresh simulator without initializing it.
func newTestDevice(t *testing.T) (*pn7160.Device, *testutil.VirtualPN7160) {
	t.Helper()
	sim := testutil.NewVirtualPN7160()
	device, err := pn7160.New(sim, pn7160.WithConfig(testDeviceConfig()), pn7160.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return device, sim
}

// newReadyDevice creates a device that has completed Setup with nothing pending.
func newReadyDevice(t *testing.T) (*pn7160.Device, *testutil.VirtualPN7160) {
	t.Helper()
	device, sim := newTestDevice(t)
	require.NoError(t, device.Setup(context.Background()))
	require.False(t, sim.Ready())
	return device, sim
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.NotificationTimeout = 20 * time.Millisecond
	cfg.Health.Interval = time.Hour
	cfg.Health.ProbeTimeout = 5 * time.Millisecond
	cfg.Health.RecoverySettle = time.Millisecond
	return cfg
}

// events records tracker callbacks in order.
type events struct {
	log []string
}

func (e *events) appeared(uid string) { e.log = append(e.log, "appeared "+uid) }
func (e *events) removed(uid string)  { e.log = append(e.log, "removed "+uid) }

func (e *events) count(prefix string) int {
	n := 0
	for _, entry := range e.log {
		if len(entry) >= len(prefix) && entry[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
