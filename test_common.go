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

//go:build !prod

package pn7160

import (
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/require"
)

// fastTestConfig shortens every wait so failure paths finish quickly.
func fastTestConfig() *DeviceConfig {
	cfg := DefaultDeviceConfig()
	cfg.ResponseTimeout = 50 * time.Millisecond
	cfg.ResetNotificationTimeout = 50 * time.Millisecond
	cfg.ResetNotificationWait = 50 * time.Millisecond
	cfg.ResetPulse = time.Millisecond
	cfg.ResetSettle = time.Millisecond
	return cfg
}

// newTestDevice creates a device wired to a fresh controller simulator.
func newTestDevice(t *testing.T) (*Device, *testutil.VirtualPN7160) {
	t.Helper()
	sim := testutil.NewVirtualPN7160()
	device, err := New(sim, WithConfig(fastTestConfig()))
	require.NoError(t, err)
	return device, sim
}

// createMockDeviceWithTransport creates a device on a scripted MockTransport
// for tests that need byte-exact control of what the controller sends.
func createMockDeviceWithTransport(t *testing.T) (*Device, *MockTransport) {
	t.Helper()
	mockTransport := NewMockTransport()
	device, err := New(mockTransport, WithConfig(fastTestConfig()))
	require.NoError(t, err)
	return device, mockTransport
}
