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

	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// Transport defines the byte-level connection to a PN7160 controller.
// This can be implemented by SPI, I2C, the Linux kernel driver or a serial bridge.
//
// Read must return exactly n bytes or an error. Ready reports the state of the
// controller's IRQ line, which is asserted while a frame is waiting to be read.
type Transport interface {
	// Write sends one complete frame to the controller
	Write(data []byte) error

	// Read reads exactly n bytes from the controller
	Read(n int) ([]byte, error)

	// Ready returns true while the IRQ line is asserted
	Ready() bool

	// SetReset drives the VEN line; false holds the controller in reset
	SetReset(high bool) error

	// Close releases the bus and any GPIO lines
	Close() error
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportKernel represents the nxpnfc/pn5xx_i2c character device.
	TransportKernel TransportType = "kernel"
	// TransportSerial represents NCI tunnelled over a USB-UART bridge.
	TransportSerial TransportType = "serial"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportDescriber is implemented by transports that can name themselves
// for logs and wire traces.
type TransportDescriber interface {
	Type() TransportType
	Port() string
}

func describeTransport(t Transport) (TransportType, string) {
	if d, ok := t.(TransportDescriber); ok {
		return d.Type(), d.Port()
	}
	return TransportMock, ""
}

// MockTransport is a scripted transport for unit tests. Frames queued with
// QueueFrame are served byte by byte; the ready line is asserted while any
// queued bytes remain.
type MockTransport struct {
	writeErr   error
	readErr    error
	pending    []byte
	Writes     [][]byte
	ResetLog   []bool
	mu         syncutil.Mutex
	stuckReady bool
	closed     bool
}

// NewMockTransport creates a new mock transport
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// QueueFrame appends raw frame bytes to the read stream.
func (m *MockTransport) QueueFrame(raw ...[]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range raw {
		m.pending = append(m.pending, r...)
	}
}

// SetWriteError makes every Write fail with err until cleared with nil.
func (m *MockTransport) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// SetReadError makes every Read fail with err until cleared with nil.
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetStuckReady forces the ready line high regardless of queued data.
func (m *MockTransport) SetStuckReady(stuck bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stuckReady = stuck
}

// Write records the frame
func (m *MockTransport) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrTransportClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	m.Writes = append(m.Writes, append([]byte(nil), data...))
	return nil
}

// Read serves queued bytes. Reading past the queue fails.
func (m *MockTransport) Read(n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrTransportClosed
	}
	if m.readErr != nil {
		return nil, m.readErr
	}
	if n > len(m.pending) {
		if m.stuckReady {
			return make([]byte, n), nil
		}
		return nil, fmt.Errorf("mock: want %d bytes, have %d", n, len(m.pending))
	}
	out := append([]byte(nil), m.pending[:n]...)
	m.pending = m.pending[n:]
	return out, nil
}

// Ready reports queued data or a stuck line
func (m *MockTransport) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stuckReady || len(m.pending) > 0
}

// SetReset records the line level. A low-to-high edge clears the stuck line
// and any queued bytes, as a real power cycle would.
func (m *MockTransport) SetReset(high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if high && len(m.ResetLog) > 0 && !m.ResetLog[len(m.ResetLog)-1] {
		m.stuckReady = false
		m.pending = nil
	}
	m.ResetLog = append(m.ResetLog, high)
	return nil
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("mock: already closed")
	}
	m.closed = true
	return nil
}

// WriteCount returns the number of frames written so far
func (m *MockTransport) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Writes)
}

// Pending returns the number of queued bytes not yet read
func (m *MockTransport) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
