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

// Package serial provides a transport for PN7160 boards bridged to the host
// through a USB-serial adapter.
//
// The bridge forwards NCI control packets unchanged in both directions. The
// adapter's DTR output is wired to VEN. There is no IRQ line, so Ready
// reports whether the bridge has bytes buffered.
package serial

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
	"go.bug.st/serial"
)

// DefaultBaudRate matches the common bridge firmware
const DefaultBaudRate = 115200

const (
	// pollTimeout bounds the non-blocking check behind Ready
	pollTimeout = 2 * time.Millisecond
	chunkSize   = 64
)

// readTimeout bounds a Read waiting for the rest of a frame. Windows
// drivers deliver USB packets late, so it gets more time.
func readTimeout() time.Duration {
	if runtime.GOOS == "windows" {
		return 100 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// Port is the subset of serial.Port the transport needs
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetDTR(dtr bool) error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Close() error
}

// Transport implements pn7160.Transport over a serial bridge
type Transport struct {
	port     Port
	portName string
	pending  []byte
	mu       syncutil.Mutex
}

// New opens portName at baud (DefaultBaudRate when zero), 8N1
func New(portName string, baud int) (*Transport, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return NewWithPort(port, portName)
}

// NewWithPort wraps an open port and asserts DTR to power the controller.
func NewWithPort(port Port, portName string) (*Transport, error) {
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set serial read timeout: %w", err)
	}
	if err := port.SetDTR(true); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to assert DTR: %w", err)
	}
	return &Transport{port: port, portName: portName}, nil
}

// Factory opens the port at path with the default baud rate. It is a
// pn7160.TransportFactory.
func Factory(path string) (pn7160.Transport, error) {
	t, err := New(path, 0)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// fill performs one read of up to chunkSize bytes. A timeout returns zero
// bytes and no error.
func (t *Transport) fill() error {
	var chunk [chunkSize]byte
	n, err := t.port.Read(chunk[:])
	if err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	t.pending = append(t.pending, chunk[:n]...)
	return nil
}

// Write sends one frame
func (t *Transport) Write(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return pn7160.ErrTransportClosed
	}

	for written := 0; written < len(data); {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("serial write stalled after %d of %d bytes", written, len(data))
		}
		written += n
	}
	return nil
}

// Read returns exactly n bytes, waiting up to the read timeout for them
func (t *Transport) Read(n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return nil, pn7160.ErrTransportClosed
	}

	deadline := time.Now().Add(readTimeout())
	for len(t.pending) < n {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("serial read: got %d of %d bytes", len(t.pending), n)
		}
		if err := t.fill(); err != nil {
			return nil, err
		}
	}

	out := make([]byte, n)
	copy(out, t.pending)
	t.pending = t.pending[n:]
	return out, nil
}

// Ready reports buffered bytes, polling the port once if none are buffered
func (t *Transport) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return false
	}
	if len(t.pending) == 0 {
		if err := t.fill(); err != nil {
			return false
		}
	}
	return len(t.pending) > 0
}

// SetReset drives VEN through DTR. Dropping VEN discards anything buffered.
func (t *Transport) SetReset(high bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return pn7160.ErrTransportClosed
	}

	if err := t.port.SetDTR(high); err != nil {
		return fmt.Errorf("drive DTR: %w", err)
	}
	if !high {
		t.pending = nil
		if err := t.port.ResetInputBuffer(); err != nil {
			return fmt.Errorf("reset serial input: %w", err)
		}
	}
	return nil
}

// Close closes the port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.port == nil {
		return pn7160.ErrTransportClosed
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("serial close failed: %w", err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn7160.TransportType {
	return pn7160.TransportSerial
}

// Port returns the serial port name
func (t *Transport) Port() string {
	return t.portName
}
