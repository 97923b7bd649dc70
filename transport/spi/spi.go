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

// Package spi provides the SPI transport for the PN7160.
package spi

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/frame"
	"github.com/ZaparooProject/go-pn7160/transport/pins"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultFrequency is well under the 7 MHz the controller accepts
	DefaultFrequency = 1 * physic.MegaHertz
	mode             = spi.Mode0
	bitsPerWord      = 8
)

// Config names the bus and the GPIO lines wired to the controller.
type Config struct {
	// Port is a spireg name such as "/dev/spidev0.0" or "SPI0.0"
	Port string
	// IRQPin and VENPin are gpioreg names such as "GPIO23"
	IRQPin string
	VENPin string
	// Frequency defaults to DefaultFrequency when zero
	Frequency physic.Frequency
}

// Validate checks that every required field is set
func (c Config) Validate() error {
	if c.Port == "" || c.IRQPin == "" || c.VENPin == "" {
		return pn7160.NewConfigurationError("spi config", c.Port, "port, IRQ and VEN pins are required")
	}
	return nil
}

// Transport implements pn7160.Transport over SPI. Each Write and Read is a
// single chip-select transaction.
type Transport struct {
	port     spi.PortCloser
	conn     spi.Conn
	lines    *pins.Lines
	portName string
}

// New opens the SPI port and GPIO lines described by config
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(config.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", config.Port, err)
	}

	freq := config.Frequency
	if freq == 0 {
		freq = DefaultFrequency
	}
	conn, err := port.Connect(freq, mode, bitsPerWord)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect SPI: %w", err)
	}

	lines, err := pins.Open(config.IRQPin, config.VENPin)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	t := NewWithConn(conn, lines, config.Port)
	t.port = port
	return t, nil
}

// NewWithConn wraps an already connected SPI conn and configured lines.
func NewWithConn(conn spi.Conn, lines *pins.Lines, portName string) *Transport {
	return &Transport{conn: conn, lines: lines, portName: portName}
}

// Factory returns a pn7160.TransportFactory that opens the SPI port at the
// path it is given using the named IRQ and VEN pins.
func Factory(irqPin, venPin string) pn7160.TransportFactory {
	return func(path string) (pn7160.Transport, error) {
		return New(Config{Port: path, IRQPin: irqPin, VENPin: venPin})
	}
}

// Write sends one frame in a single transaction
func (t *Transport) Write(data []byte) error {
	if t.conn == nil {
		return pn7160.ErrTransportClosed
	}
	if err := t.conn.Tx(data, make([]byte, len(data))); err != nil {
		return fmt.Errorf("SPI write: %w", err)
	}
	return nil
}

// Read clocks out n bytes while sending zeros
func (t *Transport) Read(n int) ([]byte, error) {
	if t.conn == nil {
		return nil, pn7160.ErrTransportClosed
	}

	tx := frame.GetBuffer(n)
	defer frame.PutBuffer(tx)

	rx := make([]byte, n)
	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("SPI read %d bytes: %w", n, err)
	}
	return rx, nil
}

// Ready reports the IRQ line
func (t *Transport) Ready() bool {
	if t.lines == nil {
		return false
	}
	return t.lines.Ready()
}

// SetReset drives VEN
func (t *Transport) SetReset(high bool) error {
	if t.lines == nil {
		return pn7160.ErrTransportClosed
	}
	return t.lines.SetReset(high)
}

// Close releases the port and the GPIO lines
func (t *Transport) Close() error {
	if t.conn == nil {
		return pn7160.ErrTransportClosed
	}
	var errs []error
	if t.lines != nil {
		errs = append(errs, t.lines.Halt())
	}
	if t.port != nil {
		if err := t.port.Close(); err != nil {
			errs = append(errs, fmt.Errorf("SPI close failed: %w", err))
		}
	}
	t.conn, t.port, t.lines = nil, nil, nil
	return errors.Join(errs...)
}

// Type returns the transport type
func (*Transport) Type() pn7160.TransportType {
	return pn7160.TransportSPI
}

// Port returns the SPI port name
func (t *Transport) Port() string {
	return t.portName
}
