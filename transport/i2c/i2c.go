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

// Package i2c provides the I2C transport for the PN7160.
package i2c

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/transport/pins"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7-bit address selected by tying I2CADR0/1 low
	DefaultAddress uint16 = 0x28

	maxClockFreq = 400 * physic.KiloHertz

	// A controller waking from standby NACKs the first transfer.
	nackRetries    = 3
	nackRetryDelay = time.Millisecond
)

// Config names the bus, address and GPIO lines wired to the controller.
type Config struct {
	// Bus is an i2creg name such as "/dev/i2c-1" or "1"
	Bus string
	// IRQPin and VENPin are gpioreg names such as "GPIO23"
	IRQPin string
	VENPin string
	// Address defaults to DefaultAddress when zero
	Address uint16
}

// Validate checks that every required field is set
func (c Config) Validate() error {
	if c.Bus == "" || c.IRQPin == "" || c.VENPin == "" {
		return pn7160.NewConfigurationError("i2c config", c.Bus, "bus, IRQ and VEN pins are required")
	}
	if c.Address > 0x7F {
		return pn7160.NewConfigurationError("i2c config", c.Bus, fmt.Sprintf("address 0x%X is not 7-bit", c.Address))
	}
	return nil
}

// ParsePath splits a detection path "/dev/i2c-1:0x28" into bus and address.
// A bare bus path selects DefaultAddress.
func ParsePath(path string) (bus string, addr uint16, err error) {
	bus, rawAddr, found := strings.Cut(path, ":")
	if !found {
		return bus, DefaultAddress, nil
	}
	v, err := strconv.ParseUint(rawAddr, 0, 7)
	if err != nil {
		return "", 0, fmt.Errorf("invalid I2C address %q: %w", rawAddr, err)
	}
	return bus, uint16(v), nil
}

// Transport implements pn7160.Transport over I2C
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser
	lines   *pins.Lines
	busName string
}

// New opens the bus and GPIO lines described by config
func New(config Config) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(config.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", config.Bus, err)
	}
	_ = bus.SetSpeed(maxClockFreq) // not every adapter supports it

	lines, err := pins.Open(config.IRQPin, config.VENPin)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	t := NewWithBus(bus, config.Address, lines, config.Bus)
	t.bus = bus
	return t, nil
}

// NewWithBus wraps an open bus. A zero addr selects DefaultAddress.
func NewWithBus(bus i2c.Bus, addr uint16, lines *pins.Lines, busName string) *Transport {
	if addr == 0 {
		addr = DefaultAddress
	}
	return &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		lines:   lines,
		busName: busName,
	}
}

// Factory returns a pn7160.TransportFactory accepting "/dev/i2c-1" or
// "/dev/i2c-1:0x28" paths with the named IRQ and VEN pins.
func Factory(irqPin, venPin string) pn7160.TransportFactory {
	return func(path string) (pn7160.Transport, error) {
		bus, addr, err := ParsePath(path)
		if err != nil {
			return nil, pn7160.NewConfigurationError("i2c path", path, err.Error())
		}
		return New(Config{Bus: bus, Address: addr, IRQPin: irqPin, VENPin: venPin})
	}
}

// tx retries NACKed transfers a few times before giving up
func (t *Transport) tx(w, r []byte) error {
	var err error
	for attempt := range nackRetries {
		if err = t.dev.Tx(w, r); err == nil {
			return nil
		}
		if attempt < nackRetries-1 {
			time.Sleep(nackRetryDelay)
		}
	}
	return err
}

// Write sends one frame
func (t *Transport) Write(data []byte) error {
	if t.dev == nil {
		return pn7160.ErrTransportClosed
	}
	if err := t.tx(data, nil); err != nil {
		return fmt.Errorf("I2C write: %w", err)
	}
	return nil
}

// Read reads exactly n bytes in one transfer
func (t *Transport) Read(n int) ([]byte, error) {
	if t.dev == nil {
		return nil, pn7160.ErrTransportClosed
	}
	buf := make([]byte, n)
	if err := t.tx(nil, buf); err != nil {
		return nil, fmt.Errorf("I2C read %d bytes: %w", n, err)
	}
	return buf, nil
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

// Close releases the bus file descriptor and the GPIO lines
func (t *Transport) Close() error {
	if t.dev == nil {
		return pn7160.ErrTransportClosed
	}
	var errs []error
	if t.lines != nil {
		errs = append(errs, t.lines.Halt())
	}
	if t.bus != nil {
		if err := t.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close I2C bus: %w", err))
		}
	}
	t.dev, t.bus, t.lines = nil, nil, nil
	return errors.Join(errs...)
}

// Type returns the transport type
func (*Transport) Type() pn7160.TransportType {
	return pn7160.TransportI2C
}

// Port returns the bus name
func (t *Transport) Port() string {
	return t.busName
}
