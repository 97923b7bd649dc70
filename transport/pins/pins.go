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

// Package pins drives the PN7160 IRQ and VEN lines through periph GPIO.
//
// The SPI and I2C transports share this: the controller raises IRQ while a
// frame is waiting and is held in reset while VEN is low.
package pins

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when a pin name is not known to the host
var ErrPinNotFound = errors.New("gpio pin not found")

// Lines holds the IRQ input and VEN output of one controller.
type Lines struct {
	irq gpio.PinIn
	ven gpio.PinOut
}

// Open looks up the named pins, e.g. "GPIO23", and configures them.
func Open(irqName, venName string) (*Lines, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	irq := gpioreg.ByName(irqName)
	if irq == nil {
		return nil, fmt.Errorf("%w: IRQ %q", ErrPinNotFound, irqName)
	}
	ven := gpioreg.ByName(venName)
	if ven == nil {
		return nil, fmt.Errorf("%w: VEN %q", ErrPinNotFound, venName)
	}
	return New(irq, ven)
}

// New configures IRQ as a pulled-down input and powers the controller by
// driving VEN high.
func New(irq gpio.PinIn, ven gpio.PinOut) (*Lines, error) {
	if irq == nil || ven == nil {
		return nil, fmt.Errorf("%w: IRQ and VEN are both required", ErrPinNotFound)
	}
	if err := irq.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure IRQ %s: %w", irq, err)
	}
	if err := ven.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("drive VEN %s high: %w", ven, err)
	}
	return &Lines{irq: irq, ven: ven}, nil
}

// Ready reports whether IRQ is asserted.
func (l *Lines) Ready() bool {
	return l.irq.Read() == gpio.High
}

// SetReset drives VEN; false holds the controller in reset.
func (l *Lines) SetReset(high bool) error {
	if err := l.ven.Out(gpio.Level(high)); err != nil {
		return fmt.Errorf("drive VEN %s: %w", l.ven, err)
	}
	return nil
}

// Halt releases both pins.
func (l *Lines) Halt() error {
	return errors.Join(l.irq.Halt(), l.ven.Halt())
}

func (l *Lines) String() string {
	return fmt.Sprintf("irq=%s ven=%s", l.irq.Name(), l.ven.Name())
}
