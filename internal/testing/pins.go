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

package testing

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// irqPin mirrors the simulator's IRQ line.
type irqPin struct {
	*gpiotest.Pin
	sim *VirtualPN7160
}

func (p *irqPin) Read() gpio.Level {
	return gpio.Level(p.sim.Ready())
}

// venPin forwards levels to the simulator's VEN input.
type venPin struct {
	*gpiotest.Pin
	sim *VirtualPN7160
}

func (p *venPin) Out(l gpio.Level) error {
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	return p.sim.SetReset(bool(l))
}

// SimPins returns GPIO pins wired to sim, for transports that drive IRQ and
// VEN through periph.
func (v *VirtualPN7160) SimPins() (irq gpio.PinIn, ven gpio.PinOut) {
	return &irqPin{Pin: &gpiotest.Pin{N: "SIM_IRQ"}, sim: v},
		&venPin{Pin: &gpiotest.Pin{N: "SIM_VEN", L: gpio.High}, sim: v}
}
