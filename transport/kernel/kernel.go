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

// Package kernel provides a transport over the nxpnfc (pn5xx_i2c) character
// device exposed by the NXP Linux kernel driver.
//
// The driver owns the bus and the GPIOs: writes and reads go straight to
// the device node, poll(2) reports the IRQ line and an ioctl drives VEN.
package kernel

import "github.com/ZaparooProject/go-pn7160"

// DefaultDevice is the node created by the nxpnfc driver
const DefaultDevice = "/dev/nxpnfc"

// Factory opens the device node at path. It is a pn7160.TransportFactory.
func Factory(path string) (pn7160.Transport, error) {
	if path == "" {
		path = DefaultDevice
	}
	t, err := Open(path)
	if err != nil {
		return nil, err
	}
	return t, nil
}
