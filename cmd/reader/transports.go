// go-pn7160
// Copyright (c) 2026 The Zaparoo Project Contributors.
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

package main

import (
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/transport/i2c"
	"github.com/ZaparooProject/go-pn7160/transport/kernel"
	"github.com/ZaparooProject/go-pn7160/transport/serial"
	"github.com/ZaparooProject/go-pn7160/transport/spi"
)

// guessTransport picks a transport from the shape of path
func guessTransport(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "nxpnfc"), strings.Contains(lower, "pn5"), strings.Contains(lower, "nq-nci"):
		return "kernel"
	case strings.Contains(lower, "i2c"):
		return "i2c"
	case strings.Contains(lower, "spi"):
		return "spi"
	default:
		return "serial"
	}
}

// openTransport opens transportType at path. Bus transports need both GPIO
// names.
func openTransport(transportType, path, irqPin, venPin string, baud int) (pn7160.Transport, error) {
	if transportType == "" {
		transportType = guessTransport(path)
	}

	var (
		t   pn7160.Transport
		err error
	)
	switch transportType {
	case "kernel":
		t, err = kernel.Factory(path)
	case "i2c":
		t, err = i2c.Factory(irqPin, venPin)(path)
	case "spi":
		t, err = spi.Factory(irqPin, venPin)(path)
	case "serial":
		var st *serial.Transport
		st, err = serial.New(path, baud)
		if err == nil {
			t = st
		}
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", transportType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s transport for %s: %w", transportType, path, err)
	}
	return t, nil
}

// transportFactory returns a pn7160.TransportFactory for the configured device
func transportFactory(cfg *fileConfig) pn7160.TransportFactory {
	return func(path string) (pn7160.Transport, error) {
		return openTransport(cfg.Device.Transport, path, cfg.Device.IRQPin, cfg.Device.VENPin, cfg.Device.Baud)
	}
}

// deviceFactory opens a detected device. GPIO names recorded by the
// detector win over the configured ones.
func deviceFactory(cfg *fileConfig) pn7160.TransportFromDeviceFactory {
	return func(info detection.DeviceInfo) (pn7160.Transport, error) {
		opts := cfg.detectionOptions()
		irq, ven := detection.Pins(info, &opts)
		return openTransport(info.Transport, info.Path, irq, ven, cfg.Device.Baud)
	}
}
