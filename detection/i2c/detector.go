// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package i2c detects controllers on Linux I2C buses.
package i2c

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/detection/probe"
	"github.com/ZaparooProject/go-pn7160/transport/i2c"
)

type detector struct {
	glob   func(pattern string) ([]string, error)
	static func(transport string) []detection.StaticDevice
	open   probe.Opener
}

// New creates an I2C detector
func New() detection.Detector {
	return &detector{
		glob:   filepath.Glob,
		static: detection.StaticDevices,
		open:   openBus,
	}
}

func init() {
	detection.RegisterDetector(New())
}

func openBus(info detection.DeviceInfo, irqPin, venPin string) (pn7160.Transport, error) {
	bus, addr, err := i2c.ParsePath(info.Path)
	if err != nil {
		return nil, err
	}
	t, err := i2c.New(i2c.Config{Bus: bus, Address: addr, IRQPin: irqPin, VENPin: venPin})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Transport returns the transport type
func (*detector) Transport() string {
	return string(pn7160.TransportI2C)
}

// Detect checks declared devices first, then every bus at the default
// address. Without GPIO names the bus candidates are reported at Low
// confidence.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if runtime.GOOS != "linux" {
		return nil, detection.ErrUnsupportedPlatform
	}

	var candidates []detection.DeviceInfo
	for _, s := range d.static(d.Transport()) {
		candidates = append(candidates, s.Info())
	}

	buses, _ := d.glob("/dev/i2c-*")
	for _, bus := range buses {
		path := fmt.Sprintf("%s:0x%02x", bus, i2c.DefaultAddress)
		candidates = append(candidates, detection.DeviceInfo{
			Transport:  d.Transport(),
			Path:       path,
			Name:       fmt.Sprintf("I2C %s address 0x%02X", filepath.Base(bus), i2c.DefaultAddress),
			Confidence: detection.Low,
			Metadata:   map[string]string{},
		})
	}

	devices := probe.Scan(ctx, opts, candidates, true, d.open)
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}
