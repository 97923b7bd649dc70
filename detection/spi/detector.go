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

// Package spi detects controllers on Linux spidev nodes.
package spi

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/detection/probe"
	"github.com/ZaparooProject/go-pn7160/transport/spi"
)

type detector struct {
	glob   func(pattern string) ([]string, error)
	static func(transport string) []detection.StaticDevice
	open   probe.Opener
}

// New creates an SPI detector
func New() detection.Detector {
	return &detector{
		glob:   filepath.Glob,
		static: detection.StaticDevices,
		open:   openPort,
	}
}

func init() {
	detection.RegisterDetector(New())
}

func openPort(info detection.DeviceInfo, irqPin, venPin string) (pn7160.Transport, error) {
	t, err := spi.New(spi.Config{Port: info.Path, IRQPin: irqPin, VENPin: venPin})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Transport returns the transport type
func (*detector) Transport() string {
	return string(pn7160.TransportSPI)
}

// Detect checks declared devices first, then every spidev node.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	var candidates []detection.DeviceInfo
	for _, s := range d.static(d.Transport()) {
		candidates = append(candidates, s.Info())
	}

	if runtime.GOOS == "linux" {
		nodes, _ := d.glob("/dev/spidev*")
		for _, node := range nodes {
			candidates = append(candidates, detection.DeviceInfo{
				Transport:  d.Transport(),
				Path:       node,
				Name:       "SPI device " + filepath.Base(node),
				Confidence: detection.Low,
				Metadata:   map[string]string{},
			})
		}
	}

	devices := probe.Scan(ctx, opts, candidates, true, d.open)
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}
