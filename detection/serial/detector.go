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

// Package serial detects controllers behind USB serial bridges.
package serial

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/detection/probe"
	bridge "github.com/ZaparooProject/go-pn7160/transport/serial"
	"go.bug.st/serial/enumerator"
)

// listPorts enumerates serial ports with USB descriptors
var listPorts = enumerator.GetDetailedPortsList

// probeDeviceFn opens path and probes it. Only one attempt is made per
// port: a retry would toggle DTR again on a board that is not ours.
var probeDeviceFn = func(ctx context.Context, info *detection.DeviceInfo, mode detection.Mode) bool {
	t, err := bridge.Factory(info.Path)
	if err != nil {
		return false
	}
	defer func() { _ = t.Close() }()
	return probe.Apply(ctx, t, mode, info)
}

type detector struct{}

// New creates a serial bridge detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return string(pn7160.TransportSerial)
}

// Detect enumerates serial ports and probes the plausible ones
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, port := range ports {
		if ctx.Err() != nil {
			break
		}
		if !d.eligible(port, opts) {
			continue
		}
		if info, ok := d.processPort(ctx, port, opts); ok {
			devices = append(devices, info)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func vidpid(port *enumerator.PortDetails) string {
	if !port.IsUSB || port.VID == "" || port.PID == "" {
		return ""
	}
	return strings.ToUpper(port.VID + ":" + port.PID)
}

// eligible drops blocked, ignored and non-USB ports. Built-in UARTs are
// only reachable through a devices file.
func (*detector) eligible(port *enumerator.PortDetails, opts *detection.Options) bool {
	if !port.IsUSB {
		return false
	}
	if id := vidpid(port); id != "" && detection.IsBlocked(id, opts.Blocklist) {
		return false
	}
	return !detection.IsPathIgnored(port.Name, opts.IgnorePaths)
}

// processPort decides confidence and probes. In Passive mode only known
// bridges are reported. In Safe and Full mode a port is kept only if the
// probe succeeds.
func (*detector) processPort(
	ctx context.Context,
	port *enumerator.PortDetails,
	opts *detection.Options,
) (detection.DeviceInfo, bool) {
	likely := isLikelyBridge(port)
	if opts.Mode == detection.Passive && !likely {
		return detection.DeviceInfo{}, false
	}

	info := detection.DeviceInfo{
		Transport:  string(pn7160.TransportSerial),
		Path:       port.Name,
		Name:       port.Name,
		Confidence: detection.Low,
		Metadata:   make(map[string]string),
	}
	if likely {
		info.Confidence = detection.Medium
	}
	if port.Product != "" {
		info.Name = port.Product
		info.Metadata["product"] = port.Product
	}
	if id := vidpid(port); id != "" {
		info.Metadata[detection.MetaVIDPID] = id
	}
	if port.SerialNumber != "" {
		info.Metadata["serial"] = port.SerialNumber
	}

	if opts.Mode == detection.Passive {
		return info, true
	}
	if !probeDeviceFn(ctx, &info, opts.Mode) {
		return detection.DeviceInfo{}, false
	}
	return info, true
}

// knownBridges are USB-UART chips found on PN7160 breakout boards
var knownBridges = []string{
	"0403:6001", // FTDI FT232R
	"0403:6015", // FTDI FT231X
	"10C4:EA60", // Silicon Labs CP210x
	"1A86:7523", // QinHeng CH340
	"1A86:55D4", // QinHeng CH9102
	"067B:2303", // Prolific PL2303
}

func isLikelyBridge(port *enumerator.PortDetails) bool {
	id := vidpid(port)
	for _, known := range knownBridges {
		if id == known {
			return true
		}
	}
	product := strings.ToLower(port.Product)
	for _, keyword := range []string{"pn7160", "pn7150", "nfc", "nci"} {
		if strings.Contains(product, keyword) {
			return true
		}
	}
	return false
}
