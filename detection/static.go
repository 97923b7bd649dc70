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

package detection

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StaticDevice is a device declared in a devices file or the environment
// rather than discovered. Bus transports need one when the board does not
// follow the usual wiring.
type StaticDevice struct {
	Metadata  map[string]string `yaml:"metadata,omitempty"`
	Transport string            `yaml:"transport"`
	Path      string            `yaml:"path"`
	Name      string            `yaml:"name,omitempty"`
	IRQPin    string            `yaml:"irq_pin,omitempty"`
	VENPin    string            `yaml:"ven_pin,omitempty"`
}

type devicesFile struct {
	Devices []StaticDevice `yaml:"devices"`
}

// staticFiles lists the devices files in lookup order. The first readable
// file wins.
var staticFiles = func() []string {
	files := []string{"pn7160.yaml", ".pn7160.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".config", "pn7160", "devices.yaml"))
	}
	return append(files, "/etc/pn7160/devices.yaml")
}

// ParseDevicesFile decodes a devices file. Entries without a transport or
// path are rejected.
func ParseDevicesFile(data []byte) ([]StaticDevice, error) {
	var file devicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse devices file: %w", err)
	}
	for i, d := range file.Devices {
		if d.Transport == "" || d.Path == "" {
			return nil, fmt.Errorf("devices file entry %d: transport and path are required", i)
		}
	}
	return file.Devices, nil
}

func loadDevicesFile() []StaticDevice {
	for _, path := range staticFiles() {
		data, err := os.ReadFile(path) // #nosec G304 -- fixed lookup list
		if err != nil {
			continue
		}
		devices, err := ParseDevicesFile(data)
		if err != nil {
			// a broken file still shadows the ones below it
			return nil
		}
		return devices
	}
	return nil
}

// StaticDevices returns the declared devices for transport. The devices
// file comes first, then PN7160_<TRANSPORT>_DEVICE from the environment
// with the GPIO names from PN7160_IRQ_PIN and PN7160_VEN_PIN.
func StaticDevices(transport string) []StaticDevice {
	var out []StaticDevice
	for _, d := range loadDevicesFile() {
		if d.Transport == transport {
			out = append(out, d)
		}
	}

	env := "PN7160_" + strings.ToUpper(transport) + "_DEVICE"
	if path := os.Getenv(env); path != "" {
		out = append(out, StaticDevice{
			Transport: transport,
			Path:      path,
			Name:      transport + " device from environment",
			IRQPin:    os.Getenv(EnvIRQPin),
			VENPin:    os.Getenv(EnvVENPin),
		})
	}
	return out
}

// Info converts a declared device into a Low confidence DeviceInfo.
func (s StaticDevice) Info() DeviceInfo {
	info := DeviceInfo{
		Transport:  s.Transport,
		Path:       s.Path,
		Name:       s.Name,
		Confidence: Low,
		Metadata:   make(map[string]string, len(s.Metadata)+2),
	}
	for k, v := range s.Metadata {
		info.Metadata[k] = v
	}
	if s.IRQPin != "" {
		info.Metadata[MetaIRQPin] = s.IRQPin
	}
	if s.VENPin != "" {
		info.Metadata[MetaVENPin] = s.VENPin
	}
	if info.Name == "" {
		info.Name = fmt.Sprintf("%s device at %s", s.Transport, s.Path)
	}
	return info
}

// Pins returns the GPIO names for info, falling back to opts.
func Pins(info DeviceInfo, opts *Options) (irq, ven string) {
	irq, ven = info.Metadata[MetaIRQPin], info.Metadata[MetaVENPin]
	if irq == "" {
		irq = opts.IRQPin
	}
	if ven == "" {
		ven = opts.VENPin
	}
	return irq, ven
}

// Dedupe keeps the first entry for each path.
func Dedupe(devices []DeviceInfo) []DeviceInfo {
	seen := make(map[string]bool, len(devices))
	var unique []DeviceInfo
	for _, d := range devices {
		key := normalizedPath(d.Path)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, d)
	}
	return unique
}
