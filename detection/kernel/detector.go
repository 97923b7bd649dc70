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

// Package kernel detects controllers bound to the NXP NCI kernel driver.
package kernel

import (
	"context"
	"path/filepath"
	"runtime"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/detection/probe"
	"github.com/ZaparooProject/go-pn7160/transport/kernel"
)

// nodePatterns are the character devices created by the nxpnfc and pn5xx
// drivers.
var nodePatterns = []string{"/dev/nxpnfc", "/dev/pn544", "/dev/pn5xx_i2c*", "/dev/nq-nci"}

type detector struct {
	glob     func(pattern string) ([]string, error)
	open     probe.Opener
	patterns []string
}

// New creates a kernel driver detector
func New() detection.Detector {
	return &detector{
		patterns: nodePatterns,
		glob:     filepath.Glob,
		open: func(info detection.DeviceInfo, _, _ string) (pn7160.Transport, error) {
			t, err := kernel.Open(info.Path)
			if err != nil {
				return nil, err
			}
			return t, nil
		},
	}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return string(pn7160.TransportKernel)
}

// Detect lists driver nodes. Every node starts at Medium confidence since
// only an NFC driver creates them.
func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if runtime.GOOS != "linux" {
		return nil, detection.ErrUnsupportedPlatform
	}

	var candidates []detection.DeviceInfo
	for _, pattern := range d.patterns {
		matches, err := d.glob(pattern)
		if err != nil {
			continue
		}
		for _, path := range matches {
			candidates = append(candidates, detection.DeviceInfo{
				Transport:  d.Transport(),
				Path:       path,
				Name:       "NCI driver node " + filepath.Base(path),
				Confidence: detection.Medium,
				Metadata:   map[string]string{},
			})
		}
	}

	devices := probe.Scan(ctx, opts, candidates, false, d.open)
	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}
