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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPathIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		ignore []string
		want   bool
	}{
		{name: "empty list", path: "/dev/nxpnfc"},
		{name: "empty path", path: "", ignore: []string{"/dev/nxpnfc"}},
		{name: "kernel node", path: "/dev/nxpnfc", ignore: []string{"/dev/nxpnfc"}, want: true},
		{name: "i2c bus and address", path: "/dev/i2c-1:0x28", ignore: []string{"/dev/i2c-1:0x28"}, want: true},
		{name: "other i2c address", path: "/dev/i2c-1:0x29", ignore: []string{"/dev/i2c-1:0x28"}},
		{name: "spidev", path: "/dev/spidev0.0", ignore: []string{"/dev/spidev0.1", "/dev/spidev0.0"}, want: true},
		{name: "case folded", path: "/dev/ttyUSB0", ignore: []string{"/DEV/TTYUSB0"}, want: true},
		{name: "windows port", path: "com3", ignore: []string{"COM3"}, want: true},
		{name: "cleaned before compare", path: "/dev/../dev/ttyACM0", ignore: []string{"/dev/ttyACM0"}, want: true},
		{name: "blank entries skipped", path: "/dev/ttyUSB1", ignore: []string{"", "/dev/ttyUSB0", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsPathIgnored(tt.path, tt.ignore))
		})
	}
}

func TestFilterDevices(t *testing.T) {
	t.Parallel()

	devices := []DeviceInfo{
		{Transport: "kernel", Path: "/dev/nxpnfc"},
		{Transport: "serial", Path: "/dev/ttyACM0", Metadata: map[string]string{MetaVIDPID: "2341:0043"}},
		{Transport: "serial", Path: "/dev/ttyUSB0", Metadata: map[string]string{MetaVIDPID: "0403:6015"}},
		{Transport: "i2c", Path: "/dev/i2c-1:0x28"},
	}

	opts := DefaultOptions()
	opts.IgnorePaths = []string{"/dev/i2c-1:0x28"}

	got := filterDevices(devices, &opts)
	paths := make([]string, 0, len(got))
	for _, d := range got {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{"/dev/nxpnfc", "/dev/ttyUSB0"}, paths)

	assert.Len(t, filterDevices(devices, &Options{}), len(devices), "nothing to filter")
}
