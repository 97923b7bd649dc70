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

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
debug: true
device:
  path: /dev/i2c-1:0x28
  irq_pin: GPIO23
  ven_pin: GPIO24
detection:
  mode: full
  ignore_paths: [/dev/ttyUSB0]
polling:
  poll_interval: 250ms
  health_interval: 30s
  max_failed_checks: 5
  auto_recover: false
bindings:
  - uid: 04-A1-3F-02
    name: door
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := loadConfig(writeConfig(t, sampleConfig), false)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "/dev/i2c-1:0x28", cfg.Device.Path)
	require.Len(t, cfg.Bindings, 1)
	assert.Equal(t, "door", cfg.Bindings[0].Name)

	pc := cfg.sessionConfig()
	assert.Equal(t, 250*time.Millisecond, pc.PollInterval)
	assert.Equal(t, 30*time.Second, pc.Health.Interval)
	assert.Equal(t, 5, pc.Health.MaxFailedChecks)
	assert.False(t, pc.Health.AutoRecover)
	assert.True(t, pc.Health.Enabled, "unset stays at the default")
	require.NoError(t, pc.Validate())

	opts := cfg.detectionOptions()
	assert.Equal(t, detection.Full, opts.Mode)
	assert.Equal(t, "GPIO23", opts.IRQPin)
	assert.Equal(t, []string{"/dev/ttyUSB0"}, opts.IgnorePaths)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "device: ["},
		{name: "bad mode", content: "detection:\n  mode: loud\n"},
		{name: "bad transport", content: "device:\n  transport: usb\n"},
		{name: "bad binding", content: "bindings:\n  - uid: zz\n"},
		{name: "bad duration", content: "polling:\n  poll_interval: soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := loadConfig(writeConfig(t, tt.content), false)
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := loadConfig(missing, true)
	require.NoError(t, err)
	assert.Equal(t, "safe", cfg.Detection.Mode)

	_, err = loadConfig(missing, false)
	require.Error(t, err)
}

func TestSessionConfig_Defaults(t *testing.T) {
	t.Parallel()

	pc := defaultFileConfig().sessionConfig()
	assert.Equal(t, time.Second, pc.PollInterval)
	assert.Equal(t, 60*time.Second, pc.Health.Interval)
	assert.Equal(t, 3, pc.Health.MaxFailedChecks)
	assert.True(t, pc.SleepRecovery.Enabled)
}
