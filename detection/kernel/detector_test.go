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

package kernel

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDetector(nodes map[string]*testutil.VirtualPN7160) *detector {
	return &detector{
		patterns: nodePatterns,
		glob: func(pattern string) ([]string, error) {
			var out []string
			for path := range nodes {
				if ok, _ := filepath.Match(pattern, path); ok {
					out = append(out, path)
				}
			}
			return out, nil
		},
		open: func(info detection.DeviceInfo, _, _ string) (pn7160.Transport, error) {
			return nodes[info.Path], nil
		},
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()
	if runtime.GOOS != "linux" {
		t.Skip("kernel driver nodes are linux only")
	}

	dead := testutil.NewVirtualPN7160()
	dead.SetDead(true)
	nodes := map[string]*testutil.VirtualPN7160{
		"/dev/nxpnfc":     testutil.NewVirtualPN7160(),
		"/dev/pn5xx_i2c0": dead,
	}

	tests := []struct {
		name string
		want []string
		conf detection.Confidence
		mode detection.Mode
	}{
		{name: "passive lists every node", mode: detection.Passive, conf: detection.Medium,
			want: []string{"/dev/nxpnfc", "/dev/pn5xx_i2c0"}},
		{name: "safe keeps responders", mode: detection.Safe, conf: detection.High,
			want: []string{"/dev/nxpnfc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices, err := fakeDetector(nodes).Detect(context.Background(), &detection.Options{Mode: tt.mode})
			require.NoError(t, err)

			var paths []string
			for _, d := range devices {
				paths = append(paths, d.Path)
				assert.Equal(t, tt.conf, d.Confidence)
				assert.Equal(t, "kernel", d.Transport)
			}
			assert.ElementsMatch(t, tt.want, paths)
		})
	}
}

func TestDetect_NoNodes(t *testing.T) {
	t.Parallel()
	if runtime.GOOS != "linux" {
		t.Skip("kernel driver nodes are linux only")
	}

	_, err := fakeDetector(nil).Detect(context.Background(), &detection.Options{Mode: detection.Safe})
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}
