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

package probe

import (
	"context"
	"testing"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Modes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		wantFirmware string
		mode         detection.Mode
		dead         bool
		wantErr      bool
	}{
		{name: "passive never talks", mode: detection.Passive, wantErr: true},
		{name: "safe", mode: detection.Safe},
		{name: "full reads firmware", mode: detection.Full, wantFirmware: "2.5.0"},
		{name: "dead controller", mode: detection.Safe, dead: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sim := testutil.NewVirtualPN7160()
			sim.SetDead(tt.dead)

			res, err := Run(context.Background(), sim, tt.mode)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFirmware, res.Firmware)
		})
	}
}

func TestRun_PassiveLeavesLinesAlone(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN7160()
	_, err := Run(context.Background(), sim, detection.Passive)
	require.Error(t, err)
	assert.Empty(t, sim.Commands())
}

func TestApply(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN7160()
	info := detection.DeviceInfo{Path: "/dev/nxpnfc", Confidence: detection.Medium}

	require.True(t, Apply(context.Background(), sim, detection.Full, &info))
	assert.Equal(t, detection.High, info.Confidence)
	assert.Equal(t, "2.5.0", info.Metadata[detection.MetaFirmware])
}

func TestApply_FailureKeepsConfidence(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN7160()
	sim.SetDead(true)
	info := detection.DeviceInfo{Path: "/dev/nxpnfc", Confidence: detection.Medium}

	assert.False(t, Apply(context.Background(), sim, detection.Safe, &info))
	assert.Equal(t, detection.Medium, info.Confidence)
}

func TestScan(t *testing.T) {
	t.Parallel()

	live := testutil.NewVirtualPN7160()
	dead := testutil.NewVirtualPN7160()
	dead.SetDead(true)
	sims := map[string]*testutil.VirtualPN7160{"/dev/live": live, "/dev/dead": dead}

	candidates := []detection.DeviceInfo{
		{Path: "/dev/live", Transport: "spi"},
		{Path: "/dev/live", Transport: "spi"},
		{Path: "/dev/dead", Transport: "spi"},
		{Path: "/dev/ignored", Transport: "spi"},
	}

	var opened []string
	var pins []string
	open := func(info detection.DeviceInfo, irq, ven string) (pn7160.Transport, error) {
		opened = append(opened, info.Path)
		pins = append(pins, irq+"/"+ven)
		sim, ok := sims[info.Path]
		if !ok {
			return nil, assert.AnError
		}
		return sim, nil
	}

	opts := &detection.Options{
		Mode:        detection.Safe,
		IgnorePaths: []string{"/dev/ignored"},
		IRQPin:      "GPIO23",
		VENPin:      "GPIO24",
	}
	found := Scan(context.Background(), opts, candidates, true, open)

	require.Len(t, found, 1)
	assert.Equal(t, "/dev/live", found[0].Path)
	assert.Equal(t, detection.High, found[0].Confidence)
	assert.Equal(t, "GPIO23", found[0].Metadata[detection.MetaIRQPin])
	assert.Equal(t, []string{"/dev/live", "/dev/dead"}, opened)
	assert.Equal(t, []string{"GPIO23/GPIO24", "GPIO23/GPIO24"}, pins)
}

func TestScan_WithoutPinsSkipsProbe(t *testing.T) {
	t.Parallel()

	open := func(detection.DeviceInfo, string, string) (pn7160.Transport, error) {
		t.Fatal("opened a bus candidate without GPIO names")
		return nil, nil
	}
	candidates := []detection.DeviceInfo{{Path: "/dev/spidev0.0", Transport: "spi"}}

	found := Scan(context.Background(), &detection.Options{Mode: detection.Full}, candidates, true, open)
	require.Len(t, found, 1)
	assert.Equal(t, detection.Low, found[0].Confidence)
}

func TestScan_Passive(t *testing.T) {
	t.Parallel()

	open := func(detection.DeviceInfo, string, string) (pn7160.Transport, error) {
		t.Fatal("passive scan opened a device")
		return nil, nil
	}
	candidates := []detection.DeviceInfo{
		{Path: "/dev/nxpnfc", Transport: "kernel", Confidence: detection.Medium},
	}

	found := Scan(context.Background(), &detection.Options{Mode: detection.Passive}, candidates, false, open)
	require.Len(t, found, 1)
	assert.Equal(t, detection.Medium, found[0].Confidence)
}
