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

package pn7160

import (
	"context"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-pn7160/internal/frame"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Order(t *testing.T) {
	t.Parallel()

	device, sim := newTestDevice(t)
	require.NoError(t, device.Init(context.Background()))

	cmds := sim.Commands()
	require.Len(t, cmds, 4)
	want := [][2]byte{
		{frame.GroupCore, frame.OpCoreReset},
		{frame.GroupCore, frame.OpCoreInit},
		{frame.GroupRFManage, frame.OpRFDiscoverMap},
		{frame.GroupRFManage, frame.OpRFDiscover},
	}
	for i, c := range cmds {
		assert.Equal(t, want[i], [2]byte{c.GroupID, c.OpcodeID}, "command %d: %s", i, c)
	}

	id, ok := device.Identity()
	require.True(t, ok)
	assert.Equal(t, byte(testutil.DefaultModelID), id.ModelID)
	assert.Equal(t, "2.5.0", id.Firmware())
	assert.True(t, sim.Discovering())
	assert.Zero(t, sim.ResetCount(), "a quiet line needs no hard reset")
}

func TestInit_StopsAtFailedStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setup    func(sim *testutil.VirtualPN7160)
		name     string
		wantCmds int
		wantStep Step
	}{
		{
			name: "reset rejected",
			setup: func(sim *testutil.VirtualPN7160) {
				sim.SetStatus(frame.GroupCore, frame.OpCoreReset, testutil.StatusRejected)
			},
			wantStep: StepReset,
			wantCmds: 1,
		},
		{
			name:     "reset notification missing",
			setup:    func(sim *testutil.VirtualPN7160) { sim.SkipResetNotification(true) },
			wantStep: StepReset,
			wantCmds: 1,
		},
		{
			name: "init failed",
			setup: func(sim *testutil.VirtualPN7160) {
				sim.SetStatus(frame.GroupCore, frame.OpCoreInit, testutil.StatusFailed)
			},
			wantStep: StepInit,
			wantCmds: 2,
		},
		{
			name: "map silent",
			setup: func(sim *testutil.VirtualPN7160) {
				sim.SetSilent(frame.GroupRFManage, frame.OpRFDiscoverMap, true)
			},
			wantStep: StepDiscoverMap,
			wantCmds: 3,
		},
		{
			name: "discover rejected",
			setup: func(sim *testutil.VirtualPN7160) {
				sim.SetStatus(frame.GroupRFManage, frame.OpRFDiscover, testutil.StatusRejected)
			},
			wantStep: StepDiscover,
			wantCmds: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, sim := newTestDevice(t)
			tt.setup(sim)

			err := device.Init(context.Background())
			require.ErrorIs(t, err, ErrSetupFailed)

			var se *SetupError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStep, se.Step)
			assert.Len(t, sim.Commands(), tt.wantCmds, "nothing is sent after the failing step")
			assert.False(t, sim.Discovering())
		})
	}
}

func TestInit_ClearsStuckLineFirst(t *testing.T) {
	t.Parallel()

	device, sim := newTestDevice(t)
	sim.QueueJunk(2)

	require.NoError(t, device.Init(context.Background()))
	assert.Zero(t, sim.ResetCount())
	assert.Equal(t, 1, sim.GetCommandCount(frame.GroupCore, frame.OpCoreReset))
}

func TestSetup_HardResetsFirst(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.QueueFrame(
		rspFrame(t, frame.GroupCore, frame.OpCoreReset, 0x00),
		ntfFrame(t, frame.GroupCore, frame.OpCoreReset, 0x02),
	)

	// The VEN cycle clears anything queued before it, so Init sees a dead line.
	err := device.Setup(context.Background())
	require.ErrorIs(t, err, ErrSetupFailed)
	assert.Equal(t, []bool{false, true}, mock.ResetLog)
	assert.Len(t, mock.Writes, 1, "only CORE_RESET was attempted")
}

func TestSetup_Simulator(t *testing.T) {
	t.Parallel()

	device, sim := newTestDevice(t)
	require.NoError(t, device.Setup(context.Background()))

	assert.Equal(t, 1, sim.ResetCount())
	assert.Zero(t, sim.Pending(), "boot notification consumed")
	assert.True(t, sim.Discovering())
}

func TestResumeDiscovery(t *testing.T) {
	t.Parallel()

	device, sim := newTestDevice(t)
	require.NoError(t, device.CoreReset(context.Background()))
	assert.False(t, sim.Discovering())

	sim.ClearCommandLog()
	require.NoError(t, device.ResumeDiscovery(context.Background()))
	assert.False(t, sim.HasCommand(frame.GroupCore, frame.OpCoreReset))
	assert.True(t, sim.Discovering())

	sim.SetWriteError(errors.New("bus fault"))
	err := device.ResumeDiscovery(context.Background())
	var se *SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepInit, se.Step)
	assert.ErrorIs(t, err, ErrTransportWrite)
}

func TestStep_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "core reset", StepReset.String())
	assert.Equal(t, "core init", StepInit.String())
	assert.Equal(t, "discover map", StepDiscoverMap.String())
	assert.Equal(t, "start discovery", StepDiscover.String())
	assert.Equal(t, "step(9)", Step(9).String())
}
