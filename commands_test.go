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
	"testing"

	"github.com/ZaparooProject/go-pn7160/internal/frame"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreReset(t *testing.T) {
	t.Parallel()

	t.Run("response then notification", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.QueueFrame(
			rspFrame(t, frame.GroupCore, frame.OpCoreReset, 0x00),
			ntfFrame(t, frame.GroupCore, frame.OpCoreReset, 0x02, 0x01),
		)

		require.NoError(t, device.CoreReset(context.Background()))
		require.Len(t, mock.Writes, 1)
		assert.Equal(t, []byte{0x20, 0x00, 0x01, 0x01}, mock.Writes[0])
		assert.Zero(t, mock.Pending())
	})

	t.Run("missing notification fails", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.QueueFrame(rspFrame(t, frame.GroupCore, frame.OpCoreReset, 0x00))

		err := device.CoreReset(context.Background())
		require.ErrorIs(t, err, ErrTimeout)
		assert.Contains(t, err.Error(), "CORE_RESET_NTF")
	})

	t.Run("other notification fails", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.QueueFrame(
			rspFrame(t, frame.GroupCore, frame.OpCoreReset, 0x00),
			ntfFrame(t, frame.GroupRFManage, frame.OpRFDeactivate, 0x00),
		)

		err := device.CoreReset(context.Background())
		require.ErrorIs(t, err, ErrResponseMismatch)
		assert.True(t, IsDesync(err))
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		device, mock := createMockDeviceWithTransport(t)
		mock.QueueFrame(rspFrame(t, frame.GroupCore, frame.OpCoreReset, 0x01))

		err := device.CoreReset(context.Background())
		require.ErrorIs(t, err, ErrStatus)
		assert.Zero(t, mock.Pending())
	})
}

func TestCoreInit_Identity(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	_, ok := device.Identity()
	assert.False(t, ok)

	payload := []byte{0x00, 0, 0, 0, 0, 0, 0, 0, 0, 0x12, 0x01, 0x02, 0x03}
	mock.QueueFrame(rspFrame(t, frame.GroupCore, frame.OpCoreInit, payload...))

	id, err := device.CoreInit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{ModelID: 0x12, FirmwareMajor: 1, FirmwareMinor: 2, FirmwarePatch: 3}, id)
	assert.Equal(t, "1.2.3", id.Firmware())
	assert.Equal(t, "model 0x12 firmware 1.2.3", id.String())

	stored, ok := device.Identity()
	require.True(t, ok)
	assert.Equal(t, id, stored)
	assert.Equal(t, []byte{0x20, 0x01, 0x00}, mock.Writes[0])
}

func TestCoreInit_ShortResponse(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.QueueFrame(rspFrame(t, frame.GroupCore, frame.OpCoreInit, make([]byte, 12)...))

	_, err := device.CoreInit(context.Background())
	require.ErrorIs(t, err, ErrParse)
	_, ok := device.Identity()
	assert.False(t, ok, "identity is only recorded from a complete response")
}

func TestDiscoverCommands_Payloads(t *testing.T) {
	t.Parallel()

	device, mock := createMockDeviceWithTransport(t)
	mock.QueueFrame(
		rspFrame(t, frame.GroupRFManage, frame.OpRFDiscoverMap, 0x00),
		rspFrame(t, frame.GroupRFManage, frame.OpRFDiscover, 0x00),
	)

	require.NoError(t, device.DiscoverMap(context.Background()))
	require.NoError(t, device.StartDiscovery(context.Background()))

	require.Len(t, mock.Writes, 2)
	assert.Equal(t, []byte{0x21, 0x00, 0x07, 0x02, 0x00, 0x04, 0x01, 0x02, 0x03, 0x01}, mock.Writes[0])
	assert.Equal(t, []byte{0x21, 0x03, 0x05, 0x02, 0x00, 0x01, 0x02, 0x01}, mock.Writes[1])
}

func TestWithDiscovery_CustomPayload(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN7160()
	device, err := New(sim, WithConfig(fastTestConfig()), WithDiscovery(DiscoveryConfig{
		Mappings:     []DiscoverMapping{{Technology: frame.TechNFCAPassivePoll, Protocol: frame.ProtocolT2T, Mode: frame.MapModePoll}},
		Technologies: []DiscoverTechnology{{Technology: frame.TechNFCAPassivePoll, Mode: frame.MapModePoll}},
	}))
	require.NoError(t, err)

	require.NoError(t, device.DiscoverMap(context.Background()))
	require.NoError(t, device.StartDiscovery(context.Background()))

	cmds := sim.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, []byte{0x01, 0x00, 0x02, 0x01}, cmds[0].Payload)
	assert.Equal(t, []byte{0x01, 0x00, 0x01}, cmds[1].Payload)
	assert.True(t, sim.Discovering())
}

func TestDiscoveryConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  DiscoveryConfig
		wantErr bool
	}{
		{name: "default", config: DefaultDiscoveryConfig()},
		{name: "no mappings", config: DiscoveryConfig{Technologies: DefaultDiscoveryConfig().Technologies}, wantErr: true},
		{name: "no technologies", config: DiscoveryConfig{Mappings: DefaultDiscoveryConfig().Mappings}, wantErr: true},
		{
			name: "too many mappings",
			config: DiscoveryConfig{
				Mappings:     make([]DiscoverMapping, 85),
				Technologies: DefaultDiscoveryConfig().Technologies,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConfiguration)
				return
			}
			require.NoError(t, err)
		})
	}
}
