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

package polling

import (
	"context"
	"errors"
	"testing"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/frame"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, *testutil.VirtualPN7160, *events) {
	t.Helper()
	device, sim := newReadyDevice(t)
	tracker := NewTracker(device, testConfig().NotificationTimeout)
	ev := &events{}
	tracker.OnTagAppeared(ev.appeared)
	tracker.OnTagRemoved(ev.removed)
	return tracker, sim, ev
}

func TestTracker_TagAppears(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))

	require.NoError(t, tracker.Cycle(context.Background()))
	assert.Equal(t, []string{"appeared 04-A1-3F-02"}, ev.log)

	state := tracker.State()
	assert.True(t, state.Present)
	assert.Equal(t, pn7160.UID{0x04, 0xA1, 0x3F, 0x02}, state.UID)
	assert.False(t, state.LastSeen.IsZero())
}

func TestTracker_SameTagDoesNotRefire(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	sim.PlaceTag(testutil.NewVirtualNTAG213(nil))

	ctx := context.Background()
	require.NoError(t, tracker.Cycle(ctx))
	for range 3 {
		sim.Reactivate()
		require.NoError(t, tracker.Cycle(ctx))
	}

	assert.Equal(t, 1, ev.count("appeared"))
	assert.Zero(t, ev.count("removed"))
	assert.True(t, tracker.State().Present)
}

func TestTracker_RemovalFiresOnce(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))

	ctx := context.Background()
	for range 4 {
		require.NoError(t, tracker.Cycle(ctx))
	}

	assert.Equal(t, []string{"appeared 04-A1-3F-02", "removed 04-A1-3F-02"}, ev.log)
	assert.False(t, tracker.State().Present)
	assert.Nil(t, tracker.State().UID)
}

func TestTracker_DifferentTagReplacesCurrent(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))
	ctx := context.Background()
	require.NoError(t, tracker.Cycle(ctx))

	other := []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
	sim.QueueNotification(frame.GroupRFManage, frame.OpRFIntfActivated,
		testutil.BuildNFCAActivation(other, 0x00, testutil.InterfaceFrame, testutil.ProtocolT2T))
	require.NoError(t, tracker.Cycle(ctx))

	assert.Equal(t, []string{"appeared 04-A1-3F-02", "appeared 04-11-22-33-44-55-66"}, ev.log)
	assert.Equal(t, pn7160.UID(other), tracker.State().UID)
}

func TestTracker_FixedLayoutActivation(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	payload := testutil.BuildFixedActivation([]byte{0x04, 0xA1, 0x3F, 0x02})
	require.Len(t, payload, 16)
	sim.QueueNotification(frame.GroupRFManage, frame.OpRFIntfActivated, payload)

	require.NoError(t, tracker.Cycle(context.Background()))
	assert.Equal(t, []string{"appeared 04-A1-3F-02"}, ev.log)
}

func TestTracker_FeliCa(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	tag := testutil.NewVirtualFeliCa(nil)
	sim.PlaceTag(tag)

	require.NoError(t, tracker.Cycle(context.Background()))
	assert.Equal(t, []string{"appeared " + tag.UIDString()}, ev.log)
}

func TestTracker_NothingRead(t *testing.T) {
	t.Parallel()

	tests := []struct {
		queue func(sim *testutil.VirtualPN7160)
		name  string
	}{
		{
			name:  "line low",
			queue: func(*testutil.VirtualPN7160) {},
		},
		{
			name: "unrelated notification",
			queue: func(sim *testutil.VirtualPN7160) {
				sim.QueueNotification(frame.GroupRFManage, frame.OpRFDeactivate, []byte{0x03, 0x00})
			},
		},
		{
			name: "short activation",
			queue: func(sim *testutil.VirtualPN7160) {
				sim.QueueNotification(frame.GroupRFManage, frame.OpRFIntfActivated, make([]byte, 10))
			},
		},
		{
			name: "uid overflows payload",
			queue: func(sim *testutil.VirtualPN7160) {
				payload := make([]byte, 16)
				payload[10] = 9
				sim.QueueNotification(frame.GroupRFManage, frame.OpRFIntfActivated, payload)
			},
		},
		{
			name: "response instead of notification",
			queue: func(sim *testutil.VirtualPN7160) {
				sim.QueueRaw([]byte{0x40, 0x01, 0x01, 0x00})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tracker, sim, ev := newTestTracker(t)
			tt.queue(sim)

			require.NoError(t, tracker.Cycle(context.Background()))
			assert.Empty(t, ev.log)
			assert.False(t, tracker.State().Present)
		})
	}
}

func TestTracker_TransportErrorReturned(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))
	ctx := context.Background()
	require.NoError(t, tracker.Cycle(ctx))

	sim.QueueJunk(1)
	sim.SetReadError(errors.New("bus fault"))
	err := tracker.Cycle(ctx)
	require.ErrorIs(t, err, pn7160.ErrTransportRead)

	// Nothing was read, so the tag is gone
	assert.Equal(t, 1, ev.count("removed"))
}

func TestTracker_BindingsFollowTag(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	var outputs []string
	match := NewBinding(pn7160.UID{0x04, 0xA1, 0x3F, 0x02}, func(v bool) {
		outputs = append(outputs, "match "+map[bool]string{true: "on", false: "off"}[v])
	})
	other := NewBinding(pn7160.UID{0xDE, 0xAD, 0xBE, 0xEF}, func(v bool) {
		outputs = append(outputs, "other "+map[bool]string{true: "on", false: "off"}[v])
	})
	tracker.AddBinding(match)
	tracker.AddBinding(other)
	tracker.OnTagRemoved(func(string) { outputs = append(outputs, "removed") })

	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))
	ctx := context.Background()
	require.NoError(t, tracker.Cycle(ctx))
	sim.Reactivate()
	require.NoError(t, tracker.Cycle(ctx))
	require.NoError(t, tracker.Cycle(ctx))
	require.NoError(t, tracker.Cycle(ctx))

	assert.Equal(t, []string{"match on", "other off", "removed", "match off"}, outputs)
	assert.False(t, match.State())
	assert.Equal(t, []string{"appeared 04-A1-3F-02", "removed 04-A1-3F-02"}, ev.log)
}

func TestTracker_AppearedFiresBeforeBindings(t *testing.T) {
	t.Parallel()

	tracker, sim, _ := newTestTracker(t)
	var order []string
	tracker.AddBinding(NewBinding(pn7160.UID{0x04, 0xA1, 0x3F, 0x02}, func(bool) { order = append(order, "binding") }))
	tracker.OnTagAppeared(func(string) { order = append(order, "event") })

	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))
	require.NoError(t, tracker.Cycle(context.Background()))
	assert.Equal(t, []string{"event", "binding"}, order)
}

func TestTracker_CallbackPanicRecovered(t *testing.T) {
	t.Parallel()

	tracker, sim, ev := newTestTracker(t)
	panicky := NewTracker(tracker.device, testConfig().NotificationTimeout)
	panicky.OnTagAppeared(func(string) { panic("boom") })
	panicky.OnTagAppeared(ev.appeared)

	sim.PlaceTag(testutil.NewVirtualISODEPCard(nil))
	require.NotPanics(t, func() {
		require.NoError(t, panicky.Cycle(context.Background()))
	})
	assert.Equal(t, []string{"appeared 04-A1-3F-02"}, ev.log)
}
