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

package testing

import (
	"testing"

	"github.com/ZaparooProject/go-pn7160/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitteryConnection_PassThrough(t *testing.T) {
	t.Parallel()

	sim := NewVirtualPN7160()
	conn := NewJitteryConnection(sim, JitterConfig{Seed: 12345})

	raw, err := frame.EncodeCommand(frame.GroupCore, frame.OpCoreInit, nil)
	require.NoError(t, err)
	require.NoError(t, conn.Write(raw))
	require.True(t, conn.Ready())

	head, err := conn.Read(frame.HeaderSize)
	require.NoError(t, err)
	assert.Equal(t, byte(0x40), head[0])
	assert.Zero(t, conn.Faults())
}

func TestJitteryConnection_AlwaysFails(t *testing.T) {
	t.Parallel()

	sim := NewVirtualPN7160()
	sim.QueueJunk(1)
	conn := NewJitteryConnection(sim, JitterConfig{Seed: 7, ReadFailRate: 1, WriteFailRate: 1})

	_, err := conn.Read(3)
	require.ErrorIs(t, err, ErrInjected)
	require.ErrorIs(t, conn.Write([]byte{0x20, 0x01, 0x00}), ErrInjected)
	assert.Equal(t, 2, conn.Faults())
	assert.Positive(t, sim.Pending(), "faulted read consumes nothing")
	assert.Empty(t, sim.Writes())
}

func TestJitteryConnection_SpuriousReady(t *testing.T) {
	t.Parallel()

	sim := NewVirtualPN7160()
	conn := NewJitteryConnection(sim, JitterConfig{Seed: 99, SpuriousReadyRate: 1})
	assert.True(t, conn.Ready())
	assert.False(t, sim.Ready())
}
