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

package serial

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnplugged = errors.New("device unplugged")

// simPort is a serial bridge in front of the controller simulator. Reads
// deliver at most maxChunk bytes to exercise frame reassembly.
type simPort struct {
	sim      *testutil.VirtualPN7160
	readErr  error
	dtr      []bool
	maxChunk int
	closed   bool
}

func (p *simPort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	n := min(len(b), p.sim.Pending())
	if p.maxChunk > 0 {
		n = min(n, p.maxChunk)
	}
	if n == 0 {
		return 0, nil
	}
	data, err := p.sim.Read(n)
	if err != nil {
		return 0, err
	}
	return copy(b, data), nil
}

func (p *simPort) Write(b []byte) (int, error) {
	if err := p.sim.Write(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *simPort) SetDTR(dtr bool) error {
	p.dtr = append(p.dtr, dtr)
	return p.sim.SetReset(dtr)
}

func (*simPort) SetReadTimeout(time.Duration) error { return nil }
func (*simPort) ResetInputBuffer() error            { return nil }

func (p *simPort) Close() error {
	p.closed = true
	return nil
}

func newSimTransport(t *testing.T, maxChunk int) (*Transport, *simPort, *testutil.VirtualPN7160) {
	t.Helper()
	sim := testutil.NewVirtualPN7160()
	port := &simPort{sim: sim, maxChunk: maxChunk}
	transport, err := NewWithPort(port, "/dev/ttyACM0")
	require.NoError(t, err)
	return transport, port, sim
}

func TestTransport_SetupOverBridge(t *testing.T) {
	t.Parallel()

	transport, port, sim := newSimTransport(t, 2)
	cfg := pn7160.DefaultDeviceConfig()
	cfg.ResetPulse = time.Millisecond
	cfg.ResetSettle = time.Millisecond
	device, err := pn7160.New(transport, pn7160.WithConfig(cfg))
	require.NoError(t, err)

	require.NoError(t, device.Setup(context.Background()))
	assert.True(t, sim.Discovering())
	assert.Equal(t, []bool{true, false, true}, port.dtr, "DTR asserted on open, then pulsed")

	id, ok := device.Identity()
	require.True(t, ok)
	assert.Equal(t, "2.5.0", id.Firmware())
}

func TestTransport_ReadWaitsForWholeFrame(t *testing.T) {
	t.Parallel()

	transport, _, sim := newSimTransport(t, 1)
	sim.QueueNotification(0x01, 0x06, []byte{0x03, 0x00})
	require.True(t, transport.Ready())

	head, err := transport.Read(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61, 0x06, 0x02}, head)
	body, err := transport.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00}, body)
	assert.False(t, transport.Ready())
}

func TestTransport_ShortRead(t *testing.T) {
	t.Parallel()

	transport, _, sim := newSimTransport(t, 0)
	sim.QueueRaw([]byte{0x60, 0x00})

	start := time.Now()
	_, err := transport.Read(3)
	require.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), readTimeout())
}

func TestTransport_ResetDropsBuffered(t *testing.T) {
	t.Parallel()

	transport, _, sim := newSimTransport(t, 0)
	sim.QueueJunk(1)
	require.True(t, transport.Ready())

	require.NoError(t, transport.SetReset(false))
	assert.False(t, transport.Ready())
	require.NoError(t, transport.SetReset(true))
	assert.True(t, transport.Ready(), "boot notification after power up")
}

func TestTransport_ReadError(t *testing.T) {
	t.Parallel()

	transport, port, _ := newSimTransport(t, 0)
	port.readErr = errUnplugged

	assert.False(t, transport.Ready())
	_, err := transport.Read(3)
	require.ErrorIs(t, err, errUnplugged)
}

func TestTransport_Close(t *testing.T) {
	t.Parallel()

	transport, port, _ := newSimTransport(t, 0)
	assert.Equal(t, pn7160.TransportSerial, transport.Type())
	assert.Equal(t, "/dev/ttyACM0", transport.Port())

	require.NoError(t, transport.Close())
	assert.True(t, port.closed)
	require.ErrorIs(t, transport.Close(), pn7160.ErrTransportClosed)
	require.ErrorIs(t, transport.Write([]byte{0x20}), pn7160.ErrTransportClosed)
	assert.False(t, transport.Ready())
}
