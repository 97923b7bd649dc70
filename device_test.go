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
	"bytes"
	"context"
	"testing"
	"time"

	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedTransport struct {
	*MockTransport
}

func (namedTransport) Type() TransportType { return TransportSPI }
func (namedTransport) Port() string        { return "/dev/spidev0.0" }

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		transport Transport
		opts      []Option
		wantErr   bool
	}{
		{name: "defaults", transport: NewMockTransport()},
		{name: "nil transport", wantErr: true},
		{name: "nil config", transport: NewMockTransport(), opts: []Option{WithConfig(nil)}, wantErr: true},
		{
			name:      "zero response timeout",
			transport: NewMockTransport(),
			opts:      []Option{WithResponseTimeout(0)},
			wantErr:   true,
		},
		{
			name:      "empty discovery",
			transport: NewMockTransport(),
			opts:      []Option{WithDiscovery(DiscoveryConfig{})},
			wantErr:   true,
		},
		{
			name:      "inverted ready schedule",
			transport: NewMockTransport(),
			opts: []Option{func(d *Device) error {
				d.config.ReadyPollMax = d.config.ReadyPollInitial / 2
				return nil
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			device, err := New(tt.transport, tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrConfiguration)
				assert.Nil(t, device)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, device)
		})
	}
}

func TestDefaultDeviceConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultDeviceConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.ResponseTimeout)
	assert.Equal(t, time.Second, cfg.ResetNotificationTimeout)
	assert.Equal(t, time.Millisecond, cfg.ReadyPollInitial)
	assert.Equal(t, 10*time.Millisecond, cfg.ReadyPollMax)
	assert.Equal(t, 10*time.Millisecond, cfg.ResetPulse)
	assert.Equal(t, 5, cfg.MaxDrainFrames)
}

func TestWithConfig_Copies(t *testing.T) {
	t.Parallel()

	cfg := fastTestConfig()
	device, err := New(NewMockTransport(), WithConfig(cfg))
	require.NoError(t, err)

	cfg.ResponseTimeout = time.Hour
	assert.Equal(t, 50*time.Millisecond, device.Config().ResponseTimeout)
}

func TestDevice_TransportDescription(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	device, err := New(namedTransport{NewMockTransport()})
	require.NoError(t, err)
	assert.Equal(t, TransportSPI, device.kind)
	assert.Equal(t, "/dev/spidev0.0", device.port)

	plain, err := New(NewMockTransport(), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	assert.Equal(t, TransportMock, plain.kind)

	plain.Log().Info().Msg("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestDevice_TraceCarriesPort(t *testing.T) {
	t.Parallel()

	device, err := New(namedTransport{NewMockTransport()}, WithConfig(fastTestConfig()))
	require.NoError(t, err)

	_, err = device.CoreInit(context.Background())
	trace := GetTrace(err)
	require.NotNil(t, trace)
	assert.Equal(t, "spi", trace.Transport)
	assert.Equal(t, "/dev/spidev0.0", trace.Port)
	require.Len(t, trace.Trace, 2)
	assert.Equal(t, TraceTX, trace.Trace[0].Direction)
	assert.Equal(t, "TIMEOUT: CORE_INIT_RSP", trace.Trace[1].Note)
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualPN7160()
	device, err := New(sim)
	require.NoError(t, err)
	assert.Same(t, Transport(sim), device.Transport())

	require.NoError(t, device.Close())
	require.Error(t, device.Close(), "the simulator rejects a second close")

	mock := NewMockTransport()
	device, err = New(mock)
	require.NoError(t, err)
	require.NoError(t, mock.Close())
	require.Error(t, device.Close())
}
