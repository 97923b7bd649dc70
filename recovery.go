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
	"fmt"
	"time"
)

// ClearReady drains frames left behind on an asserted ready line. Up to
// MaxDrainFrames frames are read and discarded; if the line is still
// asserted afterwards the controller is hard reset. It is a no-op when the
// line is already low.
func (d *Device) ClearReady(ctx context.Context) error {
	if !d.transport.Ready() {
		return nil
	}

	d.Log().Debug().Msg("clearing stuck ready line")
	drained := 0
	for drained < d.config.MaxDrainFrames && d.transport.Ready() {
		if _, _, err := d.readFrame("drain"); err != nil {
			d.Log().Debug().Err(err).Msg("drain read failed")
			break
		}
		drained++
		time.Sleep(d.config.DrainPause)
	}

	if !d.transport.Ready() {
		d.Log().Debug().Int("frames", drained).Msg("ready line cleared")
		return nil
	}

	d.Log().Warn().Int("frames", drained).Msg("ready line still asserted after drain, performing hard reset")
	return d.HardReset(ctx)
}

// HardReset power cycles the controller through VEN and discards the
// notification it emits on boot. A missing notification is logged, not
// returned; the next command will surface a dead controller.
func (d *Device) HardReset(ctx context.Context) error {
	d.Log().Debug().Msg("hard reset via VEN")

	if err := d.transport.SetReset(false); err != nil {
		return fmt.Errorf("hard reset: drive VEN low: %w", err)
	}
	if err := sleepCtx(ctx, d.config.ResetPulse); err != nil {
		_ = d.transport.SetReset(true)
		return err
	}
	if err := d.transport.SetReset(true); err != nil {
		return fmt.Errorf("hard reset: drive VEN high: %w", err)
	}
	time.Sleep(d.config.ResetSettle)

	if !d.waitReady(d.config.ResetNotificationWait) {
		d.Log().Warn().Msg("no notification after hard reset")
		return nil
	}
	if _, _, err := d.readFrame("reset notification"); err != nil {
		d.Log().Debug().Err(err).Msg("post-reset notification unreadable")
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("hard reset cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
