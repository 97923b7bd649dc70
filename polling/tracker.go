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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/internal/frame"
)

// TagCallback receives a tag UID formatted as "04-A1-3F-02".
type TagCallback func(uid string)

// Tracker follows a single tag in the field from activation notifications.
//
// Thread Safety: Tracker is NOT thread-safe. Cycle and the registration
// methods must be called from the goroutine that owns the device.
type Tracker struct {
	device              *pn7160.Device
	bindings            []*Binding
	onAppeared          []TagCallback
	onRemoved           []TagCallback
	state               TagState
	notificationTimeout time.Duration
}

// NewTracker creates a tracker reading notifications from device.
func NewTracker(device *pn7160.Device, notificationTimeout time.Duration) *Tracker {
	if notificationTimeout <= 0 {
		notificationTimeout = DefaultConfig().NotificationTimeout
	}
	return &Tracker{
		device:              device,
		notificationTimeout: notificationTimeout,
	}
}

// AddBinding registers a binding evaluated on every cycle.
func (t *Tracker) AddBinding(b *Binding) {
	t.bindings = append(t.bindings, b)
}

// OnTagAppeared registers a callback fired when a new tag enters the field.
// Callbacks run synchronously in registration order.
func (t *Tracker) OnTagAppeared(cb TagCallback) {
	t.onAppeared = append(t.onAppeared, cb)
}

// OnTagRemoved registers a callback fired once per tag departure.
func (t *Tracker) OnTagRemoved(cb TagCallback) {
	t.onRemoved = append(t.onRemoved, cb)
}

// State returns the current tag state
func (t *Tracker) State() TagState {
	s := t.state
	s.UID = append(pn7160.UID(nil), t.state.UID...)
	return s
}

// Cycle runs one presence cycle. Timeouts, desyncs, unrelated notifications
// and malformed activations count as nothing read. Transport errors also
// count as nothing read but are returned so the caller can throttle.
func (t *Tracker) Cycle(ctx context.Context) error {
	for _, b := range t.bindings {
		b.beginCycle()
	}

	uid, err := t.read(ctx)
	switch {
	case uid != nil:
		t.processTag(uid)
	case t.state.Present:
		t.removeTag()
	}

	for _, b := range t.bindings {
		b.endCycle()
	}
	return err
}

func (t *Tracker) read(ctx context.Context) (pn7160.UID, error) {
	if !t.device.Ready() {
		return nil, nil
	}

	ntf, err := t.device.AwaitNotification(ctx, t.notificationTimeout)
	if err != nil {
		if errors.Is(err, pn7160.ErrTimeout) || pn7160.IsDesync(err) {
			t.device.Log().Debug().Err(err).Msg("no notification this cycle")
			return nil, nil
		}
		return nil, fmt.Errorf("read notification: %w", err)
	}
	if !ntf.Is(frame.GroupRFManage, frame.OpRFIntfActivated) {
		t.device.Log().Debug().Stringer("ntf", ntf).Msg("ignoring notification")
		return nil, nil
	}

	act, err := pn7160.ParseActivation(ntf.Payload)
	if err != nil {
		t.device.Log().Warn().Err(err).Hex("payload", ntf.Payload).Msg("malformed activation notification")
		return nil, nil
	}
	return act.UID, nil
}

func (t *Tracker) processTag(uid pn7160.UID) {
	t.state.LastSeen = time.Now()

	if t.state.Present && t.state.UID.Equal(uid) {
		t.evaluate(uid)
		return
	}

	t.state.UID = uid
	t.state.Present = true
	formatted := uid.String()
	t.device.Log().Info().Str("uid", formatted).Msg("tag appeared")
	for _, cb := range t.onAppeared {
		t.safeCall(cb, formatted, "OnTagAppeared")
	}
	t.evaluate(uid)
}

func (t *Tracker) evaluate(uid pn7160.UID) {
	for _, b := range t.bindings {
		b.process(uid)
	}
}

func (t *Tracker) removeTag() {
	formatted := t.state.UID.String()
	t.device.Log().Info().Str("uid", formatted).Msg("tag removed")
	for _, cb := range t.onRemoved {
		t.safeCall(cb, formatted, "OnTagRemoved")
	}
	for _, b := range t.bindings {
		b.deassert()
	}
	t.state.UID = nil
	t.state.Present = false
}

// safeCall executes a callback with panic recovery
func (t *Tracker) safeCall(cb TagCallback, uid, name string) {
	defer func() {
		if r := recover(); r != nil {
			t.device.Log().Error().Str("callback", name).Interface("panic", r).Msg("callback panicked")
		}
	}()
	cb(uid)
}
