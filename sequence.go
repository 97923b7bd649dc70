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
)

// Step identifies one stage of the initialization sequence.
type Step int

const (
	StepReset Step = iota
	StepInit
	StepDiscoverMap
	StepDiscover
)

func (s Step) String() string {
	switch s {
	case StepReset:
		return "core reset"
	case StepInit:
		return "core init"
	case StepDiscoverMap:
		return "discover map"
	case StepDiscover:
		return "start discovery"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Init runs the initialization sequence: CORE_RESET, CORE_INIT,
// RF_DISCOVER_MAP and RF_DISCOVER, in that order. It stops at the first
// failure and reports it as a *SetupError. Nothing is retried here.
//
// A stuck ready line is cleared before the first command.
func (d *Device) Init(ctx context.Context) error {
	if err := d.ClearReady(ctx); err != nil {
		return &SetupError{Step: StepReset, Err: err}
	}

	steps := []struct {
		run  func(context.Context) error
		step Step
	}{
		{step: StepReset, run: d.CoreReset},
		{step: StepInit, run: func(ctx context.Context) error {
			_, err := d.CoreInit(ctx)
			return err
		}},
		{step: StepDiscoverMap, run: d.DiscoverMap},
		{step: StepDiscover, run: d.StartDiscovery},
	}

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			d.Log().Warn().Err(err).Stringer("step", s.step).Msg("initialization aborted")
			return &SetupError{Step: s.step, Err: err}
		}
	}
	return nil
}

// ResumeDiscovery re-runs CORE_INIT, RF_DISCOVER_MAP and RF_DISCOVER after a
// bare CORE_RESET, which leaves the controller idle.
func (d *Device) ResumeDiscovery(ctx context.Context) error {
	if _, err := d.CoreInit(ctx); err != nil {
		return &SetupError{Step: StepInit, Err: err}
	}
	if err := d.DiscoverMap(ctx); err != nil {
		return &SetupError{Step: StepDiscoverMap, Err: err}
	}
	if err := d.StartDiscovery(ctx); err != nil {
		return &SetupError{Step: StepDiscover, Err: err}
	}
	return nil
}

// Setup brings a freshly powered controller up: hard reset via VEN followed
// by Init.
func (d *Device) Setup(ctx context.Context) error {
	if err := d.HardReset(ctx); err != nil {
		return &SetupError{Step: StepReset, Err: err}
	}
	return d.Init(ctx)
}
