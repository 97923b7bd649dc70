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
	"time"

	"github.com/ZaparooProject/go-pn7160"
)

// TagState is the tracker's view of the field.
type TagState struct {
	LastSeen time.Time
	UID      pn7160.UID
	Present  bool
}

// HealthState is owned by the HealthMonitor.
type HealthState struct {
	LastCheck           time.Time
	Interval            time.Duration
	ConsecutiveFailures int
	MaxFailures         int
	Healthy             bool
	AutoRecover         bool
}

// Status is a point-in-time snapshot of a Session, safe to read from any goroutine.
type Status struct {
	// Err is the surfaced fault: a setup failure or an unhealthy controller
	Err      error
	Identity pn7160.Identity
	Tag      TagState
	Health   HealthState
	Throttle time.Duration
	Retries  int
	Ready    bool
}
