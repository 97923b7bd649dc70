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
	"github.com/ZaparooProject/go-pn7160"
)

// Binding asserts a boolean output while a specific tag is in the field.
//
// The output is only driven on change, so a binding that stays unmatched
// across many cycles publishes false once.
type Binding struct {
	output    func(bool)
	uid       pn7160.UID
	matched   bool
	state     bool
	published bool
}

// NewBinding creates a binding for uid that reports through output.
// output may be nil when only State is consulted.
func NewBinding(uid pn7160.UID, output func(bool)) *Binding {
	return &Binding{
		uid:    append(pn7160.UID(nil), uid...),
		output: output,
	}
}

// UID returns the expected tag UID.
func (b *Binding) UID() pn7160.UID {
	return b.uid
}

// State returns the last published output.
func (b *Binding) State() bool {
	return b.state
}

func (b *Binding) beginCycle() {
	b.matched = false
}

// process matches the binding against uid and asserts the output on a match.
func (b *Binding) process(uid pn7160.UID) bool {
	if !b.uid.Equal(uid) {
		return false
	}
	b.matched = true
	b.publish(true)
	return true
}

// endCycle deasserts the output if the binding was not matched this cycle.
func (b *Binding) endCycle() {
	if !b.matched {
		b.publish(false)
	}
}

// deassert drops an asserted output, used when the tag leaves the field.
func (b *Binding) deassert() {
	if b.state {
		b.publish(false)
	}
}

func (b *Binding) publish(state bool) {
	if b.published && b.state == state {
		return
	}
	b.state = state
	b.published = true
	if b.output != nil {
		b.output(state)
	}
}
