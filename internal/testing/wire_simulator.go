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

// Package testing provides test utilities including a wire-level PN7160 simulator.
//
// The VirtualPN7160 type satisfies the driver's Transport interface and
// simulates the controller at the NCI control packet level: it answers the
// CORE and RF management commands the driver issues, raises its IRQ line
// while a frame is pending and models VEN power cycling.
package testing

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-pn7160/internal/frame"
	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// NCI status codes returned by the simulator
const (
	StatusOK          = 0x00
	StatusRejected    = 0x01
	StatusFailed      = 0x03
	StatusSyntaxError = 0x05
)

var (
	// ErrNoData is returned when the host reads with nothing pending
	ErrNoData = errors.New("simulator: no data pending")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("simulator: closed")
)

// Command is a decoded command frame received from the host.
type Command struct {
	Payload  []byte
	GroupID  byte
	OpcodeID byte
}

// VirtualPN7160 simulates a PN7160 controller.
type VirtualPN7160 struct {
	tag        *VirtualTag
	readErr    error
	writeErr   error
	status     map[[2]byte]byte
	silent     map[[2]byte]bool
	override   map[[2]byte][][]byte
	out        []byte
	writes     [][]byte
	commands   []Command
	identity   [4]byte
	resets     int
	mu         syncutil.Mutex
	venHigh    bool
	dead       bool
	stuck      bool
	noResetNtf bool
	discover   bool
	closed     bool
}

// NewVirtualPN7160 creates a powered simulator with nothing pending.
func NewVirtualPN7160() *VirtualPN7160 {
	return &VirtualPN7160{
		status:   make(map[[2]byte]byte),
		silent:   make(map[[2]byte]bool),
		override: make(map[[2]byte][][]byte),
		identity: [4]byte{DefaultModelID, DefaultFirmwareMajor, DefaultFirmwareMinor, DefaultFirmwarePatch},
		venHigh:  true,
	}
}

// Write receives one command frame from the host.
func (v *VirtualPN7160) Write(data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.writeErr != nil {
		return v.writeErr
	}
	v.writes = append(v.writes, append([]byte(nil), data...))

	f, err := frame.Decode(data)
	if err != nil || f.Type != frame.TypeCommand {
		return nil
	}
	v.commands = append(v.commands, Command{GroupID: f.GroupID, OpcodeID: f.OpcodeID, Payload: f.Payload})

	if !v.venHigh || v.dead {
		return nil
	}
	key := [2]byte{f.GroupID, f.OpcodeID}
	if v.silent[key] {
		return nil
	}
	if frames, ok := v.override[key]; ok {
		delete(v.override, key)
		for _, raw := range frames {
			v.out = append(v.out, raw...)
		}
		return nil
	}

	v.handleCommand(f, v.status[key])
	return nil
}

func (v *VirtualPN7160) handleCommand(f frame.Frame, status byte) {
	switch {
	case f.GroupID == frame.GroupCore && f.OpcodeID == frame.OpCoreReset:
		v.respond(f, []byte{status})
		v.discover = false
		if status == StatusOK && !v.noResetNtf {
			v.notify(frame.GroupCore, frame.OpCoreReset, BuildResetNotification(0x02))
		}
	case f.GroupID == frame.GroupCore && f.OpcodeID == frame.OpCoreInit:
		if status != StatusOK {
			v.respond(f, []byte{status})
			return
		}
		id := v.identity
		v.respond(f, BuildCoreInitResponse(status, id[0], id[1], id[2], id[3]))
	case f.GroupID == frame.GroupRFManage && f.OpcodeID == frame.OpRFDiscoverMap:
		v.respond(f, []byte{status})
	case f.GroupID == frame.GroupRFManage && f.OpcodeID == frame.OpRFDiscover:
		v.respond(f, []byte{status})
		if status == StatusOK {
			v.discover = true
			v.activate()
		}
	case f.GroupID == frame.GroupRFManage && f.OpcodeID == frame.OpRFDeactivate:
		v.respond(f, []byte{status})
		if status == StatusOK {
			v.notify(frame.GroupRFManage, frame.OpRFDeactivate, []byte{0x03, 0x00})
			v.discover = true
			v.activate()
		}
	default:
		v.respond(f, []byte{StatusSyntaxError})
	}
}

func (v *VirtualPN7160) respond(cmd frame.Frame, payload []byte) {
	raw, _ := frame.Encode(frame.Frame{
		Type: frame.TypeResponse, GroupID: cmd.GroupID, OpcodeID: cmd.OpcodeID, Payload: payload,
	})
	v.out = append(v.out, raw...)
}

func (v *VirtualPN7160) notify(gid, oid byte, payload []byte) {
	raw, _ := frame.Encode(frame.Frame{Type: frame.TypeNotification, GroupID: gid, OpcodeID: oid, Payload: payload})
	v.out = append(v.out, raw...)
}

// activate emits an activation for the tag in the field while discovering.
// Activation ends discovery until the host restarts it.
func (v *VirtualPN7160) activate() {
	if !v.discover || v.tag == nil || !v.tag.Present {
		return
	}
	v.notify(frame.GroupRFManage, frame.OpRFIntfActivated, v.tag.ActivationPayload())
	v.discover = false
}

// Read returns the next n pending bytes. A stuck IRQ line with nothing
// pending yields zero bytes, which decode as an empty data packet.
func (v *VirtualPN7160) Read(n int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	if v.readErr != nil {
		return nil, v.readErr
	}
	if len(v.out) == 0 && !v.stuck {
		return nil, ErrNoData
	}

	buf := make([]byte, n)
	copied := copy(buf, v.out)
	v.out = v.out[copied:]
	if copied < n && !v.stuck {
		return buf[:copied], nil
	}
	return buf, nil
}

// Ready reports the IRQ line: asserted while bytes are pending or when stuck.
func (v *VirtualPN7160) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.venHigh || v.dead {
		return false
	}
	return v.stuck || len(v.out) > 0
}

// SetReset drives VEN. Going low drops all state; coming back up boots the
// controller, which announces itself with a CORE_RESET_NTF.
func (v *VirtualPN7160) SetReset(high bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if !high {
		if v.venHigh {
			v.resets++
		}
		v.venHigh = false
		v.out = nil
		v.stuck = false
		v.discover = false
		return nil
	}
	if v.venHigh {
		return nil
	}
	v.venHigh = true
	if !v.dead {
		v.notify(frame.GroupCore, frame.OpCoreReset, BuildResetNotification(0x01))
	}
	return nil
}

// Close marks the simulator closed; a second Close fails.
func (v *VirtualPN7160) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	v.closed = true
	return nil
}

// PlaceTag puts tag in the field. It is activated immediately if discovery is running.
func (v *VirtualPN7160) PlaceTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	tag.Present = true
	v.tag = tag
	v.activate()
}

// RemoveTag takes the current tag out of the field.
func (v *VirtualPN7160) RemoveTag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tag != nil {
		v.tag.Remove()
	}
	v.tag = nil
}

// Reactivate emits another activation for the tag still in the field, as the
// controller does when the tag is re-detected.
func (v *VirtualPN7160) Reactivate() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.tag == nil || !v.tag.Present {
		return
	}
	v.notify(frame.GroupRFManage, frame.OpRFIntfActivated, v.tag.ActivationPayload())
}

// QueueNotification makes an arbitrary notification pending.
func (v *VirtualPN7160) QueueNotification(gid, oid byte, payload []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notify(gid, oid, payload)
}

// QueueRaw appends raw bytes to the pending output.
func (v *VirtualPN7160) QueueRaw(data []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.out = append(v.out, data...)
}

// QueueJunk makes n proprietary notifications pending.
func (v *VirtualPN7160) QueueJunk(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range n {
		v.notify(frame.GroupProprietary, 0x20, []byte{byte(i), 0xEE})
	}
}

// OverrideNext replaces the automatic reply to the next gid/oid command with
// the given raw frames.
func (v *VirtualPN7160) OverrideNext(gid, oid byte, frames ...[]byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.override[[2]byte{gid, oid}] = frames
}

// SetStatus makes gid/oid respond with status until reset to StatusOK.
func (v *VirtualPN7160) SetStatus(gid, oid, status byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if status == StatusOK {
		delete(v.status, [2]byte{gid, oid})
		return
	}
	v.status[[2]byte{gid, oid}] = status
}

// SetSilent makes the controller ignore gid/oid commands.
func (v *VirtualPN7160) SetSilent(gid, oid byte, silent bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.silent[[2]byte{gid, oid}] = silent
}

// SetDead makes the controller ignore everything and keep IRQ low, including across VEN cycles.
func (v *VirtualPN7160) SetDead(dead bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dead = dead
}

// SetStuck latches the IRQ line high until the next VEN cycle.
func (v *VirtualPN7160) SetStuck(stuck bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stuck = stuck
}

// SkipResetNotification suppresses the CORE_RESET_NTF that follows CORE_RESET_RSP.
func (v *VirtualPN7160) SkipResetNotification(skip bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.noResetNtf = skip
}

// SetIdentity sets the model and firmware reported by CORE_INIT.
func (v *VirtualPN7160) SetIdentity(model, major, minor, patch byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.identity = [4]byte{model, major, minor, patch}
}

// SetReadError makes every Read fail with err; nil clears it.
func (v *VirtualPN7160) SetReadError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readErr = err
}

// SetWriteError makes every Write fail with err; nil clears it.
func (v *VirtualPN7160) SetWriteError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeErr = err
}

// Commands returns every command frame received so far.
func (v *VirtualPN7160) Commands() []Command {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Command(nil), v.commands...)
}

// Writes returns every raw write, including malformed ones.
func (v *VirtualPN7160) Writes() [][]byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([][]byte(nil), v.writes...)
}

// HasCommand reports whether a gid/oid command was received
func (v *VirtualPN7160) HasCommand(gid, oid byte) bool {
	return v.GetCommandCount(gid, oid) > 0
}

// GetCommandCount returns how many gid/oid commands were received
func (v *VirtualPN7160) GetCommandCount(gid, oid byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	count := 0
	for _, c := range v.commands {
		if c.GroupID == gid && c.OpcodeID == oid {
			count++
		}
	}
	return count
}

// ClearCommandLog forgets received commands and writes
func (v *VirtualPN7160) ClearCommandLog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.commands = nil
	v.writes = nil
}

// ResetCount returns the number of VEN low pulses seen
func (v *VirtualPN7160) ResetCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resets
}

// Pending returns the number of bytes waiting to be read
func (v *VirtualPN7160) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.out)
}

// Discovering reports whether RF discovery is running
func (v *VirtualPN7160) Discovering() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.discover
}

func (c Command) String() string {
	return fmt.Sprintf("GID%X/OID%02X % X", c.GroupID, c.OpcodeID, c.Payload)
}
