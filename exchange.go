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

	"github.com/ZaparooProject/go-pn7160/internal/frame"
)

// Notification is an unsolicited frame from the controller.
type Notification struct {
	Payload  []byte
	GroupID  byte
	OpcodeID byte
}

// Is reports whether the notification carries the given group and opcode.
func (n Notification) Is(gid, oid byte) bool {
	return n.GroupID == gid && n.OpcodeID == oid
}

func (n Notification) String() string {
	return fmt.Sprintf("%s_NTF (%d bytes)", commandName(n.GroupID, n.OpcodeID), len(n.Payload))
}

var commandNames = map[[2]byte]string{
	{frame.GroupCore, frame.OpCoreReset}:            "CORE_RESET",
	{frame.GroupCore, frame.OpCoreInit}:             "CORE_INIT",
	{frame.GroupRFManage, frame.OpRFDiscoverMap}:    "RF_DISCOVER_MAP",
	{frame.GroupRFManage, frame.OpRFDiscover}:       "RF_DISCOVER",
	{frame.GroupRFManage, frame.OpRFDiscoverSelect}: "RF_DISCOVER_SELECT",
	{frame.GroupRFManage, frame.OpRFIntfActivated}:  "RF_INTF_ACTIVATED",
	{frame.GroupRFManage, frame.OpRFDeactivate}:     "RF_DEACTIVATE",
}

func commandName(gid, oid byte) string {
	if name, ok := commandNames[[2]byte{gid, oid}]; ok {
		return name
	}
	return fmt.Sprintf("GID%X/OID%02X", gid, oid)
}

// Execute writes a command and returns the matching response payload,
// status byte included. A timeout <= 0 selects the configured response timeout.
//
// The context is only checked before the command is written. Once the frame
// is on the wire Execute waits out the timeout, so a response is never left
// behind for the next exchange to trip over.
func (d *Device) Execute(ctx context.Context, gid, oid byte, payload []byte, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("execute cancelled: %w", err)
	}
	if timeout <= 0 {
		timeout = d.config.ResponseTimeout
	}
	name := commandName(gid, oid)

	raw, err := frame.EncodeCommand(gid, oid, payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	d.trace.Clear()
	d.trace.RecordTX(raw, name+"_CMD")
	if err := d.transport.Write(raw); err != nil {
		return nil, d.trace.WrapError(NewTransportWriteError(name, d.port, err))
	}

	if !d.waitReady(timeout) {
		d.trace.RecordTimeout(name + "_RSP")
		return nil, d.trace.WrapError(NewTimeoutError(name, d.port))
	}

	hdr, body, err := d.readFrame(name)
	if err != nil {
		return nil, d.trace.WrapError(err)
	}

	if hdr.Type != frame.TypeResponse {
		return nil, d.trace.WrapError(&FrameError{
			Op: name, Err: ErrUnexpectedFrameType, Want: frame.TypeResponse.String(), Got: hdr.Type.String(),
		})
	}
	if !hdr.Matches(gid, oid) {
		return nil, d.trace.WrapError(&FrameError{
			Op: name, Err: ErrResponseMismatch, Want: name, Got: commandName(hdr.GroupID, hdr.OpcodeID),
		})
	}
	if len(body) == 0 {
		return nil, d.trace.WrapError(&StatusError{Command: name, Empty: true})
	}
	if body[0] != frame.StatusOK {
		return nil, d.trace.WrapError(&StatusError{Command: name, Code: body[0]})
	}

	d.Log().Trace().Str("cmd", name).Hex("rsp", body).Msg("exchange complete")
	return body, nil
}

// AwaitNotification waits for the ready line and reads one notification.
// No group/opcode filtering happens here.
func (d *Device) AwaitNotification(ctx context.Context, timeout time.Duration) (Notification, error) {
	if err := ctx.Err(); err != nil {
		return Notification{}, fmt.Errorf("await notification cancelled: %w", err)
	}
	if timeout <= 0 {
		timeout = d.config.ResponseTimeout
	}

	const op = "await notification"
	d.trace.Clear()
	if !d.waitReady(timeout) {
		d.trace.RecordTimeout(op)
		return Notification{}, d.trace.WrapError(NewTimeoutError(op, d.port))
	}

	hdr, body, err := d.readFrame(op)
	if err != nil {
		return Notification{}, d.trace.WrapError(err)
	}
	if hdr.Type != frame.TypeNotification {
		return Notification{}, d.trace.WrapError(&FrameError{
			Op: op, Err: ErrUnexpectedFrameType, Want: frame.TypeNotification.String(), Got: hdr.Type.String(),
		})
	}

	return Notification{GroupID: hdr.GroupID, OpcodeID: hdr.OpcodeID, Payload: body}, nil
}

// readFrame reads a header and, when the declared length is non-zero, the payload.
func (d *Device) readFrame(op string) (frame.Header, []byte, error) {
	head, err := d.transport.Read(frame.HeaderSize)
	if err != nil {
		return frame.Header{}, nil, NewTransportReadError(op, d.port, err)
	}
	hdr, err := frame.DecodeHeader(head)
	if err != nil {
		d.trace.RecordRX(head, "short header")
		return frame.Header{}, nil, NewTransportReadError(op, d.port, err)
	}

	var body []byte
	if hdr.Length > 0 {
		body, err = d.transport.Read(hdr.Length)
		if err != nil {
			d.trace.RecordRX(head, "payload read failed")
			return hdr, nil, NewTransportReadError(op, d.port, err)
		}
		if len(body) != hdr.Length {
			d.trace.RecordRX(append(head[:frame.HeaderSize:frame.HeaderSize], body...), "short payload")
			return hdr, nil, NewTransportReadError(op, d.port,
				fmt.Errorf("short payload: got %d of %d bytes", len(body), hdr.Length))
		}
	}

	d.trace.RecordRX(append(head[:frame.HeaderSize:frame.HeaderSize], body...), hdr.Type.String())
	return hdr, body, nil
}

// waitReady polls the ready line with a delay that doubles from
// ReadyPollInitial up to ReadyPollMax until it asserts or timeout elapses.
func (d *Device) waitReady(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	delay := d.config.ReadyPollInitial

	for {
		if d.transport.Ready() {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		time.Sleep(min(delay, remaining))
		delay = min(delay*2, d.config.ReadyPollMax)
	}
}

// Ready reports whether the controller has a frame waiting.
func (d *Device) Ready() bool {
	return d.transport.Ready()
}

// WaitReady waits up to timeout for the ready line to assert.
func (d *Device) WaitReady(timeout time.Duration) bool {
	return d.waitReady(timeout)
}
