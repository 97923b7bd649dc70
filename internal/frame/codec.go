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

package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge is returned when a payload does not fit the 8-bit length field
	ErrPayloadTooLarge = errors.New("payload exceeds 255 bytes")
	// ErrShortHeader is returned when fewer than HeaderSize bytes are available
	ErrShortHeader = errors.New("short NCI header")
)

// MessageType is the 3-bit message type carried in the first header byte.
type MessageType byte

// NCI message types, already shifted into bits 7..5.
const (
	TypeData         MessageType = 0x00 << MessageTypeShift
	TypeCommand      MessageType = 0x01 << MessageTypeShift
	TypeResponse     MessageType = 0x02 << MessageTypeShift
	TypeNotification MessageType = 0x03 << MessageTypeShift
)

func (t MessageType) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeCommand:
		return "command"
	case TypeResponse:
		return "response"
	case TypeNotification:
		return "notification"
	default:
		return fmt.Sprintf("type(0x%02X)", byte(t))
	}
}

// Frame is one decoded control packet.
type Frame struct {
	Payload  []byte
	Type     MessageType
	GroupID  byte
	OpcodeID byte
}

// Header is the decoded fixed-size prefix of a frame.
type Header struct {
	Type     MessageType
	GroupID  byte
	OpcodeID byte
	Length   int
	raw      byte
}

// PBF reports whether the packet boundary flag is set, meaning more
// segments of the same message follow.
func (h Header) PBF() bool {
	return h.raw&pbfMask != 0
}

// Matches reports whether the header carries the given group and opcode.
func (h Header) Matches(gid, oid byte) bool {
	return h.GroupID == gid&groupIDMask && h.OpcodeID == oid
}

// EncodeCommand builds a command frame for the given group and opcode.
func EncodeCommand(gid, oid byte, payload []byte) ([]byte, error) {
	return Encode(Frame{Type: TypeCommand, GroupID: gid, OpcodeID: oid, Payload: payload})
}

// Encode serializes a frame of any message type.
func Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(f.Payload))
	}

	out := make([]byte, HeaderSize+len(f.Payload))
	out[0] = byte(f.Type)&messageTypeMask | f.GroupID&groupIDMask
	out[1] = f.OpcodeID
	out[2] = byte(len(f.Payload))
	copy(out[HeaderSize:], f.Payload)
	return out, nil
}

// DecodeHeader parses the first HeaderSize bytes of h. Extra bytes are ignored.
func DecodeHeader(h []byte) (Header, error) {
	if len(h) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(h))
	}
	return Header{
		Type:     MessageType(h[0] & messageTypeMask),
		GroupID:  h[0] & groupIDMask,
		OpcodeID: h[1],
		Length:   int(h[2]),
		raw:      h[0],
	}, nil
}

// Decode parses a complete frame. The payload must be exactly the declared length.
func Decode(data []byte) (Frame, error) {
	hdr, err := DecodeHeader(data)
	if err != nil {
		return Frame{}, err
	}
	if len(data)-HeaderSize != hdr.Length {
		return Frame{}, fmt.Errorf("%w: declared %d, have %d", ErrLengthMismatch, hdr.Length, len(data)-HeaderSize)
	}
	payload := make([]byte, hdr.Length)
	copy(payload, data[HeaderSize:])
	return Frame{Type: hdr.Type, GroupID: hdr.GroupID, OpcodeID: hdr.OpcodeID, Payload: payload}, nil
}

// ErrLengthMismatch is returned by Decode when the buffer disagrees with the length field.
var ErrLengthMismatch = errors.New("frame length mismatch")
