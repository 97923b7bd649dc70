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

// Message types occupy bits 7..5 of the first header byte.
const (
	MessageTypeShift = 5
	messageTypeMask  = 0xE0
	pbfMask          = 0x10
	groupIDMask      = 0x0F
)

// HeaderSize is the fixed NCI control packet header length.
const HeaderSize = 3

// MaxPayloadSize is the largest payload a single control packet can carry.
const MaxPayloadSize = 255

// Group identifiers
const (
	GroupCore        byte = 0x00
	GroupRFManage    byte = 0x01
	GroupNFCEEManage byte = 0x02
	GroupProprietary byte = 0x0F
)

// CORE group opcodes
const (
	OpCoreReset byte = 0x00
	OpCoreInit  byte = 0x01
)

// RF management group opcodes
const (
	OpRFDiscoverMap    byte = 0x00
	OpRFDiscover       byte = 0x03
	OpRFDiscoverSelect byte = 0x04
	OpRFIntfActivated  byte = 0x05
	OpRFDeactivate     byte = 0x06
)

// StatusOK is the first payload byte of a successful response.
const StatusOK byte = 0x00

// CoreResetType is the reset type byte sent with CORE_RESET_CMD. The chip
// keeps its stored configuration across this reset.
const CoreResetType byte = 0x01

// RF technology and mode values (NCI table 96)
const (
	TechNFCAPassivePoll byte = 0x00
	TechNFCBPassivePoll byte = 0x01
	TechNFCFPassivePoll byte = 0x02
	TechNFCVPassivePoll byte = 0x06
)

// RF protocols
const (
	ProtocolUndetermined byte = 0x00
	ProtocolT1T          byte = 0x01
	ProtocolT2T          byte = 0x02
	ProtocolT3T          byte = 0x03
	ProtocolISODEP       byte = 0x04
	ProtocolNFCDEP       byte = 0x05
	ProtocolT5T          byte = 0x06
)

// RF interfaces
const (
	InterfaceNFCEEDirect byte = 0x00
	InterfaceFrame       byte = 0x01
	InterfaceISODEP      byte = 0x02
	InterfaceNFCDEP      byte = 0x03
)

// Discover map mode flags
const (
	MapModePoll   byte = 0x01
	MapModeListen byte = 0x02
)
