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

package testing

// Interface and protocol values used in activation payloads
const (
	InterfaceFrame  = 0x01
	InterfaceISODEP = 0x02
	ProtocolT2T     = 0x02
	ProtocolT3T     = 0x03
	ProtocolISODEP  = 0x04
)

// Default identity reported in the CORE_INIT response
const (
	DefaultModelID       = 0x12
	DefaultFirmwareMajor = 0x02
	DefaultFirmwareMinor = 0x05
	DefaultFirmwarePatch = 0x00
)

// BuildCoreInitResponse creates a 13 byte CORE_INIT_RSP payload carrying the
// model at byte 9 and the firmware version at bytes 10-12.
func BuildCoreInitResponse(status, model, major, minor, patch byte) []byte {
	return []byte{
		status,
		0x01, 0x1E, 0x02, 0x00, // NFCC features
		0x02,       // max logical connections
		0x00, 0x00, // max routing table size
		0xFF, // max control packet payload
		model, major, minor, patch,
	}
}

// BuildResetNotification creates a CORE_RESET_NTF payload. trigger is 0x01
// after power on and 0x02 after CORE_RESET_CMD.
func BuildResetNotification(trigger byte) []byte {
	return []byte{trigger, 0x01, 0x20, 0x04, 0x04, 0x50, 0x10, 0x05, 0x00}
}

// BuildNFCAActivation creates an RF_INTF_ACTIVATED_NTF payload for an NFC-A
// poll activation with the NFCID1 carried in the technology parameters.
func BuildNFCAActivation(uid []byte, sak, iface, protocol byte) []byte {
	params := make([]byte, 0, 5+len(uid))
	params = append(params, 0x44, 0x00, byte(len(uid))) // SENS_RES, NFCID1 length
	params = append(params, uid...)
	params = append(params, 0x01, sak) // SEL_RES length, SEL_RES

	payload := make([]byte, 0, 11+len(params))
	payload = append(payload, 0x01, iface, protocol, 0x00, 0xFF, 0x01, byte(len(params)))
	payload = append(payload, params...)
	// data exchange mode, tx rate, rx rate, activation parameters length
	payload = append(payload, 0x00, 0x00, 0x00, 0x00)
	return payload
}

// BuildNFCFActivation creates an RF_INTF_ACTIVATED_NTF payload for an NFC-F
// poll activation. idm is the 8 byte NFCID2.
func BuildNFCFActivation(idm []byte) []byte {
	sensf := make([]byte, 0, 17)
	sensf = append(sensf, 0x01) // response code
	sensf = append(sensf, idm...)
	sensf = append(sensf, 0x00, 0xF0, 0x00, 0x00, 0x02, 0x06, 0x03, 0x00) // PAD

	params := make([]byte, 0, 2+len(sensf))
	params = append(params, 0x01, byte(len(sensf))) // bit rate 212, SENSF_RES length
	params = append(params, sensf...)

	payload := make([]byte, 0, 11+len(params))
	payload = append(payload, 0x01, InterfaceFrame, ProtocolT3T, 0x02, 0xFF, 0x01, byte(len(params)))
	payload = append(payload, params...)
	payload = append(payload, 0x02, 0x01, 0x01, 0x00)
	return payload
}

// BuildFixedActivation creates a 16 byte (or longer) activation payload with
// the UID length at byte 10 and the UID from byte 11, all other bytes zero.
func BuildFixedActivation(uid []byte) []byte {
	size := max(16, 11+len(uid))
	payload := make([]byte, size)
	payload[10] = byte(len(uid))
	copy(payload[11:], uid)
	return payload
}

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample 7 byte NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}

	// TestISODEPUID is a sample 4 byte ISO-DEP card UID
	TestISODEPUID = []byte{0x04, 0xA1, 0x3F, 0x02}

	// TestFeliCaIDm is a sample FeliCa NFCID2
	TestFeliCaIDm = []byte{0x01, 0x2E, 0x4C, 0x0B, 0x63, 0x15, 0x84, 0x7A}
)
