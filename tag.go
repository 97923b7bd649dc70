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
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-pn7160/internal/frame"
)

// UID is the identifier of a detected tag.
type UID []byte

// String formats the UID as uppercase byte pairs joined by '-', e.g. 04-A1-3F-02.
func (u UID) String() string {
	if len(u) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(u)*3 - 1)
	for i, b := range u {
		if i > 0 {
			_ = sb.WriteByte('-')
		}
		_, _ = fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

// Equal reports whether both UIDs have the same length and bytes.
func (u UID) Equal(other UID) bool {
	return bytes.Equal(u, other)
}

// ParseUID parses "04-A1-3F-02" or "04:a1:3f:02". Every byte must be two hex digits.
func ParseUID(s string) (UID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty UID", ErrParse)
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == ':' })
	if len(parts) != strings.Count(s, "-")+strings.Count(s, ":")+1 {
		return nil, fmt.Errorf("%w: UID %q has empty byte", ErrParse, s)
	}

	uid := make(UID, 0, len(parts))
	for _, p := range parts {
		if len(p) != 2 {
			return nil, fmt.Errorf("%w: UID byte %q must be two hex digits", ErrParse, p)
		}
		b, err := hex.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("%w: UID byte %q: %w", ErrParse, p, err)
		}
		uid = append(uid, b[0])
	}
	return uid, nil
}

// Manufacturer represents the chip manufacturer identified from the UID.
// The first byte of a 7-byte UID contains the manufacturer code per ISO/IEC 7816-6.
type Manufacturer string

const (
	// ManufacturerNXP is NXP Semiconductors (0x04)
	ManufacturerNXP Manufacturer = "NXP"
	// ManufacturerST is STMicroelectronics (0x02)
	ManufacturerST Manufacturer = "STMicroelectronics"
	// ManufacturerInfineon is Infineon Technologies (0x05)
	ManufacturerInfineon Manufacturer = "Infineon"
	// ManufacturerTI is Texas Instruments (0x07)
	ManufacturerTI Manufacturer = "Texas Instruments"
	// ManufacturerUnknown indicates an unrecognized manufacturer code
	ManufacturerUnknown Manufacturer = "Unknown"
)

// Manufacturer returns the chip manufacturer based on the first UID byte.
// Only meaningful for 7 and 10 byte UIDs; 4-byte UIDs are random or assigned.
func (u UID) Manufacturer() Manufacturer {
	if len(u) < 7 {
		return ManufacturerUnknown
	}
	switch u[0] {
	case 0x04:
		return ManufacturerNXP
	case 0x02:
		return ManufacturerST
	case 0x05:
		return ManufacturerInfineon
	case 0x07:
		return ManufacturerTI
	default:
		return ManufacturerUnknown
	}
}

// ActivationLayout records where ParseActivation found the UID.
type ActivationLayout int

const (
	// LayoutTechParams means the UID came from the NFC-A or NFC-F
	// technology-specific parameters.
	LayoutTechParams ActivationLayout = iota
	// LayoutFixed means the UID length was read at byte 10 with the UID after it.
	LayoutFixed
)

// Activation is the decoded content of RF_INTF_ACTIVATED_NTF.
type Activation struct {
	UID         UID
	DiscoveryID byte
	Interface   byte
	Protocol    byte
	TechMode    byte
	Layout      ActivationLayout
}

// RF_INTF_ACTIVATED_NTF offsets
const (
	activationMinLen   = 15
	actDiscoveryID     = 0
	actInterface       = 1
	actProtocol        = 2
	actTechMode        = 3
	actTechParamsLen   = 6
	actTechParams      = 7
	fixedUIDLenOffset  = 10
	fixedUIDOffset     = 11
	nfcANFCID1LenIndex = 2
	nfcFSENSFLenIndex  = 1
	nfcFMinSENSFLen    = 9
)

// ParseActivation extracts the tag UID from an RF_INTF_ACTIVATED_NTF payload.
//
// The payload must be at least 15 bytes. When it carries well-formed NFC-A
// or NFC-F poll parameters the UID is read from them (NFCID1 or NFCID2).
// Otherwise byte 10 holds the UID length and the UID follows at byte 11.
func ParseActivation(payload []byte) (Activation, error) {
	if len(payload) < activationMinLen {
		return Activation{}, fmt.Errorf("%w: activation notification has %d bytes, need %d",
			ErrParse, len(payload), activationMinLen)
	}

	act := Activation{
		DiscoveryID: payload[actDiscoveryID],
		Interface:   payload[actInterface],
		Protocol:    payload[actProtocol],
		TechMode:    payload[actTechMode],
	}

	if uid, ok := techParamsUID(payload); ok {
		act.UID = uid
		act.Layout = LayoutTechParams
		return act, nil
	}

	n := int(payload[fixedUIDLenOffset])
	if n == 0 {
		return Activation{}, fmt.Errorf("%w: activation notification has empty UID", ErrParse)
	}
	if fixedUIDOffset+n > len(payload) {
		return Activation{}, fmt.Errorf("%w: UID length %d exceeds %d byte notification",
			ErrParse, n, len(payload))
	}
	act.UID = append(UID(nil), payload[fixedUIDOffset:fixedUIDOffset+n]...)
	act.Layout = LayoutFixed
	return act, nil
}

func techParamsUID(payload []byte) (UID, bool) {
	end := actTechParams + int(payload[actTechParamsLen])
	if end > len(payload) {
		return nil, false
	}
	params := payload[actTechParams:end]

	switch payload[actTechMode] {
	case frame.TechNFCAPassivePoll:
		// SENS_RES(2) NFCID1_LEN(1) NFCID1(n) SEL_RES_LEN SEL_RES
		if len(params) <= nfcANFCID1LenIndex {
			return nil, false
		}
		n := int(params[nfcANFCID1LenIndex])
		if n != 4 && n != 7 && n != 10 {
			return nil, false
		}
		start := nfcANFCID1LenIndex + 1
		if start+n > len(params) {
			return nil, false
		}
		return append(UID(nil), params[start:start+n]...), true
	case frame.TechNFCFPassivePoll:
		// BIT_RATE(1) SENSF_RES_LEN(1) SENSF_RES: response code then NFCID2(8)
		if len(params) <= nfcFSENSFLenIndex {
			return nil, false
		}
		n := int(params[nfcFSENSFLenIndex])
		start := nfcFSENSFLenIndex + 1
		if n < nfcFMinSENSFLen || start+n > len(params) {
			return nil, false
		}
		return append(UID(nil), params[start+1:start+nfcFMinSENSFLen]...), true
	default:
		return nil, false
	}
}
