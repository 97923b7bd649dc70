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

import (
	"encoding/hex"
	"strings"
)

// Technology is the RF technology a virtual tag answers polling with.
type Technology int

const (
	// TechnologyA is ISO 14443 Type A (NTAG, MIFARE, ISO-DEP cards)
	TechnologyA Technology = iota
	// TechnologyF is FeliCa
	TechnologyF
)

// VirtualTag represents a simulated contactless target
type VirtualTag struct {
	UID        []byte
	Technology Technology
	SAK        byte
	Present    bool
}

// NewVirtualNTAG213 creates a virtual NFC-A tag that activates on the frame interface
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestNTAG213UID
	}
	return &VirtualTag{UID: uid, Technology: TechnologyA, SAK: 0x00, Present: true}
}

// NewVirtualISODEPCard creates a virtual NFC-A card that activates on the ISO-DEP interface
func NewVirtualISODEPCard(uid []byte) *VirtualTag {
	if uid == nil {
		uid = TestISODEPUID
	}
	return &VirtualTag{UID: uid, Technology: TechnologyA, SAK: 0x20, Present: true}
}

// NewVirtualFeliCa creates a virtual NFC-F tag; uid is the 8 byte NFCID2
func NewVirtualFeliCa(idm []byte) *VirtualTag {
	if idm == nil {
		idm = TestFeliCaIDm
	}
	return &VirtualTag{UID: idm, Technology: TechnologyF, Present: true}
}

// UIDString returns the UID formatted the way the driver reports it
func (v *VirtualTag) UIDString() string {
	parts := make([]string, len(v.UID))
	for i, b := range v.UID {
		parts[i] = strings.ToUpper(hex.EncodeToString([]byte{b}))
	}
	return strings.Join(parts, "-")
}

// Remove takes the tag out of the field
func (v *VirtualTag) Remove() {
	v.Present = false
}

// Insert puts the tag back into the field
func (v *VirtualTag) Insert() {
	v.Present = true
}

// ActivationPayload returns the RF_INTF_ACTIVATED_NTF payload the controller
// emits when it activates this tag.
func (v *VirtualTag) ActivationPayload() []byte {
	if v.Technology == TechnologyF {
		return BuildNFCFActivation(v.UID)
	}
	if v.SAK&0x20 != 0 {
		return BuildNFCAActivation(v.UID, v.SAK, InterfaceISODEP, ProtocolISODEP)
	}
	return BuildNFCAActivation(v.UID, v.SAK, InterfaceFrame, ProtocolT2T)
}
