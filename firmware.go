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

import "fmt"

// Identity contains the model and firmware reported by CORE_INIT.
type Identity struct {
	ModelID       byte
	FirmwareMajor byte
	FirmwareMinor byte
	FirmwarePatch byte
}

// Firmware returns the firmware version as major.minor.patch
func (id Identity) Firmware() string {
	return fmt.Sprintf("%d.%d.%d", id.FirmwareMajor, id.FirmwareMinor, id.FirmwarePatch)
}

func (id Identity) String() string {
	return fmt.Sprintf("model 0x%02X firmware %s", id.ModelID, id.Firmware())
}

// CORE_INIT_RSP offsets
const (
	initMinResponseLen = 13
	initModelOffset    = 9
	initFirmwareOffset = 10
)

// parseIdentity extracts identity from a CORE_INIT response payload,
// status byte included.
func parseIdentity(rsp []byte) (Identity, error) {
	if len(rsp) < initMinResponseLen {
		return Identity{}, fmt.Errorf("%w: CORE_INIT response has %d bytes, need %d",
			ErrParse, len(rsp), initMinResponseLen)
	}
	return Identity{
		ModelID:       rsp[initModelOffset],
		FirmwareMajor: rsp[initFirmwareOffset],
		FirmwareMinor: rsp[initFirmwareOffset+1],
		FirmwarePatch: rsp[initFirmwareOffset+2],
	}, nil
}
