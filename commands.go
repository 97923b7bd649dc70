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

	"github.com/ZaparooProject/go-pn7160/internal/frame"
)

// DiscoverMapping is one (technology, protocol, mode) entry of RF_DISCOVER_MAP_CMD.
type DiscoverMapping struct {
	Technology byte
	Protocol   byte
	Mode       byte
}

// DiscoverTechnology is one (technology, mode) entry of RF_DISCOVER_CMD.
type DiscoverTechnology struct {
	Technology byte
	Mode       byte
}

// DiscoveryConfig selects what the controller maps and polls for.
type DiscoveryConfig struct {
	Mappings     []DiscoverMapping
	Technologies []DiscoverTechnology
}

// DefaultDiscoveryConfig polls NFC-A (mapped to ISO-DEP) and NFC-F (mapped to T3T).
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Mappings: []DiscoverMapping{
			{Technology: frame.TechNFCAPassivePoll, Protocol: frame.ProtocolISODEP, Mode: frame.MapModePoll},
			{Technology: frame.TechNFCFPassivePoll, Protocol: frame.ProtocolT3T, Mode: frame.MapModePoll},
		},
		Technologies: []DiscoverTechnology{
			{Technology: frame.TechNFCAPassivePoll, Mode: frame.MapModePoll},
			{Technology: frame.TechNFCFPassivePoll, Mode: frame.MapModePoll},
		},
	}
}

// Validate checks that both lists are non-empty and fit in one frame
func (c DiscoveryConfig) Validate() error {
	if len(c.Mappings) == 0 || len(c.Technologies) == 0 {
		return fmt.Errorf("%w: discovery needs at least one mapping and one technology", ErrConfiguration)
	}
	if 1+3*len(c.Mappings) > frame.MaxPayloadSize || 1+2*len(c.Technologies) > frame.MaxPayloadSize {
		return fmt.Errorf("%w: discovery lists too long", ErrConfiguration)
	}
	return nil
}

func (c DiscoveryConfig) mapPayload() []byte {
	out := make([]byte, 0, 1+3*len(c.Mappings))
	out = append(out, byte(len(c.Mappings)))
	for _, m := range c.Mappings {
		out = append(out, m.Technology, m.Protocol, m.Mode)
	}
	return out
}

func (c DiscoveryConfig) discoverPayload() []byte {
	out := make([]byte, 0, 1+2*len(c.Technologies))
	out = append(out, byte(len(c.Technologies)))
	for _, t := range c.Technologies {
		out = append(out, t.Technology, t.Mode)
	}
	return out
}

// CoreReset sends CORE_RESET_CMD and then waits for CORE_RESET_NTF. The
// notification is required; a good response without it is a failure.
func (d *Device) CoreReset(ctx context.Context) error {
	if _, err := d.Execute(ctx, frame.GroupCore, frame.OpCoreReset, []byte{frame.CoreResetType}, 0); err != nil {
		return err
	}

	ntf, err := d.AwaitNotification(ctx, d.config.ResetNotificationTimeout)
	if err != nil {
		return fmt.Errorf("waiting for CORE_RESET_NTF: %w", err)
	}
	if !ntf.Is(frame.GroupCore, frame.OpCoreReset) {
		return &FrameError{
			Op:   "CORE_RESET",
			Err:  ErrResponseMismatch,
			Want: "CORE_RESET_NTF",
			Got:  ntf.String(),
		}
	}

	d.Log().Debug().Hex("ntf", ntf.Payload).Msg("CORE_RESET complete")
	return nil
}

// CoreInit sends CORE_INIT_CMD and records the reported identity.
func (d *Device) CoreInit(ctx context.Context) (Identity, error) {
	rsp, err := d.Execute(ctx, frame.GroupCore, frame.OpCoreInit, nil, 0)
	if err != nil {
		return Identity{}, err
	}

	id, err := parseIdentity(rsp)
	if err != nil {
		return Identity{}, err
	}
	d.identity = &id

	d.Log().Info().
		Str("model", fmt.Sprintf("0x%02X", id.ModelID)).
		Str("firmware", id.Firmware()).
		Msg("controller initialized")
	return id, nil
}

// DiscoverMap sends RF_DISCOVER_MAP_CMD with the configured mappings.
func (d *Device) DiscoverMap(ctx context.Context) error {
	_, err := d.Execute(ctx, frame.GroupRFManage, frame.OpRFDiscoverMap, d.config.Discovery.mapPayload(), 0)
	return err
}

// StartDiscovery sends RF_DISCOVER_CMD with the configured technologies.
func (d *Device) StartDiscovery(ctx context.Context) error {
	_, err := d.Execute(ctx, frame.GroupRFManage, frame.OpRFDiscover, d.config.Discovery.discoverPayload(), 0)
	if err != nil {
		return err
	}
	d.Log().Debug().Int("technologies", len(d.config.Discovery.Technologies)).Msg("RF discovery started")
	return nil
}
