// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package probe confirms that a transport reaches a PN7160. Detectors use
// it to promote a candidate to detection.High.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
)

// Timeout bounds a single probe, including the VEN pulse.
const Timeout = 2 * time.Second

// Result describes what a successful probe learned.
type Result struct {
	// Firmware is only set in detection.Full mode
	Firmware string
}

// Config returns the device configuration used while probing. Waits are
// shorter than the defaults so that a silent candidate fails fast.
func Config() *pn7160.DeviceConfig {
	cfg := pn7160.DefaultDeviceConfig()
	cfg.ResponseTimeout = 250 * time.Millisecond
	cfg.ResetNotificationTimeout = 250 * time.Millisecond
	cfg.ResetNotificationWait = 250 * time.Millisecond
	return cfg
}

// Run probes transport without closing it. A single attempt is made.
// Safe mode hard resets the controller and exchanges CORE_RESET. Full
// mode adds CORE_INIT. Discovery is never started, so the controller is
// left idle.
func Run(ctx context.Context, transport pn7160.Transport, mode detection.Mode) (Result, error) {
	if mode == detection.Passive {
		return Result{}, fmt.Errorf("probe: %s mode does not talk to devices", mode)
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	device, err := pn7160.New(transport, pn7160.WithConfig(Config()))
	if err != nil {
		return Result{}, err
	}

	if err := device.HardReset(ctx); err != nil {
		return Result{}, err
	}
	if err := device.CoreReset(ctx); err != nil {
		return Result{}, err
	}
	if mode == detection.Safe {
		return Result{}, nil
	}

	id, err := device.CoreInit(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Firmware: id.Firmware()}, nil
}

// Apply runs a probe and records the outcome on info. It reports whether
// the candidate answered.
func Apply(ctx context.Context, transport pn7160.Transport, mode detection.Mode, info *detection.DeviceInfo) bool {
	res, err := Run(ctx, transport, mode)
	if err != nil {
		log := pn7160.Logger()
		log.Debug().Err(err).Str("path", info.Path).Msg("probe failed")
		return false
	}
	info.Confidence = detection.High
	if res.Firmware != "" {
		if info.Metadata == nil {
			info.Metadata = make(map[string]string)
		}
		info.Metadata[detection.MetaFirmware] = res.Firmware
	}
	return true
}

// Opener opens a transport for a candidate using the resolved GPIO names.
type Opener func(info detection.DeviceInfo, irqPin, venPin string) (pn7160.Transport, error)

// Scan filters and probes candidates. Passive mode returns candidates
// unprobed. Bus candidates (needPins) without GPIO names cannot be probed
// and are returned at their current confidence. Other candidates must
// answer the probe to be kept.
func Scan(
	ctx context.Context,
	opts *detection.Options,
	candidates []detection.DeviceInfo,
	needPins bool,
	open Opener,
) []detection.DeviceInfo {
	var found []detection.DeviceInfo
	for _, info := range detection.Dedupe(candidates) {
		if ctx.Err() != nil {
			break
		}
		if detection.IsPathIgnored(info.Path, opts.IgnorePaths) {
			continue
		}
		if opts.Mode == detection.Passive {
			found = append(found, info)
			continue
		}

		irq, ven := detection.Pins(info, opts)
		if needPins && (irq == "" || ven == "") {
			found = append(found, info)
			continue
		}

		transport, err := open(info, irq, ven)
		if err != nil {
			log := pn7160.Logger()
			log.Debug().Err(err).Str("path", info.Path).Msg("probe open failed")
			continue
		}
		ok := Apply(ctx, transport, opts.Mode, &info)
		_ = transport.Close()
		if !ok {
			continue
		}
		if needPins {
			if info.Metadata == nil {
				info.Metadata = make(map[string]string)
			}
			info.Metadata[detection.MetaIRQPin] = irq
			info.Metadata[detection.MetaVENPin] = ven
		}
		found = append(found, info)
	}
	return found
}
