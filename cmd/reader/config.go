// go-pn7160
// Copyright (c) 2026 The Zaparoo Project Contributors.
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

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"github.com/ZaparooProject/go-pn7160/detection"
	"github.com/ZaparooProject/go-pn7160/polling"
	"gopkg.in/yaml.v3"
)

// fileConfig is the reader's YAML configuration. Flags override it.
type fileConfig struct {
	Device    deviceConfig    `yaml:"device"`
	Detection detectionConfig `yaml:"detection"`
	Polling   pollingConfig   `yaml:"polling"`
	Bindings  []bindingConfig `yaml:"bindings"`
	Debug     bool            `yaml:"debug"`
	// SessionLog writes a timestamped debug log to the working directory
	SessionLog bool `yaml:"session_log"`
	// Simulate replaces the hardware with the built-in simulator
	Simulate bool `yaml:"simulate"`
}

type deviceConfig struct {
	// Path selects a device; empty means auto-detect
	Path string `yaml:"path"`
	// Transport forces kernel, i2c, spi or serial instead of guessing from Path
	Transport string `yaml:"transport"`
	IRQPin    string `yaml:"irq_pin"`
	VENPin    string `yaml:"ven_pin"`
	Baud      int    `yaml:"baud"`
}

type detectionConfig struct {
	Mode        string   `yaml:"mode"`
	Transports  []string `yaml:"transports"`
	IgnorePaths []string `yaml:"ignore_paths"`
}

type pollingConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	HealthInterval  time.Duration `yaml:"health_interval"`
	MaxFailedChecks int           `yaml:"max_failed_checks"`
	// pointers distinguish "unset" from false
	HealthCheck   *bool `yaml:"health_check"`
	AutoRecover   *bool `yaml:"auto_recover"`
	SleepRecovery *bool `yaml:"sleep_recovery"`
}

// bindingConfig maps a UID to a named output that is true while the tag is
// in the field.
type bindingConfig struct {
	UID  string `yaml:"uid"`
	Name string `yaml:"name"`
}

func defaultFileConfig() *fileConfig {
	return &fileConfig{Detection: detectionConfig{Mode: detection.Safe.String()}}
}

// loadConfig reads path. A missing file yields the defaults only when
// optional is set.
func loadConfig(path string, optional bool) (*fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *fileConfig) validate() error {
	if _, err := detection.ParseMode(c.Detection.Mode); err != nil {
		return err
	}
	switch c.Device.Transport {
	case "", "kernel", "i2c", "spi", "serial":
	default:
		return fmt.Errorf("unknown transport %q", c.Device.Transport)
	}
	for i, b := range c.Bindings {
		if _, err := pn7160.ParseUID(b.UID); err != nil {
			return fmt.Errorf("binding %d: %w", i, err)
		}
	}
	return nil
}

// sessionConfig converts the polling section into a polling.Config on top
// of the library defaults.
func (c *fileConfig) sessionConfig() *polling.Config {
	pc := polling.DefaultConfig()
	p := c.Polling
	if p.PollInterval > 0 {
		pc.PollInterval = p.PollInterval
	}
	if p.HealthInterval > 0 {
		pc.Health.Interval = p.HealthInterval
	}
	if p.MaxFailedChecks > 0 {
		pc.Health.MaxFailedChecks = p.MaxFailedChecks
	}
	if p.HealthCheck != nil {
		pc.Health.Enabled = *p.HealthCheck
	}
	if p.AutoRecover != nil {
		pc.Health.AutoRecover = *p.AutoRecover
	}
	if p.SleepRecovery != nil {
		pc.SleepRecovery.Enabled = *p.SleepRecovery
	}
	return pc
}

// detectionOptions converts the detection section and device pins.
func (c *fileConfig) detectionOptions() detection.Options {
	opts := detection.DefaultOptions()
	opts.Mode, _ = detection.ParseMode(c.Detection.Mode)
	opts.Transports = c.Detection.Transports
	opts.IgnorePaths = c.Detection.IgnorePaths
	if c.Device.IRQPin != "" {
		opts.IRQPin = c.Device.IRQPin
	}
	if c.Device.VENPin != "" {
		opts.VENPin = c.Device.VENPin
	}
	return opts
}
