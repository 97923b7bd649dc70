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

// Command reader prints tags seen by a PN7160 and keeps the controller
// healthy. Options come from an optional YAML file and flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	_ "github.com/ZaparooProject/go-pn7160/detection/i2c"
	_ "github.com/ZaparooProject/go-pn7160/detection/kernel"
	_ "github.com/ZaparooProject/go-pn7160/detection/serial"
	_ "github.com/ZaparooProject/go-pn7160/detection/spi"
	"github.com/ZaparooProject/go-pn7160/polling"
)

const defaultConfigPath = "reader.yaml"

// options is the merged result of the config file and flags
type options struct {
	file   *fileConfig
	stress time.Duration
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("reader", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", defaultConfigPath, "YAML config file")
	device := fs.String("device", "", "Device path (auto-detect if empty)")
	transport := fs.String("transport", "", "Transport: kernel, i2c, spi or serial (guessed from path if empty)")
	irq := fs.String("irq", "", "IRQ GPIO name for I2C and SPI, e.g. GPIO23")
	ven := fs.String("ven", "", "VEN GPIO name for I2C and SPI, e.g. GPIO24")
	mode := fs.String("mode", "", "Detection mode: passive, safe or full")
	debug := fs.Bool("debug", false, "Enable debug output")
	stress := fs.Duration("stress", 0, "Run a stress session for this long and write a fault report")
	simulate := fs.Bool("simulate", false, "Use the built-in simulator instead of hardware")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	file, err := loadConfig(*configPath, !explicit)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		dst *string
		val string
	}{
		{&file.Device.Path, *device},
		{&file.Device.Transport, *transport},
		{&file.Device.IRQPin, *irq},
		{&file.Device.VENPin, *ven},
		{&file.Detection.Mode, *mode},
	}
	for _, o := range overrides {
		if o.val != "" {
			*o.dst = o.val
		}
	}
	if *debug {
		file.Debug = true
	}
	if *simulate {
		file.Simulate = true
	}
	if err := file.validate(); err != nil {
		return nil, err
	}

	return &options{file: file, stress: *stress}, nil
}

func connectToDevice(ctx context.Context, cfg *fileConfig) (*pn7160.Device, error) {
	connectOpts := []pn7160.ConnectOption{pn7160.WithConnectTimeout(10 * time.Second)}

	if cfg.Device.Path == "" {
		connectOpts = append(connectOpts,
			pn7160.WithAutoDetection(),
			pn7160.WithDetectionOptions(cfg.detectionOptions()),
			pn7160.WithTransportFromDeviceFactory(deviceFactory(cfg)))
		if cfg.Debug {
			_, _ = fmt.Println("Auto-detecting PN7160 devices...")
		}
	} else {
		connectOpts = append(connectOpts, pn7160.WithTransportFactory(transportFactory(cfg)))
		if cfg.Debug {
			_, _ = fmt.Printf("Opening device: %s\n", cfg.Device.Path)
		}
	}

	device, err := pn7160.ConnectDevice(ctx, cfg.Device.Path, connectOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PN7160: %w", err)
	}

	if id, ok := device.Identity(); ok && cfg.Debug {
		_, _ = fmt.Printf("PN7160 %s\n", id)
	}
	return device, nil
}

// newSession wires the callbacks and bindings shared by read and stress mode
func newSession(device *pn7160.Device, cfg *fileConfig, out io.Writer) (*polling.Session, error) {
	session, err := polling.NewSession(device, cfg.sessionConfig())
	if err != nil {
		return nil, err
	}

	session.OnTagAppeared(func(uid string) {
		_, _ = fmt.Fprintf(out, "Tag detected: UID=%s\n", uid)
	})
	session.OnTagRemoved(func(uid string) {
		_, _ = fmt.Fprintf(out, "Tag removed: UID=%s\n", uid)
	})

	for _, b := range cfg.Bindings {
		uid, _ := pn7160.ParseUID(b.UID)
		name := b.Name
		if name == "" {
			name = uid.String()
		}
		session.AddBinding(polling.NewBinding(uid, func(on bool) {
			_, _ = fmt.Fprintf(out, "Binding %s: %t\n", name, on)
		}))
	}
	return session, nil
}

// startSession adopts a device ConnectDevice already set up and initializes
// any other, so VEN is pulsed once per start.
func startSession(ctx context.Context, session *polling.Session) error {
	if _, ok := session.Device().Identity(); ok {
		return session.Adopt()
	}
	return session.Setup(ctx)
}

func runReadMode(ctx context.Context, device *pn7160.Device, sim *simulation, cfg *fileConfig) error {
	session, err := newSession(device, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if sim != nil {
		go sim.animate(ctx, cfg.sessionConfig().PollInterval)
	} else {
		reopen := func(ctx context.Context) (*pn7160.Device, error) {
			return connectToDevice(ctx, cfg)
		}
		session.SetRecoverer(polling.NewDefaultRecoverer(device, reopen, 0, 0))
	}

	if err := startSession(ctx, session); err != nil {
		_ = session.Device().Close()
		return err
	}

	_, _ = fmt.Println("Starting continuous tag monitoring. Press Ctrl+C to stop...")
	err = session.Run(ctx)
	if closeErr := session.Device().Close(); closeErr != nil && cfg.Debug {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to close device: %v\n", closeErr)
	}
	return err
}

func run(ctx context.Context, opts *options) error {
	cfg := opts.file
	if cfg.Debug {
		pn7160.SetDebugEnabled(true)
	}
	if cfg.SessionLog {
		path, err := pn7160.InitSessionLog()
		if err != nil {
			return err
		}
		defer func() { _ = pn7160.CloseSessionLog() }()
		_, _ = fmt.Printf("Session log: %s\n", path)
	}

	var (
		device *pn7160.Device
		sim    *simulation
		err    error
	)
	if cfg.Simulate {
		device, sim, err = newSimulatedDevice(opts.stress > 0)
	} else {
		device, err = connectToDevice(ctx, cfg)
	}
	if err != nil {
		return err
	}

	if opts.stress > 0 {
		return runStressMode(ctx, device, sim, cfg, opts.stress)
	}
	return runReadMode(ctx, device, sim, cfg)
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:]))
}

func mainWithExitCode(args []string) int {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			_, _ = fmt.Print("\nShutting down gracefully...\n")
			return 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
