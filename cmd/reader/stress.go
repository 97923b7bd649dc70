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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	testutil "github.com/ZaparooProject/go-pn7160/internal/testing"
	"github.com/ZaparooProject/go-pn7160/polling"
)

// Simulated stress timing. Hardware runs use the configured intervals.
const (
	simPollInterval   = 20 * time.Millisecond
	simHealthInterval = 500 * time.Millisecond
	// a simulated tag stays for this many polls, then the field is empty
	// for as many
	simDwellCycles = 25
)

// StressReport summarizes a stress session. It is written as JSON when the
// session ends.
type StressReport struct {
	Started       time.Time      `json:"started"`
	Identity      string         `json:"identity,omitempty"`
	Faults        []FaultEntry   `json:"faults,omitempty"`
	HealthChanges []HealthChange `json:"health_changes,omitempty"`
	Duration      time.Duration  `json:"duration_ns"`
	Cycles        int            `json:"cycles"`
	PollErrors    int            `json:"poll_errors"`
	Appeared      int            `json:"appeared"`
	Removed       int            `json:"removed"`
	InjectedFault int            `json:"injected_faults,omitempty"`
	Simulated     bool           `json:"simulated"`
}

// FaultEntry records one failed step with its wire trace when available.
type FaultEntry struct {
	Time      time.Time `json:"time"`
	Operation string    `json:"operation"`
	Error     string    `json:"error"`
	Trace     string    `json:"trace,omitempty"`
}

// HealthChange records a transition of the health monitor.
type HealthChange struct {
	Time    time.Time `json:"time"`
	Error   string    `json:"error,omitempty"`
	Healthy bool      `json:"healthy"`
}

func (r *StressReport) fault(op string, err error) {
	entry := FaultEntry{Time: time.Now(), Operation: op, Error: err.Error()}
	if te := pn7160.GetTrace(err); te != nil {
		entry.Trace = te.FormatTrace()
	}
	r.Faults = append(r.Faults, entry)
}

// simulation is the field and fault injector behind a simulated device
type simulation struct {
	sim    *testutil.VirtualPN7160
	jitter *testutil.JitteryConnection
	tags   []*testutil.VirtualTag
	cycle  int
}

// newSimulatedDevice builds a device on the wire simulator. With noisy set
// the bus drops reads and glitches the IRQ line.
func newSimulatedDevice(noisy bool) (*pn7160.Device, *simulation, error) {
	sim := testutil.NewVirtualPN7160()
	s := &simulation{
		sim: sim,
		tags: []*testutil.VirtualTag{
			testutil.NewVirtualNTAG213(nil),
			testutil.NewVirtualISODEPCard(nil),
			testutil.NewVirtualFeliCa(nil),
		},
	}

	var transport pn7160.Transport = sim
	if noisy {
		jc := testutil.DefaultJitterConfig()
		jc.ReadFailRate = 0.01
		jc.SpuriousReadyRate = 0.01
		s.jitter = testutil.NewJitteryConnection(sim, jc)
		transport = s.jitter
	}

	device, err := pn7160.New(transport)
	if err != nil {
		return nil, nil, err
	}
	return device, s, nil
}

// animate steps the field every interval until ctx is done. The simulator
// is safe for use from a second goroutine.
func (s *simulation) animate(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

// step moves tags in and out of the field
func (s *simulation) step() {
	s.cycle++
	phase := (s.cycle / simDwellCycles) % 2
	tag := s.tags[(s.cycle/(2*simDwellCycles))%len(s.tags)]
	switch {
	case phase == 0 && s.cycle%simDwellCycles == 1:
		s.sim.PlaceTag(tag)
	case phase == 0:
		s.sim.Reactivate()
	case s.cycle%simDwellCycles == 0:
		s.sim.RemoveTag()
	}
}

func stressSessionConfig(cfg *fileConfig) *polling.Config {
	pc := cfg.sessionConfig()
	if cfg.Simulate {
		pc.PollInterval = simPollInterval
		pc.Health.Interval = simHealthInterval
	}
	return pc
}

func printStressTestBanner(d time.Duration, simulated bool) {
	_, _ = fmt.Println("=== PN7160 stress session ===")
	_, _ = fmt.Printf("Duration: %s  Simulated: %t\n", d, simulated)
	_, _ = fmt.Println("Press Ctrl+C to stop early; a report is written either way.")
}

// runStressMode drives Update and Maintain directly so that every failure
// is recorded, then writes the report.
func runStressMode(ctx context.Context, device *pn7160.Device, sim *simulation, cfg *fileConfig, d time.Duration) error {
	printStressTestBanner(d, sim != nil)

	report, err := stress(ctx, device, cfg, d, sim, os.Stdout)
	if report == nil {
		return err
	}

	path, writeErr := writeStressReport(report, ".")
	if writeErr != nil {
		return writeErr
	}
	printStressSummary(report, path)
	return err
}

func stress(
	ctx context.Context,
	device *pn7160.Device,
	cfg *fileConfig,
	d time.Duration,
	sim *simulation,
	out io.Writer,
) (*StressReport, error) {
	session, err := polling.NewSession(device, stressSessionConfig(cfg))
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Device().Close() }()

	report := &StressReport{Started: time.Now(), Simulated: sim != nil}
	session.OnTagAppeared(func(uid string) {
		report.Appeared++
		_, _ = fmt.Fprintf(out, "+ %s\n", uid)
	})
	session.OnTagRemoved(func(uid string) {
		report.Removed++
		_, _ = fmt.Fprintf(out, "- %s\n", uid)
	})

	if err := startSession(ctx, session); err != nil {
		report.fault("setup", err)
		report.Duration = time.Since(report.Started)
		return report, err
	}
	if id, ok := session.Device().Identity(); ok {
		report.Identity = id.String()
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	ticker := time.NewTicker(stressSessionConfig(cfg).PollInterval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			report.Duration = time.Since(report.Started)
			if sim != nil && sim.jitter != nil {
				report.InjectedFault = sim.jitter.Faults()
			}
			return report, nil
		case <-ticker.C:
		}

		if sim != nil {
			sim.step()
		}
		report.Cycles++
		if err := session.Update(ctx); err != nil {
			report.PollErrors++
			report.fault("poll", err)
		}
		if err := session.Maintain(ctx); err != nil {
			report.fault("health", err)
		}

		st := session.Status()
		if st.Health.Healthy != healthy {
			healthy = st.Health.Healthy
			change := HealthChange{Time: time.Now(), Healthy: healthy}
			if st.Err != nil {
				change.Error = st.Err.Error()
			}
			report.HealthChanges = append(report.HealthChanges, change)
		}
	}
}

func writeStressReport(report *StressReport, dir string) (string, error) {
	name := fmt.Sprintf("stress_report_%s.json", report.Started.Format("20060102_150405"))
	path := dir + string(os.PathSeparator) + name

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal stress report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write stress report: %w", err)
	}
	return path, nil
}

func printStressSummary(r *StressReport, path string) {
	_, _ = fmt.Println()
	_, _ = fmt.Println("=== Summary ===")
	_, _ = fmt.Printf("Cycles: %d  Poll errors: %d  Faults: %d\n", r.Cycles, r.PollErrors, len(r.Faults))
	_, _ = fmt.Printf("Tags appeared: %d  removed: %d\n", r.Appeared, r.Removed)
	if r.InjectedFault > 0 {
		_, _ = fmt.Printf("Injected bus faults: %d\n", r.InjectedFault)
	}
	for _, c := range r.HealthChanges {
		_, _ = fmt.Printf("%s healthy=%t %s\n", c.Time.Format("15:04:05.000"), c.Healthy, c.Error)
	}
	_, _ = fmt.Printf("Report: %s\n", path)
}
