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
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// ErrInjected is returned by JitteryConnection for injected bus faults.
var ErrInjected = errors.New("injected bus fault")

// Conn is the byte-level connection a PN7160 transport provides.
type Conn interface {
	Write(data []byte) error
	Read(n int) ([]byte, error)
	Ready() bool
	SetReset(high bool) error
	Close() error
}

// JitterConfig configures the behavior of JitteryConnection.
type JitterConfig struct {
	MaxLatency time.Duration
	// ReadFailRate and WriteFailRate are probabilities in [0, 1]
	ReadFailRate  float64
	WriteFailRate float64
	// SpuriousReadyRate is the probability that Ready reports a glitch high
	SpuriousReadyRate float64
	Seed              uint64
}

// DefaultJitterConfig returns a sensible default configuration for testing.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{
		MaxLatency:   2 * time.Millisecond,
		ReadFailRate: 0.05,
	}
}

// JitteryConnection wraps a Conn to simulate a noisy bus: latency on every
// transfer, randomly failing reads and writes, and glitches on the IRQ line.
type JitteryConnection struct {
	backend Conn
	rng     *rand.Rand
	config  JitterConfig
	faults  int
	mu      syncutil.Mutex
}

// NewJitteryConnection wraps a backend with fault injection.
func NewJitteryConnection(backend Conn, config JitterConfig) *JitteryConnection {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &JitteryConnection{
		backend: backend,
		config:  config,
		rng:     rng,
	}
}

// roll delays by a random latency and reports whether a fault with the
// given probability fires.
func (j *JitteryConnection) roll(rate float64) bool {
	j.mu.Lock()
	var delay time.Duration
	if j.config.MaxLatency > 0 {
		delay = time.Duration(j.rng.Int64N(int64(j.config.MaxLatency) + 1))
	}
	fail := rate > 0 && j.rng.Float64() < rate
	if fail {
		j.faults++
	}
	j.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return fail
}

// Write forwards to the backend unless a write fault fires.
func (j *JitteryConnection) Write(data []byte) error {
	if j.roll(j.config.WriteFailRate) {
		return ErrInjected
	}
	return j.backend.Write(data) //nolint:wrapcheck // Pass-through wrapper
}

// Read forwards to the backend unless a read fault fires. A faulted read
// consumes nothing from the backend.
func (j *JitteryConnection) Read(n int) ([]byte, error) {
	if j.roll(j.config.ReadFailRate) {
		return nil, ErrInjected
	}
	return j.backend.Read(n) //nolint:wrapcheck // Pass-through wrapper
}

// Ready reports the backend IRQ line, occasionally glitching high.
func (j *JitteryConnection) Ready() bool {
	if j.config.SpuriousReadyRate > 0 {
		j.mu.Lock()
		glitch := j.rng.Float64() < j.config.SpuriousReadyRate
		j.mu.Unlock()
		if glitch {
			return true
		}
	}
	return j.backend.Ready()
}

// SetReset is passed through untouched.
func (j *JitteryConnection) SetReset(high bool) error {
	return j.backend.SetReset(high) //nolint:wrapcheck // Pass-through wrapper
}

// Close is passed through untouched.
func (j *JitteryConnection) Close() error {
	return j.backend.Close() //nolint:wrapcheck // Pass-through wrapper
}

// Faults returns the number of injected faults so far.
func (j *JitteryConnection) Faults() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.faults
}
