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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryConstants_ConnectionValues(t *testing.T) {
	t.Parallel()

	config := ConnectionRetryConfig(DefaultConnectionRetries)

	assert.Equal(t, 3, config.MaxAttempts)
	assert.Equal(t, ConnectionInitialBackoff, config.InitialBackoff)
	assert.Equal(t, ConnectionMaxBackoff, config.MaxBackoff)
	assert.InDelta(t, ConnectionBackoffMultiplier, config.BackoffMultiplier, 0)
	assert.Less(t, config.Jitter, 1.0)

	// Worst case backoff across all attempts stays inside the overall timeout
	var total time.Duration
	backoff := config.InitialBackoff
	for range config.MaxAttempts - 1 {
		total += backoff
		backoff = calculateNextBackoff(backoff, config)
	}
	assert.Less(t, total, config.RetryTimeout)
}

func TestRetryConstants_ThrottleValues(t *testing.T) {
	t.Parallel()

	config := ThrottleConfig()

	assert.Equal(t, 100*time.Millisecond, config.InitialBackoff)
	assert.Equal(t, 5*time.Second, config.MaxBackoff)
	assert.Zero(t, config.MaxAttempts)
	assert.Zero(t, config.Jitter)
}
