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

package detection

import (
	"time"

	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
)

// cacheKey separates results per transport and mode so that a Passive scan
// never satisfies a later Safe or Full request.
type cacheKey struct {
	transport string
	mode      Mode
}

type cacheEntry struct {
	stored  time.Time
	devices []DeviceInfo
}

type detectionCache struct {
	now     func() time.Time
	entries map[cacheKey]cacheEntry
	mu      syncutil.RWMutex
}

var cache = newDetectionCache(time.Now)

func newDetectionCache(now func() time.Time) *detectionCache {
	return &detectionCache{now: now, entries: make(map[cacheKey]cacheEntry)}
}

// get returns a copy of the devices stored for key when younger than ttl.
// A stronger mode's results also satisfy a weaker request.
func (c *detectionCache) get(transport string, mode Mode, ttl time.Duration) ([]DeviceInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for m := Full; m >= mode; m-- {
		entry, ok := c.entries[cacheKey{transport, m}]
		if !ok || c.now().Sub(entry.stored) > ttl {
			continue
		}
		return cloneDevices(entry.devices), true
	}
	return nil, false
}

func (c *detectionCache) set(transport string, mode Mode, devices []DeviceInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey{transport, mode}] = cacheEntry{
		devices: cloneDevices(devices),
		stored:  c.now(),
	}
}

func (c *detectionCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]cacheEntry)
}

func (c *detectionCache) clearTransport(transport string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.transport == transport {
			delete(c.entries, key)
		}
	}
}

func cloneDevices(devices []DeviceInfo) []DeviceInfo {
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = d
		if d.Metadata != nil {
			out[i].Metadata = make(map[string]string, len(d.Metadata))
			for k, v := range d.Metadata {
				out[i].Metadata[k] = v
			}
		}
	}
	return out
}

func getCached(transport string, mode Mode, ttl time.Duration) ([]DeviceInfo, bool) {
	return cache.get(transport, mode, ttl)
}

func setCached(transport string, mode Mode, devices []DeviceInfo) {
	cache.set(transport, mode, devices)
}

func clearCache() {
	cache.clear()
}

func clearCacheForTransport(transport string) {
	cache.clearTransport(transport)
}
