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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist lists USB VID:PID pairs that are never probed. Probing a
// serial candidate toggles DTR, which resets most Arduino-style boards.
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno
		"2341:0042", // Arduino Mega 2560
		"2E8A:0005", // Raspberry Pi Pico MicroPython REPL
	}
}

// IsBlocked checks if a USB device is in the blocklist. Comparison ignores
// case and surrounding whitespace.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}
	for _, blocked := range blocklist {
		if vidpid == strings.ToUpper(strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

var (
	vidMarkers = []string{"VID:", "VENDOR=", "VID="}
	pidMarkers = []string{"PID:", "PRODUCT=", "PID="}
)

// ParseVIDPID extracts VID:PID from descriptors such as "1234:5678",
// "VID:1234 PID:5678" or "vendor=1234 product=5678".
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(descriptor)

	vid := hexAfter(descriptor, vidMarkers)
	pid := hexAfter(descriptor, pidMarkers)
	if vid != "" && pid != "" {
		return vid + ":" + pid
	}

	if before, after, ok := strings.Cut(descriptor, ":"); ok && !strings.Contains(after, ":") {
		if isHex(before) && isHex(after) {
			return descriptor
		}
	}
	return ""
}

func hexAfter(s string, markers []string) string {
	for _, m := range markers {
		if idx := strings.Index(s, m); idx >= 0 {
			return extractHex(s[idx+len(m):])
		}
	}
	return ""
}

// extractHex returns the first run of uppercase hex digits in s.
func extractHex(s string) string {
	start := strings.IndexFunc(s, isUpperHexDigit)
	if start < 0 {
		return ""
	}
	end := strings.IndexFunc(s[start:], func(r rune) bool { return !isUpperHexDigit(r) })
	if end < 0 {
		return s[start:]
	}
	return s[start : start+end]
}

func isUpperHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F')
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isUpperHexDigit(r) && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// IsPathIgnored reports whether devicePath matches an entry of ignorePaths
// after cleaning and case folding.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := normalizedPath(devicePath)
	for _, ignore := range ignorePaths {
		if ignore != "" && normalizedPath(ignore) == device {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
