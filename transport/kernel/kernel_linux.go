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

//go:build linux

package kernel

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-pn7160"
	"golang.org/x/sys/unix"
)

const (
	// pn5xxSetPwr is PN5XX_SET_PWR: 0 powers off, 1 powers on
	pn5xxSetPwr = 0xE901

	writeRetries    = 3
	writeRetryDelay = time.Millisecond
)

// Transport implements pn7160.Transport on an open device node
type Transport struct {
	path string
	fd   int
}

// Open opens the device node read-write
func Open(path string) (*Transport, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return NewFromFD(fd, path), nil
}

// NewFromFD wraps an already open descriptor. The transport takes ownership.
func NewFromFD(fd int, path string) *Transport {
	return &Transport{fd: fd, path: path}
}

// Write sends one frame. The controller NACKs while waking from standby, so
// ENXIO and EAGAIN are retried a few times.
func (t *Transport) Write(data []byte) error {
	if t.fd < 0 {
		return pn7160.ErrTransportClosed
	}

	var lastErr error
	for attempt := range writeRetries {
		n, err := unix.Write(t.fd, data)
		switch {
		case err == nil && n == len(data):
			return nil
		case err == nil:
			lastErr = fmt.Errorf("incomplete write: %d of %d bytes", n, len(data))
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ENXIO), errors.Is(err, unix.EAGAIN):
			lastErr = err
		default:
			return fmt.Errorf("write %s: %w", t.path, err)
		}
		if attempt < writeRetries-1 {
			time.Sleep(writeRetryDelay)
		}
	}
	return fmt.Errorf("write %s: %w", t.path, lastErr)
}

// Read reads exactly n bytes
func (t *Transport) Read(n int) ([]byte, error) {
	if t.fd < 0 {
		return nil, pn7160.ErrTransportClosed
	}

	buf := make([]byte, n)
	off := 0
	for off < n {
		got, err := unix.Read(t.fd, buf[off:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", t.path, err)
		}
		if got == 0 {
			return nil, fmt.Errorf("read %s: %w after %d of %d bytes", t.path, io.ErrUnexpectedEOF, off, n)
		}
		off += got
	}
	return buf, nil
}

// Ready polls the descriptor without blocking
func (t *Transport) Ready() bool {
	if t.fd < 0 {
		return false
	}
	fds := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 0)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
	}
}

// SetReset drives VEN through the driver
func (t *Transport) SetReset(high bool) error {
	if t.fd < 0 {
		return pn7160.ErrTransportClosed
	}
	value := 0
	if high {
		value = 1
	}
	if err := unix.IoctlSetInt(t.fd, pn5xxSetPwr, value); err != nil {
		return fmt.Errorf("PN5XX_SET_PWR %d on %s: %w", value, t.path, err)
	}
	return nil
}

// Close closes the descriptor
func (t *Transport) Close() error {
	if t.fd < 0 {
		return pn7160.ErrTransportClosed
	}
	err := unix.Close(t.fd)
	t.fd = -1
	if err != nil {
		return fmt.Errorf("close %s: %w", t.path, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn7160.TransportType {
	return pn7160.TransportKernel
}

// Port returns the device node path
func (t *Transport) Port() string {
	return t.path
}
