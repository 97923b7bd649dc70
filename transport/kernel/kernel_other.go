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

//go:build !linux

package kernel

import (
	"errors"
	"fmt"
)

// Transport is only available on Linux
type Transport struct{}

// Open always fails outside Linux
func Open(path string) (*Transport, error) {
	return nil, fmt.Errorf("open %s: %w", path, errors.ErrUnsupported)
}

func (*Transport) Write([]byte) error       { return errors.ErrUnsupported }
func (*Transport) Read(int) ([]byte, error) { return nil, errors.ErrUnsupported }
func (*Transport) Ready() bool              { return false }
func (*Transport) SetReset(bool) error      { return errors.ErrUnsupported }
func (*Transport) Close() error             { return nil }
