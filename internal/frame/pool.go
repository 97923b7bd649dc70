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

package frame

import "sync"

// MaxFrameSize is a complete control packet with a full payload.
const MaxFrameSize = HeaderSize + MaxPayloadSize

// smallBufferSize covers headers and short status responses.
const smallBufferSize = 16

// BufferPool hands out scratch buffers for transport reads.
type BufferPool struct {
	small sync.Pool
	frame sync.Pool
}

var defaultPool = NewBufferPool()

// NewBufferPool creates a pool with small and frame-sized tiers.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		small: sync.Pool{New: func() any {
			buf := make([]byte, smallBufferSize)
			return &buf
		}},
		frame: sync.Pool{New: func() any {
			buf := make([]byte, MaxFrameSize)
			return &buf
		}},
	}
}

// GetBuffer returns a buffer of length size. Oversized requests bypass the pool.
func (p *BufferPool) GetBuffer(size int) []byte {
	var pool *sync.Pool
	switch {
	case size <= smallBufferSize:
		pool = &p.small
	case size <= MaxFrameSize:
		pool = &p.frame
	default:
		return make([]byte, size)
	}
	bufPtr, ok := pool.Get().(*[]byte)
	if !ok {
		return make([]byte, size)
	}
	return (*bufPtr)[:size]
}

// PutBuffer zeroes buf and returns it to the tier it came from.
func (p *BufferPool) PutBuffer(buf []byte) {
	if buf == nil {
		return
	}
	clear(buf[:cap(buf)])

	switch cap(buf) {
	case smallBufferSize:
		full := buf[:smallBufferSize]
		p.small.Put(&full)
	case MaxFrameSize:
		full := buf[:MaxFrameSize]
		p.frame.Put(&full)
	}
}

// GetBuffer acquires a buffer from the default pool
func GetBuffer(size int) []byte {
	return defaultPool.GetBuffer(size)
}

// PutBuffer returns a buffer to the default pool
func PutBuffer(buf []byte) {
	defaultPool.PutBuffer(buf)
}
