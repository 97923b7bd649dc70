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
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/go-pn7160/internal/syncutil"
	"github.com/rs/zerolog"
)

// debugEnabled controls whether log lines are also printed to stderr
var debugEnabled = false

var (
	logMu      syncutil.Mutex
	baseLogger = zerolog.Nop()
)

func init() {
	if os.Getenv("PN7160_DEBUG") != "" || os.Getenv("DEBUG") != "" {
		debugEnabled = true
	}
	rebuildLogger()
}

// rebuildLogger fans log output out to the console and the session log.
// Callers hold logMu or run before any goroutine can log.
func rebuildLogger() {
	var writers []io.Writer
	if debugEnabled {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"})
	}
	if sessionLogWriter != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        sessionLogWriter,
			NoColor:    true,
			TimeFormat: "15:04:05.000",
		})
	}

	if len(writers) == 0 {
		baseLogger = zerolog.Nop()
		return
	}
	baseLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(zerolog.DebugLevel).
		With().Timestamp().Str("component", "pn7160").
		Logger()
}

// Logger returns the package logger. It discards everything unless debug
// output or a session log is enabled.
func Logger() zerolog.Logger {
	logMu.Lock()
	defer logMu.Unlock()
	return baseLogger
}

// Debugf logs a formatted debug message.
// Always written to the session log file (if initialized).
// Only printed to the console when debug mode is enabled.
func Debugf(format string, args ...any) {
	l := Logger()
	l.Debug().Msg(fmt.Sprintf(format, args...))
}

// Debugln logs its arguments like fmt.Sprint.
func Debugln(args ...any) {
	l := Logger()
	l.Debug().Msg(fmt.Sprint(args...))
}

// SetDebugEnabled allows programmatic control of console debug output
func SetDebugEnabled(enabled bool) {
	logMu.Lock()
	defer logMu.Unlock()
	debugEnabled = enabled
	rebuildLogger()
}
