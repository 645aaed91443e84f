// Devino
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Devino.
//
// Devino is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Devino is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Devino.  If not, see <http://www.gnu.org/licenses/>.

// Package serialconn owns the serial link to the board: opening and closing
// the port, the periodic read poll, outbound writes and lazy reconnects.
package serialconn

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate     = 115200
	DefaultReadTimeout  = 10 * time.Millisecond
	DefaultPollInterval = 250 * time.Millisecond

	// readChunk is the size of a single Read call; readLimit caps how much
	// one poll collects while looking for a newline.
	readChunk = 256
	readLimit = 4096
)

var (
	ErrTransportOpenFailed = errors.New("failed to open serial port")
	ErrTransportIOFailed   = errors.New("serial port i/o failed")
	ErrNoPort              = errors.New("no serial port selected")
)

// Port is the subset of go.bug.st/serial.Port the manager uses.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// PortFactory opens a serial port.
type PortFactory func(name string, mode *serial.Mode) (Port, error)

// DefaultPortFactory opens real serial ports with go.bug.st/serial.
func DefaultPortFactory(name string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}
