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

package mocks

import (
	"bytes"
	"errors"
	"time"

	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"go.bug.st/serial"
)

var errPortClosed = errors.New("port closed")

// MockSerialPort is an in-memory serial port. Queued chunks are returned one
// per Read; an empty queue behaves like a read timeout (0 bytes, nil error).
type MockSerialPort struct {
	readErr    error
	writeErr   error
	closeErr   error
	timeoutErr error
	resetErr   error
	readFunc   func(p []byte) (int, error)
	chunks     [][]byte
	written    bytes.Buffer
	resets     int
	closed     bool
	mu         syncutil.Mutex
}

func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// QueueRead appends data to be returned by a later Read.
func (m *MockSerialPort) QueueRead(data string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, []byte(data))
}

func (m *MockSerialPort) SetReadFunc(fn func(p []byte) (int, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readFunc = fn
}

func (m *MockSerialPort) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

func (m *MockSerialPort) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *MockSerialPort) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeErr = err
}

func (m *MockSerialPort) SetTimeoutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeoutErr = err
}

func (m *MockSerialPort) SetResetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetErr = err
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, errPortClosed
	}
	if m.readFunc != nil {
		return m.readFunc(p)
	}
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.chunks) == 0 {
		return 0, nil
	}

	n := copy(p, m.chunks[0])
	if n < len(m.chunks[0]) {
		m.chunks[0] = m.chunks[0][n:]
	} else {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, errPortClosed
	}
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.written.Write(p)
}

func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeoutErr
}

func (m *MockSerialPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets++
	m.chunks = nil
	return m.resetErr
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *MockSerialPort) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *MockSerialPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockPortFactory hands out mock ports and records every open attempt.
type MockPortFactory struct {
	openErr error
	ports   []*MockSerialPort
	opened  []string
	modes   []serial.Mode
	mu      syncutil.Mutex
}

func NewMockPortFactory() *MockPortFactory {
	return &MockPortFactory{}
}

// SetOpenError makes subsequent opens fail until cleared with nil.
func (f *MockPortFactory) SetOpenError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}

func (f *MockPortFactory) Open(name string, mode *serial.Mode) (*MockSerialPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opened = append(f.opened, name)
	if mode != nil {
		f.modes = append(f.modes, *mode)
	}
	if f.openErr != nil {
		return nil, f.openErr
	}

	p := NewMockSerialPort()
	f.ports = append(f.ports, p)
	return p, nil
}

// Opened returns the port names passed to Open, including failed attempts.
func (f *MockPortFactory) Opened() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func (f *MockPortFactory) Modes() []serial.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]serial.Mode(nil), f.modes...)
}

// Last returns the most recently opened port, or nil.
func (f *MockPortFactory) Last() *MockSerialPort {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ports) == 0 {
		return nil
	}
	return f.ports[len(f.ports)-1]
}

func (f *MockPortFactory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ports)
}
