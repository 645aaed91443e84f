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

package serialconn

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

type EventType int

const (
	// EventMessageReceived carries bytes read by a poll.
	EventMessageReceived EventType = iota
	// EventError carries a transport failure. The port is already closed.
	EventError
	// EventOpened marks the start of a new session.
	EventOpened
)

func (t EventType) String() string {
	switch t {
	case EventMessageReceived:
		return "message_received"
	case EventError:
		return "error"
	case EventOpened:
		return "opened"
	default:
		return "unknown"
	}
}

type Event struct {
	Err       error
	Port      string
	SessionID string
	Data      []byte
	Type      EventType
}

// Handler receives manager events. It is never called with the manager's
// lock held, but it must not call Close.
type Handler func(Event)

// ConnectionState is a snapshot of the manager.
type ConnectionState struct {
	LastError error
	PortName  string
	SessionID string
	IsOpen    bool
}

type Options struct {
	Clock        clockwork.Clock
	Factory      PortFactory
	Handler      Handler
	BaudRate     int
	ReadTimeout  time.Duration
	PollInterval time.Duration
}

// Manager owns a single serial connection. The poll loop runs on its own
// goroutine driven by the configured clock; all handle access is serialized
// by one mutex.
type Manager struct {
	clock        clockwork.Clock
	port         Port
	lastErr      error
	factory      PortFactory
	handler      Handler
	stop         chan struct{}
	portName     string
	sessionID    string
	wg           sync.WaitGroup
	baudRate     int
	readTimeout  time.Duration
	pollInterval time.Duration
	mu           syncutil.Mutex
	isOpen       bool
}

func NewManager(opts Options) *Manager {
	m := &Manager{
		clock:        opts.Clock,
		factory:      opts.Factory,
		handler:      opts.Handler,
		baudRate:     opts.BaudRate,
		readTimeout:  opts.ReadTimeout,
		pollInterval: opts.PollInterval,
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.factory == nil {
		m.factory = DefaultPortFactory
	}
	if m.handler == nil {
		m.handler = func(Event) {}
	}
	if m.baudRate <= 0 {
		m.baudRate = DefaultBaudRate
	}
	if m.readTimeout <= 0 {
		m.readTimeout = DefaultReadTimeout
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	return m
}

func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ConnectionState{
		PortName:  m.portName,
		IsOpen:    m.isOpen,
		LastError: m.lastErr,
		SessionID: m.sessionID,
	}
}

// Open binds the manager to a port and starts polling it. Any previously
// open port is released first.
func (m *Manager) Open(name string) error {
	if name == "" {
		return ErrNoPort
	}

	m.mu.Lock()
	m.releaseLocked()
	m.portName = name
	m.sessionID = ""
	ev, err := m.openLocked()
	m.mu.Unlock()

	if err != nil {
		return err
	}
	m.handler(ev)
	return nil
}

// Close stops polling, releases the port and forgets the bound port name.
// Calling Close with nothing open is a no-op.
func (m *Manager) Close() {
	m.mu.Lock()
	m.releaseLocked()
	m.portName = ""
	m.sessionID = ""
	m.mu.Unlock()

	m.wg.Wait()
}

// Poll performs one non-blocking read. A closed handle with a bound port is
// reopened first.
func (m *Manager) Poll() {
	m.mu.Lock()
	events := m.pollLocked()
	m.mu.Unlock()

	for _, ev := range events {
		m.handler(ev)
	}
}

// Write sends data to the board, reopening the port if a previous failure
// closed it. A write failure closes the port and is reported both as the
// returned error and as an EventError.
func (m *Manager) Write(data []byte) error {
	m.mu.Lock()

	var events []Event
	if !m.isOpen {
		if m.portName == "" {
			m.mu.Unlock()
			return ErrNoPort
		}
		ev, err := m.openLocked()
		if err != nil {
			fail := m.failLocked(err)
			m.mu.Unlock()
			m.handler(fail)
			return err
		}
		events = append(events, ev)
	}

	_, err := m.port.Write(data)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransportIOFailed, err)
		events = append(events, m.failLocked(err))
	}
	m.mu.Unlock()

	for _, ev := range events {
		m.handler(ev)
	}
	return err
}

// openLocked opens the bound port, clears stale input and starts the poll.
func (m *Manager) openLocked() (Event, error) {
	port, err := m.factory(m.portName, &serial.Mode{BaudRate: m.baudRate})
	if err != nil {
		m.lastErr = fmt.Errorf("%w: %s: %w", ErrTransportOpenFailed, m.portName, err)
		return Event{}, m.lastErr
	}

	if err := port.SetReadTimeout(m.readTimeout); err != nil {
		m.closePort(port)
		m.lastErr = fmt.Errorf("%w: set read timeout: %w", ErrTransportOpenFailed, err)
		return Event{}, m.lastErr
	}
	if err := port.ResetInputBuffer(); err != nil {
		m.closePort(port)
		m.lastErr = fmt.Errorf("%w: reset input buffer: %w", ErrTransportOpenFailed, err)
		return Event{}, m.lastErr
	}

	m.port = port
	m.isOpen = true
	m.lastErr = nil
	m.sessionID = uuid.NewString()
	m.startPollLocked()

	log.Info().
		Str("port", m.portName).
		Str("session", m.sessionID).
		Int("baud", m.baudRate).
		Msg("serial port opened")

	return Event{Type: EventOpened, Port: m.portName, SessionID: m.sessionID}, nil
}

func (m *Manager) startPollLocked() {
	// the ticker is created here, not in the goroutine, so it is registered
	// with the clock by the time Open returns
	ticker := m.clock.NewTicker(m.pollInterval)
	stop := make(chan struct{})
	m.stop = stop

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				m.tick(stop)
			}
		}
	}()
}

// tick is a timer-driven poll. A tick that raced with a stop request is
// dropped instead of reading.
func (m *Manager) tick(stop <-chan struct{}) {
	m.mu.Lock()
	select {
	case <-stop:
		m.mu.Unlock()
		return
	default:
	}
	if !m.isOpen {
		m.mu.Unlock()
		return
	}
	events := m.pollLocked()
	m.mu.Unlock()

	for _, ev := range events {
		m.handler(ev)
	}
}

func (m *Manager) pollLocked() []Event {
	var events []Event
	if !m.isOpen {
		if m.portName == "" {
			return nil
		}
		ev, err := m.openLocked()
		if err != nil {
			return []Event{m.failLocked(err)}
		}
		events = append(events, ev)
	}

	data, err := m.readLineLocked()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransportIOFailed, err)
		return append(events, m.failLocked(err))
	}
	if len(data) > 0 {
		events = append(events, Event{
			Type:      EventMessageReceived,
			Port:      m.portName,
			SessionID: m.sessionID,
			Data:      data,
		})
	}
	return events
}

// readLineLocked reads until a newline, a read that returns nothing (the
// port timed out) or readLimit bytes. Anything after the newline in the
// last chunk is returned too.
func (m *Manager) readLineLocked() ([]byte, error) {
	var line []byte
	buf := make([]byte, readChunk)
	for len(line) < readLimit {
		n, err := m.port.Read(buf)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by caller
		}
		if n == 0 {
			break
		}
		line = append(line, buf[:n]...)
		if bytes.IndexByte(buf[:n], '\n') >= 0 {
			break
		}
	}
	return line, nil
}

// failLocked stops the poll and closes the port after a transport failure.
// The bound port name is kept so the next write can reopen it.
func (m *Manager) failLocked(err error) Event {
	log.Error().Err(err).Str("port", m.portName).Msg("serial transport failure")

	m.lastErr = err
	m.stopPollLocked()
	if m.port != nil {
		m.closePort(m.port)
		m.port = nil
	}
	m.isOpen = false

	return Event{Type: EventError, Port: m.portName, SessionID: m.sessionID, Err: err}
}

func (m *Manager) releaseLocked() {
	m.stopPollLocked()
	if m.port != nil {
		m.closePort(m.port)
		m.port = nil
		log.Info().Str("port", m.portName).Msg("serial port closed")
	}
	m.isOpen = false
}

func (m *Manager) stopPollLocked() {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func (*Manager) closePort(p Port) {
	if err := p.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close serial port")
	}
}
