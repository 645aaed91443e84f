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

// Package engine ties the serial connection, the protocol codec and the pin
// cache together and exposes the operations a presentation layer needs.
package engine

import (
	"errors"
	"fmt"

	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/protocol"
	"github.com/ZaparooProject/devino/pkg/serialconn"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownPin      = errors.New("unknown pin")
	ErrPinNotWritable  = errors.New("pin is not writable")
	ErrValueOutOfRange = errors.New("value out of range")
)

// Conn is the connection the engine drives. *serialconn.Manager implements it.
type Conn interface {
	Open(name string) error
	Close()
	Write(data []byte) error
	State() serialconn.ConnectionState
}

type Options struct {
	Editing pins.EditingFunc
	// NewConn builds the connection with the engine's event handler. When
	// nil a serialconn.Manager is created from Serial.
	NewConn func(serialconn.Handler) Conn
	Layout  pins.Layout
	Serial  serialconn.Options
}

// Engine is safe for concurrent use. The cache is guarded by one mutex; the
// connection serializes its own handle. The engine never holds its lock
// while calling into the connection.
type Engine struct {
	conn    Conn
	cache   *pins.Cache
	broker  *Broker
	editing pins.EditingFunc
	// session is the connection session the cache belongs to. Reads and
	// errors tagged with any other session are stale and dropped.
	session string
	mu      syncutil.Mutex
}

func New(opts Options) *Engine {
	layout := opts.Layout
	if len(layout.AnalogInputs) == 0 && len(layout.Digital) == 0 {
		layout = pins.UnoLayout
	}

	e := &Engine{
		cache:   pins.NewCache(layout),
		broker:  NewBroker(),
		editing: opts.Editing,
	}

	if opts.NewConn != nil {
		e.conn = opts.NewConn(e.handleConn)
	} else {
		serialOpts := opts.Serial
		serialOpts.Handler = e.handleConn
		e.conn = serialconn.NewManager(serialOpts)
	}
	return e
}

// SetEditing replaces the predicate used to skip PWM updates for controls
// the operator is editing.
func (e *Engine) SetEditing(fn pins.EditingFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editing = fn
}

func (e *Engine) Subscribe(bufferSize int) (<-chan Event, int) {
	return e.broker.Subscribe(bufferSize)
}

func (e *Engine) Unsubscribe(id int) {
	e.broker.Unsubscribe(id)
}

// SelectPort opens the named port, replacing any current connection. The
// connection event for a successful open is published by the open itself.
func (e *Engine) SelectPort(name string) error {
	e.setSession("")
	if err := e.conn.Open(name); err != nil {
		log.Error().Err(err).Str("port", name).Msg("failed to select port")
		e.publishConnection()
		return fmt.Errorf("select port %s: %w", name, err)
	}
	return nil
}

// DeselectPort closes the connection.
func (e *Engine) DeselectPort() {
	e.setSession("")
	e.conn.Close()
	e.publishConnection()
}

func (e *Engine) State() serialconn.ConnectionState {
	return e.conn.State()
}

func (e *Engine) Snapshot() []pins.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Snapshot()
}

func (e *Engine) Pin(id pins.ID) (pins.State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Get(id)
}

func (e *Engine) Layout() pins.Layout {
	return e.cache.Layout()
}

// Send encodes and writes a command. Commands are fire-and-forget; the
// board's acknowledgement arrives later through the poll.
func (e *Engine) Send(cmd protocol.Command) error {
	if cmd.IsSet() {
		log.Info().Str("command", cmd.String()).Msg("writing pin")
	} else {
		log.Debug().Str("command", cmd.String()).Msg("sending command")
	}
	return e.write(protocol.Encode(cmd))
}

// SendRaw writes operator-typed text unchanged.
func (e *Engine) SendRaw(text string) error {
	if text == "" {
		return nil
	}
	return e.write([]byte(text))
}

func (e *Engine) write(data []byte) error {
	if err := e.conn.Write(data); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ToggleDigital flips a writable digital pin relative to its cached level.
// The cache is not touched; the board's acknowledgement updates it.
func (e *Engine) ToggleDigital(index int) error {
	s, err := e.writablePin(index, pins.ModeDigital)
	if err != nil {
		return err
	}
	next := 1
	if s.High() {
		next = 0
	}
	return e.Send(protocol.SetDigital(index, next))
}

// SetDigital drives a writable digital pin to 0 or 1.
func (e *Engine) SetDigital(index, value int) error {
	if value < 0 || value > pins.DigitalMax {
		return fmt.Errorf("%w: %d", ErrValueOutOfRange, value)
	}
	if _, err := e.writablePin(index, pins.ModeDigital); err != nil {
		return err
	}
	return e.Send(protocol.SetDigital(index, value))
}

// SetPWM writes a duty cycle to a dual-capable pin in PWM mode.
func (e *Engine) SetPWM(index, value int) error {
	if value < 0 || value > pins.PwmMax {
		return fmt.Errorf("%w: %d", ErrValueOutOfRange, value)
	}
	if _, err := e.writablePin(index, pins.ModePwm); err != nil {
		return err
	}
	return e.Send(protocol.SetAnalog(index, value))
}

// ControlChanged is called by the presentation layer whenever a control's
// value changes. Changes that came from the device are dropped so a value
// pushed into a control never echoes back to the board.
func (e *Engine) ControlChanged(id pins.ID, value int, source pins.Source) error {
	if source == pins.SourceDevice {
		return nil
	}

	s, ok := e.Pin(id)
	if !ok || s.Variant == pins.AnalogInput {
		return fmt.Errorf("%w: %s", ErrUnknownPin, id)
	}
	if s.Mode == pins.ModePwm {
		return e.SetPWM(id.Index, value)
	}
	return e.SetDigital(id.Index, value)
}

// Close releases the connection and closes all subscriber channels.
func (e *Engine) Close() {
	e.conn.Close()
	e.broker.Stop()
}

func (e *Engine) writablePin(index int, mode pins.Mode) (pins.State, error) {
	s, ok := e.Pin(pins.Digital(index))
	if !ok {
		return pins.State{}, fmt.Errorf("%w: D%d", ErrUnknownPin, index)
	}
	if !s.Writable || s.Mode != mode {
		return pins.State{}, fmt.Errorf("%w: %s in %s mode", ErrPinNotWritable, s.Address(), s.Mode)
	}
	return s, nil
}

func (e *Engine) publishConnection() {
	e.broker.Publish(Event{Type: EventConnection, Connection: e.conn.State()})
}

func (e *Engine) setSession(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session = id
}

func (e *Engine) isStale(ev serialconn.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ev.SessionID == e.session {
		return false
	}
	log.Debug().
		Str("session", ev.SessionID).
		Str("current", e.session).
		Stringer("type", ev.Type).
		Msg("dropping event from previous session")
	return true
}

func (e *Engine) handleConn(ev serialconn.Event) {
	switch ev.Type {
	case serialconn.EventOpened:
		e.mu.Lock()
		e.session = ev.SessionID
		e.cache.Reset()
		e.mu.Unlock()
		log.Debug().Str("session", ev.SessionID).Msg("pin cache reset for new session")
		e.publishConnection()
	case serialconn.EventMessageReceived:
		e.handleMessage(ev)
	case serialconn.EventError:
		if e.isStale(ev) {
			return
		}
		e.broker.Publish(Event{Type: EventError, Err: ev.Err})
		e.broker.Publish(Event{Type: EventLog, Text: fmt.Sprintf("SerialException: %s\n", ev.Err)})
		e.publishConnection()
	}
}

func (e *Engine) handleMessage(ev serialconn.Event) {
	frame, err := protocol.Decode(ev.Data)
	if err != nil {
		log.Debug().Err(err).Int("bytes", len(ev.Data)).Msg("dropping chunk")
		return
	}

	e.mu.Lock()
	if ev.SessionID != e.session {
		e.mu.Unlock()
		log.Debug().Str("session", ev.SessionID).Msg("dropping read from previous session")
		return
	}
	changes := make([]pins.ChangeEvent, 0, len(frame.Entries))
	for _, raw := range frame.Entries {
		entry, err := protocol.ParseEntry(raw)
		if err != nil {
			log.Debug().Err(err).Msg("ignoring entry")
			continue
		}
		if ch, ok := e.cache.Apply(entry, e.editing); ok {
			changes = append(changes, ch)
		}
	}
	e.mu.Unlock()

	for _, ch := range changes {
		e.broker.Publish(Event{Type: EventPinChanged, Change: ch})
	}
	if frame.Residual != "" {
		e.broker.Publish(Event{Type: EventLog, Text: frame.Residual})
	}
}
