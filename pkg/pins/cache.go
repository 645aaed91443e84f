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

package pins

import (
	"github.com/ZaparooProject/devino/pkg/protocol"
)

// Cache is the single source of truth for pin state. It is not safe for
// concurrent use; the engine serializes all access.
type Cache struct {
	pins   map[ID]*State
	order  []ID
	layout Layout
}

func NewCache(layout Layout) *Cache {
	c := &Cache{layout: layout}
	c.Reset()
	return c
}

// Reset discards all reported state. It is called at the start of every
// connection session.
func (c *Cache) Reset() {
	c.pins = make(map[ID]*State, len(c.layout.AnalogInputs)+len(c.layout.Digital))
	c.order = c.order[:0]

	for _, i := range c.layout.AnalogInputs {
		id := Analog(i)
		c.pins[id] = &State{ID: id, Variant: AnalogInput}
		c.order = append(c.order, id)
	}
	for _, i := range c.layout.Digital {
		id := Digital(i)
		c.pins[id] = &State{ID: id, Variant: c.layout.variant(i)}
		c.order = append(c.order, id)
	}
}

func (c *Cache) Layout() Layout {
	return c.layout
}

func (c *Cache) Get(id ID) (State, bool) {
	s, ok := c.pins[id]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Snapshot returns a copy of every pin in layout order: analog inputs first,
// then digital pins.
func (c *Cache) Snapshot() []State {
	out := make([]State, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.pins[id])
	}
	return out
}

// Apply folds one inbound entry into the cache. It returns a change event
// only if something visible changed; repeating an identical report is a
// no-op. Entries for pins the layout does not have are ignored.
func (c *Cache) Apply(e protocol.Entry, editing EditingFunc) (ChangeEvent, bool) {
	switch e.Type {
	case protocol.EntryAnalogReading:
		return c.applyAnalog(e)
	case protocol.EntryPwmAck:
		return c.applyPwm(e, editing)
	case protocol.EntryDigitalAck:
		return c.applyDigital(e)
	default:
		return ChangeEvent{}, false
	}
}

func (c *Cache) applyAnalog(e protocol.Entry) (ChangeEvent, bool) {
	s, ok := c.pins[Analog(e.Index)]
	if !ok {
		return ChangeEvent{}, false
	}
	if s.Reported && s.Value == e.Value {
		return ChangeEvent{}, false
	}

	s.Value = e.Value
	s.Reported = true
	return ChangeEvent{Pin: s.ID, Value: s.Value, Source: SourceDevice}, true
}

func (c *Cache) applyPwm(e protocol.Entry, editing EditingFunc) (ChangeEvent, bool) {
	s, ok := c.pins[Digital(e.Index)]
	if !ok || s.Variant != DualCapable {
		return ChangeEvent{}, false
	}

	// don't clobber a value the operator is typing
	if s.Mode == ModePwm && s.Writable && editing != nil && editing(s.ID) {
		return ChangeEvent{}, false
	}

	becamePwm := s.Mode != ModePwm
	becameWritable := !s.Writable
	changed := !s.Reported || s.Value != e.Value
	if !becamePwm && !becameWritable && !changed {
		return ChangeEvent{}, false
	}

	s.Mode = ModePwm
	s.Writable = true
	s.Value = e.Value
	s.Reported = true
	return ChangeEvent{
		Pin:                   s.ID,
		Mode:                  ModePwm,
		Value:                 s.Value,
		Source:                SourceDevice,
		WritabilityBecameTrue: becameWritable,
		ModeBecamePwm:         becamePwm,
	}, true
}

func (c *Cache) applyDigital(e protocol.Entry) (ChangeEvent, bool) {
	s, ok := c.pins[Digital(e.Index)]
	if !ok {
		return ChangeEvent{}, false
	}
	// PWM mode is sticky for the session; a digital level would overwrite
	// the duty cycle with a value from a different range.
	if s.Mode == ModePwm {
		return ChangeEvent{}, false
	}

	becameWritable := e.OriginWasWrite && !s.Writable
	changed := !s.Reported || s.Value != e.Value
	if !becameWritable && !changed {
		return ChangeEvent{}, false
	}

	s.Value = e.Value
	s.Reported = true
	if becameWritable {
		s.Writable = true
	}
	return ChangeEvent{
		Pin:                   s.ID,
		Mode:                  ModeDigital,
		Value:                 s.Value,
		Source:                SourceDevice,
		WritabilityBecameTrue: becameWritable,
	}, true
}
