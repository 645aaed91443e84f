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

// Package pins holds the board layout and the per-pin state cache that the
// presentation layer renders from.
package pins

import (
	"fmt"

	"github.com/ZaparooProject/devino/pkg/protocol"
)

// ID identifies a physical header pin. Analog inputs use KindAnalog; every
// digital header pin uses KindDigital, including dual-capable pins currently
// driven as PWM (see State.Address).
type ID struct {
	Kind  protocol.Kind
	Index int
}

func Analog(index int) ID {
	return ID{Kind: protocol.KindAnalog, Index: index}
}

func Digital(index int) ID {
	return ID{Kind: protocol.KindDigital, Index: index}
}

func (id ID) String() string {
	return fmt.Sprintf("%s%d", id.Kind, id.Index)
}

// Variant describes what a pin is physically capable of.
type Variant int

const (
	// AnalogInput pins are read-only samples in the 0-1023 range.
	AnalogInput Variant = iota
	// DigitalOnly pins carry a 0/1 level.
	DigitalOnly
	// DualCapable pins start as digital and may switch to PWM (0-255).
	DualCapable
)

func (v Variant) String() string {
	switch v {
	case AnalogInput:
		return "analog_input"
	case DigitalOnly:
		return "digital_only"
	case DualCapable:
		return "dual_capable"
	default:
		return "unknown"
	}
}

// Mode is the current role of a digital header pin.
type Mode int

const (
	ModeDigital Mode = iota
	ModePwm
)

func (m Mode) String() string {
	if m == ModePwm {
		return "pwm"
	}
	return "digital"
}

// Value ranges by role.
const (
	AnalogMax  = 1023
	PwmMax     = 255
	DigitalMax = 1
)

// State is the last-known state of one pin.
type State struct {
	ID       ID
	Variant  Variant
	Mode     Mode
	Value    int
	Writable bool
	// Reported is false until the board has sent any entry for the pin.
	Reported bool
}

// Address returns the identity the board uses for the pin in its current
// mode: "A9" for pin 9 in PWM mode, "D9" otherwise.
func (s State) Address() string {
	if s.Variant == DualCapable && s.Mode == ModePwm {
		return ID{Kind: protocol.KindAnalog, Index: s.ID.Index}.String()
	}
	return s.ID.String()
}

// High reports whether a digital pin is at a high level.
func (s State) High() bool {
	return s.Value > 0
}

// Source tells where a value pushed into a control came from.
type Source int

const (
	// SourceDevice marks values reported by the board. Controls must not
	// turn these into outbound writes.
	SourceDevice Source = iota
	SourceOperator
)

func (s Source) String() string {
	if s == SourceOperator {
		return "operator"
	}
	return "device"
}

// ChangeEvent is emitted when the visible value, mode or writability of a pin
// changes.
type ChangeEvent struct {
	Pin                   ID
	Mode                  Mode
	Value                 int
	Source                Source
	WritabilityBecameTrue bool
	ModeBecamePwm         bool
}

// EditingFunc reports whether the operator is currently editing the control
// for a pin. A nil EditingFunc means nothing is being edited.
type EditingFunc func(ID) bool
