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

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// EntryType is the classification of an inbound sub-entry.
type EntryType int

const (
	EntryUnrecognized EntryType = iota
	// EntryAnalogReading is an RA entry: an analog input sample.
	EntryAnalogReading
	// EntryPwmAck is a WA entry: a dual-capable pin reported in PWM mode.
	EntryPwmAck
	// EntryDigitalAck is any entry whose second character is D.
	EntryDigitalAck
)

func (t EntryType) String() string {
	switch t {
	case EntryAnalogReading:
		return "analog_reading"
	case EntryPwmAck:
		return "pwm_ack"
	case EntryDigitalAck:
		return "digital_ack"
	default:
		return "unrecognized"
	}
}

// Entry is one decoded and classified sub-entry, for example "WD13 1".
type Entry struct {
	Raw            string
	Type           EntryType
	Kind           Kind
	Index          int
	Value          int
	OriginWasWrite bool
}

// Writable reports whether the entry grants write capability to its pin.
func (e Entry) Writable() bool {
	switch e.Type {
	case EntryPwmAck:
		return true
	case EntryDigitalAck:
		return e.OriginWasWrite
	default:
		return false
	}
}

// ParseEntry classifies a sub-entry of the form <origin><kind><index> <value>.
//
// The checks run in a fixed order: an RA prefix, then a WA prefix, then a D
// in the second position. The digital check only looks at that one byte, so
// the two analog prefixes must be tested first.
func ParseEntry(raw string) (Entry, error) {
	if len(raw) < 2 {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnrecognizedEntry, raw)
	}

	e := Entry{Raw: raw}
	switch {
	case strings.HasPrefix(raw, "RA"):
		e.Type = EntryAnalogReading
		e.Kind = KindAnalog
	case strings.HasPrefix(raw, "WA"):
		e.Type = EntryPwmAck
		e.Kind = KindAnalog
		e.OriginWasWrite = true
	case raw[1] == byte(KindDigital):
		e.Type = EntryDigitalAck
		e.Kind = KindDigital
		e.OriginWasWrite = raw[0] == OriginWrite
	default:
		return Entry{}, fmt.Errorf("%w: %q", ErrUnrecognizedEntry, raw)
	}

	index, value, ok := strings.Cut(raw[2:], " ")
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing value in %q", ErrUnrecognizedEntry, raw)
	}

	if e.Index, ok = parseDigits(index); !ok {
		return Entry{}, fmt.Errorf("%w: bad index in %q", ErrUnrecognizedEntry, raw)
	}
	if e.Value, ok = parseDigits(value); !ok {
		return Entry{}, fmt.Errorf("%w: bad value in %q", ErrUnrecognizedEntry, raw)
	}

	return e, nil
}

// parseDigits accepts unsigned decimal numbers only; strconv.Atoi would
// also take a leading sign.
func parseDigits(s string) (int, bool) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
