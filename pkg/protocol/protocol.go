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

// Package protocol implements the Devino wire protocol: bracket-framed text
// entries reported by the board and the get/set commands sent to it.
package protocol

import "errors"

var (
	// ErrDecodeSkipped is returned for chunks that are not valid UTF-8 text.
	// Callers drop these without surfacing them to the operator.
	ErrDecodeSkipped = errors.New("chunk is not text")
	// ErrUnrecognizedEntry is returned for sub-entries with an unknown tag
	// or a malformed index/value.
	ErrUnrecognizedEntry = errors.New("unrecognized entry")
)

// Kind is the pin family addressed by an entry or command.
type Kind byte

const (
	KindAnalog  Kind = 'A'
	KindDigital Kind = 'D'
)

func (k Kind) String() string {
	switch k {
	case KindAnalog:
		return "A"
	case KindDigital:
		return "D"
	default:
		return "?"
	}
}

// command returns the lowercase letter used by outbound commands.
func (k Kind) command() string {
	if k == KindAnalog {
		return "a"
	}
	return "d"
}

// Origin markers prefix every inbound entry.
const (
	OriginRead  byte = 'R'
	OriginWrite byte = 'W'
)
