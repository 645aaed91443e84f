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

import "fmt"

type op int

const (
	opGet op = iota
	opSet
)

// Command is an outbound request to the board. Commands carry no state after
// they are encoded and sent.
type Command struct {
	Kind  Kind
	Index int
	Value int
	op    op
}

func GetAnalog(index int) Command {
	return Command{op: opGet, Kind: KindAnalog, Index: index}
}

func GetDigital(index int) Command {
	return Command{op: opGet, Kind: KindDigital, Index: index}
}

// SetAnalog writes a PWM duty cycle to a dual-capable pin.
func SetAnalog(index, value int) Command {
	return Command{op: opSet, Kind: KindAnalog, Index: index, Value: value}
}

func SetDigital(index, value int) Command {
	return Command{op: opSet, Kind: KindDigital, Index: index, Value: value}
}

// IsSet reports whether the command writes to the board.
func (c Command) IsSet() bool {
	return c.op == opSet
}

func (c Command) String() string {
	if c.op == opSet {
		return fmt.Sprintf("<set %s %d %d>", c.Kind.command(), c.Index, c.Value)
	}
	return fmt.Sprintf("<get %s %d>", c.Kind.command(), c.Index)
}

// Encode renders a command to its wire form. No range checks are done here;
// callers validate values before building the command.
func Encode(c Command) []byte {
	return []byte(c.String())
}
