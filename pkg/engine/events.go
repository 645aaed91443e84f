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

package engine

import (
	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/serialconn"
)

type EventType int

const (
	// EventPinChanged carries a pin change reported by the board.
	EventPinChanged EventType = iota
	// EventLog carries free text for the operator's log view.
	EventLog
	// EventError carries a transport failure. It is always accompanied by
	// an EventLog line describing it.
	EventError
	// EventConnection carries the new connection state after an open,
	// close or failure.
	EventConnection
)

func (t EventType) String() string {
	switch t {
	case EventPinChanged:
		return "pin_changed"
	case EventLog:
		return "log"
	case EventError:
		return "error"
	case EventConnection:
		return "connection"
	default:
		return "unknown"
	}
}

type Event struct {
	Err        error
	Text       string
	Connection serialconn.ConnectionState
	Change     pins.ChangeEvent
	Type       EventType
}
