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

package tui

import (
	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/ZaparooProject/devino/pkg/pins"
)

// editState tracks the pin whose PWM value the operator is typing. It is
// read from the engine's poll goroutine through IsEditing.
type editState struct {
	id     pins.ID
	mu     syncutil.Mutex
	active bool
}

func (e *editState) Start(id pins.ID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id = id
	e.active = true
}

func (e *editState) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = false
}

// IsEditing matches pins.EditingFunc.
func (e *editState) IsEditing(id pins.ID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active && e.id == id
}
