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

//go:build !deadlock

// Package syncutil provides the mutexes used by the engine. Building with
// -tags=deadlock swaps in go-deadlock so lock-order inversions between the
// connection manager and the engine are reported during development.
package syncutil

import "sync"

const DeadlockEnabled = false

//nolint:gocritic // this package wraps sync.Mutex
type Mutex struct {
	sync.Mutex //nolint:forbidigo // wrapped
}

//nolint:gocritic // this package wraps sync.RWMutex
type RWMutex struct {
	sync.RWMutex //nolint:forbidigo // wrapped
}
