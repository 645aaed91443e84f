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

import "slices"

// Layout lists the pins a board exposes.
type Layout struct {
	Name         string
	AnalogInputs []int
	Digital      []int
	// PWM-capable digital pins. Each must also appear in Digital.
	Dual []int
}

// UnoLayout is the Arduino Uno header: A0-A5 and D2-D13, with PWM on
// 3, 5, 6, 9, 10 and 11. D0/D1 are the serial link itself.
var UnoLayout = Layout{
	Name:         "Arduino Uno",
	AnalogInputs: []int{0, 1, 2, 3, 4, 5},
	Digital:      []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	Dual:         []int{3, 5, 6, 9, 10, 11},
}

func (l Layout) variant(index int) Variant {
	if slices.Contains(l.Dual, index) {
		return DualCapable
	}
	return DigitalOnly
}
