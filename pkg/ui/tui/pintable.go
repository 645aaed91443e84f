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
	"strconv"

	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var tableHeaders = []string{"Pin", "Type", "Mode", "Value", "Access"}

const (
	colPin = iota
	colType
	colMode
	colValue
	colAccess
)

// pinRow is the text of one table row.
func pinRow(s pins.State) []string {
	row := make([]string, len(tableHeaders))
	row[colPin] = s.Address()

	switch s.Variant {
	case pins.AnalogInput:
		row[colType] = "analog"
	case pins.DigitalOnly:
		row[colType] = "digital"
	case pins.DualCapable:
		row[colType] = "digital~"
	}

	if s.Variant == pins.AnalogInput {
		row[colMode] = "input"
	} else {
		row[colMode] = s.Mode.String()
	}

	switch {
	case !s.Reported:
		row[colValue] = "-"
	case s.Variant != pins.AnalogInput && s.Mode == pins.ModeDigital:
		if s.High() {
			row[colValue] = "HIGH"
		} else {
			row[colValue] = "LOW"
		}
	default:
		row[colValue] = strconv.Itoa(s.Value)
	}

	switch {
	case s.Variant == pins.AnalogInput:
		row[colAccess] = "read"
	case s.Writable:
		row[colAccess] = "write"
	default:
		row[colAccess] = "read"
	}
	return row
}

func pinColor(s pins.State, t *Theme) tcell.Color {
	switch {
	case s.Variant == pins.AnalogInput:
		return t.AnalogColor
	case s.Mode == pins.ModePwm:
		return t.PwmColor
	case s.Writable:
		return t.WritableColor
	default:
		return t.ReadOnlyColor
	}
}

// pinTable renders the pin cache. Row 0 is the header; every other row maps
// to one physical pin and keeps that mapping for the table's lifetime.
type pinTable struct {
	*tview.Table
	theme *Theme
	rows  map[pins.ID]int
	ids   []pins.ID
}

func newPinTable(states []pins.State, theme *Theme) *pinTable {
	t := &pinTable{
		Table: tview.NewTable().SetSelectable(true, false).SetFixed(1, 0),
		theme: theme,
		rows:  make(map[pins.ID]int, len(states)),
		ids:   make([]pins.ID, 0, len(states)),
	}
	withTitle("Pins", t.Table)

	for col, h := range tableHeaders {
		t.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(theme.SecondaryTextColor).
			SetSelectable(false).
			SetExpansion(1))
	}
	for i, s := range states {
		t.rows[s.ID] = i + 1
		t.ids = append(t.ids, s.ID)
		t.Update(s)
	}
	if len(states) > 0 {
		t.Select(1, 0)
	}
	return t
}

// Update redraws the row for s. Unknown pins are ignored.
func (t *pinTable) Update(s pins.State) {
	row, ok := t.rows[s.ID]
	if !ok {
		return
	}
	color := pinColor(s, t.theme)
	for col, text := range pinRow(s) {
		t.SetCell(row, col, tview.NewTableCell(text).
			SetTextColor(color).
			SetExpansion(1))
	}
}

// PinAt returns the pin shown on a table row.
func (t *pinTable) PinAt(row int) (pins.ID, bool) {
	if row < 1 || row > len(t.ids) {
		return pins.ID{}, false
	}
	return t.ids[row-1], true
}

// Row returns the table row for a pin.
func (t *pinTable) Row(id pins.ID) (int, bool) {
	row, ok := t.rows[id]
	return row, ok
}
