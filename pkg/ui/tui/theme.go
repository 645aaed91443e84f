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
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Theme holds the colors the monitor uses for pin states and log text.
type Theme struct {
	AccentColorName    string
	SecondaryColor     string
	ErrorColorName     string
	SuccessColorName   string
	BorderColor        tcell.Color
	PrimaryTextColor   tcell.Color
	SecondaryTextColor tcell.Color
	Background         tcell.Color
	Contrast           tcell.Color
	InverseTextColor   tcell.Color
	AnalogColor        tcell.Color
	WritableColor      tcell.Color
	ReadOnlyColor      tcell.Color
	PwmColor           tcell.Color
}

var ThemeDefault = Theme{
	AccentColorName:  "yellow",
	SecondaryColor:   "gray",
	ErrorColorName:   "red",
	SuccessColorName: "green",

	BorderColor:        tcell.ColorLightYellow,
	PrimaryTextColor:   tcell.ColorWhite,
	SecondaryTextColor: tcell.ColorGray,
	Background:         tcell.ColorDarkBlue,
	Contrast:           tcell.ColorBlue,
	InverseTextColor:   tcell.ColorDarkBlue,

	AnalogColor:   tcell.ColorLightCyan,
	WritableColor: tcell.ColorGreen,
	ReadOnlyColor: tcell.ColorGray,
	PwmColor:      tcell.ColorFuchsia,
}

func SetTheme(theme *tview.Theme, t *Theme) {
	theme.BorderColor = t.BorderColor
	theme.PrimaryTextColor = t.PrimaryTextColor
	theme.ContrastSecondaryTextColor = t.PwmColor
	theme.PrimitiveBackgroundColor = t.Background
	theme.ContrastBackgroundColor = t.Contrast
	theme.InverseTextColor = t.InverseTextColor
	theme.SecondaryTextColor = t.SecondaryTextColor
}
