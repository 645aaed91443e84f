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
	"strings"
	"testing"

	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/protocol"
	"github.com/ZaparooProject/devino/pkg/serialconn"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestScreen wraps a tcell simulation screen with text helpers.
type TestScreen struct {
	tcell.SimulationScreen
	t *testing.T
}

func NewTestScreen(t *testing.T, width, height int) *TestScreen {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NotNil(t, sim, "failed to create simulation screen")

	err := sim.Init()
	require.NoError(t, err, "failed to initialize simulation screen")

	sim.SetSize(width, height)
	return &TestScreen{SimulationScreen: sim, t: t}
}

func (s *TestScreen) GetScreenText() string {
	cells, width, height := s.GetContents()
	var sb strings.Builder
	for y := range height {
		for x := range width {
			cell := cells[y*width+x]
			if len(cell.Runes) > 0 {
				sb.WriteRune(cell.Runes[0])
			} else {
				sb.WriteRune(' ')
			}
		}
		if y < height-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

func (s *TestScreen) ContainsText(text string) bool {
	return strings.Contains(s.GetScreenText(), text)
}

// fakeController serves pin state from a real cache and records operator
// actions with testify mocks.
type fakeController struct {
	mock.Mock
	cache   *pins.Cache
	editing pins.EditingFunc
	state   serialconn.ConnectionState
}

func newFakeController() *fakeController {
	return &fakeController{cache: pins.NewCache(pins.UnoLayout)}
}

func (f *fakeController) feed(t *testing.T, raws ...string) {
	t.Helper()
	for _, raw := range raws {
		e, err := protocol.ParseEntry(raw)
		require.NoError(t, err)
		f.cache.Apply(e, f.editing)
	}
}

func (f *fakeController) Snapshot() []pins.State {
	return f.cache.Snapshot()
}

func (f *fakeController) Pin(id pins.ID) (pins.State, bool) {
	return f.cache.Get(id)
}

func (f *fakeController) State() serialconn.ConnectionState {
	return f.state
}

func (f *fakeController) SetEditing(fn pins.EditingFunc) {
	f.editing = fn
}

func (f *fakeController) SelectPort(name string) error {
	args := f.Called(name)
	return args.Error(0)
}

func (f *fakeController) DeselectPort() {
	f.Called()
}

func (f *fakeController) SendRaw(text string) error {
	args := f.Called(text)
	return args.Error(0)
}

func (f *fakeController) ToggleDigital(index int) error {
	args := f.Called(index)
	return args.Error(0)
}

func (f *fakeController) ControlChanged(id pins.ID, value int, source pins.Source) error {
	args := f.Called(id, value, source)
	return args.Error(0)
}
