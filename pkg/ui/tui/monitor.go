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

// Package tui is the terminal front end: a pin table, the serial log, a raw
// send line and a port picker, all driven by engine events.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ZaparooProject/devino/pkg/discovery"
	"github.com/ZaparooProject/devino/pkg/engine"
	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/serialconn"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	PageMonitor = "monitor"
	PagePorts   = "ports"
	PagePwm     = "pwm"

	logMaxLines = 1000
)

// Controller is the part of the engine the monitor drives.
type Controller interface {
	Snapshot() []pins.State
	Pin(id pins.ID) (pins.State, bool)
	State() serialconn.ConnectionState
	SelectPort(name string) error
	DeselectPort()
	SendRaw(text string) error
	ToggleDigital(index int) error
	ControlChanged(id pins.ID, value int, source pins.Source) error
	SetEditing(fn pins.EditingFunc)
}

// PortLister returns the ports found by the last discovery scan.
type PortLister func() []discovery.Port

type Monitor struct {
	ctrl    Controller
	ports   PortLister
	theme   *Theme
	app     *tview.Application
	pages   *tview.Pages
	table   *pinTable
	logView *tview.TextView
	status  *tview.TextView
	input   *tview.InputField
	notes   chan string
	editing editState
}

// NewMonitor builds the widgets. Call SetTheme on tview.Styles first; the
// widgets pick up colors when created.
func NewMonitor(ctrl Controller, ports PortLister) *Monitor {
	m := &Monitor{
		ctrl:  ctrl,
		ports: ports,
		theme: &ThemeDefault,
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
		notes: make(chan string, 8),
	}
	ctrl.SetEditing(m.editing.IsEditing)

	m.table = newPinTable(ctrl.Snapshot(), m.theme)
	m.table.SetSelectedFunc(func(row, _ int) {
		if id, ok := m.table.PinAt(row); ok {
			m.activate(id)
		}
	})

	m.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetMaxLines(logMaxLines)
	withTitle("Serial monitor", m.logView)

	m.input = tview.NewInputField().SetLabel("Send: ")
	m.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			m.send()
		}
	})

	m.status = tview.NewTextView().SetDynamicColors(true)

	help := tview.NewTextView().SetDynamicColors(true).SetText(fmt.Sprintf(
		"[%s]Enter[-] toggle/edit  [%s]Tab[-] focus  [%s]Ctrl-P[-] port  [%s]Ctrl-C[-] quit",
		m.theme.AccentColorName, m.theme.AccentColorName,
		m.theme.AccentColorName, m.theme.AccentColorName,
	))

	body := tview.NewFlex().
		AddItem(m.table, 44, 0, true).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(m.logView, 0, 1, false).
			AddItem(m.input, 1, 0, false), 0, 1, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(m.status, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(help, 1, 0, false)

	m.pages.AddPage(PageMonitor, root, true, true)
	m.app.SetRoot(m.pages, true)
	m.app.SetInputCapture(m.captureKeys)
	m.updateStatus(ctrl.State())
	return m
}

// App exposes the application, mainly so tests can attach a simulation
// screen.
func (m *Monitor) App() *tview.Application {
	return m.app
}

// Run shows the monitor until the user quits or ctx is done. Events are
// applied on the ui goroutine; one arriving while the app stops is dropped.
func (m *Monitor) Run(ctx context.Context, events <-chan engine.Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for {
			select {
			case <-ctx.Done():
				m.app.Stop()
				return
			case text := <-m.notes:
				m.app.QueueUpdateDraw(func() {
					m.notice("%s", text)
				})
			case ev, ok := <-events:
				if !ok {
					m.app.Stop()
					return
				}
				m.app.QueueUpdateDraw(func() {
					m.HandleEvent(ev)
				})
			}
		}
	}()

	if err := m.app.Run(); err != nil {
		return fmt.Errorf("failed to run application: %w", err)
	}
	return nil
}

func (m *Monitor) captureKeys(ev *tcell.EventKey) *tcell.EventKey {
	if m.pages.HasPage(PagePorts) || m.pages.HasPage(PagePwm) {
		return ev
	}
	switch ev.Key() {
	case tcell.KeyCtrlP:
		m.ShowPorts()
		return nil
	case tcell.KeyTab, tcell.KeyBacktab:
		if m.input.HasFocus() {
			m.app.SetFocus(m.table)
		} else {
			m.app.SetFocus(m.input)
		}
		return nil
	default:
		return ev
	}
}

// HandleEvent applies one engine event to the widgets. It must run on the
// ui goroutine.
func (m *Monitor) HandleEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventPinChanged:
		if s, ok := m.ctrl.Pin(ev.Change.Pin); ok {
			m.table.Update(s)
		}
	case engine.EventLog:
		m.appendLog(tview.Escape(ev.Text))
	case engine.EventError:
		log.Debug().Err(ev.Err).Msg("serial error shown in status")
	case engine.EventConnection:
		if ev.Connection.IsOpen {
			// A new session starts from an empty cache.
			m.refreshPins()
		}
		m.updateStatus(ev.Connection)
	}
}

func (m *Monitor) refreshPins() {
	for _, s := range m.ctrl.Snapshot() {
		m.table.Update(s)
	}
}

func (m *Monitor) appendLog(text string) {
	_, _ = fmt.Fprint(m.logView, text)
	m.logView.ScrollToEnd()
}

func (m *Monitor) notice(format string, args ...any) {
	m.appendLog(fmt.Sprintf("[%s]%s[-]\n", m.theme.ErrorColorName, tview.Escape(fmt.Sprintf(format, args...))))
}

func (m *Monitor) updateStatus(c serialconn.ConnectionState) {
	var sb strings.Builder
	sb.WriteString("Port: ")
	switch {
	case c.PortName == "":
		sb.WriteString("None")
	case c.IsOpen:
		_, _ = fmt.Fprintf(&sb, "%s [%s](connected)[-]", tview.Escape(c.PortName), m.theme.SuccessColorName)
	case c.LastError != nil:
		_, _ = fmt.Fprintf(&sb, "%s [%s](%s)[-]", tview.Escape(c.PortName), m.theme.ErrorColorName,
			tview.Escape(c.LastError.Error()))
	default:
		_, _ = fmt.Fprintf(&sb, "%s [%s](closed)[-]", tview.Escape(c.PortName), m.theme.SecondaryColor)
	}
	m.status.SetText(sb.String())
}

func (m *Monitor) send() {
	text := m.input.GetText()
	if text == "" {
		return
	}
	m.input.SetText("")
	if err := m.ctrl.SendRaw(text); err != nil {
		m.notice("send failed: %v", err)
	}
}

// activate runs the table action for a pin: digital pins toggle, PWM pins
// open the value editor.
func (m *Monitor) activate(id pins.ID) {
	s, ok := m.ctrl.Pin(id)
	if !ok || s.Variant == pins.AnalogInput {
		return
	}
	if !s.Writable {
		m.notice("%s is not writable yet", s.Address())
		return
	}
	if s.Mode == pins.ModePwm {
		m.ShowPwmEditor(s)
		return
	}
	if err := m.ctrl.ToggleDigital(id.Index); err != nil {
		m.notice("toggle %s failed: %v", s.Address(), err)
	}
}

// ShowPwmEditor opens a value prompt for a PWM pin. Device updates for the
// pin are held back while the prompt is open.
func (m *Monitor) ShowPwmEditor(s pins.State) {
	m.editing.Start(s.ID)

	field := tview.NewInputField().
		SetLabel(fmt.Sprintf("%s (0-%d): ", s.Address(), pins.PwmMax)).
		SetText(strconv.Itoa(s.Value)).
		SetFieldWidth(5).
		SetAcceptanceFunc(tview.InputFieldInteger)
	withTitle("PWM", field)

	field.SetDoneFunc(func(key tcell.Key) {
		defer m.closePwmEditor()
		if key != tcell.KeyEnter {
			return
		}
		if err := m.submitPwm(s.ID, field.GetText()); err != nil {
			m.notice("set %s failed: %v", s.Address(), err)
		}
	})

	m.pages.AddPage(PagePwm, CenterWidget(30, 3, field), true, true)
	m.app.SetFocus(field)
}

var errNotNumber = errors.New("not a number")

func (m *Monitor) submitPwm(id pins.ID, text string) error {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("%w: %q", errNotNumber, text)
	}
	//nolint:wrapcheck // engine errors are already descriptive
	return m.ctrl.ControlChanged(id, v, pins.SourceOperator)
}

func (m *Monitor) closePwmEditor() {
	m.editing.Stop()
	m.pages.RemovePage(PagePwm)
	m.app.SetFocus(m.table)
	// Values that arrived while editing were skipped.
	m.refreshPins()
}

// ShowPorts opens the port picker. The first entry closes the current
// connection.
func (m *Monitor) ShowPorts() {
	list := tview.NewList().ShowSecondaryText(true)
	withTitle("Port", list)

	current := m.ctrl.State().PortName
	list.AddItem("None", "close the current port", 0, func() {
		m.closePorts()
		m.ctrl.DeselectPort()
	})
	for _, p := range m.ports() {
		name := p.Name
		label := p.Label()
		if name == current {
			label = "* " + label
		}
		list.AddItem(tview.Escape(label), p.HardwareID, 0, func() {
			m.closePorts()
			if err := m.ctrl.SelectPort(name); err != nil {
				m.notice("open %s failed: %v", name, err)
			}
		})
	}
	list.SetDoneFunc(m.closePorts)

	m.pages.AddPage(PagePorts, CenterWidget(50, 12, list), true, true)
	m.app.SetFocus(list)
}

func (m *Monitor) closePorts() {
	m.pages.RemovePage(PagePorts)
	m.app.SetFocus(m.table)
}

// PortsChanged is called by discovery with a fresh port list. It is safe to
// call from any goroutine and never blocks.
func (m *Monitor) PortsChanged(ports []discovery.Port) {
	current := m.ctrl.State().PortName
	if current == "" || discovery.Contains(ports, current) {
		return
	}
	select {
	case m.notes <- current + " is no longer available":
	default:
	}
}
