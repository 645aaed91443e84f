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

// Package discovery enumerates serial ports and flags the ones that look
// like known Arduino boards.
package discovery

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"
)

const DefaultInterval = 10 * time.Second

// Board is a USB vendor/product pair that identifies a known board.
type Board struct {
	VID  string `validate:"required,hexadecimal,len=4"`
	PID  string `validate:"required,hexadecimal,len=4"`
	Name string `validate:"required"`
}

// DefaultBoards are the genuine Arduino boards and the common Uno clone id.
var DefaultBoards = []Board{
	{VID: "2A03", PID: "0043", Name: "Arduino Uno"},
	{VID: "2341", PID: "0043", Name: "Arduino Uno"},
	{VID: "2341", PID: "0001", Name: "Arduino Uno"},
	{VID: "2341", PID: "0010", Name: "Arduino Mega 2560"},
	{VID: "2341", PID: "0042", Name: "Arduino Mega 2560"},
	{VID: "2341", PID: "8036", Name: "Arduino Leonardo"},
	{VID: "2341", PID: "0058", Name: "Arduino Nano Every"},
}

// Port is one enumerated serial port.
type Port struct {
	Name       string
	HardwareID string
	// Board is the matched board name, empty for unknown devices.
	Board string
}

// Label is the text shown in a port menu, e.g. "COM3 (Arduino Uno)".
func (p Port) Label() string {
	if p.Board == "" {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Board)
}

// ListFunc enumerates serial ports.
type ListFunc func() ([]*enumerator.PortDetails, error)

// HardwareID renders port details the way most serial tools print them,
// e.g. "USB VID:PID=2341:0043 SER=95736323632351F0E1A1".
func HardwareID(d *enumerator.PortDetails) string {
	if d == nil || !d.IsUSB {
		return "n/a"
	}
	hwid := fmt.Sprintf("USB VID:PID=%s:%s", strings.ToUpper(d.VID), strings.ToUpper(d.PID))
	if d.SerialNumber != "" {
		hwid += " SER=" + d.SerialNumber
	}
	return hwid
}

// MatchBoard returns the name of the first board whose VID:PID pair appears
// in the hardware id.
func MatchBoard(hardwareID string, boards []Board) (string, bool) {
	hwid := strings.ToUpper(hardwareID)
	for _, b := range boards {
		if strings.Contains(hwid, "VID:PID="+strings.ToUpper(b.VID)+":"+strings.ToUpper(b.PID)) {
			return b.Name, true
		}
	}
	return "", false
}

type Options struct {
	Clock    clockwork.Clock
	List     ListFunc
	OnChange func([]Port)
	Boards   []Board
	Interval time.Duration
}

// Scanner periodically enumerates ports and remembers the last result.
type Scanner struct {
	clock    clockwork.Clock
	list     ListFunc
	onChange func([]Port)
	boards   []Board
	ports    []Port
	interval time.Duration
	mu       syncutil.RWMutex
	// scanMu serializes whole scans so OnChange sees lists in scan order.
	scanMu syncutil.Mutex
}

func NewScanner(opts Options) *Scanner {
	s := &Scanner{
		clock:    opts.Clock,
		list:     opts.List,
		onChange: opts.OnChange,
		boards:   opts.Boards,
		interval: opts.Interval,
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.list == nil {
		s.list = enumerator.GetDetailedPortsList
	}
	if s.boards == nil {
		s.boards = DefaultBoards
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	return s
}

// List returns the ports found by the last scan, sorted by name.
func (s *Scanner) List() []Port {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ports)
}

// Find returns the port with the given name from the last scan.
func (s *Scanner) Find(name string) (Port, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := slices.IndexFunc(s.ports, func(p Port) bool { return p.Name == name })
	if i < 0 {
		return Port{}, false
	}
	return s.ports[i], true
}

// FirstBoard returns the first port matched to a known board, falling back
// to the first port of any kind.
func (s *Scanner) FirstBoard() (Port, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.ports {
		if p.Board != "" {
			return p, true
		}
	}
	if len(s.ports) > 0 {
		return s.ports[0], true
	}
	return Port{}, false
}

// Scan enumerates ports once. It reports whether the result differs from
// the previous scan; OnChange is called when it does. Concurrent scans run
// one at a time and OnChange must not call Scan.
func (s *Scanner) Scan() ([]Port, bool, error) {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	details, err := s.list()
	if err != nil {
		return nil, false, fmt.Errorf("failed to list serial ports: %w", err)
	}

	ports := make([]Port, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		p := Port{Name: d.Name, HardwareID: HardwareID(d)}
		p.Board, _ = MatchBoard(p.HardwareID, s.boards)
		ports = append(ports, p)
	}
	slices.SortFunc(ports, func(a, b Port) int { return strings.Compare(a.Name, b.Name) })

	s.mu.Lock()
	changed := !slices.Equal(ports, s.ports)
	s.ports = ports
	s.mu.Unlock()

	if changed {
		log.Debug().Int("count", len(ports)).Msg("serial port list changed")
		if s.onChange != nil {
			s.onChange(slices.Clone(ports))
		}
	}
	return slices.Clone(ports), changed, nil
}

// Run scans immediately and then on every interval until ctx is cancelled.
// Enumeration errors are logged and the next tick tries again.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, _, err := s.Scan(); err != nil {
			log.Warn().Err(err).Msg("port scan failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

// Contains reports whether a port with the given name is in the list. A
// bound port missing from a fresh scan has been unplugged.
func Contains(ports []Port, name string) bool {
	return slices.ContainsFunc(ports, func(p Port) bool { return p.Name == name })
}
