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

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/devino/pkg/engine"
	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/protocol"
)

// FormatEvent renders an engine event as one line of headless output.
// Events with nothing to show return an empty string.
func FormatEvent(ev engine.Event) string {
	switch ev.Type {
	case engine.EventPinChanged:
		return formatChange(ev.Change)
	case engine.EventLog:
		return strings.TrimRight(ev.Text, "\r\n")
	case engine.EventError:
		// The matching log event already carries the text.
		return ""
	case engine.EventConnection:
		c := ev.Connection
		switch {
		case c.IsOpen:
			return fmt.Sprintf("connected: %s", c.PortName)
		case c.LastError != nil:
			return fmt.Sprintf("disconnected: %s (%v)", c.PortName, c.LastError)
		case c.PortName != "":
			return fmt.Sprintf("disconnected: %s", c.PortName)
		default:
			return "disconnected"
		}
	default:
		return ""
	}
}

func formatChange(ch pins.ChangeEvent) string {
	addr := ch.Pin.String()
	if ch.Mode == pins.ModePwm {
		addr = fmt.Sprintf("%s%d", protocol.KindAnalog, ch.Pin.Index)
	}

	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "%s = %d", addr, ch.Value)
	if ch.ModeBecamePwm {
		sb.WriteString(" [pwm]")
	}
	if ch.WritabilityBecameTrue {
		sb.WriteString(" [writable]")
	}
	return sb.String()
}

// RunHeadless prints engine events to out until ctx is done or the
// subscription is closed.
func RunHeadless(ctx context.Context, events <-chan engine.Event, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if line := FormatEvent(ev); line != "" {
				if _, err := fmt.Fprintln(out, line); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}
	}
}
