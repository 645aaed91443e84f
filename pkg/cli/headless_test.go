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
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ZaparooProject/devino/pkg/engine"
	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/ZaparooProject/devino/pkg/pins"
	"github.com/ZaparooProject/devino/pkg/serialconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFormatEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		ev   engine.Event
	}{
		{
			name: "analog reading",
			ev: engine.Event{Type: engine.EventPinChanged, Change: pins.ChangeEvent{
				Pin: pins.Analog(0), Value: 512,
			}},
			want: "A0 = 512",
		},
		{
			name: "digital became writable",
			ev: engine.Event{Type: engine.EventPinChanged, Change: pins.ChangeEvent{
				Pin: pins.Digital(13), Value: 1, WritabilityBecameTrue: true,
			}},
			want: "D13 = 1 [writable]",
		},
		{
			name: "pin switched to pwm",
			ev: engine.Event{Type: engine.EventPinChanged, Change: pins.ChangeEvent{
				Pin: pins.Digital(9), Mode: pins.ModePwm, Value: 128,
				ModeBecamePwm: true, WritabilityBecameTrue: true,
			}},
			want: "A9 = 128 [pwm] [writable]",
		},
		{
			name: "log text trimmed",
			ev:   engine.Event{Type: engine.EventLog, Text: "hello\r\n"},
			want: "hello",
		},
		{
			name: "error is silent",
			ev:   engine.Event{Type: engine.EventError, Err: errors.New("boom")},
		},
		{
			name: "connected",
			ev: engine.Event{Type: engine.EventConnection, Connection: serialconn.ConnectionState{
				PortName: "COM3", IsOpen: true,
			}},
			want: "connected: COM3",
		},
		{
			name: "failed",
			ev: engine.Event{Type: engine.EventConnection, Connection: serialconn.ConnectionState{
				PortName: "COM3", LastError: errors.New("busy"),
			}},
			want: "disconnected: COM3 (busy)",
		},
		{
			name: "closed",
			ev:   engine.Event{Type: engine.EventConnection},
			want: "disconnected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatEvent(tt.ev))
		})
	}
}

type stubConn struct {
	handler serialconn.Handler
}

func (*stubConn) Open(string) error                  { return nil }
func (*stubConn) Close()                             {}
func (*stubConn) Write([]byte) error                 { return nil }
func (*stubConn) State() serialconn.ConnectionState { return serialconn.ConnectionState{} }

type lockedBuffer struct {
	buf bytes.Buffer
	mu  syncutil.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	//nolint:wrapcheck // test writer
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunHeadless(t *testing.T) {
	t.Parallel()

	conn := &stubConn{}
	eng := engine.New(engine.Options{
		NewConn: func(h serialconn.Handler) engine.Conn {
			conn.handler = h
			return conn
		},
	})

	events, id := eng.Subscribe(16)
	defer eng.Unsubscribe(id)

	ctx, cancel := context.WithCancel(context.Background())
	out := &lockedBuffer{}
	done := make(chan error, 1)
	go func() { done <- RunHeadless(ctx, events, out) }()

	conn.handler(serialconn.Event{
		Type: serialconn.EventMessageReceived,
		Data: []byte("ready\n"),
	})
	conn.handler(serialconn.Event{
		Type: serialconn.EventMessageReceived,
		Data: []byte("<RA0 300,WD13 1>"),
	})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "D13 = 1 [writable]")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "ready\nA0 = 300\nD13 = 1 [writable]\n", out.String())

	cancel()
	require.NoError(t, <-done)
	eng.Close()
}

func TestRunHeadless_StopsWhenEngineCloses(t *testing.T) {
	t.Parallel()

	eng := engine.New(engine.Options{
		NewConn: func(serialconn.Handler) engine.Conn { return &stubConn{} },
	})
	events, _ := eng.Subscribe(4)

	done := make(chan error, 1)
	go func() { done <- RunHeadless(context.Background(), events, &lockedBuffer{}) }()

	eng.Close()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("headless run did not stop")
	}
}
