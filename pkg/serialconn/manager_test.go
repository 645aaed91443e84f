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

package serialconn

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/devino/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type harness struct {
	mgr     *Manager
	factory *mocks.MockPortFactory
	clock   *clockwork.FakeClock
	events  chan Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		factory: mocks.NewMockPortFactory(),
		clock:   clockwork.NewFakeClock(),
		events:  make(chan Event, 64),
	}
	h.mgr = NewManager(Options{
		Clock: h.clock,
		Factory: func(name string, mode *serial.Mode) (Port, error) {
			p, err := h.factory.Open(name, mode)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Handler: func(ev Event) { h.events <- ev },
	})
	t.Cleanup(h.mgr.Close)
	return h
}

func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-h.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func (h *harness) none(t *testing.T) {
	t.Helper()
	select {
	case ev := <-h.events:
		t.Fatalf("unexpected event: %s", ev.Type)
	default:
	}
}

func (h *harness) advance(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(DefaultPollInterval)
}

func TestOpen(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))

	ev := h.next(t)
	assert.Equal(t, EventOpened, ev.Type)
	assert.Equal(t, "/dev/ttyACM0", ev.Port)
	assert.NotEmpty(t, ev.SessionID)

	state := h.mgr.State()
	assert.True(t, state.IsOpen)
	assert.Equal(t, "/dev/ttyACM0", state.PortName)
	assert.Equal(t, ev.SessionID, state.SessionID)
	require.NoError(t, state.LastError)

	modes := h.factory.Modes()
	require.Len(t, modes, 1)
	assert.Equal(t, 115200, modes[0].BaudRate)
	assert.Equal(t, 1, h.factory.Last().Resets(), "stale input must be cleared")
}

func TestOpen_EmptyName(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.ErrorIs(t, h.mgr.Open(""), ErrNoPort)
	assert.Empty(t, h.factory.Opened())
}

func TestOpen_Failure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.factory.SetOpenError(errors.New("port busy"))

	err := h.mgr.Open("COM3")
	require.ErrorIs(t, err, ErrTransportOpenFailed)
	assert.Contains(t, err.Error(), "port busy")

	state := h.mgr.State()
	assert.False(t, state.IsOpen)
	assert.Equal(t, "COM3", state.PortName)
	require.ErrorIs(t, state.LastError, ErrTransportOpenFailed)
	h.none(t)
}

func TestOpen_ResetFailureClosesPort(t *testing.T) {
	t.Parallel()

	port := mocks.NewMockSerialPort()
	port.SetResetError(errors.New("ioctl failed"))
	mgr := NewManager(Options{
		Clock: clockwork.NewFakeClock(),
		Factory: func(string, *serial.Mode) (Port, error) {
			return port, nil
		},
	})
	t.Cleanup(mgr.Close)

	require.ErrorIs(t, mgr.Open("COM1"), ErrTransportOpenFailed)
	assert.True(t, port.IsClosed())
	assert.False(t, mgr.State().IsOpen)
}

func TestOpen_SwitchesPorts(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	first := h.factory.Last()
	require.NoError(t, h.mgr.Open("/dev/ttyACM1"))

	assert.True(t, first.IsClosed())
	assert.False(t, h.factory.Last().IsClosed())
	assert.Equal(t, "/dev/ttyACM1", h.mgr.State().PortName)
}

func TestOpen_FailureForgetsPreviousSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	old := h.next(t).SessionID
	require.NotEmpty(t, old)

	h.factory.SetOpenError(errors.New("port busy"))
	require.ErrorIs(t, h.mgr.Open("/dev/ttyACM1"), ErrTransportOpenFailed)
	assert.Empty(t, h.mgr.State().SessionID)

	// the lazy retry reports its failure without the old session
	require.ErrorIs(t, h.mgr.Write([]byte("<get a 0>")), ErrTransportOpenFailed)
	ev := h.next(t)
	assert.Equal(t, EventError, ev.Type)
	assert.Empty(t, ev.SessionID)
}

func TestPollTick(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	assert.Equal(t, EventOpened, h.next(t).Type)

	h.factory.Last().QueueRead("<RA0 512>\n")
	h.advance(t)

	ev := h.next(t)
	assert.Equal(t, EventMessageReceived, ev.Type)
	assert.Equal(t, "<RA0 512>\n", string(ev.Data))
}

func TestPoll_NothingRead(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)

	h.mgr.Poll()
	h.none(t)
}

func TestPoll_StopsAtReadLimit(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)

	// a board streaming without newlines must not stall the poll
	h.factory.Last().SetReadFunc(func(p []byte) (int, error) {
		for i := range p {
			p[i] = 'x'
		}
		return len(p), nil
	})
	h.mgr.Poll()

	ev := h.next(t)
	assert.Equal(t, EventMessageReceived, ev.Type)
	assert.Len(t, ev.Data, readLimit)
	assert.True(t, h.mgr.State().IsOpen)
}

func TestPoll_ReadsUpToNewline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)

	port := h.factory.Last()
	port.QueueRead("<RA0 ")
	port.QueueRead("1>\n")
	port.QueueRead("tail")

	h.mgr.Poll()
	assert.Equal(t, "<RA0 1>\n", string(h.next(t).Data))

	h.mgr.Poll()
	assert.Equal(t, "tail", string(h.next(t).Data))
}

func TestPollTick_ReadFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)

	port := h.factory.Last()
	port.SetReadError(errors.New("device disconnected"))
	h.advance(t)

	ev := h.next(t)
	assert.Equal(t, EventError, ev.Type)
	require.ErrorIs(t, ev.Err, ErrTransportIOFailed)
	assert.Contains(t, ev.Err.Error(), "device disconnected")

	state := h.mgr.State()
	assert.False(t, state.IsOpen)
	assert.Equal(t, "/dev/ttyACM0", state.PortName, "port stays bound for lazy reconnect")
	assert.True(t, port.IsClosed())

	// the poll is stopped, no timed retry
	h.clock.Advance(10 * DefaultPollInterval)
	h.none(t)
	assert.Equal(t, 1, h.factory.Count())
}

func TestPoll_ReopensLazily(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)
	h.factory.Last().SetReadError(errors.New("gone"))
	h.mgr.Poll()
	assert.Equal(t, EventError, h.next(t).Type)

	h.mgr.Poll()
	assert.Equal(t, EventOpened, h.next(t).Type)
	assert.Equal(t, 2, h.factory.Count())
	assert.True(t, h.mgr.State().IsOpen)
}

func TestWrite(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)

	require.NoError(t, h.mgr.Write([]byte("<get a 0>")))
	assert.Equal(t, "<get a 0>", h.factory.Last().Written())
	h.none(t)
}

func TestWrite_NoPort(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.ErrorIs(t, h.mgr.Write([]byte("x")), ErrNoPort)
	h.none(t)
}

func TestWrite_FailureThenReopen(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)
	first := h.factory.Last()
	first.SetWriteError(errors.New("write timeout"))

	err := h.mgr.Write([]byte("<set d 7 1>"))
	require.ErrorIs(t, err, ErrTransportIOFailed)

	ev := h.next(t)
	assert.Equal(t, EventError, ev.Type)
	h.none(t)
	assert.False(t, h.mgr.State().IsOpen)
	assert.True(t, first.IsClosed())

	require.NoError(t, h.mgr.Write([]byte("<set d 7 1>")))
	assert.Equal(t, EventOpened, h.next(t).Type)
	assert.Equal(t, 2, h.factory.Count())
	assert.Equal(t, "<set d 7 1>", h.factory.Last().Written())
	assert.True(t, h.mgr.State().IsOpen)
}

func TestWrite_ReopenFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)
	h.factory.Last().SetWriteError(errors.New("unplugged"))
	require.Error(t, h.mgr.Write([]byte("a")))
	h.next(t)

	h.factory.SetOpenError(errors.New("no such file"))
	err := h.mgr.Write([]byte("b"))
	require.ErrorIs(t, err, ErrTransportOpenFailed)

	ev := h.next(t)
	assert.Equal(t, EventError, ev.Type)
	require.ErrorIs(t, ev.Err, ErrTransportOpenFailed)
}

func TestClose(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	// no-op without a port
	h.mgr.Close()

	require.NoError(t, h.mgr.Open("/dev/ttyACM0"))
	h.next(t)
	port := h.factory.Last()

	h.mgr.Close()
	h.mgr.Close()

	state := h.mgr.State()
	assert.False(t, state.IsOpen)
	assert.Empty(t, state.PortName)
	assert.Empty(t, state.SessionID)
	assert.True(t, port.IsClosed())

	// a stray poll after close does nothing
	h.mgr.Poll()
	h.none(t)
	require.ErrorIs(t, h.mgr.Write([]byte("x")), ErrNoPort)
}

func TestNewManager_Defaults(t *testing.T) {
	t.Parallel()

	m := NewManager(Options{})
	assert.Equal(t, DefaultBaudRate, m.baudRate)
	assert.Equal(t, DefaultReadTimeout, m.readTimeout)
	assert.Equal(t, DefaultPollInterval, m.pollInterval)
	assert.NotNil(t, m.clock)
	assert.NotNil(t, m.factory)
	assert.NotNil(t, m.handler)
}
