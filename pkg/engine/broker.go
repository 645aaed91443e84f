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

package engine

import (
	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
)

// Broker fans engine events out to subscribers. Sends never block: a
// subscriber whose buffer is full misses the event and a warning is logged.
type Broker struct {
	subscribers map[int]chan Event
	mu          syncutil.RWMutex
	nextID      int
	stopped     bool
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[int]chan Event),
	}
}

// Publish delivers ev to every current subscriber.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			log.Warn().
				Int("subscriber_id", id).
				Str("type", ev.Type.String()).
				Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribe registers a new subscriber with the given buffer size. After
// Stop, the returned channel is already closed.
func (b *Broker) Subscribe(bufferSize int) (events <-chan Event, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++

	ch := make(chan Event, bufferSize)
	if b.stopped {
		close(ch)
		return ch, id
	}
	b.subscribers[id] = ch

	log.Debug().
		Int("subscriber_id", id).
		Int("buffer_size", bufferSize).
		Msg("new subscriber registered")
	return ch, id
}

// Unsubscribe removes a subscription and closes its channel. Unknown or
// already removed ids are ignored.
func (b *Broker) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Stop closes every subscriber channel.
func (b *Broker) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
	b.stopped = true
}
