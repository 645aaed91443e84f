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

package discovery

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DeviceDir is where serial device nodes appear on unix systems.
const DeviceDir = "/dev"

// settleDelay lets a burst of device node events finish before rescanning.
const settleDelay = 500 * time.Millisecond

var ErrWatchUnsupported = errors.New("device watching is not supported on this platform")

// Watch rescans shortly after device nodes are created or removed in dir,
// so a plugged in board shows up before the next periodic scan. It blocks
// until ctx is done.
func (s *Scanner) Watch(ctx context.Context, dir string) error {
	if runtime.GOOS == "windows" {
		return ErrWatchUnsupported
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close device watcher")
		}
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Msg("watching for serial device changes")

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			settle = s.clock.After(settleDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("device watcher error")
		case <-settle:
			settle = nil
			if _, _, err := s.Scan(); err != nil {
				log.Warn().Err(err).Msg("port scan failed")
			}
		}
	}
}
