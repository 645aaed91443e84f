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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/devino/pkg/discovery"
	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	AppName    = "devino"
	AppVersion = "0.3.0"
	LogFile    = "devino.log"

	PortEnv   = "DEVINO_PORT"
	DebugEnv  = "DEVINO_DEBUG"
	LogDirEnv = "DEVINO_LOG_DIR"
)

type Values struct {
	Port         string            `validate:"omitempty"`
	LogDir       string            `validate:"required"`
	Boards       []discovery.Board `validate:"dive"`
	Serial       Serial
	DebugLogging bool
}

type Serial struct {
	BaudRate       int           `validate:"gt=0"`
	ReadTimeout    time.Duration `validate:"gt=0"`
	PollInterval   time.Duration `validate:"gt=0"`
	RescanInterval time.Duration `validate:"gt=0"`
}

var BaseDefaults = Values{
	LogDir: filepath.Join(xdg.DataHome, AppName),
	Boards: discovery.DefaultBoards,
	Serial: Serial{
		BaudRate:       115200,
		ReadTimeout:    10 * time.Millisecond,
		PollInterval:   250 * time.Millisecond,
		RescanInterval: 10 * time.Second,
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Instance holds the running configuration. Nothing is persisted; values
// come from defaults, the environment and command line flags.
type Instance struct {
	vals Values
	mu   syncutil.RWMutex
}

// NewConfig builds a config from defaults with environment overrides
// applied, and validates the result.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(defaults Values) (*Instance, error) {
	vals := defaults
	vals.Boards = append([]discovery.Board(nil), defaults.Boards...)

	if port := os.Getenv(PortEnv); port != "" {
		log.Debug().Msgf("env port: %s", port)
		vals.Port = port
	}
	if debug := os.Getenv(DebugEnv); debug != "" {
		enabled, err := strconv.ParseBool(debug)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", DebugEnv, debug, err)
		}
		vals.DebugLogging = enabled
	}
	if dir := os.Getenv(LogDirEnv); dir != "" {
		vals.LogDir = dir
	}

	if err := Validate(&vals); err != nil {
		return nil, err
	}
	return &Instance{vals: vals}, nil
}

// Validate checks a set of values and reports every invalid field.
func Validate(vals *Values) error {
	err := validate.Struct(vals)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
}

func (c *Instance) Port() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Port
}

func (c *Instance) SetPort(port string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Port = port
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) LogDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.LogDir
}

func (c *Instance) Boards() []discovery.Board {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]discovery.Board(nil), c.vals.Boards...)
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.BaudRate
}

func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.ReadTimeout
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.PollInterval
}

func (c *Instance) RescanInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.RescanInterval
}
