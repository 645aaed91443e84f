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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/devino/pkg/config"
	"github.com/ZaparooProject/devino/pkg/discovery"
	"github.com/ZaparooProject/devino/pkg/firmware"
	"github.com/ZaparooProject/devino/pkg/helpers"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// AutoFolder asks the library installer to pick the sketchbook itself.
const AutoFolder = "auto"

var ErrEmptyFlag = errors.New("flag requires a value")

type Flags struct {
	set        *flag.FlagSet
	Port       *string
	Send       *string
	InstallLib *string
	List       *bool
	Daemon     *bool
	Version    *bool
	Debug      *bool
}

func SetupFlags(set *flag.FlagSet) *Flags {
	return &Flags{
		set: set,
		Port: set.String(
			"port",
			"",
			"serial port to open on startup",
		),
		List: set.Bool(
			"list",
			false,
			"print available serial ports and exit",
		),
		Daemon: set.Bool(
			"daemon",
			false,
			"run without the text ui and print pin changes to stdout",
		),
		Send: set.String(
			"send",
			"",
			"write raw text to the board after connecting (implies -daemon)",
		),
		InstallLib: set.String(
			"install-lib",
			"",
			"install the arduino library into a folder and exit (\"auto\" picks the sketchbook)",
		),
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging",
		),
	}
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Headless reports whether the run should skip the text ui.
func (f *Flags) Headless() bool {
	return *f.Daemon || *f.Send != ""
}

// Pre parses arguments and handles flags that need nothing else set up.
func (f *Flags) Pre(args []string) {
	if err := f.set.Parse(args); err != nil {
		os.Exit(2)
	}

	if *f.Version {
		_, _ = fmt.Printf("Devino v%s\n", config.AppVersion)
		os.Exit(0)
	}
}

// Apply copies flag overrides into the config. Flags win over the
// environment.
func (f *Flags) Apply(cfg *config.Instance) {
	if *f.Port != "" {
		cfg.SetPort(*f.Port)
	}
	if *f.Debug {
		cfg.SetDebugLogging(true)
	}
}

// Post handles the one-shot flags that run after config and logging are set
// up. It exits the process when one of them was given.
func (f *Flags) Post(cfg *config.Instance, list discovery.ListFunc, fs afero.Fs) {
	switch {
	case *f.List:
		scanner := discovery.NewScanner(discovery.Options{List: list, Boards: cfg.Boards()})
		if err := ListPorts(os.Stdout, scanner); err != nil {
			log.Error().Err(err).Msg("error listing ports")
			_, _ = fmt.Fprintf(os.Stderr, "Error listing ports: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	case f.isPassed("install-lib"):
		dir, err := InstallLibrary(fs, *f.InstallLib)
		if err != nil {
			log.Error().Err(err).Msg("error installing library")
			_, _ = fmt.Fprintf(os.Stderr, "Error installing library: %v\n", err)
			os.Exit(1)
		}
		_, _ = fmt.Printf("Library installed to: %s\n", dir)
		os.Exit(0)
	case f.isPassed("send") && *f.Send == "":
		_, _ = fmt.Fprintf(os.Stderr, "Error: send %v\n", ErrEmptyFlag)
		os.Exit(1)
	}
}

// ListPorts scans once and prints one port per line.
func ListPorts(w io.Writer, scanner *discovery.Scanner) error {
	ports, _, err := scanner.Scan()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		_, _ = fmt.Fprintln(w, "No serial ports found.")
		return nil
	}
	for _, p := range ports {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", p.Label(), p.HardwareID)
	}
	return nil
}

// InstallLibrary installs the firmware library. An empty folder or "auto"
// resolves to the user's sketchbook.
func InstallLibrary(fs afero.Fs, folder string) (string, error) {
	if folder == "" || folder == AutoFolder {
		home, err := firmware.HomeFolder(fs)
		if err != nil {
			return "", err
		}
		folder = home
	}
	//nolint:wrapcheck // Install adds its own context
	return firmware.Install(fs, folder)
}

// Setup builds the config from defaults, the environment and flags, then
// initializes logging. The returned closer flushes the log file.
//
//nolint:gocritic // config struct copied for immutability
func Setup(flags *Flags, defaults config.Values, writers []io.Writer) (*config.Instance, io.Closer) {
	cfg, err := config.NewConfig(defaults)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	flags.Apply(cfg)

	closer, err := helpers.InitLogging(cfg.LogDir(), config.LogFile, cfg.DebugLogging(), writers)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	log.Info().Str("version", config.AppVersion).Msg("devino starting")
	return cfg, closer
}
