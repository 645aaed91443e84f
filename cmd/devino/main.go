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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaparooProject/devino/pkg/cli"
	"github.com/ZaparooProject/devino/pkg/config"
	"github.com/ZaparooProject/devino/pkg/discovery"
	"github.com/ZaparooProject/devino/pkg/engine"
	"github.com/ZaparooProject/devino/pkg/helpers/syncutil"
	"github.com/ZaparooProject/devino/pkg/serialconn"
	"github.com/ZaparooProject/devino/pkg/ui/tui"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"go.bug.st/serial/enumerator"
	"golang.org/x/sync/errgroup"
)

var errNoPort = errors.New("no serial port found, pass -port")

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.SetupFlags(flag.CommandLine)
	flags.Pre(os.Args[1:])

	headless := flags.Headless()

	var logWriters []io.Writer
	if headless {
		logWriters = []io.Writer{os.Stderr}
	}

	cfg, logFile := cli.Setup(flags, config.BaseDefaults, logWriters)
	defer func() {
		_ = logFile.Close()
	}()

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	flags.Post(cfg, enumerator.GetDetailedPortsList, afero.NewOsFs())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng := engine.New(engine.Options{
		Serial: serialconn.Options{
			BaudRate:     cfg.BaudRate(),
			ReadTimeout:  cfg.ReadTimeout(),
			PollInterval: cfg.PollInterval(),
		},
	})
	defer eng.Close()

	log.Info().
		Str("version", config.AppVersion).
		Str("layout", eng.Layout().Name).
		Bool("deadlock_detection", syncutil.DeadlockEnabled).
		Msg("devino starting")

	var monitor *tui.Monitor
	scanner := discovery.NewScanner(discovery.Options{
		Boards:   cfg.Boards(),
		Interval: cfg.RescanInterval(),
		OnChange: func(ports []discovery.Port) {
			if monitor != nil {
				monitor.PortsChanged(ports)
				return
			}
			if name := eng.State().PortName; name != "" && !discovery.Contains(ports, name) {
				log.Warn().Str("port", name).Msg("bound port is no longer available")
			}
		},
	})

	if !headless {
		tui.SetTheme(&tview.Styles, &tui.ThemeDefault)
		monitor = tui.NewMonitor(eng, scanner.List)
	}

	events, subID := eng.Subscribe(256)
	defer eng.Unsubscribe(subID)

	portName, err := startupPort(cfg.Port(), headless, scanner)
	if err != nil {
		return err
	}
	if portName != "" {
		if err := eng.SelectPort(portName); err != nil && headless {
			return fmt.Errorf("error opening port: %w", err)
		}
		if *flags.Send != "" {
			if err := eng.SendRaw(*flags.Send); err != nil {
				return fmt.Errorf("error sending: %w", err)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scanner.Run(gctx)
	})
	g.Go(func() error {
		// Hotplug detection is best effort; the periodic scan still runs.
		if err := scanner.Watch(gctx, discovery.DeviceDir); err != nil {
			log.Debug().Err(err).Msg("device watcher not started")
		}
		return nil
	})
	if headless {
		log.Info().Str("port", portName).Msg("started in daemon mode")
		g.Go(func() error {
			return cli.RunHeadless(gctx, events, os.Stdout)
		})
	} else {
		g.Go(func() error {
			// Quitting the ui ends the whole run.
			defer stop()
			return monitor.Run(gctx, events)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("devino stopped with error")
		return err
	}
	log.Info().Msg("devino stopped")
	return nil
}

// startupPort picks the port to open before the first rescan: the configured
// port if any, otherwise the first known board. Only headless runs treat an
// empty port list as an error; the text ui starts unbound and waits for one.
func startupPort(configured string, headless bool, scanner *discovery.Scanner) (string, error) {
	if _, _, err := scanner.Scan(); err != nil {
		if configured != "" {
			log.Warn().Err(err).Msg("port scan failed, using configured port")
			return configured, nil
		}
		if !headless {
			log.Warn().Err(err).Msg("port scan failed, starting unbound")
			return "", nil
		}
		return "", err
	}

	if configured != "" {
		if p, ok := scanner.Find(configured); ok {
			log.Info().Str("port", p.Name).Str("board", p.Board).Msg("configured port found")
		} else {
			log.Warn().Str("port", configured).Msg("configured port not found, opening anyway")
		}
		return configured, nil
	}

	p, ok := scanner.FirstBoard()
	if !ok {
		if headless {
			return "", errNoPort
		}
		log.Info().Msg("no serial ports found, starting unbound")
		return "", nil
	}
	log.Info().Str("port", p.Name).Str("board", p.Board).Msg("auto-selected port")
	return p.Name, nil
}
