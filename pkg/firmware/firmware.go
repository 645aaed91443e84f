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

// Package firmware installs the Arduino library that speaks the Devino
// protocol into a sketchbook folder.
package firmware

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const LibraryName = "Devino"

//go:embed library/Devino.cpp library/Devino.h
var library embed.FS

// Files lists the library sources in install order.
var Files = []string{"Devino.cpp", "Devino.h"}

var ErrNotDirectory = errors.New("not a directory")

// Install writes the library into <folder>/Devino, creating the directory if
// needed and overwriting existing sources. It returns the library directory.
func Install(fs afero.Fs, folder string) (string, error) {
	info, err := fs.Stat(folder)
	if err != nil {
		return "", fmt.Errorf("failed to stat install folder: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, folder)
	}

	libDir := filepath.Join(folder, LibraryName)
	if err := fs.MkdirAll(libDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create library directory: %w", err)
	}

	for _, name := range Files {
		data, err := library.ReadFile(path.Join("library", name))
		if err != nil {
			return "", fmt.Errorf("failed to read embedded %s: %w", name, err)
		}
		dest := filepath.Join(libDir, name)
		if err := afero.WriteFile(fs, dest, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", dest, err)
		}
	}

	log.Info().Str("path", libDir).Msg("installed arduino library")
	return libDir, nil
}

// DefaultFolder picks where the library should go: the Arduino sketchbook's
// libraries folder, the sketchbook itself, or the home directory.
func DefaultFolder(fs afero.Fs, home string) string {
	sketchbook := filepath.Join(home, "Documents", "Arduino")
	for _, dir := range []string{filepath.Join(sketchbook, "libraries"), sketchbook} {
		if ok, _ := afero.DirExists(fs, dir); ok {
			return dir
		}
	}
	return home
}

// HomeFolder is DefaultFolder for the current user.
func HomeFolder(fs afero.Fs) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return DefaultFolder(fs, home), nil
}
