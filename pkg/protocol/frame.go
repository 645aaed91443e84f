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

package protocol

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var groupRe = regexp.MustCompile(`<(.*?)>`)

// Frame is the result of decoding one chunk read from the serial link.
type Frame struct {
	// Residual is the chunk with every <...> group removed. It is free-form
	// log output from the board and is shown to the operator verbatim.
	Residual string
	// Entries are the comma-split contents of every group, in wire order.
	Entries []string
}

// Decode splits a raw chunk into tagged sub-entries and residual text.
// Groups are matched non-greedily and do not nest; a '<' without a closing
// '>' stays in the residual text.
func Decode(chunk []byte) (Frame, error) {
	if !utf8.Valid(chunk) {
		return Frame{}, ErrDecodeSkipped
	}

	text := string(chunk)
	matches := groupRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return Frame{Residual: text}, nil
	}

	var entries []string
	for _, m := range matches {
		entries = append(entries, strings.Split(m[1], ",")...)
	}

	return Frame{
		Entries:  entries,
		Residual: groupRe.ReplaceAllLiteralString(text, ""),
	}, nil
}
