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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want string
		cmd  Command
	}{
		{cmd: GetAnalog(3), want: "<get a 3>"},
		{cmd: GetDigital(12), want: "<get d 12>"},
		{cmd: SetAnalog(9, 128), want: "<set a 9 128>"},
		{cmd: SetDigital(7, 1), want: "<set d 7 1>"},
		// no range validation at this layer
		{cmd: SetAnalog(3, 4096), want: "<set a 3 4096>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, string(Encode(tt.cmd)))
	}
}

func TestCommandIsSet(t *testing.T) {
	t.Parallel()

	assert.False(t, GetAnalog(0).IsSet())
	assert.False(t, GetDigital(0).IsSet())
	assert.True(t, SetAnalog(3, 1).IsSet())
	assert.True(t, SetDigital(2, 0).IsSet())
}
