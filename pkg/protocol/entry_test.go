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
	"github.com/stretchr/testify/require"
)

func TestParseEntry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		want     Entry
		writable bool
	}{
		{
			name: "analog reading",
			raw:  "RA0 512",
			want: Entry{Raw: "RA0 512", Type: EntryAnalogReading, Kind: KindAnalog, Index: 0, Value: 512},
		},
		{
			name: "pwm ack",
			raw:  "WA6 200",
			want: Entry{
				Raw: "WA6 200", Type: EntryPwmAck, Kind: KindAnalog,
				Index: 6, Value: 200, OriginWasWrite: true,
			},
			writable: true,
		},
		{
			name: "digital read is not writable",
			raw:  "RD5 1",
			want: Entry{Raw: "RD5 1", Type: EntryDigitalAck, Kind: KindDigital, Index: 5, Value: 1},
		},
		{
			name: "digital write is writable",
			raw:  "WD5 0",
			want: Entry{
				Raw: "WD5 0", Type: EntryDigitalAck, Kind: KindDigital,
				Index: 5, Value: 0, OriginWasWrite: true,
			},
			writable: true,
		},
		{
			name: "two digit index",
			raw:  "WD13 1",
			want: Entry{
				Raw: "WD13 1", Type: EntryDigitalAck, Kind: KindDigital,
				Index: 13, Value: 1, OriginWasWrite: true,
			},
			writable: true,
		},
		{
			// only the second byte is inspected for digital entries
			name: "unknown origin with D is a read",
			raw:  "XD7 1",
			want: Entry{Raw: "XD7 1", Type: EntryDigitalAck, Kind: KindDigital, Index: 7, Value: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseEntry(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.writable, got.Writable())
		})
	}
}

func TestParseEntry_Unrecognized(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"",
		"R",
		"XA1 5",
		"RX1 5",
		"RA1",
		"RAx 5",
		"RA1 five",
		"WD-1 1",
		"WD+1 1",
		"RA0 -5",
		"RA0 +5",
		"RA0 5 ",
		"RA0  5",
		"RA0 99999999999999999999",
	} {
		_, err := ParseEntry(raw)
		require.ErrorIs(t, err, ErrUnrecognizedEntry, "raw=%q", raw)
	}
}

func TestEntryTypeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "analog_reading", EntryAnalogReading.String())
	assert.Equal(t, "pwm_ack", EntryPwmAck.String())
	assert.Equal(t, "digital_ack", EntryDigitalAck.String())
	assert.Equal(t, "unrecognized", EntryUnrecognized.String())
}
