// go-etb
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-etb.
//
// go-etb is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-etb is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-etb; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package etb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTable(t *testing.T) {
	t.Parallel()

	cmds := Commands()
	require.Len(t, cmds, 21)

	codes := make(map[string]bool)
	names := make(map[string]bool)
	for _, d := range cmds {
		assert.Len(t, d.Code, CommandLength, d.Code)
		assert.False(t, codes[d.Code], "duplicate code %s", d.Code)
		assert.False(t, names[d.Name], "duplicate name %s", d.Name)
		codes[d.Code] = true
		names[d.Name] = true

		if d.Arg == ArgNone {
			assert.Len(t, d.FixedData, DataLength, d.Code)
		} else {
			assert.Positive(t, d.MaxArg, d.Code)
		}
	}

	// the copy does not alias the table
	cmds[0].Code = "ZZZ"
	_, ok := LookupCommand("ZZZ")
	assert.False(t, ok)
}

func TestLookupCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		code string
		ok   bool
	}{
		{key: "VER", code: "VER", ok: true},
		{key: "ver", code: "VER", ok: true},
		{key: "version", code: "VER", ok: true},
		{key: "Temperature", code: "GTP", ok: true},
		{key: "set-pulse", code: "SPE", ok: true},
		{key: "TMO", ok: false},
		{key: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			d, ok := LookupCommand(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, d.Code)
		})
	}
}

func TestDescriptor_Request(t *testing.T) {
	t.Parallel()

	ver := mustCommand(CmdVersion)
	req, err := ver.Request('1', 42)
	require.NoError(t, err)
	assert.Equal(t, Request{Board: '1', Command: "VER", Data: "12345678"}, req)
	assert.False(t, ver.TakesArg())

	gcr := mustCommand(CmdGetCurrent)
	req, err = gcr.Request('1', 0)
	require.NoError(t, err)
	assert.Equal(t, "00000000", req.Data)

	scr := mustCommand(CmdSetCurrent)
	req, err = scr.Request('3', 1500)
	require.NoError(t, err)
	assert.Equal(t, "00001500", req.Data)
	assert.False(t, req.MatchData)
	assert.True(t, scr.TakesArg())

	sss := mustCommand(CmdStartStress)
	req, err = sss.Request('3', 7)
	require.NoError(t, err)
	assert.Equal(t, "00000007", req.Data)
	assert.True(t, req.MatchData)
	assert.Equal(t, "00000007", req.EchoData)

	_, err = scr.Request('3', maxValue+1)
	require.ErrorIs(t, err, ErrInvalidParameter)

	gst := mustCommand(CmdGetStatus)
	_, err = gst.Request('3', maxChannel+1)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDescriptor_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want    any
		wantErr error
		code    string
		data    string
		arg     int
	}{
		{code: CmdVersion, data: "01ABCD12", want: "01ABCD12"},
		{code: CmdConnectCheck, data: "12345678", want: nil},
		{code: CmdGetCurrent, data: "00001500", want: 1500},
		{code: CmdGetCurrent, data: "    1500", want: 1500},
		{code: CmdGetVoltPolarity, data: "-0000001", want: -1},
		{code: CmdGetCurrent, data: "0000x500", wantErr: ErrInvalidResponseData},
		{code: CmdGetCurrent, data: "--000001", wantErr: ErrInvalidResponseData},
		{code: CmdGetCurrent, data: "        ", wantErr: ErrInvalidResponseData},
		{code: CmdGetStatus, data: "10100002", arg: 2, want: ChannelStatus(0b1010)},
		{code: CmdGetStatus, data: "00010012", arg: 12, want: ChannelStatus(0b0001)},
		{code: CmdGetStatus, data: "10100003", arg: 2, wantErr: ErrEchoMismatch},
		{code: CmdGetTemperature, data: "10000047", want: Temperature{Celsius: 47, Status: 1}},
		{code: CmdGetTemperature, data: "0000012x", wantErr: ErrInvalidResponseData},
	}

	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.data, func(t *testing.T) {
			t.Parallel()

			d := mustCommand(tt.code)
			got, err := d.Parse(tt.data, tt.arg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber_ParseError(t *testing.T) {
	t.Parallel()

	_, err := parseNumber("GCR", "abc")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "GCR", pe.Command)
	assert.Equal(t, "abc", pe.Data)
}
