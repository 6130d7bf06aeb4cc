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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etbtest "github.com/ZaparooProject/go-etb/internal/testing"
)

func newVirtualBoard(t *testing.T, id byte) (*Board, *etbtest.VirtualBoard, *MockChannel) {
	t.Helper()

	vb := etbtest.NewVirtualBoard(id)
	ch := NewMockChannel()
	ch.SetReplyFunc(vb.Handle)
	client := newTestClient(t, ch)
	return client.Board(id), vb, ch
}

func TestBoard_Version(t *testing.T) {
	t.Parallel()

	board, vb, ch := newVirtualBoard(t, '1')
	vb.Version = "02XYZ001"

	v, err := board.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "02XYZ001", v)
	assert.Equal(t, byte('1'), board.ID())

	writes := ch.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, "1,VER,12345678,B6\n", string(writes[0]))
}

func TestBoard_Setpoints(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	board, vb, _ := newVirtualBoard(t, '4')

	require.NoError(t, board.SetCurrent(ctx, 1500))
	require.NoError(t, board.SetPulseCycle(ctx, 200))
	require.NoError(t, board.SetPulseDuty(ctx, 50))
	require.NoError(t, board.SetPulseEnabled(ctx, 1))
	require.NoError(t, board.SetVoltPolarity(ctx, 1))

	assert.Equal(t, 1500, vb.Current)
	assert.Equal(t, 200, vb.PulseCycle)
	assert.Equal(t, 50, vb.PulseDuty)
	assert.Equal(t, 1, vb.PulseEnable)
	assert.Equal(t, 1, vb.Polarity)

	current, err := board.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1500, current)

	cycle, err := board.PulseCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 200, cycle)

	duty, err := board.PulseDuty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, duty)

	enabled, err := board.PulseEnabled(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)

	polarity, err := board.VoltPolarity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, polarity)
}

func TestBoard_ChannelControl(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	board, vb, _ := newVirtualBoard(t, '2')

	require.NoError(t, board.StartTest(ctx, 3))
	require.NoError(t, board.StartStress(ctx, 3))
	assert.True(t, vb.Channel(3).Testing)
	assert.True(t, vb.Channel(3).Stress)

	status, err := board.Status(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ChannelStatus(0b1100), status)
	assert.True(t, status.Bit(3))
	assert.True(t, status.Bit(2))
	assert.False(t, status.Bit(0))
	assert.Equal(t, "1100", status.String())

	require.NoError(t, board.StopStress(ctx, 3))
	require.NoError(t, board.StopTest(ctx, 3))

	status, err = board.Status(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, ChannelStatus(0), status)
}

func TestBoard_TestTimeAndStressCurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	board, vb, _ := newVirtualBoard(t, '1')
	vb.Channel(5).TestTime = 3600
	vb.Channel(5).StressCurrent = 742

	elapsed, err := board.TestTime(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 3600, elapsed)

	current, err := board.StressCurrent(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 742, current)

	require.NoError(t, board.ClearTestTime(ctx))
	elapsed, err = board.TestTime(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, elapsed)
}

func TestBoard_Temperature(t *testing.T) {
	t.Parallel()

	board, vb, _ := newVirtualBoard(t, '1')
	vb.Temperature = 47
	vb.TempStatus = 1

	temp, err := board.Temperature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Temperature{Celsius: 47, Status: 1}, temp)
}

func TestBoard_ConnectCheck(t *testing.T) {
	t.Parallel()

	board, vb, _ := newVirtualBoard(t, '1')
	require.NoError(t, board.ConnectCheck(context.Background()))
	assert.Equal(t, 1, vb.Requests())
}

func TestBoard_Faults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr error
		setup   func(vb *etbtest.VirtualBoard)
		name    string
	}{
		{
			name:    "rejected",
			setup:   func(vb *etbtest.VirtualBoard) { vb.RejectCode = etbtest.CodeBadValue },
			wantErr: ErrDeviceRejected,
		},
		{
			name:    "wrong board echo",
			setup:   func(vb *etbtest.VirtualBoard) { vb.EchoBoard = '9' },
			wantErr: ErrBoardMismatch,
		},
		{
			name:    "wrong command echo",
			setup:   func(vb *etbtest.VirtualBoard) { vb.EchoCommand = "XYZ" },
			wantErr: ErrCommandMismatch,
		},
		{
			name:    "board timeout",
			setup:   func(vb *etbtest.VirtualBoard) { vb.ReplyTimeout = true },
			wantErr: ErrPeerTimeout,
		},
		{
			name:    "corrupted checksum",
			setup:   func(vb *etbtest.VirtualBoard) { vb.CorruptChecksum = true },
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "wrong echo data",
			setup:   func(vb *etbtest.VirtualBoard) { vb.WrongEchoData = true },
			wantErr: ErrEchoMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			board, vb, _ := newVirtualBoard(t, '1')
			tt.setup(vb)

			err := board.StartStress(context.Background(), 2)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBoard_SilentBoardTimesOut(t *testing.T) {
	t.Parallel()

	vb := etbtest.NewVirtualBoard('1')
	vb.Silent = true
	ch := NewMockChannel()
	ch.SetReplyFunc(vb.Handle)
	client := newTestClient(t, ch, WithTimeout(30*time.Millisecond))

	err := client.Board('1').ConnectCheck(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestBoard_OtherBoardIgnoresRequest(t *testing.T) {
	t.Parallel()

	vb := etbtest.NewVirtualBoard('1')
	ch := NewMockChannel()
	ch.SetReplyFunc(vb.Handle)
	client := newTestClient(t, ch, WithTimeout(30*time.Millisecond))

	err := client.Board('2').ConnectCheck(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Zero(t, vb.Requests())
}

func TestBoard_InvalidArguments(t *testing.T) {
	t.Parallel()

	board, _, ch := newVirtualBoard(t, '1')
	ctx := context.Background()

	require.ErrorIs(t, board.SetCurrent(ctx, -1), ErrInvalidParameter)
	require.ErrorIs(t, board.SetCurrent(ctx, 100000000), ErrInvalidParameter)
	_, err := board.Status(ctx, 10000)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Empty(t, ch.Writes())
}

func TestBoard_Run(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	board, vb, _ := newVirtualBoard(t, '1')
	vb.Current = 321

	v, err := board.Run(ctx, "current", 0)
	require.NoError(t, err)
	assert.Equal(t, 321, v)

	v, err = board.Run(ctx, "gcr", 0)
	require.NoError(t, err)
	assert.Equal(t, 321, v)

	v, err = board.Run(ctx, "SCR", 10)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = board.Run(ctx, "XYZ", 0)
	require.ErrorIs(t, err, ErrUnknownCommand)
}
