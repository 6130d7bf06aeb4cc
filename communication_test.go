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
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etbtest "github.com/ZaparooProject/go-etb/internal/testing"
)

func TestSend(t *testing.T) {
	t.Parallel()

	f, err := Encode('1', "VER", "12345678")
	require.NoError(t, err)

	t.Run("whole frame in one write", func(t *testing.T) {
		t.Parallel()

		ch := NewMockChannel()
		require.NoError(t, Send(ch, f))

		writes := ch.Writes()
		require.Len(t, writes, 1)
		assert.Equal(t, f.Bytes(), writes[0])
	})

	t.Run("short write", func(t *testing.T) {
		t.Parallel()

		ch := NewMockChannel()
		ch.ShortWrite = 5

		err := Send(ch, f)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransportWrite)
		assert.ErrorIs(t, err, io.ErrShortWrite)
		assert.Equal(t, ErrorTypeTransient, GetErrorType(err))
	})

	t.Run("write error", func(t *testing.T) {
		t.Parallel()

		ch := NewMockChannel()
		ch.WriteErr = errors.New("port vanished")

		err := Send(ch, f)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransportWrite)

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, "write", te.Op)
		assert.Equal(t, "mock", te.Port)
	})

	t.Run("closed channel", func(t *testing.T) {
		t.Parallel()

		ch := NewMockChannel()
		require.NoError(t, ch.Close())

		err := Send(ch, f)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTransportClosed)
		assert.False(t, IsRetryable(err))
	})
}

func TestReceive_Complete(t *testing.T) {
	t.Parallel()

	reply := etbtest.BuildResponse('1', "VER", "01ABCD12", '0')
	ch := NewMockChannelWithReplies(reply)

	f, err := Encode('1', "VER", "12345678")
	require.NoError(t, err)
	require.NoError(t, Send(ch, f))

	raw, err := Receive(ch, time.Second)
	require.NoError(t, err)
	assert.Equal(t, reply, raw)
}

func TestReceive_StopsAtFirstDelimiter(t *testing.T) {
	t.Parallel()

	// a short frame is returned as-is, length is Decode's concern
	ch := NewMockChannelWithReplies([]byte("1,VER\nrest"))
	require.NoError(t, sendProbe(ch))

	raw, err := Receive(ch, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("1,VER\n"), raw)

	_, err = Decode(raw)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestReceive_SilentChannelTimesOut(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel()
	timeout := 50 * time.Millisecond

	start := time.Now()
	raw, err := Receive(ch, timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.True(t, IsTimeout(err))
	assert.GreaterOrEqual(t, elapsed, timeout)
	// overshoot is bounded by a single read
	assert.Less(t, elapsed, timeout+100*time.Millisecond)
}

func TestReceive_NoisyChannelTimesOut(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel()
	ch.Noisy = true
	ch.NoiseByte = 'A'
	timeout := 50 * time.Millisecond

	start := time.Now()
	_, err := Receive(ch, timeout)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportTimeout)
	assert.Less(t, elapsed, timeout+100*time.Millisecond)
}

func TestReceive_DeadlineCheckedBeforeEveryRead(t *testing.T) {
	t.Parallel()

	clock := newStepClock(time.Second)
	ch := NewMockChannelWithReplies(etbtest.BuildResponse('1', "VER", "01ABCD12", '0'))
	require.NoError(t, sendProbe(ch))

	r := Receiver{Timeout: 3 * time.Second, Now: clock.Now}
	buf, err := r.receive(ch)
	require.ErrorIs(t, err, ErrTransportTimeout)
	// start, then two reads at 1s and 2s of elapsed time, then the deadline
	assert.Equal(t, []byte("1,"), buf)
}

func TestReceive_ReadFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		readErr  error
		name     string
		wantType ErrorType
	}{
		{name: "io error", readErr: errors.New("framing error"), wantType: ErrorTypeTransient},
		{name: "eof", readErr: io.EOF, wantType: ErrorTypePermanent},
		{name: "closed", readErr: ErrTransportClosed, wantType: ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ch := NewMockChannel()
			ch.ReadErr = tt.readErr

			start := time.Now()
			_, err := Receive(ch, time.Second)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTransportRead)
			assert.ErrorIs(t, err, tt.readErr)
			assert.Equal(t, tt.wantType, GetErrorType(err))
			assert.False(t, IsTimeout(err))
			// failures do not wait for the deadline
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}

func TestReceive_MaxLength(t *testing.T) {
	t.Parallel()

	ch := NewMockChannel()
	ch.Noisy = true
	ch.NoiseByte = '7'

	r := Receiver{Timeout: time.Second, MaxLength: ResponseLength}
	raw, err := r.Receive(ch)
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, ErrFrameTooLong)
}

func TestReceive_CapsReadTimeout(t *testing.T) {
	t.Parallel()

	ch := &recordingChannel{MockChannel: NewMockChannel()}
	_, err := Receive(ch, 30*time.Millisecond)
	require.ErrorIs(t, err, ErrTransportTimeout)

	timeouts := ch.timeouts()
	require.NotEmpty(t, timeouts)
	for _, d := range timeouts {
		assert.LessOrEqual(t, d, 30*time.Millisecond)
		assert.Positive(t, d)
	}
}

func sendProbe(ch Channel) error {
	f, err := Encode('1', "VER", "12345678")
	if err != nil {
		return err
	}
	return Send(ch, f)
}

// stepClock advances by a fixed step on every call
type stepClock struct {
	now  time.Time
	step time.Duration
	mu   sync.Mutex
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{now: time.Unix(1700000000, 0), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type recordingChannel struct {
	*MockChannel
	set []time.Duration
	mu  sync.Mutex
}

func (r *recordingChannel) SetReadTimeout(d time.Duration) error {
	r.mu.Lock()
	r.set = append(r.set, d)
	r.mu.Unlock()
	return r.MockChannel.SetReadTimeout(d)
}

func (r *recordingChannel) timeouts() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.set...)
}
