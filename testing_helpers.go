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
	"sync"
	"time"
)

// mockIdleTimeout is how long a MockChannel read blocks when nothing is
// pending and no read timeout was set
const mockIdleTimeout = 10 * time.Millisecond

// MockChannel is a scripted Channel for tests. Every complete request frame
// written to it produces one reply, taken from ReplyFunc or the reply queue.
type MockChannel struct {
	ReplyFunc   func(req []byte) []byte
	WriteErr    error
	ReadErr     error
	replies     [][]byte
	pending     []byte
	partial     []byte
	writes      [][]byte
	ReadDelay   time.Duration
	readTimeout time.Duration
	ShortWrite  int
	overlaps    int
	mu          sync.Mutex
	NoiseByte   byte
	Noisy       bool
	closed      bool
}

// NewMockChannel creates a mock channel with no scripted replies
func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

// NewMockChannelWithReplies creates a mock channel answering requests with
// replies in order
func NewMockChannelWithReplies(replies ...[]byte) *MockChannel {
	m := NewMockChannel()
	for _, r := range replies {
		m.QueueReply(r)
	}
	return m
}

// QueueReply adds a raw reply for the next request without one
func (m *MockChannel) QueueReply(raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, append([]byte(nil), raw...))
}

// SetReplyFunc configures a dynamic reply. It takes precedence over the queue.
func (m *MockChannel) SetReplyFunc(fn func(req []byte) []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReplyFunc = fn
}

// Write records p and queues the reply once a full request has been written
func (m *MockChannel) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrTransportClosed
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	n := len(p)
	if m.ShortWrite > 0 && m.ShortWrite < n {
		n = m.ShortWrite
	}
	m.writes = append(m.writes, append([]byte(nil), p[:n]...))

	m.partial = append(m.partial, p[:n]...)
	if len(m.partial) < RequestLength {
		return n, nil
	}
	req := m.partial[:RequestLength]
	m.partial = m.partial[RequestLength:]

	if len(m.pending) > 0 {
		m.overlaps++
	}
	switch {
	case m.ReplyFunc != nil:
		m.pending = append(m.pending, m.ReplyFunc(req)...)
	case len(m.replies) > 0:
		m.pending = append(m.pending, m.replies[0]...)
		m.replies = m.replies[1:]
	}
	return n, nil
}

// ReadByte returns the next pending reply byte. With nothing pending it
// blocks for the read timeout and reports a timeout, like a serial port.
func (m *MockChannel) ReadByte() (byte, error) {
	m.mu.Lock()
	delay := m.ReadDelay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrTransportClosed
	}
	if m.ReadErr != nil {
		err := m.ReadErr
		m.mu.Unlock()
		return 0, err
	}
	if len(m.pending) > 0 {
		b := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		return b, nil
	}
	if m.Noisy {
		b := m.NoiseByte
		m.mu.Unlock()
		return b, nil
	}
	wait := m.readTimeout
	m.mu.Unlock()

	if wait <= 0 || wait > mockIdleTimeout {
		wait = mockIdleTimeout
	}
	time.Sleep(wait)
	return 0, NewTimeoutError("read", "mock")
}

// SetReadTimeout records the per-read timeout
func (m *MockChannel) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = timeout
	return nil
}

// Close marks the channel closed
func (m *MockChannel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Writes returns a copy of every Write call
func (m *MockChannel) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// Overlaps returns how many requests arrived while a reply was still unread
func (m *MockChannel) Overlaps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overlaps
}

// IsClosed reports whether Close was called
func (m *MockChannel) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Name returns the mock port name
func (*MockChannel) Name() string {
	return "mock"
}

// Type returns ChannelMock
func (*MockChannel) Type() ChannelType {
	return ChannelMock
}
