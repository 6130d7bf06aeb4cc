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
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-etb/internal/frame"
)

// DefaultTimeout is the reply timeout of the reference deployment
const DefaultTimeout = 3000 * time.Millisecond

// Send writes an encoded frame to the channel as one unit. A short write is
// a transport failure; nothing is retried.
func Send(ch Channel, f OutboundFrame) error {
	port := channelName(ch)

	n, err := ch.Write(f[:])
	if err != nil {
		return NewTransportError("write", port, fmt.Errorf("%w: %w", ErrTransportWrite, err), writeErrorType(err))
	}
	if n != len(f) {
		return NewTransportError("write", port,
			fmt.Errorf("%w: %w (%d of %d bytes)", ErrTransportWrite, io.ErrShortWrite, n, len(f)),
			ErrorTypeTransient)
	}
	return nil
}

// Receive reads one delimiter-terminated frame within timeout
func Receive(ch Channel, timeout time.Duration) ([]byte, error) {
	r := Receiver{Timeout: timeout}
	return r.Receive(ch)
}

// Receiver accumulates bytes until the delimiter arrives or the timeout
// elapses. It does not check the frame length; Decode does.
type Receiver struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Timeout bounds the whole frame. Defaults to DefaultTimeout.
	Timeout time.Duration
	// MaxLength caps the number of buffered bytes. Zero means no cap.
	MaxLength int
}

// Receive reads one frame. The returned frame includes the delimiter.
func (r *Receiver) Receive(ch Channel) ([]byte, error) {
	buf, err := r.receive(ch)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// receive runs Reading until it moves to Complete, TimedOut or Failed. The
// bytes gathered so far are returned on every path.
func (r *Receiver) receive(ch Channel) ([]byte, error) {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	port := channelName(ch)
	setter, _ := ch.(ReadTimeoutSetter)
	buf := make([]byte, 0, frame.ResponseLength)
	start := now()

	for {
		// Deadline is checked before every single read
		remaining := timeout - now().Sub(start)
		if remaining <= 0 {
			return buf, NewTimeoutError("read", port)
		}

		if setter != nil {
			if err := setter.SetReadTimeout(remaining); err != nil {
				return buf, NewTransportError("read", port,
					fmt.Errorf("%w: set read timeout: %w", ErrTransportRead, err), ErrorTypeTransient)
			}
		}

		b, err := ch.ReadByte()
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			return buf, NewTransportError("read", port, fmt.Errorf("%w: %w", ErrTransportRead, err), readErrorType(err))
		}

		buf = append(buf, b)
		if b == frame.Delimiter {
			return buf, nil
		}
		if r.MaxLength > 0 && len(buf) >= r.MaxLength {
			return buf, &DecodeError{Err: ErrFrameTooLong, Raw: buf}
		}
	}
}

func readErrorType(err error) ErrorType {
	if errors.Is(err, io.EOF) || errors.Is(err, ErrTransportClosed) {
		return ErrorTypePermanent
	}
	return ErrorTypeTransient
}

func writeErrorType(err error) ErrorType {
	if errors.Is(err, ErrTransportClosed) {
		return ErrorTypePermanent
	}
	return ErrorTypeTransient
}
