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
	"io"
	"time"
)

// Channel is the duplex byte stream a test board is attached to.
// This can be implemented by a serial port, a periph.io UART or a test double.
type Channel interface {
	// Write sends p to the board. Implementations should write all of p.
	io.Writer

	// ReadByte blocks until a byte arrives or the channel read timeout
	// expires. A read timeout must be reported as an error satisfying IsTimeout.
	io.ByteReader

	// Close closes the channel
	Close() error
}

// ReadTimeoutSetter is implemented by channels whose per-read timeout can be
// adjusted. The receiver uses it to keep each read within the remaining budget.
type ReadTimeoutSetter interface {
	SetReadTimeout(timeout time.Duration) error
}

// ChannelType represents the kind of channel
type ChannelType string

const (
	// ChannelSerial represents a go.bug.st/serial port.
	ChannelSerial ChannelType = "serial"
	// ChannelPeriph represents a periph.io UART port.
	ChannelPeriph ChannelType = "periph"
	// ChannelMock represents a mock channel for testing
	ChannelMock ChannelType = "mock"
)

// ChannelTyper is implemented by channels that report their kind
type ChannelTyper interface {
	Type() ChannelType
}

// channelName returns a port name for error context when the channel has one
func channelName(ch Channel) string {
	if n, ok := ch.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
