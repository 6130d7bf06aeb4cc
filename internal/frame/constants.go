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

// Package frame provides frame layout constants and checksum helpers for the
// ETB test-board protocol
package frame

// Frame markers
const (
	Separator = 0x2C // ',' between fields, part of the checksummed region
	Delimiter = 0x0A // terminates every frame
)

// Field widths
const (
	BoardLength    = 1
	CommandLength  = 3
	DataLength     = 8
	ChecksumLength = 2
)

// Frame sizes
const (
	// RequestLength is board, cmd, data, three separators, checksum and delimiter.
	RequestLength = 18
	// ResponseLength adds the response code and its separator.
	ResponseLength = 20
	// RequestCovered is the number of request bytes summed into the checksum.
	RequestCovered = 15
	// ResponseCovered is the number of response bytes summed into the checksum.
	ResponseCovered = 17
)

// Response field offsets
const (
	OffsetBoard    = 0
	OffsetCommand  = 2
	OffsetData     = 6
	OffsetCode     = 15
	OffsetChecksum = 17
)

// Well-known field values
const (
	// CodeAccepted is the response code of a frame the board accepted.
	CodeAccepted = '0'
	// PeerTimeout is the command echo a board sends when it timed out itself.
	PeerTimeout = "TMO"
)
