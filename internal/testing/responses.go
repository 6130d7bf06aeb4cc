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

package testing

import (
	"github.com/ZaparooProject/go-etb/internal/frame"
)

// BuildResponse creates a 20-byte reply frame with a correct masked checksum
func BuildResponse(board byte, command, data string, code byte) []byte {
	return BuildResponseWithMode(board, command, data, code, frame.ChecksumMasked)
}

// BuildResponseWithMode creates a reply frame using the given checksum mode
func BuildResponseWithMode(board byte, command, data string, code byte, mode frame.ChecksumMode) []byte {
	buf := buildCovered(board, command, data, code)
	buf = frame.AppendChecksum(buf, frame.CalculateChecksum(buf, mode))
	return append(buf, frame.Delimiter)
}

// BuildResponseBadChecksum creates a reply frame whose checksum is off by one
func BuildResponseBadChecksum(board byte, command, data string, code byte) []byte {
	buf := buildCovered(board, command, data, code)
	buf = frame.AppendChecksum(buf, frame.CalculateChecksum(buf, frame.ChecksumMasked)+1)
	return append(buf, frame.Delimiter)
}

// BuildRequest creates an 18-byte request frame, for tests that play the
// board side of the link
func BuildRequest(board byte, command, data string) []byte {
	buf := make([]byte, 0, frame.RequestLength)
	buf = append(buf, board, frame.Separator)
	buf = append(buf, command...)
	buf = append(buf, frame.Separator)
	buf = append(buf, data...)
	buf = append(buf, frame.Separator)
	buf = frame.AppendChecksum(buf, frame.CalculateChecksum(buf, frame.ChecksumMasked))
	return append(buf, frame.Delimiter)
}

// buildCovered lays out the checksummed part of a reply
func buildCovered(board byte, command, data string, code byte) []byte {
	buf := make([]byte, 0, frame.ResponseLength)
	buf = append(buf, board, frame.Separator)
	buf = append(buf, command...)
	buf = append(buf, frame.Separator)
	buf = append(buf, data...)
	buf = append(buf, frame.Separator, code, frame.Separator)
	return buf
}
