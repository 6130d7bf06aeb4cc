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
	"github.com/ZaparooProject/go-etb/internal/frame"
)

// ChecksumMode selects how an out-of-range checksum intermediate is rendered
type ChecksumMode = frame.ChecksumMode

const (
	// ChecksumMasked reduces the checksum modulo 256 (default)
	ChecksumMasked = frame.ChecksumMasked
	// ChecksumLegacy renders a negative checksum as 0xFF, matching older
	// controller software
	ChecksumLegacy = frame.ChecksumLegacy
)

// Frame layout, re-exported for callers that work with raw frames
const (
	RequestLength  = frame.RequestLength
	ResponseLength = frame.ResponseLength
	Delimiter      = frame.Delimiter
	CommandLength  = frame.CommandLength
	DataLength     = frame.DataLength
)

// OutboundFrame is an encoded request:
//
//	<board:1>,<cmd:3>,<data:8>,<checksum:2 hex>\n
type OutboundFrame [frame.RequestLength]byte

// Bytes returns a copy of the frame bytes
func (f OutboundFrame) Bytes() []byte {
	b := make([]byte, len(f))
	copy(b, f[:])
	return b
}

// String returns the frame as text, delimiter included
func (f OutboundFrame) String() string {
	return string(f[:])
}

// Board returns the addressed board id
func (f OutboundFrame) Board() byte {
	return f[0]
}

// Command returns the command code
func (f OutboundFrame) Command() string {
	return string(f[2:5])
}

// Data returns the data field
func (f OutboundFrame) Data() string {
	return string(f[6:14])
}

// Checksum returns the two checksum digits
func (f OutboundFrame) Checksum() string {
	return string(f[15:17])
}

// Response is the decoded view of a 20-byte reply
type Response struct {
	Command string
	Data    string
	BoardID byte
	Code    byte
}

// Accepted reports whether the board returned the success code
func (r *Response) Accepted() bool {
	return r.Code == frame.CodeAccepted
}

// IsPeerTimeout reports whether the board answered with the TMO echo. Such a
// reply is structurally valid but must be treated as a failure.
func (r *Response) IsPeerTimeout() bool {
	return r.Command == frame.PeerTimeout
}

// Codec encodes requests and decodes replies with a given checksum mode.
// The zero value uses ChecksumMasked.
type Codec struct {
	Checksum ChecksumMode
}

// DefaultCodec is the codec used by Encode and Decode
var DefaultCodec = Codec{Checksum: ChecksumMasked}

// Encode builds a request frame using DefaultCodec
func Encode(boardID byte, command, data string) (OutboundFrame, error) {
	return DefaultCodec.Encode(boardID, command, data)
}

// Decode parses a reply frame using DefaultCodec
func Decode(raw []byte) (*Response, error) {
	return DefaultCodec.Decode(raw)
}

// Encode builds a request frame. Nothing is returned on failure.
func (c Codec) Encode(boardID byte, command, data string) (OutboundFrame, error) {
	var f OutboundFrame

	if err := checkField("board", string([]byte{boardID}), frame.BoardLength); err != nil {
		return f, err
	}
	if err := checkField("command", command, frame.CommandLength); err != nil {
		return f, err
	}
	if err := checkField("data", data, frame.DataLength); err != nil {
		return f, err
	}

	buf := make([]byte, 0, frame.RequestLength)
	buf = append(buf, boardID, frame.Separator)
	buf = append(buf, command...)
	buf = append(buf, frame.Separator)
	buf = append(buf, data...)
	buf = append(buf, frame.Separator)

	ck := frame.CalculateChecksum(buf, c.Checksum)
	buf = frame.AppendChecksum(buf, ck)
	buf = append(buf, frame.Delimiter)

	copy(f[:], buf)
	return f, nil
}

// Decode parses a reply frame. Checks run in order: total length, checksum,
// then field extraction. Separator positions are covered only by the checksum.
func (c Codec) Decode(raw []byte) (*Response, error) {
	if len(raw) != frame.ResponseLength {
		return nil, &DecodeError{Err: ErrLengthMismatch, Raw: raw}
	}

	covered := raw[:frame.ResponseCovered]
	hi, lo := raw[frame.OffsetChecksum], raw[frame.OffsetChecksum+1]
	if !frame.ValidateChecksum(covered, hi, lo, c.Checksum) {
		return nil, &DecodeError{Err: ErrChecksumMismatch, Raw: raw}
	}

	return &Response{
		BoardID: raw[frame.OffsetBoard],
		Command: string(raw[frame.OffsetCommand : frame.OffsetCommand+frame.CommandLength]),
		Data:    string(raw[frame.OffsetData : frame.OffsetData+frame.DataLength]),
		Code:    raw[frame.OffsetCode],
	}, nil
}

func checkField(name, value string, length int) error {
	if len(value) != length {
		return &EncodingError{Err: ErrInvalidLength, Field: name, Index: len(value)}
	}
	if i := frame.FirstNonPrintable(value); i >= 0 {
		return &EncodingError{Err: ErrInvalidCharacter, Field: name, Index: i}
	}
	return nil
}
