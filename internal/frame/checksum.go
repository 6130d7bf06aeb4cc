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

package frame

// ChecksumMode selects how an out-of-range checksum intermediate is rendered.
//
// The checksum is 0xFF - (high byte + low byte) of the plain sum of the covered
// bytes. When high + low exceeds 0xFF the result is negative.
type ChecksumMode int

const (
	// ChecksumMasked reduces the result modulo 256.
	ChecksumMasked ChecksumMode = iota
	// ChecksumLegacy renders every negative result as 0xFF, which is what the
	// first two digits of its 64-bit two's complement hex form read as.
	ChecksumLegacy
)

// String returns the mode name
func (m ChecksumMode) String() string {
	switch m {
	case ChecksumMasked:
		return "masked"
	case ChecksumLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

const hexDigits = "0123456789ABCDEF"

// Sum returns the plain arithmetic sum of data.
func Sum(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += int(b)
	}
	return sum
}

// fold returns the unreduced checksum intermediate for sum.
func fold(sum int) int {
	return 0xFF - (((sum >> 8) & 0xFF) + (sum & 0xFF))
}

// CalculateChecksum computes the checksum byte over the covered region.
func CalculateChecksum(data []byte, mode ChecksumMode) byte {
	v := fold(Sum(data))
	if v < 0 && mode == ChecksumLegacy {
		return 0xFF
	}
	return byte(v & 0xFF)
}

// AppendChecksum appends ck as two uppercase hex digits.
func AppendChecksum(dst []byte, ck byte) []byte {
	return append(dst, hexDigits[ck>>4], hexDigits[ck&0x0F])
}

// ParseChecksum decodes two hex digits. Lowercase digits are rejected because
// the encoder never produces them.
func ParseChecksum(hi, lo byte) (byte, bool) {
	h, ok := hexValue(hi)
	if !ok {
		return 0, false
	}
	l, ok := hexValue(lo)
	if !ok {
		return 0, false
	}
	return h<<4 | l, true
}

// ValidateChecksum reports whether the two digits after the covered region
// match the checksum computed over it.
func ValidateChecksum(covered []byte, hi, lo byte, mode ChecksumMode) bool {
	got, ok := ParseChecksum(hi, lo)
	if !ok {
		return false
	}
	return got == CalculateChecksum(covered, mode)
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}
