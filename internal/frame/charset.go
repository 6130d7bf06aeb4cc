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

// IsPrintable reports whether b may appear in a frame field: printable ASCII
// (0x20-0x7E) or NUL. The delimiter is never printable, so fields need no escaping.
func IsPrintable(b byte) bool {
	return b == 0 || (b >= 0x20 && b <= 0x7E)
}

// IsNumeric reports whether b is an ASCII digit or NUL.
func IsNumeric(b byte) bool {
	return b == 0 || (b >= '0' && b <= '9')
}

// FirstNonPrintable returns the index of the first byte of s that fails
// IsPrintable, or -1.
func FirstNonPrintable(s string) int {
	for i := 0; i < len(s); i++ {
		if !IsPrintable(s[i]) {
			return i
		}
	}
	return -1
}

// AllNumeric reports whether s is non-empty and every byte passes IsNumeric.
func AllNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !IsNumeric(s[i]) {
			return false
		}
	}
	return true
}
