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

import "testing"

func TestSum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want int
	}{
		{name: "empty data", data: []byte{}, want: 0},
		{name: "single byte", data: []byte{0x42}, want: 0x42},
		{name: "no byte truncation", data: []byte{0xFF, 0x01}, want: 0x100},
		{name: "version request region", data: []byte("1,VER,12345678,"), want: 838},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Sum(tt.data); got != tt.want {
				t.Errorf("Sum() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCalculateChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		data   []byte
		masked byte
		legacy byte
	}{
		{
			name:   "empty data",
			data:   []byte{},
			masked: 0xFF,
			legacy: 0xFF,
		},
		{
			name:   "version request region",
			data:   []byte("1,VER,12345678,"),
			masked: 0xB6, // 0x346: 0xFF - (0x03 + 0x46)
			legacy: 0xB6,
		},
		{
			name:   "high plus low equals 0xFF",
			data:   []byte{0xFF, 0xFF, 0xFF}, // 0x2FD
			masked: 0x00,
			legacy: 0x00,
		},
		{
			name:   "intermediate of -1",
			data:   []byte{0xFF, 0xFF, 0xFF, 0x01}, // 0x2FE
			masked: 0xFF,
			legacy: 0xFF,
		},
		{
			name:   "intermediate of -2",
			data:   []byte{0xFF, 0xFF, 0xFF, 0x02}, // 0x2FF
			masked: 0xFE,
			legacy: 0xFF,
		},
		{
			name:   "printable request region overflowing",
			data:   []byte("~,~~~,~~~~~~FF,"), // 0x5FC
			masked: 0xFE,
			legacy: 0xFF,
		},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateChecksum(tt.data, ChecksumMasked); got != tt.masked {
				t.Errorf("CalculateChecksum(masked) = %02X, want %02X", got, tt.masked)
			}
			if got := CalculateChecksum(tt.data, ChecksumLegacy); got != tt.legacy {
				t.Errorf("CalculateChecksum(legacy) = %02X, want %02X", got, tt.legacy)
			}
		})
	}
}

// TestChecksumModesAgreeInRange verifies both modes produce the same byte for
// every sum whose intermediate stays within a byte
func TestChecksumModesAgreeInRange(t *testing.T) {
	t.Parallel()
	for sum := 0; sum < 0x800; sum++ {
		if fold(sum) < 0 {
			continue
		}
		data := make([]byte, 0, sum/0xFF+1)
		for rest := sum; rest > 0; rest -= int(data[len(data)-1]) {
			data = append(data, byte(min(rest, 0xFF)))
		}
		masked := CalculateChecksum(data, ChecksumMasked)
		legacy := CalculateChecksum(data, ChecksumLegacy)
		if masked != legacy {
			t.Fatalf("sum %#x: masked %02X != legacy %02X", sum, masked, legacy)
		}
	}
}

func TestAppendChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want string
		ck   byte
	}{
		{name: "zero", ck: 0x00, want: "00"},
		{name: "uppercase digits", ck: 0xB6, want: "B6"},
		{name: "single digit high nibble", ck: 0x0F, want: "0F"},
		{name: "max", ck: 0xFF, want: "FF"},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := string(AppendChecksum(nil, tt.ck)); got != tt.want {
				t.Errorf("AppendChecksum() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseChecksum(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		digits string
		want   byte
		wantOK bool
	}{
		{name: "valid", digits: "B6", want: 0xB6, wantOK: true},
		{name: "zero", digits: "00", want: 0x00, wantOK: true},
		{name: "lowercase rejected", digits: "b6", wantOK: false},
		{name: "non hex rejected", digits: "G0", wantOK: false},
		{name: "separator rejected", digits: ",0", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt // capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseChecksum(tt.digits[0], tt.digits[1])
			if ok != tt.wantOK {
				t.Fatalf("ParseChecksum() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseChecksum() = %02X, want %02X", got, tt.want)
			}
		})
	}
}

// TestChecksumRoundTrip verifies that a rendered checksum always validates
// against the region it was computed from
func TestChecksumRoundTrip(t *testing.T) {
	t.Parallel()
	regions := [][]byte{
		[]byte("1,VER,12345678,"),
		[]byte("1,VER,01ABCD12,0,"),
		[]byte("~,~~~,~~~~~~FF,"),
		{0x00, ',', 0x00, 0x00, 0x00, ','},
	}
	for _, mode := range []ChecksumMode{ChecksumMasked, ChecksumLegacy} {
		for _, region := range regions {
			digits := AppendChecksum(nil, CalculateChecksum(region, mode))
			if !ValidateChecksum(region, digits[0], digits[1], mode) {
				t.Errorf("mode %s: checksum %q does not validate region %q", mode, digits, region)
			}
		}
	}
}

func TestCharset(t *testing.T) {
	t.Parallel()
	for b := 0; b < 256; b++ {
		c := byte(b)
		wantPrintable := c == 0 || (c >= 0x20 && c <= 0x7E)
		if IsPrintable(c) != wantPrintable {
			t.Errorf("IsPrintable(%#02x) = %v, want %v", c, !wantPrintable, wantPrintable)
		}
		wantNumeric := c == 0 || (c >= '0' && c <= '9')
		if IsNumeric(c) != wantNumeric {
			t.Errorf("IsNumeric(%#02x) = %v, want %v", c, !wantNumeric, wantNumeric)
		}
	}

	if IsPrintable(Delimiter) {
		t.Error("delimiter must not be printable")
	}
	if got := FirstNonPrintable("12\n45"); got != 2 {
		t.Errorf("FirstNonPrintable() = %d, want 2", got)
	}
	if got := FirstNonPrintable("12345678"); got != -1 {
		t.Errorf("FirstNonPrintable() = %d, want -1", got)
	}
	if AllNumeric("") || AllNumeric("12a4") || !AllNumeric("0042") {
		t.Error("AllNumeric() returned unexpected result")
	}
}
