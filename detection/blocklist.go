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
package detection

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultBlocklist returns USB devices that are never probed. Entries are
// VID:PID pairs in hex, compared case-insensitively.
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno: opening the port resets the board
		"2341:0001", // Arduino Uno (older firmware)
		"1366:0105", // SEGGER J-Link CDC: probe bytes reach the target console
	}
}

// bridges names the USB serial bridges found in board controllers
var bridges = map[string]string{
	"0403:6001": "FTDI FT232R",
	"0403:6015": "FTDI FT231X",
	"10C4:EA60": "Silicon Labs CP210x",
	"1A86:7523": "WCH CH340",
	"067B:2303": "Prolific PL2303",
}

// BridgeName returns the chip name of a known USB serial bridge, or ""
func BridgeName(vidpid string) string {
	return bridges[ParseVIDPID(vidpid)]
}

// IsBlocked reports whether vidpid, in any form ParseVIDPID accepts, is on
// the blocklist
func IsBlocked(vidpid string, blocklist []string) bool {
	id := ParseVIDPID(vidpid)
	if id == "" {
		return false
	}
	for _, entry := range blocklist {
		if ParseVIDPID(entry) == id {
			return true
		}
	}
	return false
}

var (
	plainID   = regexp.MustCompile(`^\s*([0-9A-F]{4}):([0-9A-F]{4})\s*$`)
	vendorID  = regexp.MustCompile(`(?:VID[:=_]|VENDOR=)([0-9A-F]{4})`)
	productID = regexp.MustCompile(`(?:PID[:=_]|PRODUCT=)([0-9A-F]{4})`)
)

// ParseVIDPID normalizes a USB id to upper case "VVVV:PPPP". Accepted forms
// are "0403:6001", "VID:0403 PID:6001", "VID=0403 PID=6001",
// "vendor=0403 product=6001" and Windows hardware ids such as
// "USB\VID_0403&PID_6001". It returns "" when no id is found.
func ParseVIDPID(descriptor string) string {
	s := strings.ToUpper(descriptor)
	if m := plainID.FindStringSubmatch(s); m != nil {
		return m[1] + ":" + m[2]
	}
	vid := vendorID.FindStringSubmatch(s)
	pid := productID.FindStringSubmatch(s)
	if vid == nil || pid == nil {
		return ""
	}
	return vid[1] + ":" + pid[1]
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths.
// Paths are cleaned and compared case-insensitively so "com3" matches "COM3".
// A symlink such as /dev/serial/by-id/... also matches the tty it points to.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	names := aliases(devicePath)
	for _, ignored := range ignorePaths {
		if ignored == "" {
			continue
		}
		for _, candidate := range aliases(ignored) {
			for _, name := range names {
				if strings.EqualFold(name, candidate) {
					return true
				}
			}
		}
	}
	return false
}

// aliases returns the cleaned path and, when it is a symlink, its target
func aliases(path string) []string {
	cleaned := filepath.Clean(path)
	if target, err := filepath.EvalSymlinks(cleaned); err == nil && target != cleaned {
		return []string{cleaned, target}
	}
	return []string{cleaned}
}
