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

// Package testing provides a virtual test board and frame builders for tests
package testing

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/ZaparooProject/go-etb/internal/frame"
)

// Response codes used by the virtual board
const (
	CodeOK             byte = '0'
	CodeBadValue       byte = '1'
	CodeUnknownCommand byte = '2'
)

// VirtualChannel is the simulated state of one board channel
type VirtualChannel struct {
	TestTime      int
	StressCurrent int
	Stress        bool
	Testing       bool
}

// VirtualBoard answers request frames the way ETB firmware does. Fault
// fields let tests provoke each failure the client must detect.
type VirtualBoard struct {
	channels    map[int]*VirtualChannel
	Version     string
	Current     int
	PulseCycle  int
	PulseDuty   int
	PulseEnable int
	Polarity    int
	Temperature int
	TempStatus  int
	requests    int
	mu          sync.Mutex
	Mode        frame.ChecksumMode

	// Fault injection
	RejectCode      byte // reply with this code instead of CodeOK
	EchoBoard       byte // reply with this board id instead of ID
	EchoCommand     string
	ID              byte
	Silent          bool // never reply
	ReplyTimeout    bool // reply with the TMO echo
	CorruptChecksum bool
	WrongEchoData   bool
}

// NewVirtualBoard creates a board with the given id and default state
func NewVirtualBoard(id byte) *VirtualBoard {
	return &VirtualBoard{
		ID:          id,
		Version:     "01ABCD12",
		Temperature: 25,
		channels:    make(map[int]*VirtualChannel),
	}
}

// Channel returns the state of channel ch, creating it if needed
func (v *VirtualBoard) Channel(ch int) *VirtualChannel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channel(ch)
}

func (v *VirtualBoard) channel(ch int) *VirtualChannel {
	c, ok := v.channels[ch]
	if !ok {
		c = &VirtualChannel{}
		v.channels[ch] = c
	}
	return c
}

// Requests returns how many valid frames addressed to this board were seen
func (v *VirtualBoard) Requests() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requests
}

// Handle processes one request frame and returns the reply, or nil when the
// board stays silent (bad frame, other board, or Silent set).
func (v *VirtualBoard) Handle(req []byte) []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(req) != frame.RequestLength || req[len(req)-1] != frame.Delimiter {
		return nil
	}
	if !frame.ValidateChecksum(req[:frame.RequestCovered], req[15], req[16], v.Mode) {
		return nil
	}
	if req[0] != v.ID {
		return nil
	}
	v.requests++
	if v.Silent {
		return nil
	}

	cmd := string(req[2:5])
	data := string(req[6:14])
	reply, code := v.dispatch(cmd, data)

	board := v.ID
	if v.EchoBoard != 0 {
		board = v.EchoBoard
	}
	echo := cmd
	switch {
	case v.ReplyTimeout:
		echo = frame.PeerTimeout
	case v.EchoCommand != "":
		echo = v.EchoCommand
	}
	if v.RejectCode != 0 {
		code = v.RejectCode
	}
	if v.WrongEchoData {
		reply = "99999999"
	}

	if v.CorruptChecksum {
		return BuildResponseBadChecksum(board, echo, reply, code)
	}
	return BuildResponseWithMode(board, echo, reply, code, v.Mode)
}

func (v *VirtualBoard) dispatch(cmd, data string) (string, byte) {
	n, numErr := strconv.Atoi(data)

	switch cmd {
	case "VER":
		return fmt.Sprintf("%-8.8s", v.Version), CodeOK
	case "CCK":
		return data, CodeOK
	case "CET":
		for _, c := range v.channels {
			c.TestTime = 0
		}
		return data, CodeOK
	case "GCR":
		return number(v.Current), CodeOK
	case "GPF":
		return number(v.PulseCycle), CodeOK
	case "GPD":
		return number(v.PulseDuty), CodeOK
	case "GPE":
		return number(v.PulseEnable), CodeOK
	case "GVP":
		return number(v.Polarity), CodeOK
	case "GTP":
		return fmt.Sprintf("%1d0000%03d", v.TempStatus%10, v.Temperature%1000), CodeOK
	}

	if numErr != nil {
		return data, CodeBadValue
	}

	switch cmd {
	case "SCR":
		v.Current = n
	case "SPF":
		v.PulseCycle = n
	case "SPD":
		v.PulseDuty = n
	case "SPE":
		v.PulseEnable = n
	case "SVP":
		v.Polarity = n
	case "SSS":
		v.channel(n).Stress = true
	case "SSE":
		v.channel(n).Stress = false
	case "STS":
		v.channel(n).Testing = true
	case "STE":
		v.channel(n).Testing = false
	case "GET":
		return number(v.channel(n).TestTime), CodeOK
	case "GSC":
		return number(v.channel(n).StressCurrent), CodeOK
	case "GST":
		c := v.channel(n)
		return fmt.Sprintf("%s%s00%04d", flag(c.Testing), flag(c.Stress), n%10000), CodeOK
	default:
		return data, CodeUnknownCommand
	}
	return data, CodeOK
}

func number(n int) string {
	return fmt.Sprintf("%08d", n)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
