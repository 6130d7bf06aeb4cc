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
	"fmt"
	"strings"
)

// ETB command codes
const (
	CmdVersion          = "VER"
	CmdConnectCheck     = "CCK"
	CmdSetCurrent       = "SCR"
	CmdGetCurrent       = "GCR"
	CmdClearTestTime    = "CET"
	CmdGetTestTime      = "GET"
	CmdStartStress      = "SSS"
	CmdStopStress       = "SSE"
	CmdStartTest        = "STS"
	CmdStopTest         = "STE"
	CmdGetStatus        = "GST"
	CmdGetStressCurrent = "GSC"
	CmdSetPulseCycle    = "SPF"
	CmdGetPulseCycle    = "GPF"
	CmdSetPulseDuty     = "SPD"
	CmdGetPulseDuty     = "GPD"
	CmdSetPulseEnable   = "SPE"
	CmdGetPulseEnable   = "GPE"
	CmdGetTemperature   = "GTP"
	CmdSetVoltPolarity  = "SVP"
	CmdGetVoltPolarity  = "GVP"
)

// Fixed request data fields
const (
	probeData = "12345678"
	queryData = "00000000"
)

// Argument limits
const (
	maxValue   = 99999999
	maxChannel = 9999 // GST echoes the channel in four digits
)

// ArgKind tells what a command's request data field carries
type ArgKind int

const (
	// ArgNone commands send fixed data
	ArgNone ArgKind = iota
	// ArgValue commands send a setpoint
	ArgValue
	// ArgChannel commands send a channel number
	ArgChannel
)

// ResultKind tells how a command's reply data field is interpreted
type ResultKind int

const (
	// ResultNone replies carry nothing of interest
	ResultNone ResultKind = iota
	// ResultRaw replies are returned verbatim
	ResultRaw
	// ResultInt replies hold a decimal number
	ResultInt
	// ResultStatus replies hold channel status flags and the channel echo
	ResultStatus
	// ResultTemperature replies hold a status digit and a temperature
	ResultTemperature
)

// Descriptor describes one board command: how to build its request and how
// to read its reply
type Descriptor struct {
	Code        string
	Name        string
	Description string
	FixedData   string
	Arg         ArgKind
	Result      ResultKind
	MaxArg      int
	EchoData    bool
}

var commandTable = []Descriptor{
	{Code: CmdVersion, Name: "version", Description: "read firmware version",
		FixedData: probeData, Result: ResultRaw},
	{Code: CmdConnectCheck, Name: "connect-check", Description: "check communication",
		FixedData: probeData},
	{Code: CmdSetCurrent, Name: "set-current", Description: "set stress current",
		Arg: ArgValue, MaxArg: maxValue},
	{Code: CmdGetCurrent, Name: "current", Description: "read stress current setting",
		FixedData: queryData, Result: ResultInt},
	{Code: CmdClearTestTime, Name: "clear-test-time", Description: "clear elapsed test time",
		FixedData: probeData},
	{Code: CmdGetTestTime, Name: "test-time", Description: "read elapsed test time of a channel",
		Arg: ArgChannel, MaxArg: maxValue, Result: ResultInt},
	{Code: CmdStartStress, Name: "start-stress", Description: "start applying stress on a channel",
		Arg: ArgChannel, MaxArg: maxValue, EchoData: true},
	{Code: CmdStopStress, Name: "stop-stress", Description: "stop applying stress on a channel",
		Arg: ArgChannel, MaxArg: maxValue, EchoData: true},
	{Code: CmdStartTest, Name: "start-test", Description: "start test on a channel",
		Arg: ArgChannel, MaxArg: maxValue, EchoData: true},
	{Code: CmdStopTest, Name: "stop-test", Description: "stop test on a channel",
		Arg: ArgChannel, MaxArg: maxValue, EchoData: true},
	{Code: CmdGetStatus, Name: "status", Description: "read channel status flags",
		Arg: ArgChannel, MaxArg: maxChannel, Result: ResultStatus},
	{Code: CmdGetStressCurrent, Name: "stress-current", Description: "measure stress current of a channel",
		Arg: ArgChannel, MaxArg: maxValue, Result: ResultInt},
	{Code: CmdSetPulseCycle, Name: "set-pulse-cycle", Description: "set pulse cycle",
		Arg: ArgValue, MaxArg: maxValue},
	{Code: CmdGetPulseCycle, Name: "pulse-cycle", Description: "read pulse cycle",
		FixedData: queryData, Result: ResultInt},
	{Code: CmdSetPulseDuty, Name: "set-pulse-duty", Description: "set pulse duty",
		Arg: ArgValue, MaxArg: maxValue},
	{Code: CmdGetPulseDuty, Name: "pulse-duty", Description: "read pulse duty",
		FixedData: queryData, Result: ResultInt},
	{Code: CmdSetPulseEnable, Name: "set-pulse", Description: "switch pulse output on or off",
		Arg: ArgValue, MaxArg: maxValue},
	{Code: CmdGetPulseEnable, Name: "pulse", Description: "read pulse output state",
		FixedData: queryData, Result: ResultInt},
	{Code: CmdGetTemperature, Name: "temperature", Description: "read board temperature",
		FixedData: queryData, Result: ResultTemperature},
	{Code: CmdSetVoltPolarity, Name: "set-polarity", Description: "set voltage polarity",
		Arg: ArgValue, MaxArg: maxValue},
	{Code: CmdGetVoltPolarity, Name: "polarity", Description: "read voltage polarity",
		FixedData: queryData, Result: ResultInt},
}

// Commands returns the command table
func Commands() []Descriptor {
	out := make([]Descriptor, len(commandTable))
	copy(out, commandTable)
	return out
}

// LookupCommand finds a command by code or name, case-insensitively
func LookupCommand(key string) (Descriptor, bool) {
	for _, d := range commandTable {
		if strings.EqualFold(d.Code, key) || strings.EqualFold(d.Name, key) {
			return d, true
		}
	}
	return Descriptor{}, false
}

// TakesArg reports whether the request needs an argument
func (d *Descriptor) TakesArg() bool {
	return d.Arg != ArgNone
}

// Request builds the exchange request for board. arg is ignored by commands
// that send fixed data.
func (d *Descriptor) Request(board byte, arg int) (Request, error) {
	req := Request{Board: board, Command: d.Code}

	if d.Arg == ArgNone {
		req.Data = d.FixedData
		return req, nil
	}

	data, err := formatNumber(d.Code, arg, d.MaxArg)
	if err != nil {
		return Request{}, err
	}
	req.Data = data
	if d.EchoData {
		req.EchoData = data
		req.MatchData = true
	}
	return req, nil
}

// Parse interprets the reply data field. arg must be the value the request
// was built with. The result is nil, a string, an int, a ChannelStatus or a
// Temperature depending on Result.
func (d *Descriptor) Parse(data string, arg int) (any, error) {
	switch d.Result {
	case ResultNone:
		return nil, nil
	case ResultRaw:
		return data, nil
	case ResultInt:
		return parseNumber(d.Code, data)
	case ResultStatus:
		return parseStatus(d.Code, data, arg)
	case ResultTemperature:
		return parseTemperature(d.Code, data)
	default:
		return nil, fmt.Errorf("%s: %w: result kind %d", d.Code, ErrUnknownCommand, d.Result)
	}
}

// ChannelStatus holds the four status flags of a channel. The first data
// character maps to bit 3, the fourth to bit 0.
type ChannelStatus uint8

// Bit reports whether flag n (0-3) is set
func (s ChannelStatus) Bit(n int) bool {
	return n >= 0 && n < 4 && s&(1<<n) != 0
}

// String renders the flags as four binary digits, bit 3 first
func (s ChannelStatus) String() string {
	return fmt.Sprintf("%04b", uint8(s)&0x0F)
}

// Temperature is the reading returned by GTP
type Temperature struct {
	Celsius int `json:"celsius" yaml:"celsius"`
	Status  int `json:"status" yaml:"status"`
}

func parseStatus(command, data string, channel int) (ChannelStatus, error) {
	if len(data) != DataLength {
		return 0, &ParseError{Err: ErrInvalidResponseData, Command: command, Data: data}
	}

	want := fmt.Sprintf("%04d", channel)
	if got := data[4:8]; got != want {
		return 0, &ValidationError{Err: ErrEchoMismatch, Command: command, Expected: want, Got: got}
	}

	var s ChannelStatus
	for i := 0; i < 4; i++ {
		if data[i] == '1' {
			s |= 1 << (3 - i)
		}
	}
	return s, nil
}

func parseTemperature(command, data string) (Temperature, error) {
	if len(data) != DataLength {
		return Temperature{}, &ParseError{Err: ErrInvalidResponseData, Command: command, Data: data}
	}

	celsius, err := parseNumber(command, data[len(data)-3:])
	if err != nil {
		return Temperature{}, err
	}
	status, err := parseNumber(command, data[:1])
	if err != nil {
		return Temperature{}, err
	}
	return Temperature{Celsius: celsius, Status: status}, nil
}
