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
	"context"
	"fmt"
)

// Board addresses one test board behind a Client
type Board struct {
	client *Client
	id     byte
}

// Board returns a handle for the board with the given id
func (c *Client) Board(id byte) *Board {
	return &Board{client: c, id: id}
}

// ID returns the board id
func (b *Board) ID() byte {
	return b.id
}

// Do runs a table command and returns its parsed result
func (b *Board) Do(ctx context.Context, d *Descriptor, arg int) (any, error) {
	req, err := d.Request(b.id, arg)
	if err != nil {
		return nil, err
	}
	data, err := b.client.ExecuteContext(ctx, req)
	if err != nil {
		return nil, err
	}
	return d.Parse(data, arg)
}

// Run looks up a command by code or name and runs it
func (b *Board) Run(ctx context.Context, command string, arg int) (any, error) {
	d, ok := LookupCommand(command)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	return b.Do(ctx, &d, arg)
}

func mustCommand(code string) *Descriptor {
	d, ok := LookupCommand(code)
	if !ok {
		panic("etb: command table is missing " + code)
	}
	return &d
}

func (b *Board) exec(ctx context.Context, code string, arg int) error {
	_, err := b.Do(ctx, mustCommand(code), arg)
	return err
}

func (b *Board) number(ctx context.Context, code string, arg int) (int, error) {
	v, err := b.Do(ctx, mustCommand(code), arg)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	return n, nil
}

// Version reads the firmware version string
func (b *Board) Version(ctx context.Context) (string, error) {
	v, err := b.Do(ctx, mustCommand(CmdVersion), 0)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// ConnectCheck verifies the board answers
func (b *Board) ConnectCheck(ctx context.Context) error {
	return b.exec(ctx, CmdConnectCheck, 0)
}

// SetCurrent sets the stress current
func (b *Board) SetCurrent(ctx context.Context, value int) error {
	return b.exec(ctx, CmdSetCurrent, value)
}

// Current reads the stress current setting
func (b *Board) Current(ctx context.Context) (int, error) {
	return b.number(ctx, CmdGetCurrent, 0)
}

// ClearTestTime resets the elapsed test time
func (b *Board) ClearTestTime(ctx context.Context) error {
	return b.exec(ctx, CmdClearTestTime, 0)
}

// TestTime reads the elapsed test time of a channel
func (b *Board) TestTime(ctx context.Context, channel int) (int, error) {
	return b.number(ctx, CmdGetTestTime, channel)
}

// StartStress starts applying stress on a channel
func (b *Board) StartStress(ctx context.Context, channel int) error {
	return b.exec(ctx, CmdStartStress, channel)
}

// StopStress stops applying stress on a channel
func (b *Board) StopStress(ctx context.Context, channel int) error {
	return b.exec(ctx, CmdStopStress, channel)
}

// StartTest starts the test on a channel
func (b *Board) StartTest(ctx context.Context, channel int) error {
	return b.exec(ctx, CmdStartTest, channel)
}

// StopTest stops the test on a channel
func (b *Board) StopTest(ctx context.Context, channel int) error {
	return b.exec(ctx, CmdStopTest, channel)
}

// Status reads the status flags of a channel
func (b *Board) Status(ctx context.Context, channel int) (ChannelStatus, error) {
	v, err := b.Do(ctx, mustCommand(CmdGetStatus), channel)
	if err != nil {
		return 0, err
	}
	s, _ := v.(ChannelStatus)
	return s, nil
}

// StressCurrent measures the stress current of a channel
func (b *Board) StressCurrent(ctx context.Context, channel int) (int, error) {
	return b.number(ctx, CmdGetStressCurrent, channel)
}

// SetPulseCycle sets the pulse cycle
func (b *Board) SetPulseCycle(ctx context.Context, value int) error {
	return b.exec(ctx, CmdSetPulseCycle, value)
}

// PulseCycle reads the pulse cycle
func (b *Board) PulseCycle(ctx context.Context) (int, error) {
	return b.number(ctx, CmdGetPulseCycle, 0)
}

// SetPulseDuty sets the pulse duty
func (b *Board) SetPulseDuty(ctx context.Context, value int) error {
	return b.exec(ctx, CmdSetPulseDuty, value)
}

// PulseDuty reads the pulse duty
func (b *Board) PulseDuty(ctx context.Context) (int, error) {
	return b.number(ctx, CmdGetPulseDuty, 0)
}

// SetPulseEnabled switches pulse output. The board takes 1 for on, 0 for off.
func (b *Board) SetPulseEnabled(ctx context.Context, value int) error {
	return b.exec(ctx, CmdSetPulseEnable, value)
}

// PulseEnabled reads the pulse output state
func (b *Board) PulseEnabled(ctx context.Context) (int, error) {
	return b.number(ctx, CmdGetPulseEnable, 0)
}

// Temperature reads the board temperature
func (b *Board) Temperature(ctx context.Context) (Temperature, error) {
	v, err := b.Do(ctx, mustCommand(CmdGetTemperature), 0)
	if err != nil {
		return Temperature{}, err
	}
	t, _ := v.(Temperature)
	return t, nil
}

// SetVoltPolarity sets the voltage polarity
func (b *Board) SetVoltPolarity(ctx context.Context, value int) error {
	return b.exec(ctx, CmdSetVoltPolarity, value)
}

// VoltPolarity reads the voltage polarity
func (b *Board) VoltPolarity(ctx context.Context) (int, error) {
	return b.number(ctx, CmdGetVoltPolarity, 0)
}
