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
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-etb/internal/frame"
)

// Request describes one exchange with a board
type Request struct {
	// Command is the three character command code
	Command string
	// Data is the eight character request data field
	Data string
	// Echo is the expected command echo. Empty means Command.
	Echo string
	// EchoData is compared with the reply data field when MatchData is set.
	// Boards echo a channel or value argument this way as confirmation.
	EchoData  string
	Board     byte
	MatchData bool
}

func (r *Request) expectedEcho() string {
	if r.Echo == "" {
		return r.Command
	}
	return r.Echo
}

// validateResponse applies the generic post-decode checks in order: board
// id, response code, command echo, echo data.
func validateResponse(req *Request, resp *Response) error {
	if resp.BoardID != req.Board {
		return &ValidationError{
			Err:      ErrBoardMismatch,
			Command:  req.Command,
			Expected: string([]byte{req.Board}),
			Got:      string([]byte{resp.BoardID}),
		}
	}

	if !resp.Accepted() {
		return &ValidationError{Err: ErrDeviceRejected, Command: req.Command, Code: resp.Code}
	}

	echo := req.expectedEcho()
	if resp.IsPeerTimeout() && echo != frame.PeerTimeout {
		return &ValidationError{Err: ErrPeerTimeout, Command: req.Command, Expected: echo, Got: resp.Command}
	}
	if resp.Command != echo {
		return &ValidationError{Err: ErrCommandMismatch, Command: req.Command, Expected: echo, Got: resp.Command}
	}

	if req.MatchData && resp.Data != req.EchoData {
		return &ValidationError{Err: ErrEchoMismatch, Command: req.Command, Expected: req.EchoData, Got: resp.Data}
	}

	return nil
}

// parseNumber reads a decimal field. Surrounding white space and a leading
// sign are accepted; everything else must be digits.
func parseNumber(command, data string) (int, error) {
	s := strings.TrimSpace(data)
	digits := strings.TrimLeft(s, "+-")
	if len(s)-len(digits) > 1 || !frame.AllNumeric(digits) {
		return 0, &ParseError{Err: ErrInvalidResponseData, Command: command, Data: data}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ParseError{Err: fmt.Errorf("%w: %w", ErrInvalidResponseData, err), Command: command, Data: data}
	}
	return n, nil
}

// formatNumber renders v as an eight digit zero padded field
func formatNumber(command string, v, maxValue int) (string, error) {
	if v < 0 || v > maxValue {
		return "", fmt.Errorf("%s: %w: %d out of range 0..%d", command, ErrInvalidParameter, v, maxValue)
	}
	return fmt.Sprintf("%0*d", frame.DataLength, v), nil
}
