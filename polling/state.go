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

package polling

import (
	"time"

	etb "github.com/ZaparooProject/go-etb"
)

// LinkState is the reachability of a polled board
type LinkState int

const (
	StateUnknown LinkState = iota
	StateOnline
	StateOffline
)

// String returns the state name
func (s LinkState) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// BoardState tracks what the monitor last learned about a board
type BoardState struct {
	LastSeen    time.Time
	LastErr     error
	Statuses    map[int]etb.ChannelStatus
	Temperature *etb.Temperature
	Failures    int
	Link        LinkState
}

func newBoardState() BoardState {
	return BoardState{Statuses: make(map[int]etb.ChannelStatus)}
}

// clone returns a copy that shares nothing with s
func (s *BoardState) clone() BoardState {
	out := *s
	out.Statuses = make(map[int]etb.ChannelStatus, len(s.Statuses))
	for ch, st := range s.Statuses {
		out.Statuses[ch] = st
	}
	if s.Temperature != nil {
		t := *s.Temperature
		out.Temperature = &t
	}
	return out
}

// TransitionToOnline records a successful cycle. It reports whether the
// board just came online.
func (s *BoardState) TransitionToOnline(now time.Time) bool {
	s.LastSeen = now
	s.LastErr = nil
	s.Failures = 0
	if s.Link == StateOnline {
		return false
	}
	s.Link = StateOnline
	return true
}

// TransitionOnFailure records a failed cycle. It reports whether the board
// just went offline.
func (s *BoardState) TransitionOnFailure(err error, threshold int) bool {
	s.LastErr = err
	s.Failures++
	if s.Link == StateOffline || s.Failures < threshold {
		return false
	}
	s.Link = StateOffline
	return true
}

// UpdateStatus stores the status of a channel and reports the previous value
// and whether it was known
func (s *BoardState) UpdateStatus(channel int, status etb.ChannelStatus) (etb.ChannelStatus, bool) {
	old, known := s.Statuses[channel]
	s.Statuses[channel] = status
	return old, known
}

// UpdateTemperature stores a reading and reports whether it differs from the
// previous one
func (s *BoardState) UpdateTemperature(t etb.Temperature) bool {
	changed := s.Temperature == nil || *s.Temperature != t
	s.Temperature = &t
	return changed
}
