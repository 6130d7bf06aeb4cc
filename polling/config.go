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

// Package polling watches ETB boards by polling channel status and
// temperature, reporting changes through callbacks
package polling

import (
	"errors"
	"time"
)

// Config controls a Monitor
type Config struct {
	// Channels lists the channels whose status is polled
	Channels []int
	// PollInterval is the pause between two polling cycles
	PollInterval time.Duration
	// OfflineThreshold is the number of consecutive failed cycles after
	// which the board is reported offline
	OfflineThreshold int
	// Temperature enables GTP polling
	Temperature bool
}

// DefaultConfig returns a configuration polling channel 1 every second
func DefaultConfig() *Config {
	return &Config{
		Channels:         []int{1},
		PollInterval:     time.Second,
		OfflineThreshold: 3,
		Temperature:      true,
	}
}

// ErrNoChannels is returned when a monitor has nothing to poll
var ErrNoChannels = errors.New("no channels to poll")

func (c *Config) validate() error {
	if len(c.Channels) == 0 && !c.Temperature {
		return ErrNoChannels
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.OfflineThreshold <= 0 {
		return errors.New("offline threshold must be positive")
	}
	return nil
}
