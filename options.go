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
	"time"
)

// Option is a functional option for configuring a Client
type Option func(*Client) error

// WithConfig replaces the whole client configuration
func WithConfig(config *ClientConfig) Option {
	return func(c *Client) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidParameter)
		}
		cfg := *config
		c.config = &cfg
		return nil
	}
}

// WithTimeout sets the reply timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidParameter, timeout)
		}
		c.config.Timeout = timeout
		return nil
	}
}

// WithMaxFrameLength caps the bytes buffered while waiting for a delimiter
func WithMaxFrameLength(n int) Option {
	return func(c *Client) error {
		if n != 0 && n < ResponseLength {
			return fmt.Errorf("%w: max frame length %d is below %d", ErrInvalidParameter, n, ResponseLength)
		}
		c.config.MaxFrameLength = n
		return nil
	}
}

// WithChecksumMode selects the checksum rendering used for both directions
func WithChecksumMode(mode ChecksumMode) Option {
	return func(c *Client) error {
		if mode != ChecksumMasked && mode != ChecksumLegacy {
			return fmt.Errorf("%w: unknown checksum mode %d", ErrInvalidParameter, mode)
		}
		c.config.Checksum = mode
		return nil
	}
}

// WithRateLimit enforces a minimum interval between exchanges, for firmware
// that needs idle time between commands
func WithRateLimit(interval time.Duration) Option {
	return func(c *Client) error {
		if interval < 0 {
			return fmt.Errorf("%w: negative interval %v", ErrInvalidParameter, interval)
		}
		c.config.MinInterval = interval
		return nil
	}
}

// WithObserver adds exchange observers
func WithObserver(obs ...Observer) Option {
	return func(c *Client) error {
		var all observers
		if existing, ok := c.observer.(observers); ok {
			all = append(all, existing...)
		} else if c.observer != nil {
			all = append(all, c.observer)
		}
		for _, o := range obs {
			if o != nil {
				all = append(all, o)
			}
		}
		if len(all) > 0 {
			c.observer = all
		}
		return nil
	}
}

// WithClock sets the time source used for timeouts and exchange records
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidParameter)
		}
		c.now = now
		return nil
	}
}
