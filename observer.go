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

import "time"

// Exchange describes one finished request/reply exchange. Response is nil
// when the exchange failed before a reply could be decoded.
type Exchange struct {
	Started  time.Time
	Err      error
	Response *Response
	Command  string
	Request  []byte
	Raw      []byte
	Duration time.Duration
	Board    byte
}

// OK reports whether the exchange succeeded
func (e *Exchange) OK() bool {
	return e.Err == nil
}

// Observer receives a record of every exchange a Client performs. The core
// never logs; diagnostics and metrics hang off this hook.
//
// ObserveExchange is called synchronously after the exchange completes, while
// the channel is still held, so implementations must not block.
type Observer interface {
	ObserveExchange(e *Exchange)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(e *Exchange)

// ObserveExchange implements Observer
func (f ObserverFunc) ObserveExchange(e *Exchange) {
	f(e)
}

type observers []Observer

func (o observers) ObserveExchange(e *Exchange) {
	for _, obs := range o {
		obs.ObserveExchange(e)
	}
}
