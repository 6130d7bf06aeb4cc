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

/*
Package etb talks to ETB burn-in test boards over a serial line.

Every exchange is one 18 byte request frame and one 20 byte reply frame:

	request  <board>,<cmd>,<data>,<ck>\n
	reply    <board>,<cmd>,<data>,<code>,<ck>\n

where board is one character, cmd three, data eight, code one and ck the
two digit hex checksum of everything before it. The protocol has no request
ids, so a Client allows only one exchange in flight per channel.

Basic Usage:

	import (
	    etb "github.com/ZaparooProject/go-etb"
	    "github.com/ZaparooProject/go-etb/transport/uart"
	)

	port, err := uart.New("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}

	client, err := etb.New(port, etb.WithTimeout(3*time.Second))
	if err != nil {
	    log.Fatal(err)
	}
	defer client.Close()

	board := client.Board('1')
	version, err := board.Version(ctx)
	if err != nil {
	    log.Fatal(err)
	}

	if err := board.StartTest(ctx, 3); err != nil {
	    log.Fatal(err)
	}
	status, err := board.Status(ctx, 3)

Raw exchanges skip the command table:

	data, err := client.Execute(etb.Request{Board: '1', Command: "VER", Data: "12345678"})

Errors:

Failures are reported with sentinel errors wrapped in typed errors, so both
errors.Is and errors.As work:

	var verr *etb.ValidationError
	switch {
	case etb.IsTimeout(err):
	    // no reply within the timeout
	case errors.As(err, &verr) && errors.Is(err, etb.ErrDeviceRejected):
	    // the board answered with a non-zero code in verr.Code
	}

The package never logs and never retries. Attach an Observer with
WithObserver for logging or metrics, and see internal/retry for a retry
loop built on IsRetryable.

Transports:

  - transport/uart: serial ports through go.bug.st/serial
  - transport/periph: periph.io UART ports on single board computers
*/
package etb
