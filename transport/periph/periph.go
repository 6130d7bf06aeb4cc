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

// Package periph provides a channel over periph.io UART ports, for boards
// wired to the UART pins of a single board computer
package periph

import (
	"fmt"
	"sync"
	"time"

	etb "github.com/ZaparooProject/go-etb"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/uart"
	"periph.io/x/conn/v3/uart/uartreg"
	"periph.io/x/host/v3"
)

const (
	defaultBaudRate    = 9600
	defaultReadTimeout = 3000 * time.Millisecond

	// readAhead is how many received bytes may wait for ReadByte
	readAhead = 256
)

// Config holds the line settings. The ETB line is always 8N1 without flow control.
type Config struct {
	BaudRate    int
	ReadTimeout time.Duration
}

// DefaultConfig returns 9600 baud with a three second read timeout
func DefaultConfig() Config {
	return Config{
		BaudRate:    defaultBaudRate,
		ReadTimeout: defaultReadTimeout,
	}
}

// Option adjusts a Config
type Option func(*Config)

// WithBaudRate sets the line speed
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		c.BaudRate = baud
	}
}

// WithReadTimeout sets the initial per-read timeout
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

func (c Config) validate() error {
	if c.BaudRate < 50 {
		return fmt.Errorf("%w: baud rate %d", etb.ErrInvalidParameter, c.BaudRate)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", etb.ErrInvalidParameter)
	}
	return nil
}

type readResult struct {
	err error
	b   byte
}

// Transport implements etb.Channel on a periph.io UART connection.
// periph connections block on read, so a reader goroutine feeds ReadByte
// and the read timeout is applied on the receiving side.
type Transport struct {
	port        uart.PortCloser
	conn        conn.Conn
	results     chan readResult
	done        chan struct{}
	portName    string
	config      Config
	readTimeout time.Duration
	mu          sync.Mutex
	closed      bool
}

// New initializes the periph host drivers and opens the named port
func New(portName string, opts ...Option) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, etb.NewTransportError("open", portName,
			fmt.Errorf("failed to initialize periph host: %w", err), etb.ErrorTypePermanent)
	}
	return Open(portName, opts...)
}

// Open opens a port from the periph UART registry. The host drivers must
// already be initialized.
func Open(portName string, opts ...Option) (*Transport, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	port, err := uartreg.Open(portName)
	if err != nil {
		return nil, etb.NewTransportError("open", portName,
			fmt.Errorf("failed to open UART port: %w", err), etb.ErrorTypePermanent)
	}

	c, err := port.Connect(physic.Frequency(cfg.BaudRate)*physic.Hertz, uart.One, uart.NoParity, uart.NoFlow, 8)
	if err != nil {
		_ = port.Close()
		return nil, etb.NewTransportError("open", portName,
			fmt.Errorf("failed to configure UART port: %w", err), etb.ErrorTypePermanent)
	}

	t := &Transport{
		port:        port,
		conn:        c,
		results:     make(chan readResult, readAhead),
		done:        make(chan struct{}),
		portName:    portName,
		config:      cfg,
		readTimeout: cfg.ReadTimeout,
	}
	go t.readLoop()
	return t, nil
}

func (t *Transport) readLoop() {
	buf := make([]byte, 1)
	for {
		err := t.conn.Tx(nil, buf)
		res := readResult{b: buf[0], err: err}
		select {
		case t.results <- res:
		case <-t.done:
			return
		}
		if err != nil {
			return
		}
	}
}

// Write sends p in full
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return 0, etb.ErrTransportClosed
	}

	if err := t.conn.Tx(p, nil); err != nil {
		return 0, etb.NewTransportError("write", t.portName, err, etb.ErrorTypeTransient)
	}
	return len(p), nil
}

// ReadByte waits up to the read timeout for the next byte
func (t *Transport) ReadByte() (byte, error) {
	t.mu.Lock()
	closed, timeout := t.closed, t.readTimeout
	t.mu.Unlock()
	if closed {
		return 0, etb.ErrTransportClosed
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-t.results:
		if res.err != nil {
			// the reader has stopped, the port is unusable until reopened
			return 0, etb.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %w", etb.ErrTransportClosed, res.err), etb.ErrorTypePermanent)
		}
		return res.b, nil
	case <-timer.C:
		return 0, etb.NewTimeoutError("read", t.portName)
	case <-t.done:
		return 0, etb.ErrTransportClosed
	}
}

// SetReadTimeout bounds the next reads
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive", etb.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return etb.ErrTransportClosed
	}
	t.readTimeout = timeout
	return nil
}

// Flush discards bytes received but not yet read
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return etb.ErrTransportClosed
	}
	for {
		select {
		case res := <-t.results:
			if res.err != nil {
				// keep the failure visible to the next read
				t.results <- res
				return nil
			}
		default:
			return nil
		}
	}
}

// Close stops the reader and closes the port. Closing twice is not an error.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	if err := t.port.Close(); err != nil {
		return etb.NewTransportError("close", t.portName, err, etb.ErrorTypePermanent)
	}
	return nil
}

// IsConnected returns true while the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Config returns the line settings the port was opened with
func (t *Transport) Config() Config {
	return t.config
}

// Name returns the port name
func (t *Transport) Name() string {
	return t.portName
}

// Type returns the channel type
func (*Transport) Type() etb.ChannelType {
	return etb.ChannelPeriph
}

// Ports lists the UART ports known to the periph registry
func Ports() []string {
	refs := uartreg.All()
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

var (
	_ etb.Channel           = (*Transport)(nil)
	_ etb.ReadTimeoutSetter = (*Transport)(nil)
)
