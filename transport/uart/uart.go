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

// Package uart provides a serial port channel for ETB test boards
package uart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	etb "github.com/ZaparooProject/go-etb"
	"go.bug.st/serial"
)

// Reference deployment settings
const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = 3000 * time.Millisecond
)

// Config holds the serial line settings
type Config struct {
	// Parity and StopBits use the go.bug.st/serial constants
	Parity      serial.Parity
	StopBits    serial.StopBits
	BaudRate    int
	DataBits    int
	ReadTimeout time.Duration
	// RTS is the initial state of the RTS line. Boards expect it off.
	RTS bool
	DTR bool
}

// DefaultConfig returns 9600 8N1, no handshake, RTS off
func DefaultConfig() Config {
	return Config{
		BaudRate:    DefaultBaudRate,
		DataBits:    8,
		Parity:      serial.NoParity,
		StopBits:    serial.OneStopBit,
		ReadTimeout: DefaultReadTimeout,
		DTR:         true,
	}
}

// Option adjusts a Config before the port is opened
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

// WithConfig replaces the whole line configuration
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

func (c Config) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   c.Parity,
		StopBits: c.StopBits,
		InitialStatusBits: &serial.ModemOutputBits{
			RTS: c.RTS,
			DTR: c.DTR,
		},
	}
}

func (c Config) validate() error {
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: baud rate must be positive, got %d", etb.ErrInvalidParameter, c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("%w: data bits must be 5-8, got %d", etb.ErrInvalidParameter, c.DataBits)
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("%w: read timeout must be positive, got %v", etb.ErrInvalidParameter, c.ReadTimeout)
	}
	return nil
}

// Transport implements etb.Channel over a serial port
type Transport struct {
	port        serial.Port
	portName    string
	config      Config
	readTimeout time.Duration
	buf         [1]byte
	mu          sync.Mutex
}

// New opens portName with the given options
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	port, err := serial.Open(portName, cfg.mode())
	if err != nil {
		return nil, etb.NewTransportError("open", portName,
			fmt.Errorf("failed to open serial port: %w", err), errorType(err))
	}

	t := newTransport(port, portName, cfg)
	if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return nil, etb.NewTransportError("open", portName,
			fmt.Errorf("failed to set read timeout: %w", err), errorType(err))
	}
	t.readTimeout = cfg.ReadTimeout

	return t, nil
}

func newTransport(port serial.Port, portName string, cfg Config) *Transport {
	return &Transport{
		port:     port,
		portName: portName,
		config:   cfg,
	}
}

// Write sends p in full
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, etb.ErrTransportClosed
	}

	n, err := port.Write(p)
	if err != nil {
		return n, t.wrap("write", err)
	}
	return n, nil
}

// ReadByte reads one byte. A read that returns nothing within the read
// timeout reports a timeout error.
func (t *Transport) ReadByte() (byte, error) {
	t.mu.Lock()
	port := t.port
	t.mu.Unlock()
	if port == nil {
		return 0, etb.ErrTransportClosed
	}

	n, err := port.Read(t.buf[:])
	if err != nil {
		return 0, t.wrap("read", err)
	}
	if n == 0 {
		return 0, etb.NewTimeoutError("read", t.portName)
	}
	return t.buf[0], nil
}

// SetReadTimeout bounds the next reads. Repeated calls with the same value
// do not touch the port.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return etb.ErrTransportClosed
	}
	if timeout == t.readTimeout {
		return nil
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return t.wrap("set read timeout", err)
	}
	t.readTimeout = timeout
	return nil
}

// Flush discards unread input, such as a late reply to a timed out request
func (t *Transport) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return etb.ErrTransportClosed
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return t.wrap("flush", err)
	}
	return nil
}

// Close closes the port. Closing twice is not an error.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return t.wrap("close", err)
	}
	return nil
}

// IsConnected returns true while the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Config returns the line settings the port was opened with
func (t *Transport) Config() Config {
	return t.config
}

// Name returns the port path
func (t *Transport) Name() string {
	return t.portName
}

// Type returns the channel type
func (*Transport) Type() etb.ChannelType {
	return etb.ChannelSerial
}

func (t *Transport) wrap(op string, err error) error {
	if errorType(err) == etb.ErrorTypePermanent {
		err = fmt.Errorf("%w: %w", etb.ErrTransportClosed, err)
	}
	return etb.NewTransportError(op, t.portName, err, errorType(err))
}

// errorType classifies serial library errors. A port that vanished or was
// closed will not come back without reopening.
func errorType(err error) etb.ErrorType {
	if errors.Is(err, etb.ErrTransportClosed) {
		return etb.ErrorTypePermanent
	}

	var portErr *serial.PortError
	if !errors.As(err, &portErr) {
		return etb.ErrorTypeTransient
	}
	switch portErr.Code() {
	case serial.PortNotFound, serial.PortClosed, serial.InvalidSerialPort,
		serial.PermissionDenied, serial.InvalidSpeed, serial.InvalidDataBits,
		serial.InvalidParity, serial.InvalidStopBits, serial.FunctionNotImplemented:
		return etb.ErrorTypePermanent
	default:
		return etb.ErrorTypeTransient
	}
}
