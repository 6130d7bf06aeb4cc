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
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientConfig contains configuration options for the Client
type ClientConfig struct {
	// Timeout bounds the reply to one request
	Timeout time.Duration
	// MinInterval is the minimum spacing between the start of two exchanges.
	// Zero disables pacing.
	MinInterval time.Duration
	// MaxFrameLength caps the bytes buffered while waiting for the delimiter.
	// Zero means the timeout is the only bound.
	MaxFrameLength int
	// Checksum selects the checksum rendering
	Checksum ChecksumMode
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:  DefaultTimeout,
		Checksum: ChecksumMasked,
	}
}

// Client runs command exchanges with the test boards sharing one channel.
//
// Thread Safety: the protocol carries no request identifiers, so only one
// exchange may be in flight per channel. Client serializes Execute calls with
// an internal mutex; do not use the same channel from outside the Client.
type Client struct {
	channel  Channel
	observer Observer
	config   *ClientConfig
	limiter  *rate.Limiter
	now      func() time.Time
	mu       sync.Mutex
}

// New creates a client for the given channel
func New(channel Channel, opts ...Option) (*Client, error) {
	if channel == nil {
		return nil, fmt.Errorf("%w: nil channel", ErrInvalidParameter)
	}

	client := &Client{
		channel: channel,
		config:  DefaultClientConfig(),
		now:     time.Now,
	}

	for _, opt := range opts {
		if err := opt(client); err != nil {
			return nil, err
		}
	}

	if client.config.MinInterval > 0 {
		client.limiter = rate.NewLimiter(rate.Every(client.config.MinInterval), 1)
	}

	return client, nil
}

// Channel returns the underlying channel
func (c *Client) Channel() Channel {
	return c.channel
}

// Config returns a copy of the client configuration
func (c *Client) Config() ClientConfig {
	return *c.config
}

// Codec returns the codec matching the client's checksum mode
func (c *Client) Codec() Codec {
	return Codec{Checksum: c.config.Checksum}
}

// Execute performs one exchange and returns the raw reply data field
func (c *Client) Execute(req Request) (string, error) {
	return c.ExecuteContext(context.Background(), req)
}

// ExecuteContext performs one exchange: encode, send, receive, decode and
// validate, stopping at the first failure. ctx is consulted only before the
// request is written; once on the wire the exchange ends by reply or timeout.
func (c *Client) ExecuteContext(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("exchange not started: %w", err)
	}

	f, err := c.Codec().Encode(req.Board, req.Command, req.Data)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("exchange not started: %w", err)
		}
	}

	ex := &Exchange{
		Board:   req.Board,
		Command: req.Command,
		Request: f.Bytes(),
		Started: c.now(),
	}

	resp, raw, err := c.exchange(f)
	if err == nil {
		err = validateResponse(&req, resp)
	}

	ex.Raw = raw
	ex.Response = resp
	ex.Err = err
	ex.Duration = c.now().Sub(ex.Started)
	if c.observer != nil {
		c.observer.ObserveExchange(ex)
	}

	if err != nil {
		return "", err
	}
	return resp.Data, nil
}

// exchange sends f and decodes the reply. Receive buffers are local so no
// state survives between exchanges.
func (c *Client) exchange(f OutboundFrame) (*Response, []byte, error) {
	if err := Send(c.channel, f); err != nil {
		return nil, nil, err
	}

	r := Receiver{
		Now:       c.now,
		Timeout:   c.config.Timeout,
		MaxLength: c.config.MaxFrameLength,
	}
	raw, err := r.receive(c.channel)
	if err != nil {
		return nil, raw, err
	}

	resp, err := c.Codec().Decode(raw)
	if err != nil {
		return nil, raw, err
	}
	return resp, raw, nil
}

// Close closes the underlying channel
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	return nil
}
