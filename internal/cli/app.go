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

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/internal/config"
	"github.com/ZaparooProject/go-etb/internal/logging"
	"github.com/ZaparooProject/go-etb/internal/retry"
	"github.com/ZaparooProject/go-etb/metrics"
	"github.com/ZaparooProject/go-etb/transport/periph"
	"github.com/ZaparooProject/go-etb/transport/uart"
)

// errNoPort is returned when a command needs the board but no port is configured
var errNoPort = errors.New("no serial port configured; use --port or serial.port")

// ChannelOpener opens the byte channel described by cfg
type ChannelOpener func(cfg *config.Config) (etb.Channel, error)

// flusher is implemented by channels that can drop stale input
type flusher interface {
	Flush() error
}

// app holds what a command run shares: configuration, logger, metrics and
// the lazily opened client
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.ExchangeMetrics
	open     ChannelOpener
	out      io.Writer
	client   *etb.Client
	channel  etb.Channel
	session  string
	mu       sync.Mutex
}

func newApp(cfg *config.Config, logger *zap.Logger, open ChannelOpener, out io.Writer) *app {
	if open == nil {
		open = openChannel
	}
	session := uuid.NewString()
	registry := metrics.NewRegistry()
	return &app{
		cfg:      cfg,
		logger:   logger.With(zap.String("session", session)),
		registry: registry,
		metrics:  metrics.NewExchangeMetrics(registry),
		open:     open,
		out:      out,
		session:  session,
	}
}

// openChannel opens the configured driver
func openChannel(cfg *config.Config) (etb.Channel, error) {
	if cfg.Serial.Port == "" {
		return nil, errNoPort
	}
	switch cfg.Serial.Driver {
	case "periph":
		return periph.New(cfg.Serial.Port,
			periph.WithBaudRate(cfg.Serial.Baud),
			periph.WithReadTimeout(cfg.Serial.ReadTimeout))
	default:
		return uart.New(cfg.Serial.Port,
			uart.WithBaudRate(cfg.Serial.Baud),
			uart.WithReadTimeout(cfg.Serial.ReadTimeout))
	}
}

// Client opens the channel on first use
func (a *app) Client() (*etb.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	ch, err := a.open(a.cfg)
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.ClientOptions()
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	opts = append(opts, etb.WithObserver(logging.NewExchangeObserver(a.logger), a.metrics))

	client, err := etb.New(ch, opts...)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	a.logger.Debug("channel opened",
		zap.String("port", a.cfg.Serial.Port),
		zap.String("driver", a.cfg.Serial.Driver))
	a.client = client
	a.channel = ch
	return client, nil
}

// Ready reports whether the channel is open
func (a *app) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client != nil
}

// retryConfig repeats retryable exchanges, dropping stale input first
func (a *app) retryConfig() retry.Config {
	return retry.Config{
		MaxRetries: a.cfg.Protocol.Retries,
		RetryDelay: a.cfg.Protocol.RetryDelay,
		OnRetry: func(attempt int, lastErr error) error {
			a.logger.Info("retrying exchange", zap.Int("attempt", attempt), zap.Error(lastErr))
			if f, ok := a.channel.(flusher); ok {
				return f.Flush()
			}
			return nil
		},
	}
}

// Run executes a table command with the configured retries
func (a *app) Run(ctx context.Context, board byte, command string, arg int) (any, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}
	return retry.Do(ctx, a.retryConfig(), func(ctx context.Context) (any, error) {
		return client.Board(board).Run(ctx, command, arg)
	})
}

// Raw sends an arbitrary command and data field
func (a *app) Raw(ctx context.Context, board byte, command, data string) (string, error) {
	client, err := a.Client()
	if err != nil {
		return "", err
	}
	req := etb.Request{Board: board, Command: command, Data: data}
	return retry.Do(ctx, a.retryConfig(), func(ctx context.Context) (string, error) {
		return client.ExecuteContext(ctx, req)
	})
}

// Close closes the client if it was opened
func (a *app) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.logger.Sync()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	a.channel = nil
	return err
}

// commandResult is the rendered form of a command run
type commandResult struct {
	Result  any    `json:"result" yaml:"result"`
	Arg     *int   `json:"arg,omitempty" yaml:"arg,omitempty"`
	Board   string `json:"board" yaml:"board"`
	Command string `json:"command" yaml:"command"`
	Name    string `json:"name" yaml:"name"`
}

func newCommandResult(board byte, d *etb.Descriptor, arg int, value any) commandResult {
	r := commandResult{
		Board:   string([]byte{board}),
		Command: d.Code,
		Name:    d.Name,
		Result:  plain(value),
	}
	if d.TakesArg() {
		r.Arg = &arg
	}
	return r
}

// plain converts results to values that encode well
func plain(v any) any {
	if s, ok := v.(etb.ChannelStatus); ok {
		return s.String()
	}
	return v
}

// render writes v in the configured output format
func (a *app) render(v any) error {
	switch a.cfg.Output {
	case "json":
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(a.out, text(v))
		return err
	}
}

func text(v any) string {
	switch r := v.(type) {
	case commandResult:
		return text(r.Result)
	case nil:
		return "OK"
	case etb.Temperature:
		return fmt.Sprintf("%d C (status %d)", r.Celsius, r.Status)
	default:
		return fmt.Sprint(r)
	}
}
