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
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	etb "github.com/ZaparooProject/go-etb"
)

// Board is the part of *etb.Board a Monitor polls
type Board interface {
	ID() byte
	Status(ctx context.Context, channel int) (etb.ChannelStatus, error)
	Temperature(ctx context.Context) (etb.Temperature, error)
}

// StatusChange describes a channel whose status flags changed. First is set
// for the first reading of a channel.
type StatusChange struct {
	Channel int
	Old     etb.ChannelStatus
	New     etb.ChannelStatus
	First   bool
}

// Metrics tracks operational counters of a Monitor
type Metrics struct {
	PollCycles      int64         // Total number of polling cycles
	PollErrors      int64         // Number of failed cycles
	StatusChanges   int64         // Number of reported status changes
	LastPollLatency time.Duration // Duration of the last cycle
}

// Monitor polls one board and reports changes. Callbacks run on the polling
// goroutine.
type Monitor struct {
	board           Board
	config          *Config
	OnStatusChanged func(change StatusChange)
	OnTemperature   func(t etb.Temperature)
	OnOnline        func()
	OnOffline       func(err error)
	state           BoardState
	stateMu         sync.RWMutex
	running         atomic.Bool
	pollCycles      atomic.Int64
	pollErrors      atomic.Int64
	statusChanges   atomic.Int64
	lastPollLatency atomic.Int64
}

// NewMonitor creates a monitor for board. A nil config uses DefaultConfig.
func NewMonitor(board Board, config *Config) (*Monitor, error) {
	if board == nil {
		return nil, errors.New("board cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}
	return &Monitor{
		board:  board,
		config: config,
		state:  newBoardState(),
	}, nil
}

// Start polls until ctx is done. It returns ctx.Err().
func (m *Monitor) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("monitor is already running")
	}
	defer m.running.Store(false)

	for {
		_ = m.Poll(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.PollInterval):
		}
	}
}

// IsRunning returns whether Start is active
func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

// Poll runs one polling cycle: every configured channel, then the
// temperature. The first failure ends the cycle.
func (m *Monitor) Poll(ctx context.Context) error {
	start := time.Now()
	err := m.poll(ctx)
	m.pollCycles.Add(1)
	m.lastPollLatency.Store(int64(time.Since(start)))

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		m.pollErrors.Add(1)
		m.handleFailure(err)
		return err
	}

	m.stateMu.Lock()
	cameOnline := m.state.TransitionToOnline(time.Now())
	m.stateMu.Unlock()
	if cameOnline && m.OnOnline != nil {
		m.OnOnline()
	}
	return nil
}

func (m *Monitor) poll(ctx context.Context) error {
	for _, ch := range m.config.Channels {
		status, err := m.board.Status(ctx, ch)
		if err != nil {
			return fmt.Errorf("channel %d status: %w", ch, err)
		}
		m.recordStatus(ch, status)
	}

	if !m.config.Temperature {
		return nil
	}
	t, err := m.board.Temperature(ctx)
	if err != nil {
		return fmt.Errorf("temperature: %w", err)
	}

	m.stateMu.Lock()
	changed := m.state.UpdateTemperature(t)
	m.stateMu.Unlock()
	if changed && m.OnTemperature != nil {
		m.OnTemperature(t)
	}
	return nil
}

func (m *Monitor) recordStatus(channel int, status etb.ChannelStatus) {
	m.stateMu.Lock()
	old, known := m.state.UpdateStatus(channel, status)
	m.stateMu.Unlock()

	if known && old == status {
		return
	}
	m.statusChanges.Add(1)
	if m.OnStatusChanged != nil {
		m.OnStatusChanged(StatusChange{Channel: channel, Old: old, New: status, First: !known})
	}
}

func (m *Monitor) handleFailure(err error) {
	m.stateMu.Lock()
	wentOffline := m.state.TransitionOnFailure(err, m.config.OfflineThreshold)
	m.stateMu.Unlock()
	if wentOffline && m.OnOffline != nil {
		m.OnOffline(err)
	}
}

// GetState returns a copy of the current board state
func (m *Monitor) GetState() BoardState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.clone()
}

// GetMetrics returns current operational metrics
func (m *Monitor) GetMetrics() Metrics {
	return Metrics{
		PollCycles:      m.pollCycles.Load(),
		PollErrors:      m.pollErrors.Load(),
		StatusChanges:   m.statusChanges.Load(),
		LastPollLatency: time.Duration(m.lastPollLatency.Load()),
	}
}

// BoardID returns the id of the polled board
func (m *Monitor) BoardID() byte {
	return m.board.ID()
}
