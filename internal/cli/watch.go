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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/polling"
)

func watchCmd(getApp func() *app) *cobra.Command {
	var (
		boards   string
		channels []int
		interval time.Duration
		cycles   int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll channel status and temperature and print changes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a := getApp()
			client, err := a.Client()
			if err != nil {
				return err
			}

			cfg := &polling.Config{
				Channels:         a.cfg.Watch.Channels,
				PollInterval:     a.cfg.Watch.Interval,
				OfflineThreshold: a.cfg.Watch.OfflineThreshold,
				Temperature:      a.cfg.Watch.Temperature,
			}
			if c.Flags().Changed("channels") {
				cfg.Channels = channels
			}
			if c.Flags().Changed("interval") {
				cfg.PollInterval = interval
			}
			if boards == "" {
				boards = string([]byte{a.cfg.BoardID()})
			}

			w := &watcher{app: a}
			monitors := make([]*polling.Monitor, 0, len(boards))
			for i := 0; i < len(boards); i++ {
				m, err := w.monitor(client.Board(boards[i]), cfg)
				if err != nil {
					return err
				}
				monitors = append(monitors, m)
			}

			if cycles > 0 {
				return pollCycles(c.Context(), monitors, cycles, cfg.PollInterval)
			}
			return startAll(c.Context(), monitors)
		},
	}

	cmd.Flags().StringVar(&boards, "boards", "", "board ids to watch, e.g. 123 (default --board)")
	cmd.Flags().IntSliceVar(&channels, "channels", nil, "channels to poll (default watch.channels)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between polling cycles (default watch.interval)")
	cmd.Flags().IntVar(&cycles, "cycles", 0, "stop after this many cycles; 0 polls until interrupted")
	return cmd
}

// watcher prints monitor events. Monitors of different boards report from
// their own goroutines.
type watcher struct {
	app *app
	mu  sync.Mutex
}

func (w *watcher) print(board byte, format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.app.out, "board %c: "+format+"\n", append([]any{board}, args...)...)
}

func (w *watcher) monitor(board *etb.Board, cfg *polling.Config) (*polling.Monitor, error) {
	m, err := polling.NewMonitor(board, cfg)
	if err != nil {
		return nil, err
	}
	id := board.ID()
	logger := w.app.logger.With(zap.String("board", string([]byte{id})))

	m.OnStatusChanged = func(ch polling.StatusChange) {
		if ch.First {
			w.print(id, "channel %d status %s", ch.Channel, ch.New)
			return
		}
		w.print(id, "channel %d status %s -> %s", ch.Channel, ch.Old, ch.New)
	}
	m.OnTemperature = func(t etb.Temperature) {
		w.print(id, "temperature %s", text(t))
	}
	m.OnOnline = func() {
		logger.Info("board online")
		w.print(id, "online")
	}
	m.OnOffline = func(err error) {
		logger.Warn("board offline", zap.Error(err))
		w.print(id, "offline: %v", err)
	}
	return m, nil
}

func pollCycles(ctx context.Context, monitors []*polling.Monitor, cycles int, interval time.Duration) error {
	for i := 0; i < cycles; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(interval):
			}
		}
		for _, m := range monitors {
			if err := m.Poll(ctx); errors.Is(err, context.Canceled) {
				return nil
			}
		}
	}
	return nil
}

func startAll(ctx context.Context, monitors []*polling.Monitor) error {
	var wg sync.WaitGroup
	for _, m := range monitors {
		wg.Add(1)
		go func(m *polling.Monitor) {
			defer wg.Done()
			_ = m.Start(ctx)
		}(m)
	}
	wg.Wait()
	return nil
}
