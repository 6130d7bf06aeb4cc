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
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZaparooProject/go-etb/internal/httpserver"
	"github.com/ZaparooProject/go-etb/metrics"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(getApp func() *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve board commands and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a := getApp()
			if _, err := a.Client(); err != nil {
				return err
			}

			httpCfg := a.cfg.HTTP
			if addr != "" {
				httpCfg.Addr = addr
			}
			srv := httpserver.New(httpCfg, httpserver.Options{
				Run:            a.Run,
				Ready:          func() bool { return a.Ready() },
				MetricsHandler: metrics.Handler(a.registry),
				Logger:         a.logger.Named("http"),
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()
			a.logger.Info("gateway listening", zap.String("addr", httpCfg.Addr))

			select {
			case err := <-errCh:
				return err
			case <-c.Context().Done():
			}

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.logger.Info("gateway shutting down")
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default http.addr)")
	return cmd
}
