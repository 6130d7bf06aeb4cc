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

// Package cli implements the etbctl command line tool
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-etb/internal/config"
	"github.com/ZaparooProject/go-etb/internal/logging"
)

// Execute runs etbctl with the process arguments
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(nil, os.Stdout)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(open ChannelOpener, out io.Writer) *cobra.Command {
	var (
		configPath string
		a          *app
	)

	cmd := &cobra.Command{
		Use:          "etbctl",
		Short:        "Control ETB test boards over a serial line",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, c.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			a = newApp(cfg, logger, open, out)
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a == nil {
				return nil
			}
			return a.Close()
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "config file (default etb.yaml)")
	flags.StringP("port", "p", "", "serial port, e.g. /dev/ttyUSB0 or COM3")
	flags.Int("baud", 9600, "baud rate")
	flags.String("driver", "serial", "channel driver: serial or periph")
	flags.StringP("board", "b", "1", "board id")
	flags.Duration("timeout", 0, "reply timeout (default from config, 3s)")
	flags.String("checksum", "masked", "checksum rendering: masked or legacy")
	flags.Int("retries", 0, "repeat retryable exchanges this many times")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")

	getApp := func() *app { return a }

	cmd.AddCommand(boardCommands(getApp)...)
	cmd.AddCommand(
		rawCmd(getApp),
		commandsCmd(getApp),
		portsCmd(getApp),
		shellCmd(getApp),
		watchCmd(getApp),
		serveCmd(getApp),
		configCmd(getApp),
	)
	return cmd
}
