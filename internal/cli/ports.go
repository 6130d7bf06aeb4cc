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
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-etb/detection"
	// registers the serial port detector
	_ "github.com/ZaparooProject/go-etb/detection/uart"
)

func portsCmd(getApp func() *app) *cobra.Command {
	var (
		probe   bool
		ignore  []string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ports",
		Short: "List serial ports that may have boards attached",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a := getApp()
			opts := detection.DefaultOptions()
			opts.IgnorePaths = ignore
			opts.Timeout = timeout
			opts.Board = a.cfg.BoardID()
			if probe {
				opts.Mode = detection.Probe
			}

			devices, err := detection.DetectAll(c.Context(), opts)
			if errors.Is(err, detection.ErrNoDevicesFound) {
				_, _ = fmt.Fprintln(c.ErrOrStderr(), "no serial ports found")
				return nil
			}
			if err != nil {
				return err
			}

			if a.cfg.Output != "text" {
				return a.render(devices)
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for _, d := range devices {
				extra := d.Metadata["vidpid"]
				if v := d.Metadata["version"]; v != "" {
					extra += " version=" + v
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Path, d.Name, d.Confidence, extra)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "send a version request to each candidate")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "device paths to skip")
	cmd.Flags().DurationVar(&timeout, "detect-timeout", 10*time.Second, "bound for the whole scan")
	return cmd
}
