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
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	etb "github.com/ZaparooProject/go-etb"
)

// boardCommands creates one subcommand per table command, named after the
// command with its three letter code as alias
func boardCommands(getApp func() *app) []*cobra.Command {
	descs := etb.Commands()
	cmds := make([]*cobra.Command, 0, len(descs))
	for i := range descs {
		cmds = append(cmds, boardCmd(getApp, descs[i]))
	}
	return cmds
}

func boardCmd(getApp func() *app, d etb.Descriptor) *cobra.Command {
	use := d.Name
	args := cobra.NoArgs
	switch d.Arg {
	case etb.ArgValue:
		use += " <value>"
		args = cobra.ExactArgs(1)
	case etb.ArgChannel:
		use += " <channel>"
		args = cobra.ExactArgs(1)
	}

	return &cobra.Command{
		Use:     use,
		Aliases: []string{strings.ToLower(d.Code)},
		Short:   d.Description + " (" + d.Code + ")",
		Args:    args,
		RunE: func(c *cobra.Command, argv []string) error {
			a := getApp()
			arg := 0
			if len(argv) == 1 {
				n, err := strconv.Atoi(argv[0])
				if err != nil {
					return fmt.Errorf("%w: %q is not a number", etb.ErrInvalidParameter, argv[0])
				}
				arg = n
			}

			board := a.cfg.BoardID()
			value, err := a.Run(c.Context(), board, d.Code, arg)
			if err != nil {
				return err
			}
			return a.render(newCommandResult(board, &d, arg, value))
		},
	}
}

func rawCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <code> [data]",
		Short: "Send an arbitrary command; data defaults to 00000000",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, argv []string) error {
			a := getApp()
			data := "00000000"
			if len(argv) == 2 {
				data = argv[1]
			}
			reply, err := a.Raw(c.Context(), a.cfg.BoardID(), strings.ToUpper(argv[0]), data)
			if err != nil {
				return err
			}
			return a.render(reply)
		},
	}
}

type commandInfo struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	TakesArg    bool   `json:"takesArg" yaml:"takesArg"`
}

func commandsCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the board command table",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := getApp()
			descs := etb.Commands()
			if a.cfg.Output != "text" {
				infos := make([]commandInfo, 0, len(descs))
				for i := range descs {
					infos = append(infos, commandInfo{
						Code:        descs[i].Code,
						Name:        descs[i].Name,
						Description: descs[i].Description,
						TakesArg:    descs[i].TakesArg(),
					})
				}
				return a.render(infos)
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			for i := range descs {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", descs[i].Code, descs[i].Name, descs[i].Description)
			}
			return w.Flush()
		},
	}
}
