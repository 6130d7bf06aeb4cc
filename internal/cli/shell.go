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
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/spf13/cobra"

	etb "github.com/ZaparooProject/go-etb"
)

// shellSession is the state behind the interactive shell
type shellSession struct {
	app   *app
	board byte
}

func (s *shellSession) prompt() string {
	return fmt.Sprintf("etb[%c]> ", s.board)
}

// exec runs one shell line. The first word is a table command name or
// code, "board" or "raw".
func (s *shellSession) exec(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}

	switch strings.ToLower(args[0]) {
	case "board":
		if len(args) != 2 || len(args[1]) != 1 {
			return "", fmt.Errorf("%w: usage: board <id>", etb.ErrInvalidParameter)
		}
		s.board = args[1][0]
		return "board " + args[1], nil
	case "raw":
		if len(args) < 2 || len(args) > 3 {
			return "", fmt.Errorf("%w: usage: raw <code> [data]", etb.ErrInvalidParameter)
		}
		data := "00000000"
		if len(args) == 3 {
			data = args[2]
		}
		return s.app.Raw(ctx, s.board, strings.ToUpper(args[1]), data)
	}

	d, ok := etb.LookupCommand(args[0])
	if !ok {
		return "", fmt.Errorf("%w: %q", etb.ErrUnknownCommand, args[0])
	}
	arg := 0
	switch {
	case d.TakesArg() && len(args) != 2:
		return "", fmt.Errorf("%w: usage: %s <%s>", etb.ErrInvalidParameter, d.Name, argName(&d))
	case !d.TakesArg() && len(args) != 1:
		return "", fmt.Errorf("%w: %s takes no argument", etb.ErrInvalidParameter, d.Name)
	case d.TakesArg():
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a number", etb.ErrInvalidParameter, args[1])
		}
		arg = n
	}

	value, err := s.app.Run(ctx, s.board, d.Code, arg)
	if err != nil {
		return "", err
	}
	return text(plain(value)), nil
}

func argName(d *etb.Descriptor) string {
	if d.Arg == etb.ArgChannel {
		return "channel"
	}
	return "value"
}

func shellCmd(getApp func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell for one or more boards",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a := getApp()
			if _, err := a.Client(); err != nil {
				return err
			}
			s := &shellSession{app: a, board: a.cfg.BoardID()}
			sh := newShell(c.Context(), s)
			sh.Run()
			sh.Close()
			return nil
		},
	}
}

func newShell(ctx context.Context, s *shellSession) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt(s.prompt())

	run := func(name string) func(c *ishell.Context) {
		return func(c *ishell.Context) {
			out, err := s.exec(ctx, append([]string{name}, c.Args...))
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
			c.SetPrompt(s.prompt())
		}
	}

	sh.AddCmd(&ishell.Cmd{Name: "board", Help: "select the board id", Func: run("board")})
	sh.AddCmd(&ishell.Cmd{Name: "raw", Help: "send <code> [data] verbatim", Func: run("raw")})
	for _, d := range etb.Commands() {
		sh.AddCmd(&ishell.Cmd{
			Name:    d.Name,
			Aliases: []string{strings.ToLower(d.Code)},
			Help:    d.Description,
			Func:    run(d.Name),
		})
	}
	return sh
}
