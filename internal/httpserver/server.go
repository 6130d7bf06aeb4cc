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

// Package httpserver exposes board commands over HTTP with gin
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/internal/config"
	"github.com/ZaparooProject/go-etb/metrics"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RunFunc runs one board command and returns its parsed result
type RunFunc func(ctx context.Context, board byte, command string, arg int) (any, error)

// Options wires the gateway to the rest of the program
type Options struct {
	Run            RunFunc
	Ready          func() bool
	MetricsHandler http.Handler
	Logger         *zap.Logger
}

// Server wraps the gin engine and its http.Server
type Server struct {
	srv    *http.Server
	engine *gin.Engine
}

type commandRequest struct {
	Arg *int `json:"arg"`
}

// New creates the gateway. Routes:
//
//	GET  /healthz
//	GET  /readyz
//	GET  <metrics path>
//	GET  /commands
//	POST /boards/:board/commands/:command   body {"arg": n} or ?arg=n
func New(cfg config.HTTPConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if opts.Ready == nil || opts.Ready() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if opts.MetricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(opts.MetricsHandler))
	}

	r.GET("/commands", listCommands)
	if opts.Run != nil {
		r.POST("/boards/:board/commands/:command", runCommand(opts.Run))
	}

	return &Server{
		engine: r,
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

// Handler returns the router, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown (blocking)
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func listCommands(c *gin.Context) {
	cmds := etb.Commands()
	out := make([]gin.H, 0, len(cmds))
	for i := range cmds {
		out = append(out, gin.H{
			"code":        cmds[i].Code,
			"name":        cmds[i].Name,
			"description": cmds[i].Description,
			"takes_arg":   cmds[i].TakesArg(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "commands": out})
}

func runCommand(run RunFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("request_id")

		board := c.Param("board")
		if len(board) != 1 {
			c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": "board must be one character"})
			return
		}

		d, ok := etb.LookupCommand(c.Param("command"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"request_id": requestID, "error": "unknown command"})
			return
		}

		arg, err := argument(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": err.Error()})
			return
		}
		if d.TakesArg() && arg == nil {
			c.JSON(http.StatusBadRequest, gin.H{"request_id": requestID, "error": d.Name + " requires arg"})
			return
		}
		value := 0
		if arg != nil {
			value = *arg
		}

		result, err := run(c.Request.Context(), board[0], d.Code, value)
		if err != nil {
			body := gin.H{
				"request_id": requestID,
				"board":      board,
				"command":    d.Code,
				"error":      err.Error(),
				"error_type": metrics.Result(err),
				"retryable":  etb.IsRetryable(err),
			}
			if code, ok := etb.ResponseCode(err); ok {
				body["code"] = string(code)
			}
			c.JSON(statusFor(err), body)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"request_id": requestID,
			"board":      board,
			"command":    d.Code,
			"name":       d.Name,
			"result":     render(result),
		})
	}
}

// argument reads arg from the JSON body or the query string
func argument(c *gin.Context) (*int, error) {
	if q := c.Query("arg"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return nil, errors.New("arg must be an integer")
		}
		return &n, nil
	}
	if c.Request.ContentLength == 0 {
		return nil, nil
	}
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, errors.New("invalid request body")
	}
	return req.Arg, nil
}

// render turns command results into JSON friendly values
func render(v any) any {
	switch r := v.(type) {
	case etb.ChannelStatus:
		return gin.H{
			"flags": r.String(),
			"bits":  []bool{r.Bit(3), r.Bit(2), r.Bit(1), r.Bit(0)},
		}
	default:
		return r
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, etb.ErrInvalidParameter), errors.Is(err, etb.ErrInvalidLength),
		errors.Is(err, etb.ErrInvalidCharacter), errors.Is(err, etb.ErrUnknownCommand):
		return http.StatusBadRequest
	case etb.IsTimeout(err), errors.Is(err, etb.ErrPeerTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return 499
	default:
		return http.StatusBadGateway
	}
}
