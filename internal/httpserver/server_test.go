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

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/ZaparooProject/go-etb/internal/config"
	etbtest "github.com/ZaparooProject/go-etb/internal/testing"
	"github.com/ZaparooProject/go-etb/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newGateway(t *testing.T, vb *etbtest.VirtualBoard) http.Handler {
	t.Helper()

	ch := etb.NewMockChannel()
	ch.SetReplyFunc(vb.Handle)
	reg := metrics.NewRegistry()
	client, err := etb.New(ch,
		etb.WithTimeout(30*time.Millisecond),
		etb.WithObserver(metrics.NewExchangeMetrics(reg)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	srv := New(config.HTTPConfig{Addr: ":0", MetricsPath: "/metrics"}, Options{
		Run: func(ctx context.Context, board byte, command string, arg int) (any, error) {
			return client.Board(board).Run(ctx, command, arg)
		},
		MetricsHandler: metrics.Handler(reg),
	})
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealthAndReady(t *testing.T) {
	t.Parallel()

	ready := false
	srv := New(config.HTTPConfig{}, Options{Ready: func() bool { return ready }})
	h := srv.Handler()

	rec, _ := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready = true
	rec, _ = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListCommands(t *testing.T) {
	t.Parallel()

	h := newGateway(t, etbtest.NewVirtualBoard('1'))
	rec, body := do(t, h, http.MethodGet, "/commands", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, float64(len(etb.Commands())), body["count"], 0)
}

func TestRunCommand_Version(t *testing.T) {
	t.Parallel()

	vb := etbtest.NewVirtualBoard('1')
	h := newGateway(t, vb)

	rec, body := do(t, h, http.MethodPost, "/boards/1/commands/VER", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, vb.Version, body["result"])
	assert.Equal(t, "VER", body["command"])
	assert.Equal(t, "version", body["name"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body["request_id"])
}

func TestRunCommand_KeepsRequestID(t *testing.T) {
	t.Parallel()

	h := newGateway(t, etbtest.NewVirtualBoard('1'))
	req := httptest.NewRequest(http.MethodPost, "/boards/1/commands/version", http.NoBody)
	req.Header.Set(RequestIDHeader, "bench-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bench-42", rec.Header().Get(RequestIDHeader))
}

func TestRunCommand_Arguments(t *testing.T) {
	t.Parallel()

	vb := etbtest.NewVirtualBoard('1')
	h := newGateway(t, vb)

	rec, _ := do(t, h, http.MethodPost, "/boards/1/commands/start-test", `{"arg": 3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, vb.Channel(3).Testing)

	rec, body := do(t, h, http.MethodPost, "/boards/1/commands/GST?arg=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1000", result["flags"])

	rec, body = do(t, h, http.MethodPost, "/boards/1/commands/temperature", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	temp, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 25, temp["celsius"], 0)
}

func TestRunCommand_BadRequests(t *testing.T) {
	t.Parallel()

	h := newGateway(t, etbtest.NewVirtualBoard('1'))

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{name: "long board id", target: "/boards/12/commands/VER", status: http.StatusBadRequest},
		{name: "unknown command", target: "/boards/1/commands/XYZ", status: http.StatusNotFound},
		{name: "missing arg", target: "/boards/1/commands/GST", status: http.StatusBadRequest},
		{name: "non numeric arg", target: "/boards/1/commands/GST?arg=one", status: http.StatusBadRequest},
		{name: "bad body", target: "/boards/1/commands/GST", body: `{"arg":`, status: http.StatusBadRequest},
		{name: "arg out of range", target: "/boards/1/commands/GST?arg=10000", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, body := do(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRunCommand_BoardFailures(t *testing.T) {
	t.Parallel()

	rejecting := etbtest.NewVirtualBoard('1')
	rejecting.RejectCode = etbtest.CodeBadValue
	rec, body := do(t, newGateway(t, rejecting), http.MethodPost, "/boards/1/commands/VER", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "rejected", body["error_type"])
	assert.Equal(t, string(etbtest.CodeBadValue), body["code"])
	assert.Equal(t, false, body["retryable"])

	silent := etbtest.NewVirtualBoard('1')
	silent.Silent = true
	rec, body = do(t, newGateway(t, silent), http.MethodPost, "/boards/1/commands/VER", "")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", body["error_type"])
	assert.Equal(t, true, body["retryable"])
}

func TestMetricsRoute(t *testing.T) {
	t.Parallel()

	h := newGateway(t, etbtest.NewVirtualBoard('1'))
	do(t, h, http.MethodPost, "/boards/1/commands/VER", "")

	rec, _ := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `etb_exchanges_total{board="1",command="VER",result="ok"} 1`)
}
