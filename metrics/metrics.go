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

// Package metrics exports ETB exchange metrics to Prometheus
package metrics

import (
	"errors"
	"net/http"

	etb "github.com/ZaparooProject/go-etb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ExchangeMetrics counts exchanges by command and result and observes their
// duration. It implements etb.Observer.
type ExchangeMetrics struct {
	Exchanges *prometheus.CounterVec   // labels: board, command, result
	Duration  *prometheus.HistogramVec // labels: command
	Rejected  *prometheus.CounterVec   // labels: command, code
}

// NewExchangeMetrics registers and returns the exchange metrics
func NewExchangeMetrics(reg prometheus.Registerer) *ExchangeMetrics {
	m := &ExchangeMetrics{
		Exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etb_exchanges_total",
			Help: "Board exchanges by command and result.",
		}, []string{"board", "command", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "etb_exchange_duration_seconds",
			Help:    "Time from request write to decoded reply.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"command"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etb_rejected_total",
			Help: "Frames the board rejected, by response code.",
		}, []string{"command", "code"}),
	}
	reg.MustRegister(m.Exchanges, m.Duration, m.Rejected)
	return m
}

// ObserveExchange implements etb.Observer
func (m *ExchangeMetrics) ObserveExchange(e *etb.Exchange) {
	board := string([]byte{e.Board})
	m.Exchanges.WithLabelValues(board, e.Command, Result(e.Err)).Inc()
	m.Duration.WithLabelValues(e.Command).Observe(e.Duration.Seconds())
	if code, ok := etb.ResponseCode(e.Err); ok {
		m.Rejected.WithLabelValues(e.Command, string([]byte{code})).Inc()
	}
}

// Result maps an exchange error to a short label value
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case etb.IsTimeout(err):
		return "timeout"
	case errors.Is(err, etb.ErrPeerTimeout):
		return "peer_timeout"
	case errors.Is(err, etb.ErrChecksumMismatch),
		errors.Is(err, etb.ErrLengthMismatch),
		errors.Is(err, etb.ErrFrameTooLong):
		return "decode_error"
	case errors.Is(err, etb.ErrDeviceRejected):
		return "rejected"
	case errors.Is(err, etb.ErrBoardMismatch),
		errors.Is(err, etb.ErrCommandMismatch),
		errors.Is(err, etb.ErrEchoMismatch):
		return "mismatch"
	case errors.Is(err, etb.ErrInvalidLength), errors.Is(err, etb.ErrInvalidCharacter):
		return "encode_error"
	default:
		return "transport_error"
	}
}
