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

package logging

import (
	etb "github.com/ZaparooProject/go-etb"
	"go.uber.org/zap"
)

// ExchangeObserver logs finished exchanges: successes at debug level,
// failures at warn level
type ExchangeObserver struct {
	logger *zap.Logger
}

// NewExchangeObserver returns an etb.Observer writing to logger
func NewExchangeObserver(logger *zap.Logger) *ExchangeObserver {
	return &ExchangeObserver{logger: logger.Named("exchange")}
}

// ObserveExchange implements etb.Observer
func (o *ExchangeObserver) ObserveExchange(e *etb.Exchange) {
	fields := []zap.Field{
		zap.String("board", string([]byte{e.Board})),
		zap.String("command", e.Command),
		zap.ByteString("request", e.Request),
		zap.Duration("duration", e.Duration),
	}
	if len(e.Raw) > 0 {
		fields = append(fields, zap.ByteString("response", e.Raw))
	}

	if e.OK() {
		o.logger.Debug("exchange completed", fields...)
		return
	}

	fields = append(fields,
		zap.Error(e.Err),
		zap.String("error_type", etb.GetErrorType(e.Err).String()),
		zap.Bool("retryable", etb.IsRetryable(e.Err)),
	)
	if code, ok := etb.ResponseCode(e.Err); ok {
		fields = append(fields, zap.String("code", string([]byte{code})))
	}
	o.logger.Warn("exchange failed", fields...)
}
