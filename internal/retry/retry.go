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

// Package retry repeats whole ETB exchanges for callers that want it. The
// core package never retries on its own.
package retry

import (
	"context"
	"fmt"
	"time"

	etb "github.com/ZaparooProject/go-etb"
)

// Operation is one attempt. It is called again only when its error is
// retryable.
type Operation[T any] func(ctx context.Context) (T, error)

// Config configures retry behavior
type Config struct {
	// OnRetry runs before each repeated attempt, e.g. to flush stale input.
	// A non-nil error stops retrying.
	OnRetry func(attempt int, lastErr error) error
	// Retryable overrides etb.IsRetryable
	Retryable  func(err error) bool
	MaxRetries int
	RetryDelay time.Duration
}

// Do runs op until it succeeds, fails permanently or MaxRetries repeats have
// been spent. The last error is returned wrapped with the attempt count.
func Do[T any](ctx context.Context, config Config, op Operation[T]) (T, error) {
	var zero T

	retryable := config.Retryable
	if retryable == nil {
		retryable = etb.IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := executeRetryCallback(config, attempt, lastErr); err != nil {
				return zero, err
			}
			if err := sleep(ctx, config.RetryDelay); err != nil {
				return zero, fmt.Errorf("retry aborted: %w (last error: %w)", err, lastErr)
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err
	}

	if config.MaxRetries == 0 {
		return zero, lastErr
	}
	return zero, fmt.Errorf("giving up after %d attempts: %w", config.MaxRetries+1, lastErr)
}

// executeRetryCallback executes the retry callback if provided
func executeRetryCallback(config Config, attempt int, lastErr error) error {
	if config.OnRetry != nil {
		return config.OnRetry(attempt, lastErr)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
