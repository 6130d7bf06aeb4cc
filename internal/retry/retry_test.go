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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	etb "github.com/ZaparooProject/go-etb"
)

func TestDo_SucceedsFirstTime(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := Do(context.Background(), Config{MaxRetries: 3}, func(context.Context) (string, error) {
		calls++
		return "01ABCD12", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "01ABCD12", got)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTimeouts(t *testing.T) {
	t.Parallel()

	calls := 0
	var retried []int
	cfg := Config{
		MaxRetries: 3,
		OnRetry: func(attempt int, lastErr error) error {
			retried = append(retried, attempt)
			assert.True(t, etb.IsTimeout(lastErr))
			return nil
		},
	}

	got, err := Do(context.Background(), cfg, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, etb.NewTimeoutError("read", "mock")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	rejected := &etb.ValidationError{Err: etb.ErrDeviceRejected, Command: "SCR", Code: '1'}
	_, err := Do(context.Background(), Config{MaxRetries: 5}, func(context.Context) (int, error) {
		calls++
		return 0, rejected
	})
	require.ErrorIs(t, err, etb.ErrDeviceRejected)
	assert.Equal(t, 1, calls)
}

func TestDo_Exhausted(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 2}, func(context.Context) (int, error) {
		calls++
		return 0, &etb.DecodeError{Err: etb.ErrChecksumMismatch}
	})
	require.ErrorIs(t, err, etb.ErrChecksumMismatch)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Equal(t, 3, calls)
}

func TestDo_NoRetries(t *testing.T) {
	t.Parallel()

	timeout := etb.NewTimeoutError("read", "mock")
	_, err := Do(context.Background(), Config{}, func(context.Context) (int, error) {
		return 0, timeout
	})
	assert.Equal(t, timeout, err)
}

func TestDo_CallbackErrorStops(t *testing.T) {
	t.Parallel()

	flushErr := errors.New("flush failed")
	calls := 0
	_, err := Do(context.Background(), Config{
		MaxRetries: 3,
		OnRetry:    func(int, error) error { return flushErr },
	}, func(context.Context) (int, error) {
		calls++
		return 0, etb.ErrTransportTimeout
	})
	require.ErrorIs(t, err, flushErr)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCanceledDuringDelay(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Do(ctx, Config{MaxRetries: 3, RetryDelay: time.Second}, func(context.Context) (int, error) {
		return 0, etb.ErrTransportTimeout
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.ErrorIs(t, err, etb.ErrTransportTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDo_CustomClassifier(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Do(context.Background(), Config{
		MaxRetries: 2,
		Retryable:  func(err error) bool { return errors.Is(err, etb.ErrDeviceRejected) },
	}, func(context.Context) (int, error) {
		calls++
		return 0, etb.ErrDeviceRejected
	})
	require.ErrorIs(t, err, etb.ErrDeviceRejected)
	assert.Equal(t, 3, calls)
}
