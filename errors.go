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

package etb

import (
	"errors"
	"fmt"
	"os"
)

// Encoding errors are local: the frame is never transmitted.
var (
	ErrInvalidLength    = errors.New("invalid field length")
	ErrInvalidCharacter = errors.New("invalid character in field")
)

// Transport errors
var (
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportClosed  = errors.New("transport closed")
)

// Decode errors
var (
	ErrLengthMismatch   = errors.New("response length mismatch")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrFrameTooLong     = errors.New("frame exceeds maximum length")
)

// Validation errors: the board processed the frame but the reply is unexpected.
var (
	ErrBoardMismatch   = errors.New("board id mismatch")
	ErrDeviceRejected  = errors.New("device rejected command")
	ErrCommandMismatch = errors.New("command echo mismatch")
	ErrEchoMismatch    = errors.New("echo data mismatch")
	// ErrPeerTimeout is reported when the board answers with the TMO echo.
	ErrPeerTimeout = errors.New("board reported timeout")
)

// Command layer errors
var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidResponseData = errors.New("invalid response data")
	ErrUnknownCommand      = errors.New("unknown command")
)

// ErrorType classifies errors for callers deciding whether to repeat an exchange
type ErrorType int

const (
	// ErrorTypePermanent errors will fail again with the same arguments
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may clear on a fresh exchange
	ErrorTypeTransient
	// ErrorTypeTimeout means the board did not answer in time
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TransportError wraps channel read and write failures with context.
// A TransportError of type ErrorTypeTimeout is the protocol's timeout error.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements error
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a timeout error. A timeout does not imply the
// channel is corrupted, so the same channel may be reused.
func NewTimeoutError(op, port string) *TransportError {
	return &TransportError{
		Err:       ErrTransportTimeout,
		Op:        op,
		Port:      port,
		Type:      ErrorTypeTimeout,
		Retryable: true,
	}
}

// EncodingError reports an argument that cannot be placed in a frame
type EncodingError struct {
	Err   error
	Field string
	Index int
}

// Error implements error
func (e *EncodingError) Error() string {
	if errors.Is(e.Err, ErrInvalidCharacter) {
		return fmt.Sprintf("encode %s: %v at index %d", e.Field, e.Err, e.Index)
	}
	return fmt.Sprintf("encode %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodeError reports a malformed or noisy reply
type DecodeError struct {
	Err error
	Raw []byte
}

// Error implements error
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Raw, e.Err)
}

// Unwrap returns the underlying error
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError reports a well-formed reply that does not match the request
type ValidationError struct {
	Err      error
	Command  string
	Expected string
	Got      string
	Code     byte
}

// Error implements error
func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Err, ErrDeviceRejected):
		return fmt.Sprintf("%s: %v (code %q)", e.Command, e.Err, e.Code)
	case e.Expected != "" || e.Got != "":
		return fmt.Sprintf("%s: %v: expected %q, got %q", e.Command, e.Err, e.Expected, e.Got)
	default:
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
}

// Unwrap returns the underlying error
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ParseError reports a data field the command layer could not interpret
type ParseError struct {
	Err     error
	Command string
	Data    string
}

// Error implements error
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q: %v", e.Command, e.Data, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a read timeout, either from this package
// or from a channel implementation using os deadlines.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransportTimeout) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// IsRetryable reports whether repeating the whole exchange may succeed
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrFrameTooLong),
		errors.Is(err, ErrPeerTimeout):
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout), errors.Is(err, ErrPeerTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrChecksumMismatch),
		errors.Is(err, ErrFrameTooLong):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}

// ResponseCode returns the response code carried by a device rejection
func ResponseCode(err error) (byte, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) && errors.Is(ve.Err, ErrDeviceRejected) {
		return ve.Code, true
	}
	return 0, false
}
