// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes of a poll.
var (
	ErrConnection = errors.New("cannot open device")
	ErrTimeout    = errors.New("timeout waiting for reply")
	ErrSend       = errors.New("failed to send query")
	ErrShortFrame = errors.New("short frame")
	ErrBadHeader  = errors.New("invalid SOF or CMD byte in reply")
	ErrClosed     = errors.New("transport is closed")
)

// TransportError is a hard I/O fault on the underlying device.
type TransportError struct {
	Op  string // "open", "send" or "receive"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a reply frame that could not be decoded.
type DecodeError struct {
	Len int // number of bytes supplied
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %d byte frame: %v", e.Len, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsDecodeError returns true if the reply arrived but was malformed or truncated.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrShortFrame) || errors.Is(err, ErrBadHeader)
}
