// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
)

// Transport is a half-duplex request/response link to the controller.
// Implementations must bound every call by a timeout.
type Transport interface {
	// Send writes b completely or fails.
	Send(b []byte) error

	// Receive blocks until n bytes arrived or the timeout elapsed and
	// returns what was read, which may be fewer than n bytes.
	// It fails with ErrTimeout if nothing arrived at all.
	Receive(n int) ([]byte, error)

	Close() error
}

// SerialConfig holds configuration for opening a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// serialPort is the subset of serial.Port the transport uses.
type serialPort interface {
	timedReader
	Write(p []byte) (int, error)
	ResetInputBuffer() error
	Close() error
}

// SerialTransport implements Transport using a hardware serial port.
// Close may be called while a Receive is in progress.
type SerialTransport struct {
	port     serialPort
	portName string
	timeout  time.Duration
	closed   atomic.Bool
}

// OpenSerial opens a serial port with the given configuration.
// Zero BaudRate and Timeout fall back to the FanBoy defaults.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: serial port path is required", ErrConnection)
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrConnection, cfg.Port, err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("%w %s: failed to set read timeout: %w", ErrConnection, cfg.Port, err)
	}

	return &SerialTransport{
		port:     port,
		portName: cfg.Port,
		timeout:  cfg.Timeout,
	}, nil
}

// Send discards unread input left over from an earlier exchange and writes b.
func (t *SerialTransport) Send(b []byte) error {
	if t.closed.Load() {
		return &TransportError{Op: "send", Err: ErrClosed}
	}
	if err := t.port.ResetInputBuffer(); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	n, err := t.port.Write(b)
	if err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	if n != len(b) {
		return &TransportError{Op: "send", Err: fmt.Errorf("short write: %d of %d bytes", n, len(b))}
	}
	return nil
}

// Receive reads up to n bytes within the transport timeout.
func (t *SerialTransport) Receive(n int) ([]byte, error) {
	if t.closed.Load() {
		return nil, &TransportError{Op: "receive", Err: ErrClosed}
	}
	return readWithDeadline(t.port, n, t.timeout)
}

// Close closes the serial port.
func (t *SerialTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	return t.port.Close()
}

// PortName returns the serial port name.
func (t *SerialTransport) PortName() string {
	return t.portName
}

// timedReader is a reader whose Read returns (0, nil) once its read timeout
// elapses, as go.bug.st/serial ports do.
type timedReader interface {
	Read(p []byte) (int, error)
	SetReadTimeout(timeout time.Duration) error
}

// readWithDeadline collects up to n bytes from r, shrinking the read timeout
// so the whole call never exceeds timeout.
func readWithDeadline(r timedReader, n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	deadline := time.Now().Add(timeout)

	for got < n {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := r.SetReadTimeout(remaining); err != nil {
			return nil, &TransportError{Op: "receive", Err: err}
		}
		m, err := r.Read(buf[got:])
		got += m
		if err != nil {
			var portErr *serial.PortError
			if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
				return nil, &TransportError{Op: "receive", Err: ErrClosed}
			}
			return nil, &TransportError{Op: "receive", Err: err}
		}
		if m == 0 {
			// read timeout elapsed
			break
		}
	}

	if got == 0 {
		return nil, ErrTimeout
	}
	return buf[:got], nil
}
