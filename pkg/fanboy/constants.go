// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package fanboy implements the host side of the FanBoy serial protocol.
//
// FanBoy is a small fan and temperature controller attached over a USB CDC
// serial link. The host sends a two byte status query and the controller
// answers with a fixed 18 byte frame carrying duty and RPM for four fans and
// two temperature readings. This package provides the frame codec, the
// transports the query runs over, and the poller that keeps the last good
// reading.
package fanboy

import "time"

// Protocol framing bytes
const (
	SOF       = 0x42
	CmdStatus = 0x01
)

// Frame sizes
const (
	QuerySize    = 2
	ResponseSize = 18 // 2 header + 4 * (1 duty + 2 rpm) + 2 * 2 temp
)

// Channel counts
const (
	NumFans = 4
	NumTemp = 2
)

// RPMUnknown is reported by the controller for a fan without tachometer signal.
const RPMUnknown = 0xFFFF

// tempScale converts raw temperature (hundredths of a degree) to °C.
const tempScale = 100.0

// Serial link defaults
const (
	DefaultBaudRate = 115200
	DefaultTimeout  = 500 * time.Millisecond
	DefaultDevice   = "/dev/ttyACM0"
)
