// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"encoding/binary"
	"fmt"
)

// EncodeQuery returns the status request frame.
func EncodeQuery() []byte {
	return []byte{SOF, CmdStatus}
}

// DecodeResponse decodes a status reply frame.
// Only the first ResponseSize bytes are inspected. The reading is returned
// only if the whole frame decodes.
func DecodeResponse(frame []byte) (Reading, error) {
	var r Reading

	if len(frame) < ResponseSize {
		return r, &DecodeError{
			Len: len(frame),
			Err: fmt.Errorf("%w: got %d bytes, want %d", ErrShortFrame, len(frame), ResponseSize),
		}
	}
	if frame[0] != SOF || frame[1] != CmdStatus {
		return r, &DecodeError{
			Len: len(frame),
			Err: fmt.Errorf("%w: got 0x%02X 0x%02X", ErrBadHeader, frame[0], frame[1]),
		}
	}

	offset := 2
	for i := 0; i < NumFans; i++ {
		r.Duty[i] = frame[offset]
		rpm := binary.LittleEndian.Uint16(frame[offset+1 : offset+3])
		if rpm == RPMUnknown {
			rpm = 0
		}
		r.RPM[i] = rpm
		offset += 3
	}

	for i := 0; i < NumTemp; i++ {
		raw := binary.LittleEndian.Uint16(frame[offset : offset+2])
		r.Temp[i] = float64(raw) / tempScale
		offset += 2
	}

	return r, nil
}

// EncodeResponse builds the reply frame a controller would send for r.
// Temperatures are rounded to hundredths and RPM 0 is sent as 0.
// Used by replay tooling and tests.
func EncodeResponse(r Reading) []byte {
	frame := make([]byte, ResponseSize)
	frame[0] = SOF
	frame[1] = CmdStatus

	offset := 2
	for i := 0; i < NumFans; i++ {
		frame[offset] = r.Duty[i]
		binary.LittleEndian.PutUint16(frame[offset+1:offset+3], r.RPM[i])
		offset += 3
	}
	for i := 0; i < NumTemp; i++ {
		raw := r.Temp[i]*tempScale + 0.5
		if raw < 0 {
			raw = 0
		}
		if raw > 0xFFFF {
			raw = 0xFFFF
		}
		binary.LittleEndian.PutUint16(frame[offset:offset+2], uint16(raw))
		offset += 2
	}
	return frame
}
