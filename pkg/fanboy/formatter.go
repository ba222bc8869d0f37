// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"fmt"
	"strings"
	"time"
)

// FormatReading formats a reading in human-readable form
func FormatReading(r Reading, at time.Time) string {
	var b strings.Builder

	if at.IsZero() {
		b.WriteString("[--:--:--.---] STATUS (no reading yet)\n")
	} else {
		fmt.Fprintf(&b, "[%s] STATUS\n", at.Format("15:04:05.000"))
	}

	for i := 0; i < NumFans; i++ {
		fmt.Fprintf(&b, "  %s: %5d RPM, duty %3d%%", FanLabel(i), r.RPM[i], r.Duty[i])
		if r.RPM[i] == 0 {
			b.WriteString(" (no tach)")
		}
		b.WriteString("\n")
	}
	for i := 0; i < NumTemp; i++ {
		fmt.Fprintf(&b, "  %s: %6.2f°C\n", TempLabel(i), r.Temp[i])
	}

	return b.String()
}

// FormatFrame returns a hex dump of a raw frame
func FormatFrame(frame []byte) string {
	if len(frame) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, v := range frame {
		if i > 0 && i%16 == 0 {
			b.WriteString("\n")
		} else if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%02X", v)
	}
	return b.String()
}

// FanLabel returns the metric label for fan i
func FanLabel(i int) string {
	return fmt.Sprintf("FAN%d", i)
}

// TempLabel returns the metric label for temperature sensor i
func TempLabel(i int) string {
	return fmt.Sprintf("TEMP%d", i)
}
