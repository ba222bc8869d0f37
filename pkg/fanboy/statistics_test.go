// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestStatistics_Classify(t *testing.T) {
	_, short := DecodeResponse(nil)
	_, bad := DecodeResponse(make([]byte, ResponseSize))

	s := NewStatistics()
	s.Update(nil)
	s.Update(fmt.Errorf("%w: %w", ErrSend, &TransportError{Op: "send", Err: errors.New("eio")}))
	s.Update(ErrTimeout)
	s.Update(&TransportError{Op: "receive", Err: errors.New("eio")})
	s.Update(short)
	s.Update(bad)
	s.Update(bad)

	if s.TotalPolls != 7 {
		t.Errorf("TotalPolls: got %d, want 7", s.TotalPolls)
	}
	if s.Successful != 1 || s.SendErrors != 1 || s.Timeouts != 1 || s.IOErrors != 1 ||
		s.ShortFrames != 1 || s.BadHeaders != 2 {
		t.Errorf("unexpected counters: %+v", s)
	}
	if s.Errors() != 6 {
		t.Errorf("Errors: got %d, want 6", s.Errors())
	}
	if !strings.Contains(s.LastError, "SOF") {
		t.Errorf("LastError: got %q", s.LastError)
	}
	if s.LastSuccess.IsZero() {
		t.Error("LastSuccess should be set")
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.StartTime = time.Now().Add(-10 * time.Second)
	s.Update(nil)
	s.Update(ErrTimeout)

	out := s.String()
	for _, want := range []string{"Total Polls:", "Successful:", "Timeouts:", "Poll Rate:"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Bad Headers:") {
		t.Errorf("summary should omit zero counters:\n%s", out)
	}
	if s.PollRate <= 0 {
		t.Errorf("PollRate should be positive, got %f", s.PollRate)
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(ErrTimeout)
	s.Reset()
	if s.TotalPolls != 0 || s.Timeouts != 0 || s.LastError != "" {
		t.Errorf("Reset left counters: %+v", s)
	}
	if s.StartTime.IsZero() {
		t.Error("Reset should restart the clock")
	}
}

func TestFormatReading(t *testing.T) {
	r, _ := DecodeResponse(referenceFrame)
	out := FormatReading(r, time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))

	for _, want := range []string{"[12:00:00.000] STATUS", "FAN0:  3000 RPM, duty  50%", "FAN3:     0 RPM, duty   0% (no tach)", "TEMP1: 100.01°C"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatReading_NoReading(t *testing.T) {
	out := FormatReading(Reading{}, time.Time{})
	if !strings.Contains(out, "no reading yet") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestFormatFrame(t *testing.T) {
	if got := FormatFrame(referenceFrame[:4]); got != "42 01 32 B8" {
		t.Errorf("FormatFrame: got %q", got)
	}
	if got := FormatFrame(referenceFrame); !strings.Contains(got, "\n") {
		t.Errorf("FormatFrame should wrap at 16 bytes: %q", got)
	}
	if got := FormatFrame(nil); got != "(empty)" {
		t.Errorf("FormatFrame(nil): got %q", got)
	}
}
