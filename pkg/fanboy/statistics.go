// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks poll outcomes and error rates
type Statistics struct {
	StartTime   time.Time
	LastSuccess time.Time
	LastError   string

	// Counters
	TotalPolls  uint64
	Successful  uint64
	SendErrors  uint64
	Timeouts    uint64
	IOErrors    uint64
	ShortFrames uint64
	BadHeaders  uint64

	// Rates (calculated)
	PollRate  float64 // polls/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// Update records the outcome of one poll
func (s *Statistics) Update(err error) {
	s.TotalPolls++

	if err == nil {
		s.Successful++
		s.LastSuccess = time.Now()
		return
	}

	s.LastError = err.Error()

	// Order matters: a failed send also wraps a TransportError
	switch {
	case errors.Is(err, ErrSend):
		s.SendErrors++
	case errors.Is(err, ErrTimeout):
		s.Timeouts++
	case errors.Is(err, ErrShortFrame):
		s.ShortFrames++
	case errors.Is(err, ErrBadHeader):
		s.BadHeaders++
	default:
		s.IOErrors++
	}
}

// Errors returns the total number of failed polls
func (s *Statistics) Errors() uint64 {
	return s.SendErrors + s.Timeouts + s.IOErrors + s.ShortFrames + s.BadHeaders
}

// CalculateRates calculates poll and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.PollRate = float64(s.TotalPolls) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var okPercent, errPercent float64
	if s.TotalPolls > 0 {
		okPercent = float64(s.Successful) * 100.0 / float64(s.TotalPolls)
		errPercent = float64(s.Errors()) * 100.0 / float64(s.TotalPolls)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Polls:     %8d\n", s.TotalPolls)
	result += fmt.Sprintf("Successful:      %8d (%.1f%%)\n", s.Successful, okPercent)

	if s.Errors() > 0 {
		result += fmt.Sprintf("Failed:          %8d (%.1f%%)\n", s.Errors(), errPercent)
		if s.SendErrors > 0 {
			result += fmt.Sprintf("  Send Errors:      %5d\n", s.SendErrors)
		}
		if s.Timeouts > 0 {
			result += fmt.Sprintf("  Timeouts:         %5d\n", s.Timeouts)
		}
		if s.IOErrors > 0 {
			result += fmt.Sprintf("  I/O Errors:       %5d\n", s.IOErrors)
		}
		if s.ShortFrames > 0 {
			result += fmt.Sprintf("  Short Frames:     %5d\n", s.ShortFrames)
		}
		if s.BadHeaders > 0 {
			result += fmt.Sprintf("  Bad Headers:      %5d\n", s.BadHeaders)
		}
		result += fmt.Sprintf("Last Error:      %s\n", s.LastError)
	}

	result += fmt.Sprintf("Poll Rate:       %8.2f polls/sec\n", s.PollRate)
	result += fmt.Sprintf("Error Rate:      %8.2f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
