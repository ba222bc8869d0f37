// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"sync"
	"time"
)

// Reading is one decoded status reply.
type Reading struct {
	Temp [NumTemp]float64 `json:"temp"` // °C
	RPM  [NumFans]uint16  `json:"rpm"`  // 0 means no tachometer signal
	Duty [NumFans]uint8   `json:"duty"` // percent
}

// State holds the last successfully decoded reading.
// Store and Load exchange whole Reading values, so readers never see a
// half-applied frame.
type State struct {
	mu      sync.RWMutex
	reading Reading
	updated time.Time
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// Store replaces the reading.
func (s *State) Store(r Reading) {
	s.mu.Lock()
	s.reading = r
	s.updated = time.Now()
	s.mu.Unlock()
}

// Load returns a copy of the reading and the time it was stored.
// The time is zero if no reading has been stored yet.
func (s *State) Load() (Reading, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading, s.updated
}

// Valid returns true once a reading has been stored.
func (s *State) Valid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.updated.IsZero()
}
