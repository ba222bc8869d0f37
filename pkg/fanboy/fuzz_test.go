// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"errors"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomReading builds a reading with every field drawn at random
func randomReading(rng *rand.Rand) Reading {
	var r Reading
	for i := 0; i < NumFans; i++ {
		r.Duty[i] = uint8(rng.Intn(256))
		r.RPM[i] = uint16(rng.Intn(0xFFFF)) // never the sentinel
	}
	for i := 0; i < NumTemp; i++ {
		r.Temp[i] = float64(rng.Intn(0x10000)) / 100.0
	}
	return r
}

// ============================================================
// Decoder Fuzz Tests
// ============================================================

func TestFuzz_DecodeRandomBytes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(2*ResponseSize))
		rng.Read(data)

		r, err := DecodeResponse(data)
		switch {
		case len(data) < ResponseSize:
			if !errors.Is(err, ErrShortFrame) {
				t.Fatalf("round %d: %d bytes should be a short frame, got %v", i, len(data), err)
			}
		case data[0] != SOF || data[1] != CmdStatus:
			if !errors.Is(err, ErrBadHeader) {
				t.Fatalf("round %d: header %02X %02X should be rejected, got %v", i, data[0], data[1], err)
			}
		default:
			if err != nil {
				t.Fatalf("round %d: valid header rejected: %v", i, err)
			}
		}
		if err != nil && r != (Reading{}) {
			t.Fatalf("round %d: failed decode returned data %+v", i, r)
		}
	}
}

func TestFuzz_EncodeDecodeRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		want := randomReading(rng)
		got, err := DecodeResponse(EncodeResponse(want))
		if err != nil {
			t.Fatalf("round %d: decode failed: %v", i, err)
		}
		if got != want {
			t.Fatalf("round %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestFuzz_PollerSurvivesGarbage(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	state := NewState()
	valid := randomReading(rng)
	mock := &MockTransport{Replies: [][]byte{EncodeResponse(valid)}}
	p := NewPoller(mock, state, WithLogger(zerolog.Nop()))
	if err := p.Poll(); err != nil {
		t.Fatalf("initial poll failed: %v", err)
	}

	for i := 0; i < rounds; i++ {
		data := make([]byte, rng.Intn(ResponseSize+1))
		rng.Read(data)
		if len(data) >= 2 {
			data[0] = 0x00 // never a valid SOF
		}
		mock.Replies = [][]byte{data}

		if err := p.Poll(); err == nil {
			t.Fatalf("round %d: garbage %X accepted", i, data)
		}
		if got, _ := state.Load(); got != valid {
			t.Fatalf("round %d: state corrupted: %+v", i, got)
		}
	}
}
