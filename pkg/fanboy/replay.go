// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Record is one captured reply as stored in a capture file.
// Capture files are a plain sequence of CBOR encoded records.
type Record struct {
	Time  time.Time `cbor:"1,keyasint"`
	Frame []byte    `cbor:"2,keyasint"`
}

// ReadRecords decodes every record from r.
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)
	var records []Record
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, fmt.Errorf("record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// ReplayTransport serves recorded replies in order.
// Queries sent to it are accepted and dropped.
type ReplayTransport struct {
	records []Record
	next    int
	loop    bool
	closed  atomic.Bool
}

// NewReplay creates a replay transport over records.
func NewReplay(records []Record, loop bool) *ReplayTransport {
	return &ReplayTransport{records: records, loop: loop}
}

// OpenReplay loads a capture file written by Recorder.
func OpenReplay(path string, loop bool) (*ReplayTransport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	defer f.Close()

	records, err := ReadRecords(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no records", ErrConnection, path)
	}
	return NewReplay(records, loop), nil
}

func (t *ReplayTransport) Send(b []byte) error {
	if t.closed.Load() {
		return &TransportError{Op: "send", Err: ErrClosed}
	}
	return nil
}

func (t *ReplayTransport) Receive(n int) ([]byte, error) {
	if t.closed.Load() {
		return nil, &TransportError{Op: "receive", Err: ErrClosed}
	}
	if t.next >= len(t.records) {
		if !t.loop || len(t.records) == 0 {
			return nil, &TransportError{Op: "receive", Err: io.EOF}
		}
		t.next = 0
	}
	frame := t.records[t.next].Frame
	t.next++

	if len(frame) == 0 {
		return nil, ErrTimeout
	}
	if len(frame) > n {
		frame = frame[:n]
	}
	return append([]byte(nil), frame...), nil
}

func (t *ReplayTransport) Close() error {
	t.closed.Store(true)
	return nil
}

// Recorder wraps a Transport and appends every received reply to w.
type Recorder struct {
	Transport
	enc   *cbor.Encoder
	count int
}

// NewRecorder creates a recording transport writing records to w.
func NewRecorder(t Transport, w io.Writer) *Recorder {
	return &Recorder{Transport: t, enc: cbor.NewEncoder(w)}
}

// Receive forwards to the wrapped transport and records whatever arrived,
// including partial replies.
func (r *Recorder) Receive(n int) ([]byte, error) {
	data, err := r.Transport.Receive(n)
	if len(data) > 0 {
		rec := Record{Time: time.Now().UTC(), Frame: append([]byte(nil), data...)}
		if encErr := r.enc.Encode(rec); encErr != nil {
			return data, fmt.Errorf("failed to write record: %w", encErr)
		}
		r.count++
	}
	return data, err
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	return r.count
}
