// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package fanboy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sink is notified with every successfully decoded reading.
type Sink interface {
	Update(r Reading, at time.Time) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(r Reading, at time.Time) error

func (f SinkFunc) Update(r Reading, at time.Time) error {
	return f(r, at)
}

// Poller runs status transactions against one transport.
// Poll must not be called concurrently; the protocol is half-duplex.
type Poller struct {
	transport Transport
	state     *State
	sinks     []Sink
	logger    zerolog.Logger

	statsMu sync.Mutex
	stats   *Statistics
}

// Option configures a Poller.
type Option func(*Poller)

// WithLogger sets the logger poll failures are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = l
	}
}

// WithSinks adds sinks notified after each successful poll.
func WithSinks(sinks ...Sink) Option {
	return func(p *Poller) {
		p.sinks = append(p.sinks, sinks...)
	}
}

// NewPoller creates a poller writing into state.
func NewPoller(t Transport, state *State, opts ...Option) *Poller {
	p := &Poller{
		transport: t,
		state:     state,
		logger:    log.Logger,
		stats:     NewStatistics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the state the poller writes to.
func (p *Poller) State() *State {
	return p.state
}

// Poll performs exactly one query/reply transaction.
// On any failure the error is logged and returned and the state is left
// untouched.
func (p *Poller) Poll() error {
	reading, err := p.transact()

	p.statsMu.Lock()
	p.stats.Update(err)
	p.statsMu.Unlock()

	if err != nil {
		p.logger.Error().Err(err).Msg("poll failed")
		return err
	}

	p.state.Store(reading)
	_, at := p.state.Load()

	p.logger.Debug().
		Floats64("temp", reading.Temp[:]).
		Interface("rpm", reading.RPM).
		Interface("duty", reading.Duty).
		Msg("status updated")

	for _, s := range p.sinks {
		if err := s.Update(reading, at); err != nil {
			p.logger.Warn().Err(err).Msg("sink update failed")
		}
	}
	return nil
}

func (p *Poller) transact() (Reading, error) {
	if err := p.transport.Send(EncodeQuery()); err != nil {
		return Reading{}, fmt.Errorf("%w: %w", ErrSend, err)
	}

	frame, err := p.transport.Receive(ResponseSize)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to receive status reply: %w", err)
	}
	if len(frame) < ResponseSize {
		return Reading{}, &DecodeError{
			Len: len(frame),
			Err: fmt.Errorf("%w: received %d of %d bytes", ErrShortFrame, len(frame), ResponseSize),
		}
	}

	return DecodeResponse(frame)
}

// Run polls once immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	p.Poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll()
		}
	}
}

// Stats returns a snapshot of the poll statistics.
func (p *Poller) Stats() Statistics {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := *p.stats
	s.CalculateRates()
	return s
}

// ResetStats clears the poll statistics.
func (p *Poller) ResetStats() {
	p.statsMu.Lock()
	p.stats.Reset()
	p.statsMu.Unlock()
}
