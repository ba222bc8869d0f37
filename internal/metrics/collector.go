// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes FanBoy readings and poll outcomes to Prometheus.
package metrics

import (
	"net/http"

	"github.com/Thermoquad/fanboy/pkg/fanboy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll result label values
const (
	ResultOK         = "ok"
	ResultSendError  = "send_error"
	ResultTimeout    = "timeout"
	ResultIOError    = "io_error"
	ResultShortFrame = "short_frame"
	ResultBadHeader  = "bad_header"
)

var (
	tempDesc = prometheus.NewDesc(
		"fanboy_temp",
		"FanBoy temperatures",
		[]string{"sensor"}, nil,
	)
	rpmDesc = prometheus.NewDesc(
		"fanboy_rpm",
		"FanBoy RPM values",
		[]string{"fan"}, nil,
	)
	dutyDesc = prometheus.NewDesc(
		"fanboy_duty",
		"FanBoy duty values",
		[]string{"fan"}, nil,
	)
	pollsDesc = prometheus.NewDesc(
		"fanboy_polls_total",
		"Total number of status polls by result",
		[]string{"result"}, nil,
	)
	lastSuccessDesc = prometheus.NewDesc(
		"fanboy_last_success_timestamp_seconds",
		"Unix time of the last successful poll (0 if none)",
		nil, nil,
	)
)

// StatsSource returns the current poll statistics.
type StatsSource func() fanboy.Statistics

// Collector reads the shared state at scrape time.
type Collector struct {
	state *fanboy.State
	stats StatsSource
}

// NewCollector creates a collector over state. stats may be nil.
func NewCollector(state *fanboy.State, stats StatsSource) *Collector {
	return &Collector{state: state, stats: stats}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- tempDesc
	ch <- rpmDesc
	ch <- dutyDesc
	ch <- pollsDesc
	ch <- lastSuccessDesc
}

// Collect implements prometheus.Collector.
// Reading gauges are zero until the first successful poll.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	r, at := c.state.Load()

	for i := 0; i < fanboy.NumFans; i++ {
		label := fanboy.FanLabel(i)
		ch <- prometheus.MustNewConstMetric(rpmDesc, prometheus.GaugeValue, float64(r.RPM[i]), label)
		ch <- prometheus.MustNewConstMetric(dutyDesc, prometheus.GaugeValue, float64(r.Duty[i]), label)
	}
	for i := 0; i < fanboy.NumTemp; i++ {
		ch <- prometheus.MustNewConstMetric(tempDesc, prometheus.GaugeValue, r.Temp[i], fanboy.TempLabel(i))
	}

	var lastSuccess float64
	if !at.IsZero() {
		lastSuccess = float64(at.UnixNano()) / 1e9
	}
	ch <- prometheus.MustNewConstMetric(lastSuccessDesc, prometheus.GaugeValue, lastSuccess)

	if c.stats == nil {
		return
	}
	s := c.stats()
	for result, n := range map[string]uint64{
		ResultOK:         s.Successful,
		ResultSendError:  s.SendErrors,
		ResultTimeout:    s.Timeouts,
		ResultIOError:    s.IOErrors,
		ResultShortFrame: s.ShortFrames,
		ResultBadHeader:  s.BadHeaders,
	} {
		ch <- prometheus.MustNewConstMetric(pollsDesc, prometheus.CounterValue, float64(n), result)
	}
}

// NewRegistry returns a registry with the collector and the Go/process
// collectors registered.
func NewRegistry(c *Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}
	return reg, nil
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
