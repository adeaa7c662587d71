/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/credbridge/credbridge/pkg/rpc/envelope"
)

const (
	metricsNamespace = "credbridge"
	metricsSubsystem = "rpc"

	// methodUnknown labels frames that never reached a handler.
	methodUnknown = "unknown"
	codeOK        = "0"
)

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	conns    prometheus.Gauge
}

// newMetrics returns nil metrics when reg is nil; every method is safe on a nil receiver.
func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "requests_total",
			Help:      "RPC requests handled, by method and response code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Time spent in RPC method handlers.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		conns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "open_connections",
			Help:      "Websocket connections currently served.",
		}),
	}

	var err error

	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}

	if m.latency, err = register(reg, m.latency); err != nil {
		return nil, err
	}

	if m.conns, err = register(reg, m.conns); err != nil {
		return nil, err
	}

	return m, nil
}

// register returns the collector already registered under the same descriptor, if any, so
// several servers can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, err
		}

		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, err
		}

		return existing, nil
	}

	return c, nil
}

func (m *metrics) observe(method string, resp *envelope.Envelope, d time.Duration) {
	if m == nil {
		return
	}

	code := codeOK
	if resp != nil && resp.Error != nil {
		code = strconv.Itoa(resp.Error.Code)
	}

	m.requests.WithLabelValues(method, code).Inc()
	m.latency.WithLabelValues(method).Observe(d.Seconds())
}

func (m *metrics) reject(code int) {
	if m == nil {
		return
	}

	m.requests.WithLabelValues(methodUnknown, strconv.Itoa(code)).Inc()
}

func (m *metrics) connOpened() {
	if m != nil {
		m.conns.Inc()
	}
}

func (m *metrics) connClosed() {
	if m != nil {
		m.conns.Dec()
	}
}
