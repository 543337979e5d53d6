// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds the request collectors. A nil *clientMetrics records
// nothing.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalystwan",
		Name:      "requests_total",
		Help:      "vManage API requests by operation, method and status code.",
	}, []string{"operation", "method", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "catalystwan",
		Name:      "request_duration_seconds",
		Help:      "vManage API request latency including retries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "method"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "catalystwan",
		Name:      "retries_total",
		Help:      "vManage API retry attempts by operation.",
	}, []string{"operation"})

	m := &clientMetrics{}
	var err error
	if m.requests, err = registerOrReuse(reg, requests); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	if m.retries, err = registerOrReuse(reg, retries); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or returns the collector registered before
// under the same descriptor.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// observe records one finished request. code is 0 when no response arrived.
func (m *clientMetrics) observe(operation, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requests.WithLabelValues(operation, method, label).Inc()
	m.duration.WithLabelValues(operation, method).Observe(elapsed.Seconds())
}

func (m *clientMetrics) retry(operation string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(operation).Inc()
}
