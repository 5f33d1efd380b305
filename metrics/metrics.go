// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics provides process-wide meters. It is a no-op until
// InitializePrometheusMetrics is called, so packages may define meters at
// init time and use them unconditionally.
package metrics

import (
	"net/http"
	"sync"
)

var (
	mu      sync.RWMutex
	service Metrics = noopMetrics{}
)

// Metrics is the meter factory in use.
type Metrics interface {
	Counter(name string) CountMeter
	CounterVec(name string, labels []string) CountVecMeter
	Gauge(name string) GaugeMeter
	GaugeVec(name string, labels []string) GaugeVecMeter
	HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	Handler() http.Handler
}

func current() Metrics {
	mu.RLock()
	defer mu.RUnlock()
	return service
}

// HTTPHandler returns the scrape handler, nil when metrics are disabled.
func HTTPHandler() http.Handler {
	return current().Handler()
}

// BucketHTTPReqs are latency buckets in milliseconds.
var BucketHTTPReqs = []int64{0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// CountVecMeter is a counter partitioned by labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter is a value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// GaugeVecMeter is a gauge partitioned by labels.
type GaugeVecMeter interface {
	AddWithLabel(int64, map[string]string)
	SetWithLabel(int64, map[string]string)
}

// HistogramVecMeter is a histogram partitioned by labels.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

// LazyLoad defers creating a meter until first use, so the meter binds to
// whichever service is active by then.
func LazyLoad[T any](f func() T) func() T {
	var (
		result T
		once   sync.Once
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return current().Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return current().CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return current().Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return LazyLoad(func() GaugeVecMeter { return current().GaugeVec(name, labels) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return LazyLoad(func() HistogramVecMeter { return current().HistogramVec(name, labels, buckets) })
}

type noopMetrics struct{}

type noopMeter struct{}

func (noopMeter) Add(int64)                                  {}
func (noopMeter) Set(int64)                                  {}
func (noopMeter) AddWithLabel(int64, map[string]string)      {}
func (noopMeter) SetWithLabel(int64, map[string]string)      {}
func (noopMeter) ObserveWithLabels(int64, map[string]string) {}

func (noopMetrics) Counter(string) CountMeter                   { return noopMeter{} }
func (noopMetrics) CounterVec(string, []string) CountVecMeter   { return noopMeter{} }
func (noopMetrics) Gauge(string) GaugeMeter                     { return noopMeter{} }
func (noopMetrics) GaugeVec(string, []string) GaugeVecMeter     { return noopMeter{} }
func (noopMetrics) Handler() http.Handler                       { return nil }
func (noopMetrics) HistogramVec(string, []string, []int64) HistogramVecMeter {
	return noopMeter{}
}
