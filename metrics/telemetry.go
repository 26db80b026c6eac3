// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics wraps the prometheus meters the daemon exports. Meters
// created before InitializePrometheusMetrics discard their samples.
package metrics

import (
	"net/http"
	"sync"
)

// provider builds meters by name. Building the same name twice returns the
// same meter.
type provider interface {
	counter(name string) CountMeter
	counterVec(name string, labels []string) CountVecMeter
	gauge(name string) GaugeMeter
	gaugeVec(name string, labels []string) GaugeVecMeter
	histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter
	handler() http.Handler
}

var active provider = discard{}

// HTTPHandler serves the exported meters in the prometheus text format.
func HTTPHandler() http.Handler {
	return active.handler()
}

// BucketHTTPReqs are the latency buckets of API requests, in milliseconds.
var BucketHTTPReqs = []int64{
	0, 1, 2, 5, 10, 20, 30, 50, 75, 100,
	150, 200, 300, 400, 500, 750, 1000,
	1500, 2000, 3000, 4000, 5000, 10000,
}

// BucketRemoteCalls are the latency buckets of remote calls, in milliseconds.
var BucketRemoteCalls = []int64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10_000, 30_000}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// CountVecMeter is a counter with labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// GaugeMeter holds the last value set.
type GaugeMeter interface {
	Set(int64)
}

// GaugeVecMeter is a gauge with labels.
type GaugeVecMeter interface {
	SetWithLabel(int64, map[string]string)
}

// HistogramVecMeter aggregates labelled observations into buckets.
type HistogramVecMeter interface {
	ObserveWithLabels(int64, map[string]string)
}

func Counter(name string) CountMeter { return active.counter(name) }

func CounterVec(name string, labels []string) CountVecMeter {
	return active.counterVec(name, labels)
}

func Gauge(name string) GaugeMeter { return active.gauge(name) }

func GaugeVec(name string, labels []string) GaugeVecMeter {
	return active.gaugeVec(name, labels)
}

func HistogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return active.histogramVec(name, labels, buckets)
}

// lazy defers building a meter to its first use, so that package level
// meters bind to the provider active by then.
func lazy[T any](build func() T) func() T {
	return sync.OnceValue(build)
}

func LazyLoadCounter(name string) func() CountMeter {
	return lazy(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return lazy(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return lazy(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadGaugeVec(name string, labels []string) func() GaugeVecMeter {
	return lazy(func() GaugeVecMeter { return GaugeVec(name, labels) })
}

func LazyLoadHistogramVec(name string, labels []string, buckets []int64) func() HistogramVecMeter {
	return lazy(func() HistogramVecMeter { return HistogramVec(name, labels, buckets) })
}
