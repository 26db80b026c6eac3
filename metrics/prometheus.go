// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liquidpool"

// InitializePrometheusMetrics registers every meter built from now on with
// the default prometheus registry. Calling it again keeps the meters built
// so far.
func InitializePrometheusMetrics() {
	if _, ok := active.(*promProvider); !ok {
		active = &promProvider{}
	}
}

type promProvider struct {
	meters sync.Map // name => meter
}

// lookup returns the meter registered under name, registering the collector
// build returns on first use.
func lookup[T any](p *promProvider, name string, build func() (prometheus.Collector, T)) T {
	if m, ok := p.meters.Load(name); ok {
		return m.(T)
	}
	c, meter := build()
	m, loaded := p.meters.LoadOrStore(name, meter)
	if !loaded {
		if err := prometheus.Register(c); err != nil {
			log.Warn("unable to register metric", "name", name, "err", err)
		}
	}
	return m.(T)
}

func (p *promProvider) handler() http.Handler {
	return promhttp.Handler()
}

func (p *promProvider) counter(name string) CountMeter {
	return lookup(p, name, func() (prometheus.Collector, CountMeter) {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		return c, promCounter{c}
	})
}

func (p *promProvider) counterVec(name string, labels []string) CountVecMeter {
	return lookup(p, name, func() (prometheus.Collector, CountVecMeter) {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		return c, labelled{c.MetricVec, func(o prometheus.Metric, v float64) { o.(prometheus.Counter).Add(v) }}
	})
}

func (p *promProvider) gauge(name string) GaugeMeter {
	return lookup(p, name, func() (prometheus.Collector, GaugeMeter) {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		return g, promGauge{g}
	})
}

func (p *promProvider) gaugeVec(name string, labels []string) GaugeVecMeter {
	return lookup(p, name, func() (prometheus.Collector, GaugeVecMeter) {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name}, labels)
		return g, labelled{g.MetricVec, func(o prometheus.Metric, v float64) { o.(prometheus.Gauge).Set(v) }}
	})
}

func (p *promProvider) histogramVec(name string, labels []string, buckets []int64) HistogramVecMeter {
	return lookup(p, name, func() (prometheus.Collector, HistogramVecMeter) {
		bounds := make([]float64, len(buckets))
		for i, b := range buckets {
			bounds[i] = float64(b)
		}
		h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: bounds}, labels)
		return h, labelled{h.MetricVec, func(o prometheus.Metric, v float64) { o.(prometheus.Observer).Observe(v) }}
	})
}

type promCounter struct {
	counter prometheus.Counter
}

func (m promCounter) Add(v int64) { m.counter.Add(float64(v)) }

type promGauge struct {
	gauge prometheus.Gauge
}

func (m promGauge) Set(v int64) { m.gauge.Set(float64(v)) }

// labelled applies record to the child of vec selected by the labels.
type labelled struct {
	vec    *prometheus.MetricVec
	record func(prometheus.Metric, float64)
}

func (l labelled) apply(v int64, labels map[string]string) {
	m, err := l.vec.GetMetricWith(labels)
	if err != nil {
		log.Warn("bad metric labels", "labels", labels, "err", err)
		return
	}
	l.record(m, float64(v))
}

func (l labelled) AddWithLabel(v int64, labels map[string]string)      { l.apply(v, labels) }
func (l labelled) SetWithLabel(v int64, labels map[string]string)      { l.apply(v, labels) }
func (l labelled) ObserveWithLabels(v int64, labels map[string]string) { l.apply(v, labels) }
