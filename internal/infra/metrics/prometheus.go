// Package metrics exposes load test statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LatencySuffix marks metrics that are observed into histograms instead of counters.
const LatencySuffix = "_latency_ms"

// LatencyBuckets are upper bounds of latency histograms, ms.
var LatencyBuckets = prometheus.ExponentialBuckets(1, 2, 15)

// Tracker implements stats.Tracker with Prometheus counters, histograms and gauges.
//
// Label names of a metric are fixed by its first use.
type Tracker struct {
	registry *prometheus.Registry

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewTracker creates a tracker with a dedicated registry.
func NewTracker() *Tracker {
	return &Tracker{
		registry:   prometheus.NewRegistry(),
		counters:   map[string]*prometheus.CounterVec{},
		histograms: map[string]*prometheus.HistogramVec{},
		gauges:     map[string]*prometheus.GaugeVec{},
	}
}

func split(labelsAndValues []string) (labels, values []string) {
	type pair struct{ l, v string }

	pairs := make([]pair, 0, len(labelsAndValues)/2)
	for i := 0; i+1 < len(labelsAndValues); i += 2 {
		pairs = append(pairs, pair{l: labelsAndValues[i], v: labelsAndValues[i+1]})
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].l < pairs[j].l })

	labels = make([]string, len(pairs))
	values = make([]string, len(pairs))

	for i, p := range pairs {
		labels[i] = p.l
		values[i] = p.v
	}

	return labels, values
}

func metricName(name string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}

func (t *Tracker) register(c prometheus.Collector) prometheus.Collector {
	if err := t.registry.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}

		return nil
	}

	return c
}

// Add increments a counter or observes a latency, negative increments are ignored.
func (t *Tracker) Add(_ context.Context, name string, increment float64, labelsAndValues ...string) {
	if increment < 0 {
		return
	}

	labels, values := split(labelsAndValues)

	if strings.HasSuffix(name, LatencySuffix) {
		t.observe(name, increment, labels, values)

		return
	}

	t.mu.Lock()
	cv, ok := t.counters[name]

	if !ok {
		c, _ := t.register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricName(name),
			Help: name,
		}, labels)).(*prometheus.CounterVec)

		cv = c
		t.counters[name] = cv
	}
	t.mu.Unlock()

	if cv == nil {
		return
	}

	if c, err := cv.GetMetricWithLabelValues(values...); err == nil {
		c.Add(increment)
	}
}

func (t *Tracker) observe(name string, value float64, labels, values []string) {
	t.mu.Lock()
	hv, ok := t.histograms[name]

	if !ok {
		h, _ := t.register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName(name),
			Help:    name,
			Buckets: LatencyBuckets,
		}, labels)).(*prometheus.HistogramVec)

		hv = h
		t.histograms[name] = hv
	}
	t.mu.Unlock()

	if hv == nil {
		return
	}

	if o, err := hv.GetMetricWithLabelValues(values...); err == nil {
		o.Observe(value)
	}
}

// Set sets a gauge.
func (t *Tracker) Set(_ context.Context, name string, absolute float64, labelsAndValues ...string) {
	labels, values := split(labelsAndValues)

	t.mu.Lock()
	gv, ok := t.gauges[name]

	if !ok {
		g, _ := t.register(prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricName(name),
			Help: name,
		}, labels)).(*prometheus.GaugeVec)

		gv = g
		t.gauges[name] = gv
	}
	t.mu.Unlock()

	if gv == nil {
		return
	}

	if g, err := gv.GetMetricWithLabelValues(values...); err == nil {
		g.Set(absolute)
	}
}

// Handler serves metrics in Prometheus format.
func (t *Tracker) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
