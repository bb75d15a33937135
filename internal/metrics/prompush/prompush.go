// Package prompush is a metrics backend that batches counters and duration
// summaries in a private registry and pushes them to a Prometheus
// Pushgateway on Flush. Suited to batch runs, where scrape-based collection
// would miss the process entirely.
package prompush

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Backend struct {
	url string
	job string

	mu        sync.Mutex
	reg       *prometheus.Registry
	counters  map[string]*prometheus.CounterVec
	summaries map[string]*prometheus.SummaryVec
}

// New builds a backend pushing to url under the given pushgateway job name.
func New(url, job string) *Backend {
	return &Backend{
		url:       url,
		job:       job,
		reg:       prometheus.NewRegistry(),
		counters:  make(map[string]*prometheus.CounterVec),
		summaries: make(map[string]*prometheus.SummaryVec),
	}
}

func labelKeys(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Backend) IncCounter(name string, labels map[string]string, v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cv, ok := b.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{Name: name}, labelKeys(labels))
		b.reg.MustRegister(cv)
		b.counters[name] = cv
	}
	cv.With(labels).Add(v)
}

func (b *Backend) ObserveDuration(name string, labels map[string]string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sv, ok := b.summaries[name]
	if !ok {
		sv = prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       name,
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, labelKeys(labels))
		b.reg.MustRegister(sv)
		b.summaries[name] = sv
	}
	sv.With(labels).Observe(d.Seconds())
}

func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := push.New(b.url, b.job).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.url, err)
	}
	return nil
}
