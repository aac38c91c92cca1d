package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"zpassword/pkg/hibp"
	"zpassword/pkg/report"
)

// Breach check outcomes.
const (
	OutcomeFound       = "found"
	OutcomeNotFound    = "not_found"
	OutcomeUnavailable = "unavailable"
)

// Metrics provides observability for password evaluation and breach checks.
type Metrics struct {
	// Reports composed, by crack time strategy
	Evaluations *prometheus.CounterVec

	// Breach lookups by outcome
	BreachOutcome *prometheus.CounterVec

	BreachLatency prometheus.Histogram

	// Range cache lookups by result: "hit", "miss", "error"
	CacheLookups *prometheus.CounterVec

	// Generated passwords by requested length
	Generated *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zpassword_evaluations_total",
			Help: "Total password reports composed by crack time strategy",
		}, []string{"strategy"}),

		BreachOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zpassword_breach_checks_total",
			Help: "Total breach checks by outcome",
		}, []string{"outcome"}),

		BreachLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "zpassword_breach_check_duration_seconds",
			Help:    "Duration of breach checks including cache lookups",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zpassword_range_cache_lookups_total",
			Help: "Total range cache lookups by result",
		}, []string{"result"}),

		Generated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "zpassword_passwords_generated_total",
			Help: "Total generated passwords by length",
		}, []string{"length"}),
	}
}

func (m *Metrics) IncrementEvaluation(strategy string) {
	if m != nil {
		m.Evaluations.WithLabelValues(strategy).Inc()
	}
}

// ObserveBreach records the outcome of one breach check and how long it took.
func (m *Metrics) ObserveBreach(result report.BreachResult, d time.Duration) {
	if m == nil {
		return
	}

	outcome := OutcomeUnavailable
	if result.Available {
		outcome = OutcomeNotFound
		if result.Found {
			outcome = OutcomeFound
		}
	}

	m.BreachOutcome.WithLabelValues(outcome).Inc()
	m.BreachLatency.Observe(d.Seconds())
}

func (m *Metrics) IncrementGenerated(length string) {
	if m != nil {
		m.Generated.WithLabelValues(length).Inc()
	}
}

type instrumentedCache struct {
	next    hibp.RangeCache
	metrics *Metrics
}

// InstrumentCache counts hits and misses of the wrapped range cache.
func InstrumentCache(cache hibp.RangeCache, m *Metrics) hibp.RangeCache {
	if m == nil || cache == nil {
		return cache
	}
	return &instrumentedCache{next: cache, metrics: m}
}

func (c *instrumentedCache) Get(ctx context.Context, prefix string) ([]byte, bool, error) {
	body, ok, err := c.next.Get(ctx, prefix)
	switch {
	case err != nil:
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
	case ok:
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	default:
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}
	return body, ok, err
}

func (c *instrumentedCache) Set(ctx context.Context, prefix string, body []byte) error {
	return c.next.Set(ctx, prefix, body)
}
