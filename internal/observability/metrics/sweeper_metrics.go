package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServiceName string
	Environment string
}

// SweeperMetrics captures expiration-sweep health signals.
type SweeperMetrics struct {
	sweepRuns          prometheus.Counter
	sweepSkipped       prometheus.Counter
	sweepDuration      prometheus.Observer
	expiredObjects     *prometheus.CounterVec
	sweepErrors        *prometheus.CounterVec
	wellboreRecomputes prometheus.Counter
}

var (
	sweeperMetricsOnce sync.Once
	sweeperMetrics     *SweeperMetrics
)

// Sweeper returns the singleton sweeper metrics registry.
func Sweeper() *SweeperMetrics {
	return SweeperWithConfig(Config{})
}

// SweeperWithConfig returns the singleton sweeper metrics registry using config labels.
func SweeperWithConfig(cfg Config) *SweeperMetrics {
	sweeperMetricsOnce.Do(func() {
		sweeperMetrics = newSweeperMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweeperMetrics
}

// ResetSweeperMetricsForTest resets the sweeper metrics singleton for tests.
func ResetSweeperMetricsForTest() {
	sweeperMetricsOnce = sync.Once{}
	sweeperMetrics = nil
}

func newSweeperMetrics(registerer prometheus.Registerer, cfg Config) *SweeperMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "wellstore"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	factory := func(opts prometheus.CounterOpts) prometheus.Counter {
		opts.ConstLabels = constLabels
		c := prometheus.NewCounter(opts)
		registerer.MustRegister(c)
		return c
	}

	expired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "wellstore_sweeper_expired_objects_total",
		Help:        "Growing objects demoted by the expiration sweeper.",
		ConstLabels: constLabels,
	}, []string{"object_type"})
	registerer.MustRegister(expired)

	errs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "wellstore_sweeper_errors_total",
		Help:        "Sweep failures, by object type.",
		ConstLabels: constLabels,
	}, []string{"object_type"})
	registerer.MustRegister(errs)

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "wellstore_sweeper_duration_seconds",
		Help:        "Wall time of one full sweep.",
		ConstLabels: constLabels,
		Buckets:     prometheus.DefBuckets,
	})
	registerer.MustRegister(duration)

	return &SweeperMetrics{
		sweepRuns: factory(prometheus.CounterOpts{
			Name: "wellstore_sweeper_runs_total",
			Help: "Completed sweep executions.",
		}),
		sweepSkipped: factory(prometheus.CounterOpts{
			Name: "wellstore_sweeper_skipped_total",
			Help: "Sweep invocations skipped because a sweep was already running.",
		}),
		sweepDuration:  duration,
		expiredObjects: expired,
		sweepErrors:    errs,
		wellboreRecomputes: factory(prometheus.CounterOpts{
			Name: "wellstore_sweeper_wellbore_recomputes_total",
			Help: "Wellbore aggregate growing-flag recomputations.",
		}),
	}
}

func (m *SweeperMetrics) IncRun() {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
}

func (m *SweeperMetrics) IncSkipped() {
	if m == nil {
		return
	}
	m.sweepSkipped.Inc()
}

func (m *SweeperMetrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(d.Seconds())
}

func (m *SweeperMetrics) IncExpired(objectType string) {
	if m == nil {
		return
	}
	m.expiredObjects.WithLabelValues(objectType).Inc()
}

func (m *SweeperMetrics) IncError(objectType string) {
	if m == nil {
		return
	}
	m.sweepErrors.WithLabelValues(objectType).Inc()
}

func (m *SweeperMetrics) IncWellboreRecompute() {
	if m == nil {
		return
	}
	m.wellboreRecomputes.Inc()
}
