// Package metrics exposes engine activity as Prometheus metrics. Wire it
// with Instrument; everything else is standard promhttp serving on the
// caller's side.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zng-ui/zvar/pkg/zvar"
)

// Config configures the engine metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "zvar").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for apply pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the engine metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the apply duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// defaultConfig returns the default metrics configuration.
func defaultConfig() Config {
	return Config{
		Namespace: "zvar",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer implements zvar.Observer on top of Prometheus collectors.
type Observer struct {
	appliesTotal   prometheus.Counter
	applyDuration  prometheus.Histogram
	changesTotal   prometheus.Counter
	commitsTotal   prometheus.Counter
	hooksTotal     prometheus.Counter
	ticksTotal     prometheus.Counter
	liveAnimations prometheus.Gauge
}

var _ zvar.Observer = (*Observer)(nil)

// NewObserver creates the collectors and registers them.
func NewObserver(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Observer{
		appliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "applies_total",
			Help:        "Total number of apply passes",
			ConstLabels: config.ConstLabels,
		}),
		applyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "apply_duration_seconds",
			Help:        "Apply pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		changesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of queued modifications processed",
			ConstLabels: config.ConstLabels,
		}),
		commitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commits_total",
			Help:        "Total number of notifying commits",
			ConstLabels: config.ConstLabels,
		}),
		hooksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "hook_invocations_total",
			Help:        "Total number of hook invocations",
			ConstLabels: config.ConstLabels,
		}),
		ticksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "animation_ticks_total",
			Help:        "Total number of animation ticks",
			ConstLabels: config.ConstLabels,
		}),
		liveAnimations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_animations",
			Help:        "Animations stepped by the most recent tick",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Instrument wires a fresh Observer into u and returns it.
func Instrument(u *zvar.Updates, opts ...Option) *Observer {
	o := NewObserver(opts...)
	u.SetObserver(o)
	return o
}

// ObserveApply implements zvar.Observer.
func (o *Observer) ObserveApply(epoch zvar.EpochID, changes int, took time.Duration) {
	o.appliesTotal.Inc()
	o.applyDuration.Observe(took.Seconds())
	o.changesTotal.Add(float64(changes))
}

// ObserveCommit implements zvar.Observer.
func (o *Observer) ObserveCommit() {
	o.commitsTotal.Inc()
}

// ObserveHook implements zvar.Observer.
func (o *Observer) ObserveHook() {
	o.hooksTotal.Inc()
}

// ObserveAnimationTick implements zvar.Observer.
func (o *Observer) ObserveAnimationTick(live int) {
	o.ticksTotal.Inc()
	o.liveAnimations.Set(float64(live))
}
