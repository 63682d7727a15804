// Package metrics exposes Prometheus collectors for scan intake.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the stashfinder metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Stashes       prometheus.Gauge
	Scans         *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

// New registers the collectors against reg, defaulting to the global
// Prometheus registry when nil. Registering twice against the same registry
// returns the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	stashes, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stashfinder_registry_stashes",
		Help: "Current number of stashes held in the registry.",
	}), "stashfinder_registry_stashes")
	if err != nil {
		return nil, err
	}

	scans, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stashfinder_scans_total",
		Help: "Region scans processed, labeled by outcome.",
	}, []string{"outcome"}), "stashfinder_scans_total")
	if err != nil {
		return nil, err
	}

	notifications, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stashfinder_notifications_total",
		Help: "Discovery notifications sent, labeled by channel and result.",
	}, []string{"channel", "result"}), "stashfinder_notifications_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Stashes:       stashes,
		Scans:         scans,
		Notifications: notifications,
	}, nil
}

// ObserveScan counts one processed scan.
func (c *Collector) ObserveScan(outcome string) {
	if c == nil || c.Scans == nil {
		return
	}
	c.Scans.WithLabelValues(outcome).Inc()
}

// SetStashes records the current registry size.
func (c *Collector) SetStashes(n int) {
	if c == nil || c.Stashes == nil {
		return
	}
	c.Stashes.Set(float64(n))
}

// ObserveNotification counts one delivery attempt.
func (c *Collector) ObserveNotification(channel string, err error) {
	if c == nil || c.Notifications == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Notifications.WithLabelValues(channel, result).Inc()
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
