// Package metrics exposes engine telemetry as Prometheus collectors.
package metrics

import (
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fundCore/internal/errs"
	"fundCore/internal/model"
	"fundCore/internal/txn"
)

// Collector records unit outcomes and pool valuations.
type Collector struct {
	registry *prometheus.Registry

	units        *prometheus.CounterVec
	unitDuration *prometheus.HistogramVec
	events       *prometheus.CounterVec

	gav             *prometheus.GaugeVec
	shareSupply     *prometheus.GaugeVec
	grossShareValue *prometheus.GaugeVec
	gavInvalid      *prometheus.CounterVec
}

var _ txn.Recorder = (*Collector)(nil)

// NewCollector creates a collector on its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "fundcore"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.units = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "total",
			Help:      "Units of work by label and result (ok or the error kind).",
		},
		[]string{"label", "result"},
	)

	c.unitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "duration_seconds",
			Help:      "Time taken to run a unit of work.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14), // 100us to ~1.6s
		},
		[]string{"label"},
	)

	c.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unit",
			Name:      "events_total",
			Help:      "Events emitted by committed units.",
		},
		[]string{"label"},
	)

	c.gav = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "gav",
			Help:      "Gross asset value of a pool in whole denomination units.",
		},
		[]string{"vault"},
	)

	c.shareSupply = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "share_supply",
			Help:      "Total shares of a pool in whole shares.",
		},
		[]string{"vault"},
	)

	c.grossShareValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "gross_share_value",
			Help:      "Value of one share in whole denomination units.",
		},
		[]string{"vault"},
	)

	c.gavInvalid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "gav_invalid_total",
			Help:      "Snapshots taken while some holding could not be valued.",
		},
		[]string{"vault"},
	)

	c.registry.MustRegister(
		c.units,
		c.unitDuration,
		c.events,
		c.gav,
		c.shareSupply,
		c.grossShareValue,
		c.gavInvalid,
	)
	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveUnit records the outcome of one unit of work.
func (c *Collector) ObserveUnit(label string, elapsed time.Duration, events int, err error) {
	label = unitLabel(label)
	result := "ok"
	if err != nil {
		result = strings.ReplaceAll(errs.KindOf(err).String(), " ", "_")
	}
	c.units.WithLabelValues(label, result).Inc()
	c.unitDuration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err == nil && events > 0 {
		c.events.WithLabelValues(label).Add(float64(events))
	}
}

// RecordSnapshot updates the valuation gauges of a pool. unit is one whole
// denomination unit in base units.
func (c *Collector) RecordSnapshot(snap model.FundSnapshot, unit *big.Int) {
	c.gav.WithLabelValues(snap.Vault).Set(scaled(snap.Gav, unit))
	c.shareSupply.WithLabelValues(snap.Vault).Set(scaled(snap.TotalSupply, sharesUnit))
	c.grossShareValue.WithLabelValues(snap.Vault).Set(scaled(snap.GrossShareValue, unit))
	if !snap.GavValid {
		c.gavInvalid.WithLabelValues(snap.Vault).Inc()
	}
}

var sharesUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// unitLabel keeps the leading word of a unit label so scenario step
// numbering does not explode label cardinality.
func unitLabel(label string) string {
	label = strings.TrimSpace(label)
	if i := strings.IndexAny(label, " :#"); i > 0 {
		label = label[:i]
	}
	if label == "" {
		return "unlabeled"
	}
	return label
}

func scaled(amount string, unit *big.Int) float64 {
	v, ok := new(big.Float).SetString(amount)
	if !ok {
		return 0
	}
	if unit != nil && unit.Sign() > 0 {
		v.Quo(v, new(big.Float).SetInt(unit))
	}
	f, _ := v.Float64()
	return f
}
