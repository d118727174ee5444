// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package metrics exports the telemetry of an archivenav engine as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/hashicorp/go-archivenav"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes all metric names.
const namespace = "archivenav"

// Collector holds the Prometheus metrics fed by [Collector.Hook].
type Collector struct {
	operations       *prometheus.CounterVec
	failures         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	extractedEntries prometheus.Counter
	extractionBytes  prometheus.Counter
	cleanupFailures  prometheus.Counter
	tempDirs         prometheus.Gauge
}

// New creates a collector and registers its metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of engine operations",
			},
			[]string{"operation", "codec"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_failures_total",
				Help:      "Total number of failed engine operations",
			},
			[]string{"operation", "kind"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Engine operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		extractedEntries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extracted_entries_total",
				Help:      "Total number of entries written to disk",
			},
		),
		extractionBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extracted_bytes_total",
				Help:      "Total bytes written to disk",
			},
		),
		cleanupFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanup_failures_total",
				Help:      "Total number of temporary directories that could not be removed",
			},
		),
		tempDirs: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "temp_dirs",
				Help:      "Number of temporary directories currently owned",
			},
		),
	}
}

// Observe records td.
func (c *Collector) Observe(td *archivenav.TelemetryData) {
	c.operations.WithLabelValues(td.Operation, td.CodecID).Inc()
	if td.LastError != nil {
		c.failures.WithLabelValues(td.Operation, archivenav.ErrorKind(td.LastError)).Inc()
	}
	c.duration.WithLabelValues(td.Operation).Observe(td.Duration.Seconds())
	c.extractedEntries.Add(float64(td.ExtractedEntries))
	c.extractionBytes.Add(float64(td.ExtractionSize))
	c.cleanupFailures.Add(float64(td.CleanupFailures))
	c.tempDirs.Set(float64(td.TempDirs))
}

// Hook returns a [archivenav.TelemetryHook] that records the telemetry data.
func (c *Collector) Hook() archivenav.TelemetryHook {
	return func(_ context.Context, td *archivenav.TelemetryData) {
		c.Observe(td)
	}
}

// Chain returns a hook that passes the telemetry data to all hooks in order.
func Chain(hooks ...archivenav.TelemetryHook) archivenav.TelemetryHook {
	return func(ctx context.Context, td *archivenav.TelemetryData) {
		for _, hook := range hooks {
			if hook != nil {
				hook(ctx, td)
			}
		}
	}
}

// WriteTextfile writes the metrics gathered by g to path in the Prometheus text
// format, e.g. for the node exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	return prometheus.WriteToTextfile(path, g)
}
