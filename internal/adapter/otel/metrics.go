// Package otel provides OpenTelemetry metrics, tracing, and HTTP middleware.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "sitetree"

// Metrics holds all sitetree metric instruments.
type Metrics struct {
	ResolveHits      metric.Int64Counter
	ResolveMisses    metric.Int64Counter
	ResolveFailOpens metric.Int64Counter
	URLRewrites      metric.Int64Counter
	RewriteFallbacks metric.Int64Counter
	UpsertsBlocked   metric.Int64Counter
	ResolveDuration  metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ResolveHits, err = meter.Int64Counter("sitetree.resolve.hits",
		metric.WithDescription("Inbound resolutions answered from the registry"))
	if err != nil {
		return nil, err
	}

	m.ResolveMisses, err = meter.Int64Counter("sitetree.resolve.misses",
		metric.WithDescription("Inbound resolutions deferred to the platform default"))
	if err != nil {
		return nil, err
	}

	m.ResolveFailOpens, err = meter.Int64Counter("sitetree.resolve.failopen",
		metric.WithDescription("Inbound resolutions that failed open (flag off, group unknown, or store error)"))
	if err != nil {
		return nil, err
	}

	m.URLRewrites, err = meter.Int64Counter("sitetree.rewrite.applied",
		metric.WithDescription("Outbound URLs rewritten from internal to nested path"))
	if err != nil {
		return nil, err
	}

	m.RewriteFallbacks, err = meter.Int64Counter("sitetree.rewrite.fallback",
		metric.WithDescription("Outbound rewrites that needed the last-segment splice heuristic"))
	if err != nil {
		return nil, err
	}

	m.UpsertsBlocked, err = meter.Int64Counter("sitetree.upsert.blocked",
		metric.WithDescription("Mapping upserts blocked by the collision policy"))
	if err != nil {
		return nil, err
	}

	m.ResolveDuration, err = meter.Float64Histogram("sitetree.resolve.duration_seconds",
		metric.WithDescription("Inbound resolution duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
