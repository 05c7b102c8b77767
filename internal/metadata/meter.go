package metadata

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the instruments below.
const MeterName = "github.com/rohmanhakim/aoc-fetch"

// MeterSink turns events into OpenTelemetry instruments:
//
//	aoc.cache.lookups     counter, attribute hit
//	aoc.fetch.total       counter, attribute http_status
//	aoc.fetch.errors      counter, attributes package and cause
//	aoc.throttle.wait_ms  histogram
//	aoc.store.writes      counter, attribute kind
type MeterSink struct {
	cacheLookups metric.Int64Counter
	fetchTotal   metric.Int64Counter
	fetchErrors  metric.Int64Counter
	throttleWait metric.Float64Histogram
	storeWrites  metric.Int64Counter
}

func NewMeterSink(provider metric.MeterProvider) (*MeterSink, error) {
	meter := provider.Meter(MeterName)

	cacheLookups, err := meter.Int64Counter(
		"aoc.cache.lookups",
		metric.WithDescription("Cache lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fetchTotal, err := meter.Int64Counter(
		"aoc.fetch.total",
		metric.WithDescription("Outbound requests that received a response"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"aoc.fetch.errors",
		metric.WithDescription("Failures by package and cause"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	throttleWait, err := meter.Float64Histogram(
		"aoc.throttle.wait_ms",
		metric.WithDescription("Time spent waiting for the throttle in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	storeWrites, err := meter.Int64Counter(
		"aoc.store.writes",
		metric.WithDescription("Persisted artifacts by kind"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	return &MeterSink{
		cacheLookups: cacheLookups,
		fetchTotal:   fetchTotal,
		fetchErrors:  fetchErrors,
		throttleWait: throttleWait,
		storeWrites:  storeWrites,
	}, nil
}

func (m *MeterSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	m.fetchErrors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("package", packageName),
		attribute.String("cause", cause.String()),
	))
}

func (m *MeterSink) RecordFetch(key string, httpStatus int, duration time.Duration, bodySize int) {
	m.fetchTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Int(string(AttrHTTPStatus), httpStatus),
	))
}

func (m *MeterSink) RecordCacheLookup(key string, hit bool) {
	m.cacheLookups.Add(context.Background(), 1, metric.WithAttributes(
		attribute.Bool("hit", hit),
	))
}

func (m *MeterSink) RecordThrottle(waited time.Duration) {
	m.throttleWait.Record(context.Background(), float64(waited.Milliseconds()))
}

func (m *MeterSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	m.storeWrites.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
	))
}
