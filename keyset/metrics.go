package keyset

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/jwtkit/jwt/keyset"

type metrics struct {
	hits    metric.Int64Counter
	fetches metric.Int64Counter
	errors  metric.Int64Counter
}

func newMetrics(provider metric.MeterProvider) *metrics {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(meterName)

	m := &metrics{}
	var err error
	if m.hits, err = meter.Int64Counter("jwks.cache.hits",
		metric.WithDescription("Key set lookups served without a network fetch.")); err != nil {
		m.hits = noop.Int64Counter{}
	}
	if m.fetches, err = meter.Int64Counter("jwks.cache.fetches",
		metric.WithDescription("Key set fetches, by response status.")); err != nil {
		m.fetches = noop.Int64Counter{}
	}
	if m.errors, err = meter.Int64Counter("jwks.cache.errors",
		metric.WithDescription("Key set lookups that failed.")); err != nil {
		m.errors = noop.Int64Counter{}
	}

	return m
}

func (m *metrics) hit(ctx context.Context, uri, source string) {
	m.hits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("uri", uri),
		attribute.String("source", source),
	))
}

func (m *metrics) fetched(ctx context.Context, uri string, status int) {
	m.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("uri", uri),
		attribute.String("status", strconv.Itoa(status)),
	))
}

func (m *metrics) failed(ctx context.Context, uri string) {
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("uri", uri)))
}
