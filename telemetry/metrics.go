package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

const meterName = "github.com/jfernandes/portfolio-content"

// MetricsConfig configures the metrics system.
type MetricsConfig struct {
	// ServiceName is the name of the service for resource attributes.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// EnablePrometheus enables the Prometheus /metrics endpoint.
	EnablePrometheus bool
}

// Metrics holds the OpenTelemetry metric instruments.
type Metrics struct {
	requestsTotal      metric.Int64Counter
	responseBytesTotal metric.Int64Counter
	requestDuration    metric.Float64Histogram

	upstreamFetchTotal    metric.Int64Counter
	upstreamFetchDuration metric.Float64Histogram

	cacheLookupsTotal   metric.Int64Counter
	documentWritesTotal metric.Int64Counter

	meterProvider *sdkmetric.MeterProvider
	promHandler   http.Handler
}

var (
	globalMetrics *Metrics
	initOnce      sync.Once
	initErr       error
)

// InitMetrics initializes the OpenTelemetry metrics system.
// Returns a shutdown function that should be called on application exit.
// Uses sync.Once to ensure single initialisation.
func InitMetrics(ctx context.Context, cfg MetricsConfig) (shutdown func(context.Context) error, err error) {
	initOnce.Do(func() {
		initErr = doInitMetrics(ctx, cfg)
	})

	if initErr != nil {
		return nil, initErr
	}

	return shutdownMetrics, nil
}

func doInitMetrics(_ context.Context, cfg MetricsConfig) error {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "portfolio-content"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	var promHandler http.Handler

	if cfg.EnablePrometheus {
		promExp, err := promexporter.New()
		if err != nil {
			return err
		}
		opts = append(opts, sdkmetric.WithReader(promExp))
		promHandler = promhttp.Handler()
	} else {
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewManualReader()))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	meter := mp.Meter(meterName)

	m := &Metrics{meterProvider: mp, promHandler: promHandler}

	if m.requestsTotal, err = meter.Int64Counter(
		"portfolio_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.responseBytesTotal, err = meter.Int64Counter(
		"portfolio_http_response_bytes_total",
		metric.WithDescription("Total bytes sent in HTTP responses"),
		metric.WithUnit("By"),
	); err != nil {
		return err
	}

	if m.requestDuration, err = meter.Float64Histogram(
		"portfolio_http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err != nil {
		return err
	}

	if m.upstreamFetchTotal, err = meter.Int64Counter(
		"portfolio_upstream_fetch_total",
		metric.WithDescription("Total number of upstream fetch attempts"),
		metric.WithUnit("{request}"),
	); err != nil {
		return err
	}

	if m.upstreamFetchDuration, err = meter.Float64Histogram(
		"portfolio_upstream_fetch_duration_seconds",
		metric.WithDescription("Duration of upstream fetch requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40),
	); err != nil {
		return err
	}

	if m.cacheLookupsTotal, err = meter.Int64Counter(
		"portfolio_cache_lookups_total",
		metric.WithDescription("Total number of content cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return err
	}

	if m.documentWritesTotal, err = meter.Int64Counter(
		"portfolio_document_writes_total",
		metric.WithDescription("Total number of section document writes"),
		metric.WithUnit("{write}"),
	); err != nil {
		return err
	}

	globalMetrics = m
	return nil
}

func shutdownMetrics(ctx context.Context) error {
	if globalMetrics == nil || globalMetrics.meterProvider == nil {
		return nil
	}
	return globalMetrics.meterProvider.Shutdown(ctx)
}

// PrometheusHandler returns the /metrics endpoint handler. When Prometheus
// export is not enabled, the handler responds 404.
func PrometheusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if globalMetrics == nil || globalMetrics.promHandler == nil {
			http.NotFound(w, r)
			return
		}
		globalMetrics.promHandler.ServeHTTP(w, r)
	})
}

// RecordHTTP records request metrics. Safe to call before InitMetrics.
func RecordHTTP(ctx context.Context, r *http.Request, section string, status int, bytes int64, duration time.Duration) {
	if globalMetrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", r.Method),
		attribute.String("section", section),
		attribute.String("status", strconv.Itoa(status)),
	)

	globalMetrics.requestsTotal.Add(ctx, 1, attrs)
	globalMetrics.responseBytesTotal.Add(ctx, bytes, attrs)
	globalMetrics.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordUpstreamFetch records an external fetch attempt for a source
// ("badges", "feed") and its outcome ("ok", "error").
func RecordUpstreamFetch(ctx context.Context, source, outcome string, duration time.Duration) {
	if globalMetrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	)

	globalMetrics.upstreamFetchTotal.Add(ctx, 1, attrs)
	globalMetrics.upstreamFetchDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheLookup records a content cache lookup and its result.
func RecordCacheLookup(ctx context.Context, source string, result CacheResult) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.cacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("result", string(result)),
	))
}

// RecordDocumentWrite records a persisted section document write.
func RecordDocumentWrite(ctx context.Context, section string) {
	if globalMetrics == nil {
		return
	}

	globalMetrics.documentWritesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("section", section),
	))
}
