package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/pkg/config"
)

// AppMetrics holds all application metrics
type AppMetrics struct {
	// HTTP Metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Database Metrics
	DBQueriesTotal  metric.Int64Counter
	DBQueryDuration metric.Float64Histogram

	// Business Metrics
	ShopsCreated        metric.Int64Counter
	ShopsModerated      metric.Int64Counter
	ProductsViewed      metric.Int64Counter
	CheckoutDispatches  metric.Int64Counter
	CheckoutValue       metric.Float64Counter
	ShopLookupFallbacks metric.Int64Counter
	ImageUploads        metric.Int64Counter
	ActiveOffers        metric.Int64Gauge

	serviceName string
	dbSystem    string
}

// Shutdowner is satisfied by *sdkmetric.MeterProvider
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

type noopShutdown struct{}

func (noopShutdown) Shutdown(context.Context) error { return nil }

// InitMetrics initializes OpenTelemetry metrics with an OTLP HTTP exporter.
// When metrics are disabled it returns instruments backed by a no-op meter.
func InitMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*AppMetrics, metric.MeterProvider, Shutdowner, error) {
	if !cfg.MetricsEnabled {
		logger.Info("metrics disabled, using no-op meter")
		mp := noop.NewMeterProvider()
		m, err := NewAppMetrics(mp.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
		return m, mp, noopShutdown{}, err
	}

	// Explicit attributes take precedence over OTEL_RESOURCE_ATTRIBUTES
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}
	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without scheme; TLS is decided by OTEL_EXPORTER_OTLP_INSECURE
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	headers := parseHeaders(cfg.OTELExporterOTLPHeaders)
	if len(headers) > 0 {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(headers))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	logger.Info("metrics exporter configured",
		zap.String("endpoint", cfg.OTELExporterOTLPEndpoint),
		zap.String("path", "/v1/metrics"),
		zap.Bool("insecure", cfg.OTELExporterOTLPInsecure),
		zap.Int("headers", len(headers)),
		zap.String("service", cfg.OTELServiceName),
	)

	m, err := NewAppMetrics(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		return nil, nil, nil, err
	}
	return m, meterProvider, meterProvider, nil
}

// NewAppMetrics creates every instrument from the given meter
func NewAppMetrics(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// Histogram buckets in milliseconds, up to 60s
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000, 20000, 30000, 45000, 60000}

	m := &AppMetrics{serviceName: serviceName, dbSystem: "mysql"}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.server.request.error.count",
		metric.WithDescription("Total number of HTTP error requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.DBQueriesTotal, err = meter.Int64Counter(
		"db.client.queries.count",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create db queries counter: %w", err)
	}

	if m.DBQueryDuration, err = meter.Float64Histogram(
		"db.client.queries.duration",
		metric.WithDescription("Database query duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create db duration histogram: %w", err)
	}

	if m.ShopsCreated, err = meter.Int64Counter(
		"shops_created_total",
		metric.WithDescription("Total number of shops created"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create shops counter: %w", err)
	}

	if m.ShopsModerated, err = meter.Int64Counter(
		"shops_moderated_total",
		metric.WithDescription("Shop approvals, revocations and verifications"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create moderation counter: %w", err)
	}

	if m.ProductsViewed, err = meter.Int64Counter(
		"products_viewed_total",
		metric.WithDescription("Total number of product views"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create products viewed counter: %w", err)
	}

	if m.CheckoutDispatches, err = meter.Int64Counter(
		"checkout_dispatches_total",
		metric.WithDescription("Per-shop order messages handed off to the messaging channel"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create checkout counter: %w", err)
	}

	if m.CheckoutValue, err = meter.Float64Counter(
		"checkout_value_total",
		metric.WithDescription("Sum of dispatched order subtotals"),
		metric.WithUnit("INR"),
	); err != nil {
		return nil, fmt.Errorf("failed to create checkout value counter: %w", err)
	}

	if m.ShopLookupFallbacks, err = meter.Int64Counter(
		"shop_lookup_fallbacks_total",
		metric.WithDescription("Checkout groups sent to the fallback contact"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}

	if m.ImageUploads, err = meter.Int64Counter(
		"image_uploads_total",
		metric.WithDescription("Image uploads by outcome"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create uploads counter: %w", err)
	}

	if m.ActiveOffers, err = meter.Int64Gauge(
		"active_offers",
		metric.WithDescription("Number of active offers in the news ticker"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active offers gauge: %w", err)
	}

	return m, nil
}

// NewNoop returns metrics backed by a no-op meter, for tests and tools
func NewNoop() *AppMetrics {
	m, err := NewAppMetrics(noop.NewMeterProvider().Meter("noop"), "noop")
	if err != nil {
		panic(err)
	}
	return m
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// Add increments a counter with service-scoped attributes
func (m *AppMetrics) Add(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
}

// RecordDBQuery records database query metrics including the SQL statement
func (m *AppMetrics) RecordDBQuery(ctx context.Context, operation, table, statement string, start time.Time, success bool) {
	duration := time.Since(start).Milliseconds()

	status := "success"
	if !success {
		status = "error"
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", table),
		attribute.String("db.statement", statement),
		attribute.String("db.system", m.dbSystem),
		attribute.String("status", status),
	}

	m.DBQueriesTotal.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
	m.DBQueryDuration.Record(ctx, float64(duration), metric.WithAttributes(m.WithServiceName(attrs)...))
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	for _, pair := range strings.Split(headerStr, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
