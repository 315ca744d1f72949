// Package telemetry exports FocusFlow timer and blocking metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	defaultServiceName = "focusflow"
	serviceVersion     = "1.0.0"
)

// Config controls where metrics are sent.
type Config struct {
	Enabled        bool
	Endpoint       string
	Insecure       bool
	ServiceName    string
	ExportInterval time.Duration
}

// Exporter records session and URL check metrics. It satisfies
// application.Metrics.
type Exporter struct {
	provider        *sdkmetric.MeterProvider
	sessionsStarted metric.Int64Counter
	sessionsEnded   metric.Int64Counter
	sessionDuration metric.Float64Histogram
	urlChecks       metric.Int64Counter
}

// NewExporter creates an exporter that pushes to an OTLP collector over gRPC
// and installs its provider as the global meter provider.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.ExportInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
	}

	exporter, err := NewExporterWithReader(ctx, sdkmetric.NewPeriodicReader(exp, readerOpts...), cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(exporter.provider)
	return exporter, nil
}

// NewExporterWithReader builds an exporter around an arbitrary reader, such
// as a ManualReader in tests.
func NewExporterWithReader(ctx context.Context, reader sdkmetric.Reader, serviceName string) (*Exporter, error) {
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	sessionsStarted, err := meter.Int64Counter(
		"focusflow_sessions_started_total",
		metric.WithDescription("Sessions started by type"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions started counter: %w", err)
	}

	sessionsEnded, err := meter.Int64Counter(
		"focusflow_sessions_ended_total",
		metric.WithDescription("Sessions ended by type and final status"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sessions ended counter: %w", err)
	}

	sessionDuration, err := meter.Float64Histogram(
		"focusflow_session_duration_seconds",
		metric.WithDescription("Actual duration of ended sessions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session duration histogram: %w", err)
	}

	urlChecks, err := meter.Int64Counter(
		"focusflow_url_checks_total",
		metric.WithDescription("URL checks against the blocklist"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating url checks counter: %w", err)
	}

	return &Exporter{
		provider:        provider,
		sessionsStarted: sessionsStarted,
		sessionsEnded:   sessionsEnded,
		sessionDuration: sessionDuration,
		urlChecks:       urlChecks,
	}, nil
}

// SessionStarted counts a started timer.
func (e *Exporter) SessionStarted(ctx context.Context, sessionType string) {
	e.sessionsStarted.Add(ctx, 1, metric.WithAttributes(attribute.String("session_type", sessionType)))
}

// SessionEnded counts an ended timer and records how long it ran.
func (e *Exporter) SessionEnded(ctx context.Context, sessionType, status string, actualSeconds int) {
	opt := metric.WithAttributes(
		attribute.String("session_type", sessionType),
		attribute.String("status", status),
	)
	e.sessionsEnded.Add(ctx, 1, opt)
	e.sessionDuration.Record(ctx, float64(actualSeconds), opt)
}

// URLChecked counts a blocklist check.
func (e *Exporter) URLChecked(ctx context.Context, blocked bool) {
	e.urlChecks.Add(ctx, 1, metric.WithAttributes(attribute.Bool("blocked", blocked)))
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
