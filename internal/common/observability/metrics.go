package observability

import (
	"context"
	"time"

	"synctask-notifications/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability holds the OpenTelemetry meter and tracer providers. Metrics are
// exported through the default Prometheus registry; spans are kept in-process
// and only their ids are surfaced in logs.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	callCounter    otelmetric.Int64Counter
	callDuration   otelmetric.Float64Histogram
}

func New(serviceName string, log logger.Logger) *Observability {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)

	o := &Observability{
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
	}

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	o.meterProvider = provider
	o.callCounter, _ = meter.Int64Counter(
		"callable.requests",
		otelmetric.WithDescription("Number of callable requests by function and status"),
	)
	o.callDuration, _ = meter.Float64Histogram(
		"callable.duration",
		otelmetric.WithDescription("Callable request duration"),
		otelmetric.WithUnit("ms"),
	)

	return o
}

// NewNoop returns an instance with a tracer and no metric export, for tests.
func NewNoop() *Observability {
	tp := sdktrace.NewTracerProvider()
	return &Observability{tracerProvider: tp, tracer: tp.Tracer("test")}
}

// StartSpan starts a span for one handler invocation and returns a logger
// carrying its trace id. A nil receiver yields a non-recording span.
func (o *Observability) StartSpan(ctx context.Context, name string, log logger.Logger) (context.Context, trace.Span, logger.Logger) {
	if o == nil {
		return ctx, trace.SpanFromContext(ctx), log
	}
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, span, log.WithFields(map[string]interface{}{
		"traceId": span.SpanContext().TraceID().String(),
	})
}

func (o *Observability) RecordCall(ctx context.Context, function, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("function", function),
		attribute.String("status", status),
	)
	if o.callCounter != nil {
		o.callCounter.Add(ctx, 1, attrs)
	}
	if o.callDuration != nil {
		o.callDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
}
