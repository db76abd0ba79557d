// internal/common/observability/observability.go
package observability

import (
	"context"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"recruitment-workers/internal/common/logger"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
}

type options struct {
	registerer     promclient.Registerer
	spanProcessors []sdktrace.SpanProcessor
	sampler        sdktrace.Sampler
	logger         logger.Logger
}

type Option func(*options)

// WithRegisterer sends OTel metrics to reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSpanProcessor attaches a span processor such as an exporter or a
// tracetest recorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithExporter batches finished spans to exp.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exp))
}

// WithSampleRatio keeps the given fraction of root traces; child spans follow
// their parent's decision.
func WithSampleRatio(ratio float64) Option {
	return func(o *options) {
		o.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

// NewOTLPExporter sends spans to an OTLP/HTTP collector at endpoint (host:port).
func NewOTLPExporter(ctx context.Context, endpoint string, insecure bool) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

func New(serviceName string, opts ...Option) *Observability {
	o := options{logger: logger.NewNoOpLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if o.sampler != nil {
		tpOpts = append(tpOpts, sdktrace.WithSampler(o.sampler))
	}
	for _, sp := range o.spanProcessors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tracerProvider)

	obs := &Observability{
		tracerProvider: tracerProvider,
		tracer:         tracerProvider.Tracer(serviceName),
	}

	var exporterOpts []otelprom.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, otelprom.WithRegisterer(o.registerer))
	}
	exporter, err := otelprom.New(exporterOpts...)
	if err != nil {
		o.logger.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err})
		return obs
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	obs.meterProvider = provider
	obs.meter = meter
	obs.jobCounter = jobCounter
	obs.jobDuration = jobDuration
	return obs
}

// StartSpan opens a span named after the job or operation.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := o.tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// TrackJob starts a job span and returns a func that ends it and records the
// counter and duration. Pass a nil error for success.
func (o *Observability) TrackJob(ctx context.Context, taskType string, jobKey int64) (context.Context, func(err error)) {
	start := time.Now()
	ctx, span := o.StartSpan(ctx, taskType,
		attribute.String("job.type", taskType),
		attribute.Int64("job.key", jobKey),
	)
	return ctx, func(err error) {
		status := "completed"
		if err != nil {
			status = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		o.RecordJobProcessed(ctx, taskType, status)
		o.RecordJobDuration(ctx, taskType, time.Since(start), status)
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("task_type", taskType),
			attribute.String("status", status),
		))
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
