package util

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ServiceName identifies this service in logs and traces
const ServiceName = "qrtag-service"

var tracer trace.Tracer

// InitTracer initializes OpenTelemetry tracing with Jaeger. Root spans are kept
// with probability sampleRatio; an empty endpoint keeps spans in process only.
func InitTracer(serviceName, jaegerEndpoint string, sampleRatio float64) (*sdktrace.TracerProvider, error) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(Sampler(sampleRatio))}

	if jaegerEndpoint != "" {
		exporter, err := jaeger.New(
			jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(append(opts, sdktrace.WithResource(res))...)

	otel.SetTracerProvider(tp)
	tracer = tp.Tracer(serviceName)

	GetLogger().Info("Tracer initialized",
		zap.String("service", serviceName),
		zap.String("endpoint", jaegerEndpoint),
		zap.Float64("sample_ratio", sampleRatio))
	return tp, nil
}

// Sampler follows the parent's decision and samples new traces at ratio.
// A ratio of 1 or more samples everything, 0 or less nothing.
func Sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// GetTracer returns the global tracer
func GetTracer() trace.Tracer {
	if tracer == nil {
		tracer = otel.Tracer(ServiceName)
	}
	return tracer
}

// StartSpan starts a new span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, spanName)
}
