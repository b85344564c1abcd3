package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentweave/core"
)

// OTelConfig controls tracer provider initialization.
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	// UseStdout enables the stdout trace exporter (suitable for local dev/tests).
	UseStdout bool
}

// InitTracing configures a global tracer provider and returns a shutdown func.
func InitTracing(ctx context.Context, cfg OTelConfig) (func(context.Context) error, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentweave"
	}

	res, err := sdkresource.New(ctx,
		sdkresource.WithFromEnv(),
		sdkresource.WithProcess(),
		sdkresource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	if cfg.UseStdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp,
				sdktrace.WithMaxExportBatchSize(512),
				sdktrace.WithBatchTimeout(200*time.Millisecond),
			),
			sdktrace.WithResource(res),
		)
	} else {
		tp = sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// OTelSink emits one span per StepRecord. Spans are created retroactively
// with the record's start/finish timestamps so the exported trace mirrors the
// ExecutionTrace exactly.
type OTelSink struct {
	tracer trace.Tracer
}

// NewOTelSink creates a sink using the given tracer, or the globally
// registered provider when tracer is nil.
func NewOTelSink(tracer trace.Tracer) *OTelSink {
	if tracer == nil {
		tracer = otel.Tracer("agentweave/telemetry")
	}
	return &OTelSink{tracer: tracer}
}

// Record implements Sink.
func (s *OTelSink) Record(step core.StepRecord) {
	attrs := []attribute.KeyValue{
		attribute.String("agentweave.agent_id", step.AgentID),
		attribute.String("agentweave.phase", string(step.Phase)),
		attribute.String("agentweave.status", string(step.Status)),
		attribute.String("agentweave.run_id", step.RunID),
	}

	_, span := s.tracer.Start(context.Background(), spanName(step),
		trace.WithTimestamp(step.StartedAt),
		trace.WithAttributes(attrs...),
	)

	if step.Status == core.StepError {
		span.SetAttributes(attribute.String("agentweave.error_detail", step.ErrorDetail))
	}

	span.End(trace.WithTimestamp(step.FinishedAt))
}

func spanName(step core.StepRecord) string {
	if step.Phase == core.PhaseInvoke {
		return "agent.invoke " + step.AgentID
	}
	return "orchestration." + string(step.Phase)
}
