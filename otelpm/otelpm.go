// Package otelpm bridges pm phases into OpenTelemetry traces. A traced
// phase is bracketed by a span; when the phase stops, its flattened
// metrics are attached to the span as attributes before the span ends.
package otelpm

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pdinklag/pm"
)

// TracedPhase couples a measurement phase with the span covering it.
type TracedPhase struct {
	phase pm.MeasurementPhase
	span  trace.Span
}

// StartPhase starts the given phase and opens a span of the same name.
// The returned context carries the span; pass it to child operations so
// nested traced phases become child spans.
func StartPhase(ctx context.Context, tracer trace.Tracer, phase pm.MeasurementPhase) (context.Context, *TracedPhase) {
	ctx, span := tracer.Start(ctx, phase.Name())
	phase.Start()
	return ctx, &TracedPhase{phase: phase, span: span}
}

// Phase returns the wrapped phase.
func (t *TracedPhase) Phase() pm.MeasurementPhase { return t.phase }

// Stop stops the phase, attaches its metrics to the span and ends the
// span. The phase report is returned for further use.
func (t *TracedPhase) Stop() pm.Report {
	t.phase.Stop()
	rep := t.phase.Report()
	t.span.SetAttributes(ReportAttributes(rep)...)
	t.span.End()
	return rep
}

// ReportAttributes flattens a report's metrics into span attributes with
// dotted keys under the "pm." namespace. Auxiliary data values are
// included as strings; children are skipped, they get spans of their own.
func ReportAttributes(rep pm.Report) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	for key, value := range rep.Metrics {
		attrs = appendAttr(attrs, "pm.metrics."+key, value)
	}
	for key, value := range rep.Data {
		attrs = appendAttr(attrs, "pm.data."+key, value)
	}
	return attrs
}

func appendAttr(attrs []attribute.KeyValue, key string, value any) []attribute.KeyValue {
	switch t := value.(type) {
	case bool:
		return append(attrs, attribute.Bool(key, t))
	case string:
		return append(attrs, attribute.String(key, t))
	case int:
		return append(attrs, attribute.Int(key, t))
	case int64:
		return append(attrs, attribute.Int64(key, t))
	case uint64:
		return append(attrs, attribute.Int64(key, int64(t)))
	case float64:
		return append(attrs, attribute.Float64(key, t))
	case pm.MemoryMetrics:
		return append(attrs,
			attribute.Int64(key+".peak", int64(t.Peak)),
			attribute.Int64(key+".closing", t.Closing),
			attribute.Int64(key+".alloc_num", int64(t.AllocNum)),
			attribute.Int64(key+".alloc_bytes", int64(t.AllocBytes)),
			attribute.Int64(key+".free_num", int64(t.FreeNum)),
			attribute.Int64(key+".free_bytes", int64(t.FreeBytes)),
		)
	case pm.RusageMetrics:
		return append(attrs,
			attribute.Float64(key+".user_time", t.UserTime),
			attribute.Float64(key+".system_time", t.SystemTime),
			attribute.Int64(key+".max_rss", t.MaxRSS),
		)
	default:
		return attrs
	}
}
