package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTel turns each event into its own span in any OpenTelemetry-compatible
// backend. Every span is started from context.Background, so the spans of
// one run are not linked under a common parent.
type OTel struct {
	tracer trace.Tracer
}

func NewOTel(tracer trace.Tracer) *OTel {
	return &OTel{tracer: tracer}
}

func (o *OTel) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", event.RunID),
		attribute.String("stage", event.Stage),
	)
	for k, v := range event.Meta {
		if errv, ok := v.(error); ok {
			span.SetStatus(codes.Error, errv.Error())
			continue
		}
		span.SetAttributes(attribute.String(k, toString(v)))
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}
