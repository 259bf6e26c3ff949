package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/danmuck/pepys"

// GroupSpan traces the dispatch of one message group. It uses the global
// tracer provider, which is a no-op until the host installs one.
type GroupSpan struct {
	span trace.Span
}

func StartGroupSpan(ctx context.Context, conn uint64, remote string, inBytes int) (context.Context, GroupSpan) {
	ctx, span := otel.Tracer(tracerName).Start(
		ctx,
		"pepys.group",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int64("pepys.conn", int64(conn)),
			attribute.String("pepys.remote", remote),
			attribute.Int("pepys.in_bytes", inBytes),
		),
	)
	return ctx, GroupSpan{span: span}
}

// End records the outcome of the group and closes the span.
func (g GroupSpan) End(decoded, answered int, stop string, outBytes int, err error) {
	g.span.SetAttributes(
		attribute.Int("pepys.decoded", decoded),
		attribute.Int("pepys.answered", answered),
		attribute.String("pepys.stop", stop),
		attribute.Int("pepys.out_bytes", outBytes),
	)
	if err != nil {
		g.span.RecordError(err)
		g.span.SetStatus(codes.Error, err.Error())
	} else {
		g.span.SetStatus(codes.Ok, "")
	}
	g.span.End()
}
