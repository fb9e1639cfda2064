package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sitetree"

// StartResolveSpan starts a span for an inbound tenant resolution.
func StartResolveSpan(ctx context.Context, groupID int64, requestPath string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "resolve",
		trace.WithAttributes(
			attribute.Int64("group.id", groupID),
			attribute.String("request.path", requestPath),
		),
	)
}

// StartUpsertSpan starts a span for a registry mapping write.
func StartUpsertSpan(ctx context.Context, groupID, siteID int64, path string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "upsert",
		trace.WithAttributes(
			attribute.Int64("group.id", groupID),
			attribute.Int64("site.id", siteID),
			attribute.String("mapping.path", path),
		),
	)
}
