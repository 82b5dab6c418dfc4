package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanLoad      = "app.load"
	SpanIngest    = "app.ingest"
	SpanEmit      = "app.emit"
	SpanStoreSave = "store.save"
	SpanStoreLoad = "store.load"
)

// Span attribute keys.
const (
	AttrDocRoot       = "implbridge.doc_root"
	AttrTrait         = "implbridge.trait"
	AttrPath          = "implbridge.path"
	AttrCrates        = "implbridge.crates"
	AttrImplementors  = "implbridge.implementors"
	AttrPages         = "implbridge.pages"
	AttrAttach        = "implbridge.attach"
	AttrPendingPolicy = "implbridge.pending_policy"
	AttrSubmissionID  = "implbridge.submission_id"

	AttrErrorMessage = "error.message"
)

// Event names.
const (
	EventConsumerAttached = "consumer.attached"
	EventFragmentSkipped  = "fragment.skipped"
)

// Start opens a span with attrs.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
