package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of spans emitted by TracingHooks.
const TracerName = "portalcore"

// TracingHooks records completed pipeline, cache and HTTP events as
// OpenTelemetry spans. Start events are ignored; each completion becomes
// a span backdated by its duration. Cache events become span events on
// the span found in the context.
type TracingHooks struct {
	tracer trace.Tracer
}

// NewTracingHooks returns hooks emitting spans through tp, or through the
// global provider when tp is nil.
func NewTracingHooks(tp trace.TracerProvider) *TracingHooks {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingHooks{tracer: tp.Tracer(TracerName)}
}

func (h *TracingHooks) record(ctx context.Context, name string, duration time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := h.tracer.Start(ctx, name,
		trace.WithTimestamp(end.Add(-duration)),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End(trace.WithTimestamp(end))
}

func (h *TracingHooks) OnBuildStart(context.Context, int) {}

func (h *TracingHooks) OnBuildComplete(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error) {
	h.record(ctx, "graph.build", duration, err,
		attribute.Int("graph.nodes", nodeCount),
		attribute.Int("graph.edges", edgeCount),
	)
}

func (h *TracingHooks) OnLayoutStart(context.Context, string, int) {}

func (h *TracingHooks) OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error) {
	h.record(ctx, "graph.layout", duration, err, attribute.String("layout.engine", engine))
}

func (h *TracingHooks) OnCompile(ctx context.Context, filterCount int, duration time.Duration, err error) {
	h.record(ctx, "filter.compile", duration, err, attribute.Int("filter.entries", filterCount))
}

func (h *TracingHooks) OnCacheHit(ctx context.Context, keyType string) {
	trace.SpanFromContext(ctx).AddEvent("cache.hit", trace.WithAttributes(attribute.String("cache.key_type", keyType)))
}

func (h *TracingHooks) OnCacheMiss(ctx context.Context, keyType string) {
	trace.SpanFromContext(ctx).AddEvent("cache.miss", trace.WithAttributes(attribute.String("cache.key_type", keyType)))
}

func (h *TracingHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	trace.SpanFromContext(ctx).AddEvent("cache.set", trace.WithAttributes(
		attribute.String("cache.key_type", keyType),
		attribute.Int("cache.size", size),
	))
}

func (h *TracingHooks) OnRequest(context.Context, string, string) {}

func (h *TracingHooks) OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	h.record(ctx, "http "+method+" "+path, duration, nil,
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
}

func (h *TracingHooks) OnError(ctx context.Context, method, path string, err error) {
	trace.SpanFromContext(ctx).RecordError(err, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
	))
}

var (
	_ PipelineHooks = (*TracingHooks)(nil)
	_ CacheHooks    = (*TracingHooks)(nil)
	_ HTTPHooks     = (*TracingHooks)(nil)
)
