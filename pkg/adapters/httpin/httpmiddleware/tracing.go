package httpmiddleware

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

var SkippedRoutes = []string{"/metrics", "/healthy", "/ready"}

type tracingMiddleware struct {
	tracer     trace.Tracer
	next       http.Handler
	propagator propagation.TextMapPropagator
}

func NewTracingMiddleware(tracer trace.Tracer) func(next http.Handler) http.Handler {
	tMidd := &tracingMiddleware{
		tracer:     tracer,
		propagator: otel.GetTextMapPropagator(),
	}

	return func(next http.Handler) http.Handler {
		tMidd.next = next
		return tMidd
	}
}

func (tMidd *tracingMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writerWrapper := &responseWriterWrapper{wrapped: w, statusCode: http.StatusOK}

	if skipRoute(r) {
		tMidd.next.ServeHTTP(writerWrapper, r)
		return
	}

	ctx := tMidd.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	spanName := r.Method + " " + r.URL.Path
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}

	attribs := make([]attribute.KeyValue, 0, 8)
	attribs = append(attribs,
		attribute.String("http.method", r.Method),
		attribute.String("http.target", r.URL.RequestURI()),
		attribute.String("http.host", r.Host),
		attribute.String("http.scheme", scheme),
		attribute.String("http.user_agent", r.UserAgent()),
		attribute.String("http.flavor", r.Proto),
	)
	ctx, span := tMidd.tracer.Start(ctx, spanName, trace.WithAttributes(attribs...))
	defer span.End()

	r = r.WithContext(ctx)
	tMidd.next.ServeHTTP(writerWrapper, r)

	// chi fills the route pattern while routing, after this middleware ran.
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		span.SetName(r.Method + " " + rctx.RoutePattern())
		span.SetAttributes(semconv.HTTPRoute(rctx.RoutePattern()))
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(writerWrapper.statusCode))
	if writerWrapper.statusCode >= 100 && writerWrapper.statusCode < 400 {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, http.StatusText(writerWrapper.statusCode))
	}
}

func skipRoute(r *http.Request) bool {
	return slices.Contains(SkippedRoutes, r.URL.Path)
}
