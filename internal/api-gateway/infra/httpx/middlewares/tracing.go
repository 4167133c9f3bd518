package middlewares

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AttachTracingMetadata copies the chi request id and the client's
// idempotency key into the request context, echoes the request id back and
// tags the active span with both.
func AttachTracingMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		idempotencyKey := r.Header.Get(HeaderXIdempotencyKey)

		ctx := context.WithValue(r.Context(), ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, ContextKeyIdempotencyKey, idempotencyKey)

		span := trace.SpanFromContext(ctx)
		span.SetAttributes(attribute.String("http.request_id", requestID))
		if idempotencyKey != "" {
			span.SetAttributes(attribute.String("http.idempotency_key", idempotencyKey))
		}

		if requestID != "" {
			w.Header().Set(HeaderXRequestId, requestID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
