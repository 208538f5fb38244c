package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/telubhanuprasad/firestore-item-showcase/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// trace_id and span_id and stores it in the context. Mount it after
// RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ItemScope tags the request with the item id taken from the chi URL
// parameter param, so every log line below it carries item_id. It must be
// mounted on a route whose pattern declares param.
func ItemScope(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			itemID := chi.URLParam(r, param)
			if itemID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := logger.WithItemID(r.Context(), itemID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("item_id", itemID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
