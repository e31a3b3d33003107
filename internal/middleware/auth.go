package middleware

import (
	"context"
	"net/http"

	"optionsync/internal/domain"
	"optionsync/pkg/auth"
	"optionsync/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ViewerContextKey is the key for the viewer in context
	ViewerContextKey ContextKey = "viewer"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// OptionalViewer derives the viewer from the Authorization header. Requests
// without a valid token continue as the anonymous viewer. Tokens are only
// trusted when they can be verified, so without a secret every request is
// anonymous and handlers keep the viewer their session was opened with.
func OptionalViewer(jwtSecret string, logger *logger.Logger) func(http.Handler) http.Handler {
	if jwtSecret == "" {
		logger.Warn("JWT secret not configured, ignoring request access tokens")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := domain.Anonymous
			if header := r.Header.Get("Authorization"); header != "" && jwtSecret != "" {
				viewer = auth.ViewerFromToken(header, jwtSecret)
				if !viewer.Authenticated {
					logger.Debug("Ignoring invalid access token")
				}
			}

			ctx := context.WithValue(r.Context(), ViewerContextKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ViewerFromContext returns the viewer set by OptionalViewer
func ViewerFromContext(ctx context.Context) domain.Viewer {
	if viewer, ok := ctx.Value(ViewerContextKey).(domain.Viewer); ok {
		return viewer
	}
	return domain.Anonymous
}

// RequestID creates a middleware that adds a unique request ID to each request
func RequestID(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			logger.WithFields(map[string]interface{}{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			}).Debug("Request received")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFromContext returns the request ID set by RequestID
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}
