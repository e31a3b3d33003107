package handler

import (
	"net/http"
	"time"

	"optionsync/internal/container"
	"optionsync/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter configures the payment return server
func NewRouter(c *container.Container) *chi.Mux {
	log := c.GetLogger()

	r := chi.NewRouter()

	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))
	r.Use(middleware.OptionalViewer(c.GetConfig().JWTSecret, log))

	healthHandler := NewHealthHandler(c)
	paymentHandler := NewPaymentHandler(c)

	r.Get("/health", healthHandler.Check)
	r.Get("/payment/return", paymentHandler.Return)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
