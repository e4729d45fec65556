package router

import (
	"net/http"

	"lobomat-api/internal/handler"
	"lobomat-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	ShopHandler     *handler.ShopHandler
	PaymentHandler  *handler.PaymentHandler
	GiftHandler     *handler.GiftHandler
	ProviderHandler *handler.ProviderHandler
	AdminHandler    *handler.AdminHandler
	AdminMiddleware func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Unified status endpoint for external monitoring
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.ShopHandler != nil {
			r.Get("/shop", cfg.ShopHandler.GetShop)
		}

		if cfg.PaymentHandler != nil {
			r.Route("/payment", func(r chi.Router) {
				r.Post("/orders", cfg.PaymentHandler.CreateOrder)
				r.Post("/callback", cfg.PaymentHandler.Callback)
			})
			r.Get("/purchase/pending", cfg.PaymentHandler.GetPending)
		}

		if cfg.GiftHandler != nil {
			r.Post("/gifts/fulfill", cfg.GiftHandler.Fulfill)
		}

		if cfg.ProviderHandler != nil {
			r.Route("/providers", func(r chi.Router) {
				r.Get("/status", cfg.ProviderHandler.GetStatus)
				r.Post("/{provider_id}/friend-request", cfg.ProviderHandler.SendFriendRequest)
			})
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				if cfg.AdminMiddleware != nil {
					r.Use(cfg.AdminMiddleware)
				}
				r.Get("/attempts", cfg.AdminHandler.GetAttempts)
				r.Get("/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	return r
}
