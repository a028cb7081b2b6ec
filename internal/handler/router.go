package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/capitalize-ai/sales-coach/internal/auth"
	"github.com/capitalize-ai/sales-coach/internal/middleware"
	"github.com/capitalize-ai/sales-coach/internal/ratelimit"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

// Limits are the request budgets enforced by the router.
type Limits struct {
	APIRequests    int
	APIWindow      time.Duration
	LoginRequests  int
	LoginWindow    time.Duration
	RegisterLimit  int
	RegisterWindow time.Duration
	RequestTimeout time.Duration
}

// Router wires handlers to routes.
type Router struct {
	Logger         *logger.Logger
	Sessions       *auth.Sessions
	Counter        ratelimit.Counter
	AllowedOrigins []string
	Limits         Limits

	// TrustProxy takes the client address from forwarding headers. Rate
	// limits key on that address, so leave it off unless a proxy sets them.
	TrustProxy bool

	Health        *HealthHandler
	Auth          *AuthHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
}

// Handler builds the HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	if rt.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.Logging(rt.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.AllowedOrigins))

	r.Get("/health", rt.Health.Health)
	r.Get("/ready", rt.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(
			middleware.Throttle(rt.Counter, rt.Limits.RegisterLimit, rt.Limits.RegisterWindow, "register", rt.Logger),
			middleware.RequireJSON,
		).Post("/register", rt.Auth.Register)
		r.With(
			middleware.Throttle(rt.Counter, rt.Limits.LoginRequests, rt.Limits.LoginWindow, "login", rt.Logger),
			middleware.RequireJSON,
		).Post("/login", rt.Auth.Login)
		r.Post("/logout", rt.Auth.Logout)
		r.Get("/google", rt.Auth.GoogleLogin)
		r.Get("/google/callback", rt.Auth.GoogleCallback)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(rt.Sessions))
		r.Use(middleware.RateLimit(rt.Limits.APIRequests, rt.Limits.APIWindow))
		r.Use(middleware.RequireJSON)
		if rt.Limits.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(rt.Limits.RequestTimeout))
		}

		r.Get("/me", rt.Auth.Me)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", rt.Conversations.Create)
			r.Get("/", rt.Conversations.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Use(middleware.ValidateID(func(r *http.Request) string { return chi.URLParam(r, "id") }))

				r.Get("/", rt.Conversations.Get)
				r.Delete("/", rt.Conversations.Delete)
				r.Post("/messages", rt.Messages.Send)
				r.Post("/feedback", rt.Messages.Feedback)
			})
		})
	})

	return r
}
