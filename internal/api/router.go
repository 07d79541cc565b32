package api

import (
	"net/http"

	"github.com/avelsk/tutor-gateway/internal/api/handler"
	customMiddleware "github.com/avelsk/tutor-gateway/internal/api/middleware"
	"github.com/avelsk/tutor-gateway/internal/backend"
	"github.com/avelsk/tutor-gateway/internal/config"
	"github.com/avelsk/tutor-gateway/internal/repository/redis"
	"github.com/avelsk/tutor-gateway/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router. redisClient may be
// nil, in which case the session cache and rate limiter are disabled.
func NewRouter(cfg *config.Config, backendClient *backend.Client, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Id"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	var sessionCache *redis.SessionCache
	var rateLimitMiddleware *customMiddleware.RateLimitMiddleware
	if redisClient != nil {
		sessionCache = redis.NewSessionCache(redisClient)
		rateLimiter := redis.NewRateLimiter(
			redisClient,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		)
		rateLimitMiddleware = customMiddleware.NewRateLimitMiddleware(rateLimiter)
	}
	sessionService := service.NewSessionService(backendClient, sessionCache)

	// Initialize handlers
	chatHandler := handler.NewChatHandler(backendClient, sessionService)
	sessionHandler := handler.NewSessionHandler(sessionService)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Authenticate)
			if rateLimitMiddleware != nil {
				r.Use(rateLimitMiddleware.Limit)
			}

			// Chat stream. No timeout middleware here: the response
			// lives as long as the backend stream.
			r.Post("/chat", chatHandler.Stream)

			// Session management
			r.Route("/chat/sessions", func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

				r.Get("/", sessionHandler.List)
				r.Post("/", sessionHandler.Create)

				r.Route("/{sessionID}", func(r chi.Router) {
					r.Get("/", sessionHandler.Get)
					r.Patch("/", sessionHandler.Update)
					r.Delete("/", sessionHandler.Delete)
				})
			})
		})
	})

	return r
}
