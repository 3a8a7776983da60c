package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/saudievents/server/internal/api/handlers"
	"github.com/saudievents/server/internal/api/middleware"
	"github.com/saudievents/server/internal/auth"
	"github.com/saudievents/server/internal/blob"
	"github.com/saudievents/server/internal/config"
	"github.com/saudievents/server/internal/domain/accounts"
	"github.com/saudievents/server/internal/domain/events"
	"github.com/saudievents/server/internal/email"
	"github.com/saudievents/server/internal/metrics"
	"github.com/saudievents/server/internal/store"
)

// NewRouter wires services, handlers, and the middleware chain.
func NewRouter(cfg config.Config, logger zerolog.Logger, st *store.Store, blobs *blob.DiskStore, mailer *email.Service, version string) http.Handler {
	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)

	accountsService := accounts.NewService(st, tokens, mailer, accounts.LockoutPolicy{
		Threshold: cfg.Lockout.Threshold,
		Duration:  cfg.Lockout.Duration,
	}, logger)
	eventsService := events.NewService(st, logger)

	authHandler := handlers.NewAuthHandler(accountsService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, blobs, cfg.Environment)
	healthHandler := handlers.NewHealthHandler(st, version)

	requireAuth := middleware.RequireAuth(tokens, cfg.Environment)
	optionalAuth := middleware.OptionalAuth(tokens)
	rateLimit := middleware.RateLimit(cfg.RateLimit)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	jsonBody := middleware.RequestSize(middleware.DefaultMaxBodySize)
	uploadBody := middleware.RequestSize(middleware.UploadMaxBodySize)

	mux := http.NewServeMux()

	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(blobs.Dir()))))

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: rateLimit(jsonBody(http.HandlerFunc(authHandler.Register))),
	}))
	// The tier wrapper sits outside the limiter so the aggressive login
	// bucket is the one consulted.
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(rateLimit(jsonBody(http.HandlerFunc(authHandler.Login)))),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  rateLimit(optionalAuth(http.HandlerFunc(eventsHandler.List))),
		http.MethodPost: rateLimit(requireAuth(uploadBody(http.HandlerFunc(eventsHandler.Create)))),
	}))
	mux.Handle("/api/v1/events/saved", methodMux(map[string]http.Handler{
		http.MethodGet: rateLimit(http.HandlerFunc(eventsHandler.Saved)),
	}))
	mux.Handle("/api/v1/events/liked", methodMux(map[string]http.Handler{
		http.MethodGet: rateLimit(http.HandlerFunc(eventsHandler.Liked)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    rateLimit(http.HandlerFunc(eventsHandler.Get)),
		http.MethodPut:    rateLimit(requireAuth(uploadBody(http.HandlerFunc(eventsHandler.Update)))),
		http.MethodDelete: rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Delete))),
	}))
	mux.Handle("/api/v1/events/{id}/like", methodMux(map[string]http.Handler{
		http.MethodPost: rateLimit(jsonBody(http.HandlerFunc(eventsHandler.Like))),
	}))
	mux.Handle("/api/v1/events/{id}/unlike", methodMux(map[string]http.Handler{
		http.MethodPost: rateLimit(jsonBody(http.HandlerFunc(eventsHandler.Unlike))),
	}))
	mux.Handle("/api/v1/events/{id}/save", methodMux(map[string]http.Handler{
		http.MethodPost: rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Save))),
	}))
	mux.Handle("/api/v1/events/{id}/unsave", methodMux(map[string]http.Handler{
		http.MethodDelete: rateLimit(requireAuth(http.HandlerFunc(eventsHandler.Unsave))),
	}))

	var handler http.Handler = mux
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
