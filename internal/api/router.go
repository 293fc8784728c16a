package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/campus-events/server/internal/api/handlers"
	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/config"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/registrations"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/campus-events/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// Deps carries the constructed services and infrastructure the router
// wires together. The serve command builds these once at startup.
type Deps struct {
	Config        config.Config
	Logger        zerolog.Logger
	Pool          *pgxpool.Pool
	RiverClient   *river.Client[pgx.Tx]
	JWT           *auth.JWTManager
	Users         *users.Service
	Events        *events.Service
	Registrations *registrations.Service
	Version       string
	GitCommit     string
}

// NewRouter assembles the HTTP surface: public catalog reads, token
// protected registration endpoints, admin-only event mutations, and the
// operational endpoints.
func NewRouter(deps Deps) http.Handler {
	env := deps.Config.Environment

	authHandler := handlers.NewAuthHandler(deps.Users, env)
	usersHandler := handlers.NewUsersHandler(deps.Users, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	registrationsHandler := handlers.NewRegistrationsHandler(deps.Registrations, env)
	healthChecker := handlers.NewHealthChecker(deps.Pool, deps.RiverClient, deps.Version, deps.GitCommit)

	authenticate := middleware.Authenticate(deps.JWT, env)
	requireAdmin := middleware.RequireAdmin(env)
	studentTier := middleware.WithRateLimitTierHandler(middleware.TierStudent)
	adminTier := middleware.WithRateLimitTierHandler(middleware.TierAdmin)
	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	publicBody := middleware.PublicRequestSize()
	adminBody := middleware.AdminRequestSize()

	// One limiter store shared by every route; the tier must be stamped
	// before the limiter runs, so it sits innermost. Body limits are
	// per-route so admin writes get the larger cap.
	rateLimit := middleware.RateLimit(deps.Config.RateLimit)

	public := func(h http.HandlerFunc) http.Handler {
		return publicBody(rateLimit(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return authenticate(studentTier(publicBody(rateLimit(h))))
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authenticate(requireAdmin(adminTier(adminBody(rateLimit(h)))))
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.Pool))
	mux.Handle("/api/health", healthChecker.Health())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/auth/signup", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(publicBody(rateLimit(http.HandlerFunc(authHandler.Signup)))),
	}))
	mux.Handle("/api/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: loginTier(publicBody(rateLimit(http.HandlerFunc(authHandler.Login)))),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: adminOnly(eventsHandler.Create),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    adminOnly(eventsHandler.Update),
		http.MethodDelete: adminOnly(eventsHandler.Delete),
	}))

	mux.Handle("/api/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: authed(registrationsHandler.Register),
	}))
	mux.Handle("/api/events/{id}/unregister", methodMux(map[string]http.Handler{
		http.MethodPost: authed(registrationsHandler.Unregister),
	}))
	mux.Handle("/api/events/{id}/registrations", methodMux(map[string]http.Handler{
		http.MethodGet: authenticate(requireAdmin(adminTier(rateLimit(http.HandlerFunc(registrationsHandler.EventRegistrations))))),
	}))

	mux.Handle("/api/users/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(usersHandler.Me),
	}))
	mux.Handle("/api/users/me/registrations", methodMux(map[string]http.Handler{
		http.MethodGet: authed(registrationsHandler.MyRegistrations),
	}))
	mux.Handle("/api/users/{id}/registrations", methodMux(map[string]http.Handler{
		http.MethodGet: authed(registrationsHandler.UserRegistrations),
	}))

	// Outermost first: security headers wrap everything.
	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(deps.Logger)(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)
	handler = middleware.CORS(deps.Config.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
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
