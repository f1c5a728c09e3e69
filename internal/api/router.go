package api

import (
	"context"
	"net/http"

	"github.com/Togather-Foundation/campus/internal/api/handlers"
	"github.com/Togather-Foundation/campus/internal/api/middleware"
	"github.com/Togather-Foundation/campus/internal/auth"
	"github.com/Togather-Foundation/campus/internal/config"
	"github.com/Togather-Foundation/campus/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// UserService serves /users/me and resolves bearer tokens to principals.
type UserService interface {
	handlers.UserService
	middleware.PrincipalResolver
}

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Events        handlers.EventService
	Registrations handlers.RegistrationService
	Users         UserService
	JWT           *auth.JWTManager
	Health        *handlers.HealthChecker
	Build         BuildInfo
}

// NewRouter wires routes and the middleware chain. ctx bounds background work
// such as rate-limiter cleanup.
func NewRouter(ctx context.Context, cfg config.Config, logger zerolog.Logger, deps Deps) http.Handler {
	env := cfg.Environment
	loc := cfg.Location()

	health := deps.Health
	if health == nil {
		health = handlers.NewHealthChecker(nil, deps.Build.Version, deps.Build.GitCommit)
	}
	eventsHandler := handlers.NewEventsHandler(deps.Events, loc, env)
	registrationsHandler := handlers.NewRegistrationsHandler(deps.Registrations, loc, env)
	usersHandler := handlers.NewUsersHandler(deps.Users, loc, env)

	requireAuth := middleware.RequireAuth(env)
	authed := func(fn http.HandlerFunc) http.Handler {
		return requireAuth(fn)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", health.Readyz())
	mux.Handle("GET /health", health.Health())
	mux.Handle("GET /version", VersionHandler(deps.Build))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/v1/openapi.json", OpenAPIHandler())

	mux.HandleFunc("GET /api/v1/events", eventsHandler.List)
	mux.HandleFunc("GET /api/v1/events/{id}", eventsHandler.Get)
	mux.Handle("POST /api/v1/events", authed(eventsHandler.Create))
	mux.Handle("PUT /api/v1/events/{id}", authed(eventsHandler.Update))
	mux.Handle("PATCH /api/v1/events/{id}/status", authed(eventsHandler.SetStatus))
	mux.Handle("PATCH /api/v1/events/{id}/review", authed(eventsHandler.Review))
	mux.Handle("DELETE /api/v1/events/{id}", authed(eventsHandler.Delete))

	mux.Handle("GET /api/v1/registrations", authed(registrationsHandler.List))
	mux.Handle("GET /api/v1/registrations/{id}", authed(registrationsHandler.Get))
	mux.Handle("POST /api/v1/registrations", authed(registrationsHandler.Create))
	mux.Handle("PATCH /api/v1/registrations/{id}/status", authed(registrationsHandler.UpdateStatus))

	mux.Handle("GET /api/v1/users/me", authed(usersHandler.Me))
	mux.Handle("PUT /api/v1/users/me", authed(usersHandler.UpdateMe))

	// Outermost first. Metrics and RouteTag sit directly on the mux so they
	// can read the matched pattern; RateLimit follows auth so signed-in
	// callers are keyed by user id.
	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RouteTag(handler)
	handler = middleware.RateLimit(ctx, cfg.RateLimit, env)(handler)
	handler = middleware.OptionalAuth(deps.JWT, deps.Users, env)(handler)
	handler = middleware.RequestSize(cfg.Server.MaxBodyBytes)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	handler = middleware.Tracing(handler)
	return handler
}
