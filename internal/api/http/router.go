package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/carrerakart/kartapi/internal/api/domain"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/pkg/httpx"
	"github.com/carrerakart/kartapi/pkg/jwtx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	environment  string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	UserService           *service.UserService
	ClassificationService *service.ClassificationService
	OperatingHourService  *service.OperatingHourService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion, environment string,
	corsOrigins []string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		environment:  environment,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeadersMiddleware(),
		httpx.CORSMiddleware(corsOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerClassifications()
	r.registerOperatingHours()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// adminOnly wraps a handler with authentication, the ADMIN role check and a
// per-user write limit.
func (r *Router) adminOnly(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireRole(string(domain.RoleAdmin)),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
}

// authenticated wraps a handler with authentication only; any role passes.
func (r *Router) authenticated(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
}

// public wraps an unauthenticated read with the lenient per-IP limit.
func public(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h, httpx.RateLimitByIP(httpx.PublicLimit))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /api/v1/users/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /api/v1/users/profile", r.authenticated(h.HandleProfile))
	r.Mux.Handle("PUT /api/v1/users/profile", r.authenticated(h.HandleUpdateProfile))

	r.Mux.Handle("POST /api/v1/users", r.adminOnly(h.HandleCreate))
	r.Mux.Handle("GET /api/v1/users", r.adminOnly(h.HandleList))
	r.Mux.Handle("GET /api/v1/users/{id}", r.adminOnly(h.HandleGet))
	r.Mux.Handle("PUT /api/v1/users/{id}", r.adminOnly(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/v1/users/{id}", r.adminOnly(h.HandleDelete))
}

func (r *Router) registerClassifications() {
	h := &ClassificationsHandler{ClassificationService: r.ClassificationService}

	// The venue display polls the public reads.
	r.Mux.Handle("GET /api/v1/classifications", public(h.HandleList))
	r.Mux.Handle("GET /api/v1/classifications/leaderboard", public(h.HandleLeaderboard))
	r.Mux.Handle("GET /api/v1/classifications/category/{category}", public(h.HandleListByCategory))
	r.Mux.Handle("GET /api/v1/classifications/{id}", public(h.HandleGet))

	r.Mux.Handle("POST /api/v1/classifications", r.adminOnly(h.HandleCreate))
	r.Mux.Handle("PUT /api/v1/classifications/bulk", r.adminOnly(h.HandleBulk))
	r.Mux.Handle("PUT /api/v1/classifications/{id}", r.adminOnly(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/v1/classifications/{id}", r.adminOnly(h.HandleDelete))
}

func (r *Router) registerOperatingHours() {
	h := &OperatingHoursHandler{OperatingHourService: r.OperatingHourService}

	r.Mux.Handle("GET /api/v1/operating-hours", public(h.HandleList))
	r.Mux.Handle("GET /api/v1/operating-hours/visible", public(h.HandleListVisible))
	r.Mux.Handle("GET /api/v1/operating-hours/group/{group}", public(h.HandleListByGroup))
	r.Mux.Handle("GET /api/v1/operating-hours/{id}", public(h.HandleGet))

	r.Mux.Handle("PUT /api/v1/operating-hours/bulk-update", r.adminOnly(h.HandleBulkUpdate))
	r.Mux.Handle("PUT /api/v1/operating-hours/{id}", r.adminOnly(h.HandleUpdate))
	r.Mux.Handle("PATCH /api/v1/operating-hours/{id}/visibility", r.adminOnly(h.HandleToggleVisibility))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /api/v1/health",
		httpx.Chain(HealthHandler(r.startTime, r.buildVersion, r.environment, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /", public(WelcomeHandler(r.buildVersion)))
}
