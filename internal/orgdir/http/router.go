package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/pkg/httpx"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"

	_ "github.com/aussiebroadwan/orgdir/api/orgdir" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate swag init -g router.go -d ./,../../../pkg/orgsdk -o ../../../api/orgdir --outputTypes go

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	limits       httpx.RateLimitProfiles
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store     store.Store
	Directory *service.Directory
	Documents *service.DocumentService
	TOTP      *service.TOTPService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	limits httpx.RateLimitProfiles,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		limits:       limits,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOrganizations()
	r.registerLogin()
	r.registerDocuments()
	r.registerTOTP()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Organization Directory API
//	@version		0.1.0
//	@description	Multi-tenant organization directory. Each organization owns one storage partition
//	@description	named after it and a single administrator credential.
//	@description
//	@description				Access tokens are HMAC-signed JWTs scoped to one organization.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/orgdir
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// bearer chains h behind a bearer token check and a per-token rate limit.
func (r *Router) bearer(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.RequireBearer(),
		httpx.RateLimitByToken(limit),
	)
}

func (r *Router) registerOrganizations() {
	h := &OrganizationsHandler{Directory: r.Directory}

	// POST /v1/organizations - strict rate limit by IP (hashes a secret)
	r.Mux.Handle("POST /v1/organizations",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)

	// GET /v1/organizations/{name} - public lookup
	r.Mux.Handle("GET /v1/organizations/{name}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.limits.Public),
		),
	)

	r.Mux.Handle("PATCH /v1/organizations/{name}", r.bearer(h.HandleUpdate, r.limits.Moderate))
	r.Mux.Handle("DELETE /v1/organizations/{name}", r.bearer(h.HandleDelete, r.limits.Moderate))
}

func (r *Router) registerLogin() {
	h := &LoginHandler{Directory: r.Directory}

	// POST /v1/admin/login - strict rate limit by IP (credential check)
	r.Mux.Handle("POST /v1/admin/login",
		httpx.Chain(h,
			httpx.RateLimitByIP(r.limits.Strict),
		),
	)
}

func (r *Router) registerDocuments() {
	h := &DocumentsHandler{Documents: r.Documents}

	r.Mux.Handle("GET /v1/organizations/{name}/documents", r.bearer(h.HandleList, r.limits.Lenient))
	r.Mux.Handle("GET /v1/organizations/{name}/documents/{id}", r.bearer(h.HandleGet, r.limits.Lenient))
	r.Mux.Handle("PUT /v1/organizations/{name}/documents/{id}", r.bearer(h.HandlePut, r.limits.Moderate))
	r.Mux.Handle("DELETE /v1/organizations/{name}/documents/{id}", r.bearer(h.HandleDelete, r.limits.Moderate))
}

func (r *Router) registerTOTP() {
	h := &TOTPHandler{TOTP: r.TOTP}

	r.Mux.Handle("POST /v1/organizations/{name}/admin/totp", r.bearer(h.HandleEnroll, r.limits.Moderate))

	// Code checks get the strict limit to slow down guessing.
	r.Mux.Handle("POST /v1/organizations/{name}/admin/totp/verify", r.bearer(h.HandleVerify, r.limits.Strict))
	r.Mux.Handle("DELETE /v1/organizations/{name}/admin/totp", r.bearer(h.HandleDisable, r.limits.Strict))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Directory.Tokens),
			httpx.RateLimitByIP(r.limits.Lenient),
		),
	)
}
