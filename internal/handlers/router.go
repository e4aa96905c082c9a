package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lprior-repo/sitekit/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	apiPrefix   string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	site     RouteRegistrar
	api      RouteRegistrar
	static   http.Handler
	notFound http.HandlerFunc
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api"
	defaultTimeout    = 30 * time.Second
	compressionLevel  = 5
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware, health probes,
// static assets, the HTML site and the JSON API.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		apiPrefix: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Compress(compressionLevel),
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if cfg.notFound != nil && !httpx.WantsJSON(req) {
			cfg.notFound(w, req)
			return
		}
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		if !httpx.WantsJSON(req) {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	if cfg.static != nil {
		r.Handle("/assets/*", http.StripPrefix("/assets", cfg.static))
		r.Get("/robots.txt", cfg.static.ServeHTTP)
	}

	if cfg.api != nil {
		r.Route(cfg.apiPrefix, func(api chi.Router) {
			cfg.api(api)
		})
	}

	if cfg.site != nil {
		cfg.site(r)
	}

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithSiteRoutes configures the registrar responsible for the HTML pages.
func WithSiteRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.site = reg
	}
}

// WithAPIRoutes configures the registrar mounted under the API prefix.
func WithAPIRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.api = reg
	}
}

// WithStatic serves h under /assets and at /robots.txt.
func WithStatic(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.static = h
	}
}

// WithNotFound sets the handler used for unknown routes outside the API.
func WithNotFound(h http.HandlerFunc) Option {
	return func(cfg *routerConfig) {
		cfg.notFound = h
	}
}
