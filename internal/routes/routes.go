package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"

	"github.com/evn/versiongate/config"
	"github.com/evn/versiongate/internal/handlers"
	"github.com/evn/versiongate/internal/metrics"
	"github.com/evn/versiongate/internal/middleware"
	"github.com/evn/versiongate/internal/pkg/response"
	"github.com/evn/versiongate/internal/store"
)

const healthTimeout = 2 * time.Second

// Deps are the long-lived components the router is built from.
type Deps struct {
	Config    *config.Config
	Store     store.Backend
	Gate      *middleware.AppVersionGate
	Refresher handlers.Refresher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Setup builds the router. With UPSTREAM_URL set, every path not served here
// is proxied to the upstream through the version gate.
func Setup(deps Deps) (*chi.Mux, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	jwtAuth := jwtauth.New("HS256", []byte(deps.Config.JwtSecret), nil)
	appVersionHandler := handlers.NewAppVersionHandler(deps.Store, deps.Config.AppVersion.CacheKey, deps.Refresher, logger)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Get("/health", healthHandler(deps.Store))
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// Full paths rather than a mounted /api subrouter, so unknown /api paths
	// still fall through to the upstream proxy.
	router.Group(func(r chi.Router) {
		r.Use(deps.Gate.Middleware)
		r.Get("/api/app/version/status", appVersionHandler.StatusHandler)
		r.Get("/api/app/version/latest", appVersionHandler.LatestHandler)
	})

	// Superadmin-only
	router.Group(func(sr chi.Router) {
		sr.Use(jwtauth.Verifier(jwtAuth))
		sr.Use(middleware.SuperadminOnly())
		sr.Post("/api/admin/app/version/refresh", appVersionHandler.RefreshHandler)
	})

	if deps.Config.UpstreamURL != "" {
		proxy, err := newUpstreamProxy(deps.Config.UpstreamURL, logger)
		if err != nil {
			return nil, err
		}
		router.With(deps.Gate.Middleware).Handle("/*", proxy)
	}

	return router, nil
}

func healthHandler(backend store.Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := backend.Ping(ctx); err != nil {
			response.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"store":  err.Error(),
			})
			return
		}
		response.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func newUpstreamProxy(rawURL string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", rawURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("upstream request failed", "path", r.URL.Path, "error", err)
		response.RespondWithError(w, response.ErrExternalService, "Upstream unavailable")
	}
	return proxy, nil
}
