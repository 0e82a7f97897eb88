package server

import (
	"context"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/config"
	"github.com/gokatarajesh/finlit-quiz/internal/game"
	"github.com/gokatarajesh/finlit-quiz/internal/logging"
	"github.com/gokatarajesh/finlit-quiz/internal/metrics"
	"github.com/gokatarajesh/finlit-quiz/internal/report"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
	"github.com/gokatarajesh/finlit-quiz/internal/stats"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Handlers groups the feature handlers mounted by the API server.
type Handlers struct {
	Auth     *auth.HTTPHandlers
	Game     *game.HTTPHandlers
	Sessions *sessions.HTTPHandler
	Report   *report.HTTPHandler
	Stats    *stats.HTTPHandler
	Catalog  *catalog.HTTPHandler
	Feed     http.Handler
}

// Deps are the cross-cutting collaborators of the router.
type Deps struct {
	Validator    auth.TokenValidator
	LoginLimiter *auth.IPRateLimiter
	Pingers      []Pinger
}

// NewHTTPServer wires every route of the API service.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Deps, h Handlers) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg.CORS, logger, deps, h),
	}
}

// NewRouter builds the API handler. Nil feature handlers leave their routes unmounted.
func NewRouter(corsCfg config.CORS, logger zerolog.Logger, deps Deps, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		for _, ping := range deps.Pingers {
			if err := ping(r.Context()); err != nil {
				log := logging.FromContext(r.Context())
				log.Error().Err(err).Msg("dependency ping failed")
				httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if h.Catalog != nil {
		mux.HandleFunc("/v1/catalog/levels", h.Catalog.Levels)
		mux.HandleFunc("/v1/catalog/categories", h.Catalog.Categories)
	}

	student := chain(auth.RequireStudent)
	admin := chain(auth.RequireAdmin)
	limited := chain()
	if deps.LoginLimiter != nil {
		limited = chain(deps.LoginLimiter.Middleware)
	}

	if h.Auth != nil {
		mux.Handle("/v1/auth/register", limited(http.HandlerFunc(h.Auth.Register)))
		mux.Handle("/v1/auth/request-otp", limited(http.HandlerFunc(h.Auth.RequestOTP)))
		mux.Handle("/v1/auth/login", limited(http.HandlerFunc(h.Auth.Login)))
		mux.Handle("/v1/auth/admin-login", limited(http.HandlerFunc(h.Auth.AdminLogin)))
		mux.HandleFunc("/v1/auth/refresh", h.Auth.RefreshToken)
		mux.Handle("/v1/auth/attempted-levels", auth.RequireAuth(http.HandlerFunc(h.Auth.AttemptedLevels)))
		mux.HandleFunc("/v1/oauth/{provider}/start", h.Auth.OAuthStart)
		mux.HandleFunc("/v1/oauth/{provider}/callback", h.Auth.OAuthCallback)
	}

	if h.Game != nil {
		h.Game.Register(mux, student)
	}

	if h.Sessions != nil {
		mux.Handle("POST /v1/sessions", student(http.HandlerFunc(h.Sessions.Create)))
		mux.Handle("GET /v1/sessions", admin(http.HandlerFunc(h.Sessions.List)))
		mux.Handle("/v1/sessions/{id}", admin(http.HandlerFunc(h.Sessions.Get)))
	}

	if h.Report != nil {
		mux.Handle("/v1/sessions/{id}/analyze", admin(http.HandlerFunc(h.Report.AnalyzeSession)))
		mux.Handle("/v1/ai/analyze", admin(http.HandlerFunc(h.Report.Analyze)))
	}

	if h.Stats != nil {
		mux.Handle("/v1/stats/levels/{level}", admin(http.HandlerFunc(h.Stats.HandleLevel)))
	}

	if h.Feed != nil {
		mux.Handle("/ws/admin", h.Feed)
	}

	// metrics must see the request the mux matched, so it wraps the mux directly.
	handler := metrics.Middleware(mux)
	if deps.Validator != nil {
		handler = auth.AuthMiddleware(deps.Validator, logger)(handler)
	}
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	})(handler)
	return logging.Middleware(logger)(handler)
}

func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
