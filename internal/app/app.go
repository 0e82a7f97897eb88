package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/config"
	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
	"github.com/gokatarajesh/finlit-quiz/internal/db/repository"
	"github.com/gokatarajesh/finlit-quiz/internal/game"
	"github.com/gokatarajesh/finlit-quiz/internal/logging"
	"github.com/gokatarajesh/finlit-quiz/internal/mail"
	"github.com/gokatarajesh/finlit-quiz/internal/metrics"
	"github.com/gokatarajesh/finlit-quiz/internal/report"
	"github.com/gokatarajesh/finlit-quiz/internal/report/gemini"
	"github.com/gokatarajesh/finlit-quiz/internal/server"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
	"github.com/gokatarajesh/finlit-quiz/internal/stats"
	ws "github.com/gokatarajesh/finlit-quiz/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	broadcaster   *stats.Broadcaster
	rebuildWorker *stats.RebuildWorker
	bgCancels     []context.CancelFunc
}

// New bootstraps logger, Postgres, Redis, domain services and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")
	metrics.Init()

	savePolicy, err := game.ParseSavePolicy(cfg.Game.SavePolicy)
	if err != nil {
		return nil, err
	}

	bank, err := loadBank(cfg.BankFile)
	if err != nil {
		return nil, fmt.Errorf("load item bank: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN()+" pool_max_conns=10")
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	q := queries.New(pool)
	studentRepo := repository.NewStudentRepository(q)
	adminRepo := repository.NewAdminRepository(q)
	sessionRepo := repository.NewSessionRepository(q)

	refreshSecret := cfg.Security.JWTRefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Security.JWTSecret + "_refresh"
	}
	authSvc := auth.NewService(studentRepo, adminRepo, auth.NewOTPStore(redisClient, cfg.Auth.OTPTTL, cfg.Auth.OTPMaxAttempts), auth.ServiceOptions{
		TokenConfig: jwt.TokenConfig{
			AccessSecret:  []byte(cfg.Security.JWTSecret),
			RefreshSecret: []byte(refreshSecret),
			AccessTTL:     cfg.Security.AccessTTL,
			RefreshTTL:    cfg.Security.RefreshTTL,
			Issuer:        cfg.Name,
		},
		AllowedDomain: cfg.Auth.AllowedEmailDomain,
	}, logger)

	if cfg.Auth.AdminUsername != "" && cfg.Auth.AdminPassword != "" {
		if _, err := authSvc.SeedAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			logger.Warn().Err(err).Msg("failed to seed admin account")
		}
	}

	oauthSvc := auth.NewOAuthService(auth.OAuthConfig{
		TenantID:     cfg.OAuth.MicrosoftTenantID,
		ClientID:     cfg.OAuth.MicrosoftClientID,
		ClientSecret: cfg.OAuth.MicrosoftClientSecret,
		RedirectURL:  cfg.OAuth.MicrosoftRedirectURL,
	}, logger)
	if oauthSvc == nil {
		logger.Warn().Msg("Microsoft OAuth not configured (missing MICROSOFT_OAUTH_CLIENT_ID)")
	}

	statsSvc := stats.NewService(redisClient, logger, stats.ServiceOptions{
		TopN:          cfg.Stats.TopN,
		PubSubChannel: cfg.Stats.PubSubChannel,
	})
	sessionSvc := sessions.NewService(sessionRepo, studentRepo, statsSvc, logger)

	gameSvc := game.NewService(
		game.NewStateStore(redisClient, cfg.Game.StateTTL, logger),
		sessionSvc,
		authSvc,
		bank,
		game.ServiceOptions{
			ItemsPerSession: cfg.Game.ItemsPerSession,
			AllowReplay:     cfg.Game.AllowReplay,
			SavePolicy:      savePolicy,
		},
		logger,
	)

	if cfg.AI.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set; analysis requests will fail")
	}
	if cfg.Report.Recipient == "" {
		logger.Warn().Msg("REPORT_RECIPIENT not set; reports will not be mailed")
	}
	pipeline := report.NewPipeline(
		gemini.NewClient(gemini.Config{
			APIKey:  cfg.AI.GeminiAPIKey,
			Model:   cfg.AI.GeminiModel,
			BaseURL: cfg.AI.GeminiBaseURL,
		}, logger),
		mail.New(mail.Config{
			Host:        cfg.SMTP.Host,
			Port:        cfg.SMTP.Port,
			Username:    cfg.SMTP.Username,
			Password:    cfg.SMTP.Password,
			From:        cfg.SMTP.FromEmail,
			ImplicitTLS: cfg.SMTP.ImplicitTLS,
			DialTimeout: cfg.SMTP.DialTimeout,
		}, logger),
		report.Options{
			Recipient: cfg.Report.Recipient,
			Timeout:   cfg.AI.AnalysisTimeout,
		},
		logger,
	)

	hub := ws.NewHub(logger)

	apiServer := server.NewHTTPServer(cfg, logger, server.Deps{
		Validator:    authSvc,
		LoginLimiter: auth.NewIPRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst, cfg.Auth.TrustedProxies...),
		Pingers: []server.Pinger{
			pool.Ping,
			func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}, server.Handlers{
		Auth:     auth.NewHTTPHandlers(authSvc, oauthSvc, gameSvc, logger),
		Game:     game.NewHTTPHandlers(gameSvc, logger),
		Sessions: sessions.NewHTTPHandler(sessionSvc, logger),
		Report:   report.NewHTTPHandler(pipeline, sessionSvc, logger),
		Stats:    stats.NewHTTPHandler(statsSvc, logger),
		Catalog:  catalog.NewHTTPHandler(bank, logger),
		Feed:     stats.NewFeedHandler(authSvc, hub, cfg.CORS.AllowedOrigins, logger),
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		broadcaster:   stats.NewBroadcaster(redisClient, hub, statsSvc, statsSvc.Channel(), logger),
		rebuildWorker: stats.NewRebuildWorker(statsSvc, sessionSvc, cfg.Stats.RebuildInterval, logger),
		bgCancels:     make([]context.CancelFunc, 0, 2),
	}, nil
}

func loadBank(path string) (*catalog.Bank, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("session feed broadcaster stopped")
			}
		}()
	}

	if a.rebuildWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.rebuildWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("stats rebuild worker stopped")
			}
		}()
	}
}
