package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"digestly/internal/config"
	hhttp "digestly/internal/handler/http"
	hauth "digestly/internal/handler/http/auth"
	hdigest "digestly/internal/handler/http/digest"
	"digestly/internal/handler/http/requestid"
	pgRepo "digestly/internal/infra/adapter/persistence/postgres"
	sqliteRepo "digestly/internal/infra/adapter/persistence/sqlite"
	"digestly/internal/infra/completion"
	"digestly/internal/infra/db"
	"digestly/internal/infra/promptfile"
	"digestly/internal/infra/session"
	"digestly/internal/infra/source"
	"digestly/internal/infra/worker"
	"digestly/internal/observability/logging"
	"digestly/internal/observability/slo"
	"digestly/internal/observability/tracing"
	"digestly/internal/repository"
	"digestly/internal/resilience/circuitbreaker"
	digestUC "digestly/internal/usecase/digest"
)

// components holds everything the server needs and everything that must be
// released on shutdown.
type components struct {
	handler   http.Handler
	database  *sql.DB
	sessions  digestUC.SessionStore
	scheduler *worker.Scheduler
	watcher   *promptfile.Watcher
	closers   []func() error
}

func main() {
	issueFor := flag.String("issue-token", "", "print a caller token for the given subject and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	serverCfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("failed to load server configuration", slog.Any("error", err))
		os.Exit(1)
	}

	if *issueFor != "" {
		token, err := hauth.IssueToken(serverCfg.JWTSecret, *issueFor, *tokenTTL)
		if err != nil {
			logger.Error("failed to issue token", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	shutdownTracing := tracing.InitProvider(serverCfg.TraceSampleRatio)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := setupServer(ctx, logger, serverCfg)
	if err != nil {
		logger.Error("failed to initialize server", slog.Any("error", err))
		os.Exit(1)
	}

	serveErr := runServer(ctx, logger, serverCfg, comps)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	comps.close(shutdownCtx, logger)
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer provider shutdown failed", slog.Any("error", err))
	}
	if serveErr != nil {
		logger.Error("server stopped with error", slog.Any("error", serveErr))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// setupServer wires configuration, stores, the digest service and routes.
func setupServer(ctx context.Context, logger *slog.Logger, serverCfg *config.ServerConfig) (_ *components, err error) {
	aiCfg, err := config.LoadAIConfig()
	if err != nil {
		return nil, err
	}
	digestCfg, err := config.LoadDigestConfig()
	if err != nil {
		return nil, err
	}
	sessionCfg, err := config.LoadSessionConfig()
	if err != nil {
		return nil, err
	}
	sourceCfg, err := source.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}

	c := &components{scheduler: worker.NewScheduler(logger, time.UTC)}
	defer func() {
		if err != nil {
			c.close(context.Background(), logger)
		}
	}()

	guard, err := completion.NewFromConfig(aiCfg)
	if err != nil {
		return nil, err
	}

	prompts, err := initPrompts(logger, digestCfg, c)
	if err != nil {
		return nil, err
	}

	if err := initSessions(ctx, logger, sessionCfg, c); err != nil {
		return nil, err
	}

	creations, err := initCreations(ctx, logger, serverCfg, c)
	if err != nil {
		return nil, err
	}

	svc := digestUC.NewService(guard, prompts, c.sessions, creations, digestUC.Config{
		ChunkSize:      digestCfg.ChunkSize,
		MapConcurrency: digestCfg.MapConcurrency,
		MaxInputChars:  digestCfg.MaxInputChars,
	})
	fetcher := source.NewFetcher(sourceCfg)

	tracker := slo.NewTracker()
	if err := c.scheduler.Add("slo-publish", "@every 1m", func(context.Context) error {
		tracker.Publish()
		return nil
	}); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	hdigest.Register(mux, svc, fetcher, creations)
	mux.Handle("GET /health", &hhttp.HealthHandler{
		DB:         c.database,
		Completion: guard,
		Sessions:   c.sessions,
		Version:    serverCfg.Version,
	})
	mux.Handle("GET /ready", &hhttp.ReadyHandler{DB: c.database, Completion: guard})
	mux.Handle("GET /live", &hhttp.LiveHandler{})
	mux.Handle("GET /metrics", hhttp.MetricsHandler())

	authenticator := hauth.NewAuthenticator(serverCfg.JWTSecret)
	c.handler = hhttp.Chain(mux,
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Logging(logger),
		hhttp.Recover(logger),
		hhttp.MetricsMiddleware,
		tracker.Middleware,
		hhttp.LimitRequestBody(serverCfg.MaxBodyBytes),
		hhttp.Timeout(serverCfg.RequestTimeout),
		authenticator.Middleware,
	)

	logger.Info("server configured",
		slog.String("completion_provider", guard.Provider()),
		slog.Int("chunk_size", digestCfg.ChunkSize),
		slog.Int("map_concurrency", digestCfg.MapConcurrency),
		slog.String("session_backend", sessionCfg.Backend),
		slog.Bool("creations_enabled", creations != nil))
	return c, nil
}

// initPrompts loads the prompt overrides file, if any, and starts watching it.
func initPrompts(logger *slog.Logger, cfg *config.DigestConfig, c *components) (*digestUC.PromptStore, error) {
	if cfg.PromptsFile == "" {
		return digestUC.NewPromptStore(digestUC.DefaultPrompts()), nil
	}

	set, err := promptfile.Load(cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	store := digestUC.NewPromptStore(set)

	w, err := promptfile.NewWatcher(cfg.PromptsFile, store, logger)
	if err != nil {
		return nil, fmt.Errorf("watch prompts: %w", err)
	}
	c.watcher = w
	c.closers = append(c.closers, w.Close)
	logger.Info("prompt overrides loaded", slog.String("path", cfg.PromptsFile))
	return store, nil
}

// initSessions builds the configured session store. The memory store gets a
// sweep job when contexts expire.
func initSessions(ctx context.Context, logger *slog.Logger, cfg *config.SessionConfig, c *components) error {
	switch cfg.Backend {
	case config.SessionBackendRedis:
		client, err := session.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		c.sessions = session.NewRedisStore(client, cfg.TTL)
		c.closers = append(c.closers, client.Close)
		logger.Info("session store initialized",
			slog.String("backend", cfg.Backend),
			slog.String("addr", cfg.RedisAddr))
	default:
		store := session.NewMemoryStore(session.MemoryConfig{TTL: cfg.TTL, MaxEntries: cfg.MaxEntries})
		c.sessions = store
		if cfg.TTL > 0 {
			if err := c.scheduler.Add("session-sweep", cfg.SweepSchedule, func(context.Context) error {
				if n := store.Sweep(time.Now()); n > 0 {
					logger.Info("expired session contexts removed", slog.Int("count", n))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		logger.Info("session store initialized",
			slog.String("backend", config.SessionBackendMemory),
			slog.Duration("ttl", cfg.TTL),
			slog.Int("max_entries", cfg.MaxEntries))
	}
	return nil
}

// initCreations opens the creations database when DATABASE_URL is set.
// A nil repository disables the creation history.
func initCreations(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig, c *components) (repository.CreationRepository, error) {
	if cfg.DatabaseURL == "" {
		logger.Info("creation history disabled (DATABASE_URL not set)")
		return nil, nil
	}

	database, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, db.ConnectionConfigFromEnv())
	if err != nil {
		return nil, err
	}
	c.database = database
	c.closers = append(c.closers, database.Close)

	if err := db.MigrateUp(ctx, database, cfg.DatabaseDriver); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	conn := circuitbreaker.NewDBCircuitBreaker(database)
	logger.Info("creation history enabled", slog.String("driver", cfg.DatabaseDriver))
	if cfg.DatabaseDriver == config.DriverSQLite {
		return sqliteRepo.NewCreationRepo(conn), nil
	}
	return pgRepo.NewCreationRepo(conn), nil
}

// runServer serves until ctx is canceled and then drains in-flight requests.
// It returns the listener error when the server could not keep serving.
func runServer(ctx context.Context, logger *slog.Logger, cfg *config.ServerConfig, c *components) error {
	if c.watcher != nil {
		go func() {
			if err := c.watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("prompt watcher stopped", slog.Any("error", err))
			}
		}()
	}
	c.scheduler.Start()

	addr := ":" + strconv.Itoa(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           c.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case serveErr = <-errCh:
		logger.Error("server failed", slog.Any("error", serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	return serveErr
}

// close stops background jobs and releases stores in reverse order of creation.
func (c *components) close(ctx context.Context, logger *slog.Logger) {
	c.scheduler.Stop(ctx)
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("failed to release resource", slog.Any("error", err))
		}
	}
	c.closers = nil
}
