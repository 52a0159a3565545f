package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"manpower/internal/domain/auth"
	"manpower/internal/domain/payroll"
	"manpower/internal/platform/config"
	"manpower/internal/platform/crypto"
	"manpower/internal/platform/db"
	"manpower/internal/platform/jobs"
	"manpower/internal/platform/metrics"
	"manpower/internal/transport/http/api"
	authhandler "manpower/internal/transport/http/handlers/auth"
	payrollhandler "manpower/internal/transport/http/handlers/payroll"
	"manpower/internal/transport/http/middleware"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs. Tests pass fakes; New wires the real
// services.
type Deps struct {
	Config   config.Config
	DB       Pinger
	Metrics  *metrics.Collector
	Sessions authhandler.SessionService
	Payroll  payrollhandler.PayrollService
	Jobs     payrollhandler.JobRunner
	Perms    middleware.PermissionStore

	Idempotency payrollhandler.IdempotencyStore
}

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service

	cancelJobs context.CancelFunc
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !sealer.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, payslips are stored unencrypted")
	}

	collector := metrics.New()
	payrollStore := payroll.NewStore(pool)
	payrollService := payroll.NewService(payrollStore, sealer, cfg.PayslipDir, cfg.PayrollWorkers)

	jobsService := jobs.New(payrollStore, collector, cfg.JobQueueSize)
	jobsCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	jobsService.Start(jobsCtx)

	router := NewRouter(Deps{
		Config:   cfg,
		DB:       pool,
		Metrics:  collector,
		Sessions: auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL),
		Payroll:  payrollService,
		Jobs:     jobsService,
		Perms:    auth.StaticPermissions{},

		Idempotency: middleware.NewIdempotencyStore(pool),
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobsService, cancelJobs: cancel}, nil
}

// Close stops the job worker, waits for the in-flight job and closes the pool.
func (a *App) Close() {
	if a.cancelJobs != nil {
		a.cancelJobs()
	}
	if a.Jobs != nil {
		a.Jobs.Wait()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func NewRouter(deps Deps) http.Handler {
	// A nil *Collector must not reach the interfaces as a non-nil value.
	var requests middleware.Recorder
	var runs payrollhandler.RunObserver
	if deps.Metrics != nil {
		requests = deps.Metrics
		runs = deps.Metrics
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logger(requests))
	router.Use(middleware.SecureHeaders(deps.Config.Environment == "production"))
	if deps.Config.MaxBodyBytes > 0 {
		router.Use(middleware.BodyLimit(deps.Config.MaxBodyBytes))
	}
	router.Use(middleware.Auth(deps.Config.JWTSecret))
	if deps.Config.RateLimitPerMinute > 0 {
		router.Use(middleware.SensitiveMutationRateLimit(deps.Config.RateLimitPerMinute, time.Minute))
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if deps.DB == nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := deps.DB.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Config.MetricsEnabled && deps.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(deps.Sessions).RegisterRoutes(r)

		payrollhandler.NewHandler(deps.Payroll, deps.Jobs, deps.Perms, runs, deps.Idempotency).RegisterRoutes(r)
	})

	return router
}

// Run serves until SIGINT or SIGTERM, then drains requests and the job queue.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("payroll server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
