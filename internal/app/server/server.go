package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"dayflow/internal/domain/attendance"
	"dayflow/internal/domain/audit"
	"dayflow/internal/domain/auth"
	"dayflow/internal/domain/documents"
	"dayflow/internal/domain/employees"
	"dayflow/internal/domain/leave"
	"dayflow/internal/domain/notifications"
	"dayflow/internal/domain/payroll"
	"dayflow/internal/platform/config"
	cryptoutil "dayflow/internal/platform/crypto"
	"dayflow/internal/platform/db"
	"dayflow/internal/platform/email"
	"dayflow/internal/platform/jobs"
	"dayflow/internal/platform/metrics"
	attendancehandler "dayflow/internal/transport/http/handlers/attendance"
	audithandler "dayflow/internal/transport/http/handlers/audit"
	authhandler "dayflow/internal/transport/http/handlers/auth"
	documentshandler "dayflow/internal/transport/http/handlers/documents"
	employeeshandler "dayflow/internal/transport/http/handlers/employees"
	leavehandler "dayflow/internal/transport/http/handlers/leave"
	notificationshandler "dayflow/internal/transport/http/handlers/notifications"
	payrollhandler "dayflow/internal/transport/http/handlers/payroll"
	systemhandler "dayflow/internal/transport/http/handlers/system"
	"dayflow/internal/transport/http/middleware"
)

const (
	authRateLimit  = 10
	authRateWindow = time.Minute
)

type App struct {
	Config config.Config
	DB     *db.Pool
	Router http.Handler
	Jobs   *jobs.Service
	redis  *redis.Client
}

// New connects to the database, applies migrations and the seed when
// configured, and assembles the router. Jobs are scheduled but not started.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool); err != nil {
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

	crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if !crypto.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, sensitive columns stored in clear")
	}

	app := &App{Config: cfg, DB: pool}
	rateStore := app.rateStore(ctx)

	perms := auth.StaticPermissions{}
	auditSvc := audit.New(pool)
	notifySvc := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom)
	idempotency := middleware.NewIdempotencyStore(pool)
	collector := metrics.New()

	authSvc := auth.NewService(auth.NewStore(pool), crypto, cfg.JWTSecret, cfg.TokenTTL)
	employeesSvc := employees.NewService(employees.NewStore(pool), crypto, cfg.CorporateDomain, cfg.AllowSelfSignup)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool), loc)
	leaveSvc := leave.NewService(leave.NewStore(pool), notifySvc)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), notifySvc)
	documentsSvc := documents.NewService(documents.NewStore(pool), crypto, notifySvc)

	app.Jobs = jobs.New(pool, loc)
	if err := app.Jobs.Schedule(cfg.AbsenceSweepSchedule, jobs.JobAbsenceSweep, systemhandler.SweepJob(attendanceSvc)); err != nil {
		app.Close()
		return nil, fmt.Errorf("schedule absence sweep: %w", err)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	authHandler := authhandler.NewHandler(authSvc, employeesSvc, auditSvc)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithStore(rateStore)))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(authRateLimit, authRateWindow,
				middleware.WithStore(rateStore),
				middleware.WithScope("auth"),
				middleware.WithKeyFunc(middleware.AuthEmailOrIPKey("email")),
			))
			authHandler.RegisterPublicRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser)
			authHandler.RegisterRoutes(r)
			employeeshandler.NewHandler(employeesSvc, perms, auditSvc).RegisterRoutes(r)
			attendancehandler.NewHandler(attendanceSvc, perms, auditSvc).RegisterRoutes(r)
			leavehandler.NewHandler(leaveSvc, perms, auditSvc, idempotency).RegisterRoutes(r)
			payrollhandler.NewHandler(payrollSvc, perms, auditSvc, idempotency).RegisterRoutes(r)
			documentshandler.NewHandler(documentsSvc, perms, auditSvc).RegisterRoutes(r)
			notificationshandler.NewHandler(notifySvc, perms).RegisterRoutes(r)
			audithandler.NewHandler(auditSvc, perms).RegisterRoutes(r)
			systemhandler.NewHandler(collector, app.Jobs, attendanceSvc, perms, auditSvc).RegisterRoutes(r)
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	app.Router = router
	return app, nil
}

// rateStore shares counters across instances through Redis when
// REDIS_ADDR is set and reachable; otherwise limits are per process.
func (a *App) rateStore(ctx context.Context) middleware.RateStore {
	if a.Config.RedisAddr == "" {
		return middleware.NewMemoryRateStore()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, using in-memory rate limits", "addr", a.Config.RedisAddr, "err", err)
		_ = client.Close()
		return middleware.NewMemoryRateStore()
	}
	a.redis = client
	return middleware.NewRedisRateStore(client)
}

// Serve runs the HTTP server and the scheduler until ctx is cancelled,
// then drains both within ShutdownTimeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.Jobs.Start()
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		a.Jobs.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	a.Jobs.Stop()
	return err
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis close failed", "err", err)
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
