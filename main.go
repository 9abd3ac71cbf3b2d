package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prephub/prephub-api/internal/auth"
	"github.com/prephub/prephub-api/internal/config"
	"github.com/prephub/prephub-api/internal/courses"
	"github.com/prephub/prephub-api/internal/db"
	"github.com/prephub/prephub-api/internal/jobs"
	"github.com/prephub/prephub-api/internal/logging"
	"github.com/prephub/prephub-api/internal/middleware"
	"github.com/prephub/prephub-api/internal/observability"
	"github.com/prephub/prephub-api/internal/token"
	"github.com/prephub/prephub-api/internal/utils"
	"gorm.io/gorm"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "PrepHub API is running ✅"})
}

type server struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *observability.Metrics
	tokens  *token.Manager
	users   *auth.GormStore
	auth    *auth.Handler
	courses *courses.Handler
	jobs    *jobs.Handler
	limiter *middleware.RateLimiter
}

func newServer(cfg config.Config, log *slog.Logger, d *gorm.DB) *server {
	metrics := observability.NewMetrics()
	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL)
	users := auth.NewGormStore(d)

	svc := auth.NewService(users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, auth.Options{
		IssueTokenOnRegister: cfg.IssueTokenOnRegister,
		HashConcurrency:      cfg.HashConcurrency,
		Logger:               log,
		Recorder:             metrics,
	})

	return &server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		tokens:  tokens,
		users:   users,
		auth:    auth.NewHandler(svc, log),
		courses: courses.NewHandler(courses.NewGormStore(d), log),
		jobs:    jobs.NewHandler(jobs.NewGormStore(d), log),
		limiter: middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, metrics),
	}
}

// middlewares is the stack shared by every route. The request logger sits
// outside the recoverer so panicked requests are logged and counted as 500.
func (s *server) middlewares() []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{chimiddleware.RequestID}
	if s.cfg.TrustProxyHeaders {
		mws = append(mws, chimiddleware.RealIP)
	}
	return append(mws,
		middleware.RequestLogger(s.log, s.metrics),
		middleware.Recoverer(s.log),
		middleware.CORSMiddleware(s.cfg.AllowedOrigins),
	)
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.middlewares()...)

	r.Get("/", RootHandler)
	r.Get("/health", RootHandler)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Mount("/api/auth", auth.SetupRoutes(s.auth, s.tokens, s.limiter))
	r.Mount("/api/courses", courses.SetupRoutes(s.courses, s.tokens, s.users))
	r.Mount("/api/jobs", jobs.SetupRoutes(s.jobs, s.tokens))

	r.NotFound(middleware.NotFound)
	return r
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load(os.LookupEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.Setup("prephub-api", cfg.Version, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		logging.LogError(context.Background(), log, "server stopped", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	d, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	for name, initFn := range map[string]func(*gorm.DB) error{
		"auth":    auth.Init,
		"courses": courses.Init,
		"jobs":    jobs.Init,
	} {
		if err := initFn(d); err != nil {
			return fmt.Errorf("init %s: %w", name, err)
		}
	}

	s := newServer(cfg, log, d)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
