package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"etmam/internal/domain/audit"
	"etmam/internal/domain/notify"
	"etmam/internal/platform/config"
	"etmam/internal/platform/db"
	"etmam/internal/platform/email"
	"etmam/internal/platform/metrics"
	adminhandler "etmam/internal/transport/http/handlers/admin"
	authhandler "etmam/internal/transport/http/handlers/auth"
	crmhandler "etmam/internal/transport/http/handlers/crm"
	employeeshandler "etmam/internal/transport/http/handlers/employees"
	notificationshandler "etmam/internal/transport/http/handlers/notifications"
	recruithandler "etmam/internal/transport/http/handlers/recruit"
	reportshandler "etmam/internal/transport/http/handlers/reports"
	timesheetshandler "etmam/internal/transport/http/handlers/timesheets"
	"etmam/internal/transport/http/middleware"
)

// New assembles the full router against an existing pool. Split out from Run
// so tests can drive the handler stack directly.
func New(cfg config.Config, pool *pgxpool.Pool) http.Handler {
	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	auditSvc := audit.New(pool)
	notifier := notify.New(pool, email.New(cfg), cfg.EmailFrom)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Auth(cfg.TokenSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

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

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes, cfg.MaxUploadBytes))

		authHandler := authhandler.NewHandler(pool, cfg.TokenSecret, cfg.TokenTTL, notifier)
		authHandler.RegisterRoutes(r, middleware.AuthRateLimit(max(cfg.RateLimitPerMinute/4, 1), time.Minute))

		adminhandler.NewHandler(pool, auditSvc, collector, cfg.ProtectedAdminEmail).RegisterRoutes(r)
		employeeshandler.NewHandler(pool, auditSvc).RegisterRoutes(r)
		crmhandler.NewHandler(pool, auditSvc).RegisterRoutes(r)
		recruithandler.NewHandler(pool, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notifier).RegisterRoutes(r)
		reportshandler.NewHandler(pool).RegisterRoutes(r)

		tsHandler := timesheetshandler.NewHandler(pool, auditSvc, notifier, collector,
			cfg.FinanceInboxEmail, cfg.OperationsInbox, cfg.MaxUploadBytes)
		tsHandler.RegisterRoutes(r)
	})

	return router
}

// Run wires the process: config, database, migrations, seed, router, listen.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	router := New(cfg, pool)

	log.Printf("etmam server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
