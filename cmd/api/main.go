package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/ovenline/backend-bakery/internal/audit"
	"github.com/ovenline/backend-bakery/internal/auth"
	"github.com/ovenline/backend-bakery/internal/cart"
	"github.com/ovenline/backend-bakery/internal/catalog"
	"github.com/ovenline/backend-bakery/internal/checkout"
	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/config"
	"github.com/ovenline/backend-bakery/internal/events"
	"github.com/ovenline/backend-bakery/internal/health"
	"github.com/ovenline/backend-bakery/internal/invoice"
	"github.com/ovenline/backend-bakery/internal/lock"
	"github.com/ovenline/backend-bakery/internal/notify"
	"github.com/ovenline/backend-bakery/internal/obs"
	"github.com/ovenline/backend-bakery/internal/ratelimit"
	"github.com/ovenline/backend-bakery/internal/repo"
	"github.com/ovenline/backend-bakery/internal/sale"
	"github.com/ovenline/backend-bakery/internal/security"
	"github.com/ovenline/backend-bakery/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "bakery")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "bakery-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.MigrateOnStart {
		if err := repo.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "bakery-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	queries := repo.New(pool)

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	validate := validator.New()

	bus := &events.Bus{
		Store:     queries,
		Scheduler: &tasks.Scheduler{Client: taskClient, Log: logger},
	}
	if cfg.AlertEmail != "" {
		bus.Notifiers = append(bus.Notifiers, &notify.EmailNotifier{
			Mail:    common.LogEmailSender{Log: logger},
			To:      cfg.AlertEmail,
			Enabled: envBool("NOTIFY_EMAIL_ENABLED", false),
			Log:     logger,
		})
	}

	auditSvc := &audit.Service{
		Store:   queries,
		Enabled: envBool("AUDIT_ENABLED", true),
		Log:     logger,
	}

	authSvc := &auth.Service{Users: queries, Redis: redisClient, SessionTTL: cfg.SessionTTL}
	authHandler := &auth.Handler{
		Svc:            authSvc,
		Validate:       validate,
		CookieName:     cfg.SessionCookieName,
		CookieDomain:   cfg.CookieDomain,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: cfg.CookieSameSite,
		Audit:          auditSvc,
		Log:            logger,
	}
	authMiddleware := auth.Middleware{Service: authSvc, CookieName: cfg.SessionCookieName}

	loginLimiter, err := ratelimit.NewLoginLimiter(redisClient, cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.LoginRateLimit).Msg("parse login rate limit")
	}
	loginLimit := ratelimit.Middleware(loginLimiter, func(err error) {
		logger.Warn().Err(err).Msg("rate limiter unavailable")
	})

	catalogSvc := &catalog.Service{
		Store:        queries,
		Cache:        catalog.NewCache(redisClient, envDurationMillis("CATALOG_CACHE_TTL_MS", 60_000)),
		DefaultLimit: 20,
		MaxLimit:     100,
	}
	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate, Audit: auditSvc}

	cartSvc := &cart.Service{
		R:              redisClient,
		Catalog:        catalogSvc,
		TTL:            cfg.CartTTL,
		TaxRatePercent: cfg.TaxRatePercent,
	}
	cartHandler := &cart.Handler{Svc: cartSvc, Validate: validate}

	checkoutSvc := &checkout.Service{
		Q:                 queries,
		Pool:              pool,
		TaxRatePercent:    cfg.TaxRatePercent,
		LowStockThreshold: int32(cfg.LowStockThreshold),
		Events:            bus,
	}
	checkoutHandler := &checkout.Handler{
		Svc:      checkoutSvc,
		Validate: validate,
		Cart:     cartSvc,
		Audit:    auditSvc,
		Locker:   &lock.Locker{R: redisClient},
		LockTTL:  10 * time.Second,
	}

	saleSvc := &sale.Service{Q: queries, Pool: pool, Events: bus}
	saleHandler := &sale.Handler{Svc: saleSvc, Audit: auditSvc}

	invoiceSvc := &invoice.Service{
		Sales:        saleSvc,
		Store:        invoice.Store{Name: cfg.StoreName, Address: cfg.StoreAddress},
		CurrencyCode: cfg.CurrencyCode,
		OutputDir:    cfg.InvoicePDFDir,
	}
	invoiceHandler := &invoice.Handler{Svc: invoiceSvc}

	auditHandler := &audit.Handler{Svc: auditSvc}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{
		Enable:     envBool("SECURITY_HEADERS_ENABLED", true),
		EnableHSTS: envBool("SECURITY_HSTS_ENABLED", false),
	}.Middleware)
	r.Use(security.BodyLimit{Max: int64(envInt("SECURITY_MAX_BODY_BYTES", 1<<20))}.Middleware)
	if envBool("SECURITY_CSRF_ENABLED", false) {
		r.Use(security.CSRF{}.Middleware)
	}
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probe{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit).Post("/login", authHandler.Login)
			a.Post("/logout", authHandler.Logout)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Group(func(reg chi.Router) {
			reg.Use(authMiddleware.RequireAuth)

			reg.Get("/categories", catalogHandler.ListCategories)
			reg.Get("/products", catalogHandler.ListProducts)
			reg.Get("/products/{id}", catalogHandler.GetProduct)

			reg.Route("/cart", func(c chi.Router) {
				c.Get("/", cartHandler.Get)
				c.Post("/items", cartHandler.AddItem)
				c.Patch("/items/{productId}", cartHandler.UpdateItem)
				c.Delete("/items/{productId}", cartHandler.RemoveItem)
				c.Delete("/", cartHandler.Clear)
			})

			reg.With(idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

			reg.Route("/sales", func(s chi.Router) {
				s.Get("/", saleHandler.List)
				s.Get("/{id}", saleHandler.Get)
				s.Get("/{id}/invoice", invoiceHandler.Get)
				s.With(auth.RequireAdmin).Post("/{id}/cancel", saleHandler.Cancel)
			})

			reg.Route("/admin", func(admin chi.Router) {
				admin.Use(auth.RequireAdmin)
				admin.Post("/products", catalogHandler.CreateProduct)
				admin.Put("/products/{id}", catalogHandler.UpdateProduct)
				admin.Post("/products/{id}/stock", catalogHandler.AdjustStock)
				admin.Get("/audit", auditHandler.List)
			})
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
