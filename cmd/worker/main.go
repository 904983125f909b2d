package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/ovenline/backend-bakery/internal/common"
	"github.com/ovenline/backend-bakery/internal/config"
	"github.com/ovenline/backend-bakery/internal/invoice"
	"github.com/ovenline/backend-bakery/internal/obs"
	"github.com/ovenline/backend-bakery/internal/repo"
	"github.com/ovenline/backend-bakery/internal/sale"
	"github.com/ovenline/backend-bakery/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
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

	saleSvc := &sale.Service{Q: queries, Pool: pool}
	invoiceSvc := &invoice.Service{
		Sales:        saleSvc,
		Store:        invoice.Store{Name: cfg.StoreName, Address: cfg.StoreAddress},
		CurrencyCode: cfg.CurrencyCode,
		OutputDir:    cfg.InvoicePDFDir,
	}

	var mailer common.EmailSender = common.LogEmailSender{Log: logger}
	handlers := &tasks.Handlers{
		Invoices:   invoiceSvc,
		Email:      mailer,
		AlertEmail: cfg.AlertEmail,
		Log:        logger,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: envInt("WORKER_CONCURRENCY", 4),
			Queues:      map[string]int{"default": 1},
		},
	)
	mux := asynq.NewServeMux()
	handlers.Register(mux)

	logger.Info().Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker stopped")
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

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
