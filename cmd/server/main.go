package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pantrio/internal/clock"
	"pantrio/internal/config"
	"pantrio/internal/infra"
	"pantrio/internal/repository"
	"pantrio/internal/router"
	"pantrio/internal/service"
	"pantrio/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.System()

	// Worker pool for async email delivery, wired here (composition root) so
	// the pool has full access to all infrastructure dependencies.
	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker("smtp", infra.MailCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	userRepo := repository.NewUserRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	emailWorker := worker.NewEmailWorker(mailer, smtpCB, alertRepo, userRepo)
	worker.StartWorkerPool(ctx, rdb, emailWorker, cfg.WorkerPoolSize)

	// Background scheduler: daily expiry scans and alert pruning, monthly
	// shopping list generation.
	if cfg.SchedulerEnabled {
		batchRepo := repository.NewBatchRepository(db)
		movementRepo := repository.NewMovementRepository(db)
		productRepo := repository.NewProductRepository(db)
		shoppingRepo := repository.NewShoppingRepository(db)

		stockSvc := service.NewStockService(batchRepo, movementRepo, productRepo, rdb, clk)
		alertSvc := service.NewAlertService(alertRepo, batchRepo, productRepo, dispatcher, clk)
		shoppingSvc := service.NewShoppingService(shoppingRepo, productRepo, batchRepo, stockSvc, clk)

		worker.StartScheduler(ctx, worker.SchedulerConfig{
			Users:      userRepo,
			Alerts:     alertSvc,
			Shopping:   shoppingSvc,
			Dispatcher: dispatcher,
			Clock:      clk,
		})
	}

	r := router.New(cfg, db, rdb, dispatcher, smtpCB, clk)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("pantrio listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
