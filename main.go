package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundfinder-backend/config"
	"fundfinder-backend/conn"
	"fundfinder-backend/logger"
	"fundfinder-backend/marketing"
	"fundfinder-backend/migrations"
	"fundfinder-backend/openai"
)

func main() {
	bootLog := logger.New(true)
	if err := godotenv.Load(); err != nil {
		bootLog.Warn().Msg("no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.IsDevelopment())

	db, dialect, err := conn.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect store")
	}
	defer db.Close()
	if err := migrations.Run(db, dialect); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	if cfg.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set; searches will fail upstream")
	}
	a, err := newApp(cfg, db, dialect, openai.NewClient(cfg), log)
	if err != nil {
		log.Fatal().Err(err).Msg("build app")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MarketingEnabled {
		marketing.NewService(a.ledger, a.users, a.mailer, a.clock, cfg.FreeDailyLimit, log).Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.AITimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", string(dialect)).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
