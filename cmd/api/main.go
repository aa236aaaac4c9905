package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tvgflow/api/internal/auth"
	"github.com/tvgflow/api/internal/config"
	"github.com/tvgflow/api/internal/db"
	internalhttp "github.com/tvgflow/api/internal/http"
	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/service"
	"github.com/tvgflow/api/internal/sweep"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(service.NewAuthRepository(pool), redisClient, jwtManager, cfg.JWTRefreshTTL)

	var pusher notify.Pusher
	if wp := notify.NewWebhookPusher(cfg.Push.WebhookURL); wp != nil {
		pusher = wp
	}
	dispatcher := notify.NewDispatcher(notify.NewRepository(pool), pusher, log.With().Str("component", "notify").Logger())

	sweeper := sweep.NewService(sweep.NewRepository(pool), dispatcher, cfg.Sweep, log.With().Str("component", "sweep").Logger())
	if cfg.Sweep.Enabled {
		sweeper.Start(ctx)
		defer sweeper.Stop()
	}

	handler := internalhttp.NewRouter(cfg, pool, redisClient, authService, dispatcher, sweeper)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
