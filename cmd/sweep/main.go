package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tvgflow/api/internal/config"
	"github.com/tvgflow/api/internal/db"
	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/sweep"
)

// Executa uma passada única da varredura de tarefas atrasadas. Pensado para
// agendadores externos (cron) quando a varredura embutida está desligada.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	ctx := context.Background()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	var pusher notify.Pusher
	if wp := notify.NewWebhookPusher(strings.TrimSpace(os.Getenv("PUSH_WEBHOOK_URL"))); wp != nil {
		pusher = wp
	}
	dispatcher := notify.NewDispatcher(notify.NewRepository(pool), pusher, log.With().Str("component", "notify").Logger())

	renotifyAfter := time.Hour
	if raw := strings.TrimSpace(os.Getenv("SWEEP_RENOTIFY_AFTER")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatal().Err(err).Msg("SWEEP_RENOTIFY_AFTER inválido")
		}
		renotifyAfter = d
	}

	sweeper := sweep.NewService(sweep.NewRepository(pool), dispatcher, config.SweepConfig{RenotifyAfter: renotifyAfter}, log.With().Str("component", "sweep").Logger())

	report, err := sweeper.RunOnce(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("varredura falhou")
	}

	encoded, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(encoded))
}
