package config

import (
	"errors"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port            int
	DBDSN           string
	RedisURL        string
	JWTAccessTTL    time.Duration
	JWTRefreshTTL   time.Duration
	JWTSecret       string
	AllowOrigins    []string
	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig

	// SuperAdminEmail é o único e-mail autorizado a operar como super_admin.
	// Qualquer outro principal com esse papel gravado no banco é rebaixado
	// para admin na resolução de contexto.
	SuperAdminEmail string

	Sweep SweepConfig
	Push  PushConfig
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SweepConfig parametriza a varredura de tarefas atrasadas.
type SweepConfig struct {
	Enabled       bool
	Interval      time.Duration
	RenotifyAfter time.Duration
}

// PushConfig parametriza o transporte externo de notificações.
type PushConfig struct {
	WebhookURL string
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port

	cfg.DBDSN = getEnv("DB_DSN", "")
	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN obrigatório")
	}

	cfg.RedisURL = getEnv("REDIS_URL", "")
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL obrigatório")
	}

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}

	accessTTL, err := parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = accessTTL

	refreshTTL, err := parseDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTRefreshTTL = refreshTTL

	cfg.SuperAdminEmail = strings.ToLower(strings.TrimSpace(getEnv("SUPER_ADMIN_EMAIL", "")))
	if cfg.SuperAdminEmail == "" {
		return nil, errors.New("SUPER_ADMIN_EMAIL obrigatório")
	}
	if _, err := mail.ParseAddress(cfg.SuperAdminEmail); err != nil {
		return nil, errors.New("SUPER_ADMIN_EMAIL inválido")
	}

	allowOrigins := strings.Split(getEnv("ALLOW_ORIGINS", ""), ",")
	cfg.AllowOrigins = nil
	for _, origin := range allowOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 10, Burst: 40}

	sweepInterval, err := parseDurationEnv("SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	renotifyAfter, err := parseDurationEnv("SWEEP_RENOTIFY_AFTER", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.Sweep = SweepConfig{
		Enabled:       !strings.EqualFold(getEnv("SWEEP_ENABLED", "true"), "false"),
		Interval:      sweepInterval,
		RenotifyAfter: renotifyAfter,
	}

	cfg.Push = PushConfig{WebhookURL: strings.TrimSpace(getEnv("PUSH_WEBHOOK_URL", ""))}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
