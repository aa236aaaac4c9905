package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tvgflow/api/internal/auth"
	"github.com/tvgflow/api/internal/util"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

// Credentials é a projeção de profissional usada na autenticação.
type Credentials struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
}

type authRepository interface {
	GetByEmail(ctx context.Context, email string) (*Credentials, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra login, refresh com rotação e logout. O estado do
// refresh vive no Redis, chaveado pelo hash do token.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(repo authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	Subject      uuid.UUID
	Name         string
	Email        string
	Role         string
	AccessToken  string
	RefreshToken string
}

type refreshState struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
}

// Login autentica por e-mail/senha e emite par access+refresh.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := util.ValidateEmail(email); err != nil {
		return nil, ErrInvalidCredentials
	}
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	creds, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !creds.Active {
		return nil, ErrAccountDisabled
	}

	ok, err := auth.Verify(password, creds.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(ctx, creds.ID, creds.Name, creds.Email, creds.Role)
}

// Refresh valida o token de refresh, revoga o antigo e emite par novo.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrRefreshInvalid
	}

	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	payload, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	var state refreshState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, ErrRefreshInvalid
	}
	subject, err := uuid.Parse(state.Subject)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	// rotação: o refresh usado deixa de valer imediatamente
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Msg("auth: revogação do refresh antigo falhou")
	}

	return s.issuePair(ctx, subject, "", "", state.Role)
}

// Logout revoga o refresh token apresentado.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}
	key := auth.RefreshRedisKey(auth.HashRefreshToken(rawToken))
	return s.redis.Del(ctx, key).Err()
}

func (s *AuthService) issuePair(ctx context.Context, subject uuid.UUID, name, email, role string) (*LoginResult, error) {
	access, _, err := s.jwt.GenerateAccessToken(subject.String(), role)
	if err != nil {
		return nil, err
	}

	rawRefresh, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	state, err := json.Marshal(refreshState{Subject: subject.String(), Role: role})
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, auth.RefreshRedisKey(hash), state, s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		Subject:      subject,
		Name:         name,
		Email:        email,
		Role:         role,
		AccessToken:  access,
		RefreshToken: rawRefresh,
	}, nil
}
