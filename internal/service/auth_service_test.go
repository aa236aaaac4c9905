package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tvgflow/api/internal/auth"
)

type stubAuthRepo struct {
	creds map[string]*Credentials
}

func (s *stubAuthRepo) GetByEmail(ctx context.Context, email string) (*Credentials, error) {
	c, ok := s.creds[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return c, nil
}

type fakeRedis struct {
	store map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	switch v := value.(type) {
	case string:
		f.store[key] = v
	case []byte:
		f.store[key] = string(v)
	default:
		cmd.SetErr(errors.New("tipo não suportado"))
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	val, ok := f.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := f.store[key]; ok {
			delete(f.store, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func newTestAuthService(t *testing.T, repo *stubAuthRepo, store *fakeRedis) *AuthService {
	t.Helper()
	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!", 15*time.Minute)
	return NewAuthService(repo, store, jwtMgr, 24*time.Hour)
}

func seedProfessional(t *testing.T, password string, active bool) (*stubAuthRepo, *Credentials) {
	t.Helper()
	hash, err := auth.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	creds := &Credentials{
		ID:           uuid.New(),
		Name:         "Maria Souza",
		Email:        "maria@tvgflow.com.br",
		PasswordHash: hash,
		Role:         "admin",
		Active:       active,
	}
	return &stubAuthRepo{creds: map[string]*Credentials{creds.Email: creds}}, creds
}

func TestLoginSuccess(t *testing.T) {
	repo, creds := seedProfessional(t, "senha-forte", true)
	store := newFakeRedis()
	svc := newTestAuthService(t, repo, store)

	result, err := svc.Login(context.Background(), " MARIA@tvgflow.com.br ", "senha-forte")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Subject != creds.ID {
		t.Fatalf("subject esperado %s, veio %s", creds.ID, result.Subject)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("par de tokens incompleto")
	}

	key := auth.RefreshRedisKey(auth.HashRefreshToken(result.RefreshToken))
	if _, ok := store.store[key]; !ok {
		t.Fatal("estado do refresh não persistido")
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("access token inválido: %v", err)
	}
	if claims.Subject != creds.ID.String() || claims.Role != "admin" {
		t.Fatalf("claims inesperadas: sub=%s role=%s", claims.Subject, claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo, _ := seedProfessional(t, "senha-forte", true)
	svc := newTestAuthService(t, repo, newFakeRedis())

	if _, err := svc.Login(context.Background(), "maria@tvgflow.com.br", "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, veio %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	repo, _ := seedProfessional(t, "senha-forte", false)
	svc := newTestAuthService(t, repo, newFakeRedis())

	if _, err := svc.Login(context.Background(), "maria@tvgflow.com.br", "senha-forte"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("esperava ErrAccountDisabled, veio %v", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	repo, creds := seedProfessional(t, "senha-forte", true)
	store := newFakeRedis()
	svc := newTestAuthService(t, repo, store)

	first, err := svc.Login(context.Background(), creds.Email, "senha-forte")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := svc.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("refresh não rotacionou o token")
	}
	if second.Role != "admin" {
		t.Fatalf("papel não preservado na rotação: %s", second.Role)
	}

	oldKey := auth.RefreshRedisKey(auth.HashRefreshToken(first.RefreshToken))
	if _, ok := store.store[oldKey]; ok {
		t.Fatal("refresh antigo continua válido após rotação")
	}

	if _, err := svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("reuso do refresh antigo deveria falhar, veio %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	repo, _ := seedProfessional(t, "senha-forte", true)
	svc := newTestAuthService(t, repo, newFakeRedis())

	if _, err := svc.Refresh(context.Background(), "token-desconhecido"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("esperava ErrRefreshInvalid, veio %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	repo, creds := seedProfessional(t, "senha-forte", true)
	store := newFakeRedis()
	svc := newTestAuthService(t, repo, store)

	result, err := svc.Login(context.Background(), creds.Email, "senha-forte")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), result.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh após logout deveria falhar, veio %v", err)
	}
}
