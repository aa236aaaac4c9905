package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tvgflow/api/internal/company"
	"github.com/tvgflow/api/internal/config"
	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
	"github.com/tvgflow/api/internal/microtask"
	"github.com/tvgflow/api/internal/notify"
	"github.com/tvgflow/api/internal/scope"
	"github.com/tvgflow/api/internal/service"
	"github.com/tvgflow/api/internal/sweep"
	"github.com/tvgflow/api/internal/task"
	"github.com/tvgflow/api/internal/tenant"
)

const refreshCookieName = "refresh_token"

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	sweeper       *sweep.Service
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	devCookies    bool
}

// NewRouter devolve roteador configurado com todos os domínios montados.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService, dispatcher *notify.Dispatcher, sweeper *sweep.Service) http.Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if strings.Contains(origin, "localhost") {
			devCookies = true
			break
		}
	}

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		sweeper:       sweeper,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		devCookies:    devCookies,
	}

	resolver := scope.NewResolver(scope.NewRepository(pool), cfg.SuperAdminEmail, log.With().Str("component", "scope").Logger())

	taskService := task.NewService(task.NewRepository(pool), dispatcher, log.With().Str("component", "task").Logger())
	taskHandler := task.NewHandler(taskService)

	microTaskService := microtask.NewService(microtask.NewRepository(pool), dispatcher, log.With().Str("component", "microtask").Logger())
	microTaskHandler := microtask.NewHandler(microTaskService)

	notifyHandler := notify.NewHandler(dispatcher)

	companyService := company.NewService(company.NewRepository(pool))
	companyHandler := company.NewHandler(companyService)

	tenantService := tenant.NewService(tenant.NewRepository(pool))
	tenantHandler := tenant.NewHandler(tenantService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Route("/v1", func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))
		private.Use(httpmiddleware.TenantContext(resolver))

		private.Get("/me/context", h.MeContext)

		private.Route("/tasks", func(tasks chi.Router) {
			task.Mount(tasks, taskHandler)
			microTaskHandler.RegisterTaskRoutes(tasks)
		})
		private.Route("/microtasks", microTaskHandler.RegisterRoutes)
		private.Route("/notifications", notifyHandler.RegisterRoutes)
		private.Route("/clients", companyHandler.RegisterClientRoutes)
		private.Route("/departments", companyHandler.RegisterDepartmentRoutes)
	})

	r.Route("/saas", func(admin chi.Router) {
		admin.Use(httpmiddleware.Auth(authService.JWT()))
		admin.Use(httpmiddleware.UserRateLimit(h.authLimiter))
		admin.Use(httpmiddleware.TenantContext(resolver))
		admin.Use(httpmiddleware.RequireSuperAdmin)

		admin.Route("/tenants", tenantHandler.RegisterRoutes)
	})

	r.Route("/internal", func(internal chi.Router) {
		internal.Use(httpmiddleware.Auth(authService.JWT()))
		internal.Use(httpmiddleware.TenantContext(resolver))
		internal.Use(httpmiddleware.RequireSuperAdmin)

		internal.Post("/sweep/run", h.SweepRun)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Login autentica profissional por e-mail/senha.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Password) == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona o par de tokens a partir do refresh atual.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "refresh ausente", nil)
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// MeContext devolve o contexto efetivo resolvido para o chamador.
func (h *Handler) MeContext(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())
	if sc == nil {
		WriteError(w, http.StatusUnauthorized, "AUTH", "contexto ausente", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"mode":            sc.Mode,
		"tenant_id":       sc.TenantID,
		"role":            sc.Role,
		"professional_id": sc.ProfessionalID,
	})
}

// SweepRun dispara uma passada imediata da varredura de atrasos.
func (h *Handler) SweepRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.RunOnce(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("sweep: execução manual falhou")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "varredura falhou", nil)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "AUTH", err.Error(), nil)
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao autenticar", nil)
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken)

	WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.AccessToken,
		"user": map[string]any{
			"id":    result.Subject,
			"name":  result.Name,
			"email": result.Email,
			"role":  result.Role,
		},
	})
}

func getRefreshFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.RefreshToken != "" {
		return payload.RefreshToken, nil
	}
	return "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.JWTRefreshTTL),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
