package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tvgflow/api/internal/auth"
	"github.com/tvgflow/api/internal/scope"
)

type contextKey string

const (
	ContextKeySubject contextKey = "subject"
	ContextKeyRole    contextKey = "role"
	ContextKeyScope   contextKey = "scope"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetRole recupera o papel declarado no token.
func GetRole(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}

// TenantContext resolve o contexto efetivo do chamador (modo, tenant, papel)
// e injeta no request. Toda rota com escopo de tenant passa por aqui.
func TenantContext(resolver *scope.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := GetSubject(r.Context())
			subjectID, err := uuid.Parse(subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "subject inválido")
				return
			}

			sc, err := resolver.Resolve(r.Context(), subjectID)
			if err != nil {
				status, code := http.StatusForbidden, "TENANT_CONTEXT"
				switch err {
				case scope.ErrNotAuthenticated:
					status, code = http.StatusUnauthorized, "AUTH"
				case scope.ErrProfessionalNotFound, scope.ErrTenantContextNotFound:
					// 403 genérico: ausência de vínculo não revela nada além
				default:
					status, code = http.StatusInternalServerError, "INTERNAL"
				}
				writeError(w, status, code, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyScope, sc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetScope recupera o contexto de tenant resolvido.
func GetScope(ctx context.Context) *scope.Context {
	val, _ := ctx.Value(ContextKeyScope).(*scope.Context)
	return val
}

// RequireSuperAdmin restringe a rota ao modo super-admin.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := GetScope(r.Context())
		if sc == nil || !sc.IsSuperAdmin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito ao super-admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTenantAdmin restringe a rota a admin do tenant corrente.
func RequireTenantAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := GetScope(r.Context())
		if sc == nil || !sc.IsAdmin() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito a administradores")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
