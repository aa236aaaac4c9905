package tenant

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
)

// Handler expõe a gestão de tenants do painel super-admin.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{tenantID}/suspend", h.suspend)
	r.Post("/{tenantID}/activate", h.activate)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	tenants, err := h.service.List(r.Context(), sc)
	if err != nil {
		writeTenantError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	created, err := h.service.Create(r.Context(), sc, CreateInput{Name: payload.Name})
	if err != nil {
		writeTenantError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tenantID inválido")
		return
	}

	updated, err := h.service.Suspend(r.Context(), sc, id)
	if err != nil {
		writeTenantError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "tenantID inválido")
		return
	}

	updated, err := h.service.Activate(r.Context(), sc, id)
	if err != nil {
		writeTenantError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func writeTenantError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso restrito ao super-admin")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "tenant não encontrado")
	default:
		log.Error().Err(err).Msg("tenant: erro interno")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]any{"code": code, "message": message},
	})
}
