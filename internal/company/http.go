package company

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
)

// Handler expõe o cadastro de clientes e departamentos do tenant.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterClientRoutes registra as rotas de clientes.
func (h *Handler) RegisterClientRoutes(r chi.Router) {
	r.Get("/", h.listClients)
	r.Post("/", h.createClient)
	r.Put("/{clientID}", h.updateClient)
	r.Delete("/{clientID}", h.deleteClient)
}

// RegisterDepartmentRoutes registra as rotas de departamentos.
func (h *Handler) RegisterDepartmentRoutes(r chi.Router) {
	r.Get("/", h.listDepartments)
	r.Post("/", h.createDepartment)
	r.Put("/{departmentID}", h.updateDepartment)
	r.Delete("/{departmentID}", h.deleteDepartment)
}

type namePayload struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	clients, err := h.service.ListClients(r.Context(), sc)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	created, err := h.service.CreateClient(r.Context(), sc, payload.Name)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "clientID inválido")
		return
	}

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	updated, err := h.service.UpdateClient(r.Context(), sc, id, payload.Name)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "clientID inválido")
		return
	}

	if err := h.service.DeleteClient(r.Context(), sc, id); err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) listDepartments(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	departments, err := h.service.ListDepartments(r.Context(), sc)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": departments})
}

func (h *Handler) createDepartment(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	created, err := h.service.CreateDepartment(r.Context(), sc, payload.Name)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateDepartment(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "departmentID inválido")
		return
	}

	var payload namePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	updated, err := h.service.UpdateDepartment(r.Context(), sc, id, payload.Name, active)
	if err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "departmentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "departmentID inválido")
		return
	}

	if err := h.service.DeleteDepartment(r.Context(), sc, id); err != nil {
		writeCompanyError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func writeCompanyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "registro não encontrado")
	default:
		log.Error().Err(err).Msg("company: erro interno")
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
