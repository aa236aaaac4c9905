package task

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
	"github.com/tvgflow/api/internal/scope"
)

// ServiceProvider descreve o serviço consumido pelo handler.
type ServiceProvider interface {
	List(ctx context.Context, sc *scope.Context, filters Filters) ([]Task, error)
	Get(ctx context.Context, sc *scope.Context, id uuid.UUID) (*Task, error)
	Create(ctx context.Context, sc *scope.Context, input CreateInput) (*Task, error)
	Update(ctx context.Context, sc *scope.Context, id uuid.UUID, input UpdateInput) (*Task, error)
	Delete(ctx context.Context, sc *scope.Context, id uuid.UUID) error
}

// Handler expõe endpoints REST de tarefas.
type Handler struct {
	service ServiceProvider
}

func NewHandler(service ServiceProvider) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Get("/{taskID}", h.getTask)
	r.Put("/{taskID}", h.updateTask)
	r.Delete("/{taskID}", h.deleteTask)
}

type taskPayload struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	ClientID     *uuid.UUID `json:"client_id"`
	DepartmentID *uuid.UUID `json:"department_id"`
	AssignedTo   *uuid.UUID `json:"assigned_to"`
	Priority     *string    `json:"priority"`
	Status       *string    `json:"status"`
	Deadline     *time.Time `json:"deadline"`
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	filters := Filters{
		Priority:    strings.TrimSpace(r.URL.Query().Get("priority")),
		OverdueOnly: r.URL.Query().Get("overdue") == "true",
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := NormalizeStatus(raw)
		if status == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION", "status desconhecido", nil)
			return
		}
		filters.Status = status
	}
	if raw := r.URL.Query().Get("department_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "department_id inválido", nil)
			return
		}
		filters.DepartmentID = &id
	}
	if raw := r.URL.Query().Get("assigned_to"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "assigned_to inválido", nil)
			return
		}
		filters.AssignedTo = &id
	}

	tasks, err := h.service.List(r.Context(), sc, filters)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := CreateInput{
		ClientID:     payload.ClientID,
		DepartmentID: payload.DepartmentID,
		AssignedTo:   payload.AssignedTo,
		Deadline:     payload.Deadline,
	}
	if payload.Title != nil {
		input.Title = *payload.Title
	}
	if payload.Description != nil {
		input.Description = *payload.Description
	}
	if payload.Priority != nil {
		input.Priority = *payload.Priority
	}

	created, err := h.service.Create(r.Context(), sc, input)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "taskID inválido", nil)
		return
	}

	t, err := h.service.Get(r.Context(), sc, id)
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "taskID inválido", nil)
		return
	}

	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	updated, err := h.service.Update(r.Context(), sc, id, UpdateInput{
		ClientID:     payload.ClientID,
		DepartmentID: payload.DepartmentID,
		AssignedTo:   payload.AssignedTo,
		Title:        payload.Title,
		Description:  payload.Description,
		Priority:     payload.Priority,
		Status:       payload.Status,
		Deadline:     payload.Deadline,
	})
	if err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "taskID inválido", nil)
		return
	}

	if err := h.service.Delete(r.Context(), sc, id); err != nil {
		writeTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func writeTaskError(w http.ResponseWriter, err error) {
	var invalid *InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", invalid.Error(), map[string]string{
			"current_status":   invalid.From,
			"requested_status": invalid.To,
		})
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "tarefa não encontrada", nil)
	default:
		log.Error().Err(err).Msg("task: erro interno")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": nil, "error": body})
}
