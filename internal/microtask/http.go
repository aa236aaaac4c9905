package microtask

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
	"github.com/tvgflow/api/internal/scope"
)

// ServiceProvider descreve o motor consumido pelo handler.
type ServiceProvider interface {
	CreateBatch(ctx context.Context, sc *scope.Context, input CreateBatchInput) ([]MicroTask, error)
	ListByTask(ctx context.Context, sc *scope.Context, taskID uuid.UUID) ([]MicroTask, error)
	Start(ctx context.Context, actingID, microTaskID uuid.UUID) (*MicroTask, error)
	Complete(ctx context.Context, actingID, microTaskID uuid.UUID) (*CompleteResult, error)
	Return(ctx context.Context, actingID, microTaskID, targetID uuid.UUID, reason string) (*ReturnResult, error)
}

// Handler expõe endpoints REST do motor de micro-tarefas.
type Handler struct {
	service ServiceProvider
}

func NewHandler(service ServiceProvider) *Handler {
	return &Handler{service: service}
}

// RegisterTaskRoutes registra as rotas aninhadas em /tasks/{taskID}.
func (h *Handler) RegisterTaskRoutes(r chi.Router) {
	r.Post("/{taskID}/microtasks", h.createBatch)
	r.Get("/{taskID}/microtasks", h.listByTask)
}

// RegisterRoutes registra as rotas de ação sobre micro-tarefas.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/{microTaskID}/start", h.start)
	r.Post("/{microTaskID}/complete", h.complete)
	r.Post("/{microTaskID}/return", h.returnMicroTask)
}

func (h *Handler) createBatch(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "taskID inválido", nil)
		return
	}

	var payload struct {
		Assignments []struct {
			ProfessionalID uuid.UUID `json:"professional_id"`
			FunctionLabel  string    `json:"function_label"`
		} `json:"assignments"`
		CompanyID *uuid.UUID `json:"company_id"`
		Chain     bool       `json:"chain"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	input := CreateBatchInput{TaskID: taskID, CompanyID: payload.CompanyID, Chain: payload.Chain}
	for _, a := range payload.Assignments {
		input.Assignments = append(input.Assignments, Assignment{
			ProfessionalID: a.ProfessionalID,
			FunctionLabel:  a.FunctionLabel,
		})
	}

	items, err := h.service.CreateBatch(r.Context(), sc, input)
	if err != nil {
		writeMicroTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"created_count": len(items),
		"micro_tasks":   items,
	})
}

func (h *Handler) listByTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	taskID, err := uuid.Parse(chi.URLParam(r, "taskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "taskID inválido", nil)
		return
	}

	items, err := h.service.ListByTask(r.Context(), sc, taskID)
	if err != nil {
		writeMicroTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"micro_tasks": items})
}

func (h *Handler) start(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "microTaskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "microTaskID inválido", nil)
		return
	}

	m, err := h.service.Start(r.Context(), sc.ProfessionalID, id)
	if err != nil {
		writeMicroTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "microTaskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "microTaskID inválido", nil)
		return
	}

	result, err := h.service.Complete(r.Context(), sc.ProfessionalID, id)
	if err != nil {
		writeMicroTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) returnMicroTask(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "microTaskID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "microTaskID inválido", nil)
		return
	}

	var payload struct {
		ToProfessionalID uuid.UUID `json:"to_professional_id"`
		Reason           string    `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	result, err := h.service.Return(r.Context(), sc.ProfessionalID, id, payload.ToProfessionalID, payload.Reason)
	if err != nil {
		writeMicroTaskError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeMicroTaskError(w http.ResponseWriter, err error) {
	var invalidState *InvalidStateError
	var invalidAssignment *InvalidAssignmentError
	switch {
	case errors.As(err, &invalidAssignment):
		ids := make([]string, len(invalidAssignment.ProfessionalIDs))
		for i, id := range invalidAssignment.ProfessionalIDs {
			ids[i] = id.String()
		}
		writeError(w, http.StatusBadRequest, "INVALID_ASSIGNMENT", invalidAssignment.Error(), map[string]any{
			"professional_ids": ids,
		})
	case errors.As(err, &invalidState):
		writeError(w, http.StatusBadRequest, "INVALID_STATE", invalidState.Error(), map[string]string{
			"current_status": invalidState.Current,
		})
	case errors.Is(err, ErrBlocked):
		writeError(w, http.StatusBadRequest, "BLOCKED", "predecessor ainda não concluído", nil)
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "micro-tarefa não encontrada", nil)
	default:
		log.Error().Err(err).Msg("microtask: erro interno")
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
