package task

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
	"github.com/tvgflow/api/internal/scope"
)

func TestTaskHandlers(t *testing.T) {
	tenantID := uuid.New()
	staffID := uuid.New()

	repo := newStubTaskRepo()
	existing := &Task{ID: uuid.New(), TenantID: tenantID, Title: "Relatório mensal", Status: StatusPending, Priority: PriorityMedium, AssignedTo: &staffID}
	repo.tasks[existing.ID] = existing

	svc := NewService(repo, &noopDispatcher{}, zerolog.Nop())
	handler := NewHandler(svc)

	admin := adminScope(tenantID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		sc     *scope.Context
		status int
	}{
		{"list", http.MethodGet, "/", nil, admin, http.StatusOK},
		{"get", http.MethodGet, "/" + existing.ID.String(), nil, admin, http.StatusOK},
		{"get-invalid-id", http.MethodGet, "/nao-uuid", nil, admin, http.StatusBadRequest},
		{"get-missing", http.MethodGet, "/" + uuid.NewString(), nil, admin, http.StatusNotFound},
		{"create", http.MethodPost, "/", map[string]any{"title": "Nova tarefa", "assigned_to": staffID}, admin, http.StatusCreated},
		{"create-sem-titulo", http.MethodPost, "/", map[string]any{"priority": "alta"}, admin, http.StatusBadRequest},
		{"create-staff", http.MethodPost, "/", map[string]any{"title": "Nova"}, staffScope(tenantID, staffID), http.StatusForbidden},
		{"update-status", http.MethodPut, "/" + existing.ID.String(), map[string]any{"status": "em_andamento"}, admin, http.StatusOK},
		{"update-transicao-invalida", http.MethodPut, "/" + existing.ID.String(), map[string]any{"status": "pendente"}, admin, http.StatusBadRequest},
		{"delete-staff", http.MethodDelete, "/" + existing.ID.String(), nil, staffScope(tenantID, staffID), http.StatusForbidden},
		{"delete", http.MethodDelete, "/" + existing.ID.String(), nil, admin, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, requestBody(tc.body))
			req = req.WithContext(context.WithValue(req.Context(), httpmiddleware.ContextKeyScope, tc.sc))
			rec := httptest.NewRecorder()

			r := chi.NewRouter()
			handler.RegisterRoutes(r)
			r.ServeHTTP(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("%s %s: expected %d got %d (%s)", tc.method, tc.path, tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTaskHandlerTransitionErrorDetails(t *testing.T) {
	tenantID := uuid.New()

	repo := newStubTaskRepo()
	existing := &Task{ID: uuid.New(), TenantID: tenantID, Title: "Concluída", Status: StatusCompleted, Priority: PriorityLow}
	repo.tasks[existing.ID] = existing

	handler := NewHandler(NewService(repo, &noopDispatcher{}, zerolog.Nop()))

	req := httptest.NewRequest(http.MethodPut, "/"+existing.ID.String(), requestBody(map[string]any{"status": "em_andamento"}))
	req = req.WithContext(context.WithValue(req.Context(), httpmiddleware.ContextKeyScope, adminScope(tenantID)))
	rec := httptest.NewRecorder()

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "INVALID_STATUS_TRANSITION" {
		t.Fatalf("expected INVALID_STATUS_TRANSITION got %s", body.Error.Code)
	}
	if body.Error.Details["current_status"] != StatusCompleted {
		t.Fatalf("expected current_status %s got %s", StatusCompleted, body.Error.Details["current_status"])
	}
}

func requestBody(body any) *bytes.Buffer {
	if body == nil {
		return bytes.NewBuffer(nil)
	}
	b, _ := json.Marshal(body)
	return bytes.NewBuffer(b)
}
