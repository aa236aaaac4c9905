package notify

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/tvgflow/api/internal/http/middleware"
)

// Handler expõe a caixa de notificações do destinatário.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{notificationID}/read", h.markRead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	onlyUnread := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, err := h.dispatcher.List(r.Context(), sc.ProfessionalID, onlyUnread, limit)
	if err != nil {
		log.Error().Err(err).Msg("notify: erro interno")
		writeNotifyError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"notifications": items}, "error": nil})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	sc := httpmiddleware.GetScope(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "notificationID"))
	if err != nil {
		writeNotifyError(w, http.StatusBadRequest, "VALIDATION", "notificationID inválido")
		return
	}

	if err := h.dispatcher.MarkRead(r.Context(), sc.ProfessionalID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeNotifyError(w, http.StatusNotFound, "NOT_FOUND", "notificação não encontrada")
			return
		}
		log.Error().Err(err).Msg("notify: erro interno")
		writeNotifyError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"read": true}, "error": nil})
}

func writeNotifyError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]any{"code": code, "message": message},
	})
}
