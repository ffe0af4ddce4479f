package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/serisow/ailab/history"
	"github.com/serisow/ailab/lab_type"
)

// HistoryStore persists, lists and removes saved chat sessions.
type HistoryStore interface {
	Save(session *lab_type.ChatSession) error
	Get(id string) (*lab_type.ChatSession, error)
	List() ([]lab_type.ChatSession, error)
	Delete(id string) error
}

type HistoryHandler struct {
	store  HistoryStore
	logger *slog.Logger
}

func NewHistoryHandler(store HistoryStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, logger: logger}
}

type sessionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	MessageCount int    `json:"message_count"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.List()
	if err != nil {
		h.logger.Error("Failed to list chat sessions",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to list chat sessions", http.StatusInternalServerError)
		return
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, sessionSummary{
			ID:           session.ID,
			Title:        session.Title,
			MessageCount: len(session.Messages),
			CreatedAt:    session.CreatedAt.Format("2006-01-02T15:04:05Z"),
			UpdatedAt:    session.UpdatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": summaries,
		"count":    len(summaries),
	})
}

// Save imports a full session, e.g. restoring an exported transcript.
func (h *HistoryHandler) Save(w http.ResponseWriter, r *http.Request) {
	var session lab_type.ChatSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(session.Messages) == 0 {
		writeJSONError(w, "Session must contain at least one message", http.StatusBadRequest)
		return
	}

	if err := h.store.Save(&session); err != nil {
		h.logger.Error("Failed to save chat session",
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to save chat session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, err := h.store.Get(id)
	if errors.Is(err, history.ErrSessionNotFound) {
		writeJSONError(w, "Chat session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to load chat session",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to load chat session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(id); err != nil {
		h.logger.Error("Failed to delete chat session",
			slog.String("session_id", id),
			slog.String("error", err.Error()))
		writeJSONError(w, "Failed to delete chat session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Chat session deleted", "id": id})
}
