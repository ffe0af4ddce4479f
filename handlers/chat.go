package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/serisow/ailab/lab_type"
	"github.com/serisow/ailab/services/llm_service"
)

const systemPrompt = "You are AI Lab's assistant. Answer concisely. " +
	"When the user asks about uploaded documents, call the search_documents tool " +
	"and ground your answer in its results. When the user asks for an image, " +
	"call the generate_image tool and include the returned URL in your reply."

// Streamer streams one model turn, reporting text deltas as they arrive.
type Streamer interface {
	StreamChat(ctx context.Context, cfg llm_service.Config, messages []lab_type.ChatMessage,
		tools []llm_service.ToolDefinition, onDelta func(string)) (*llm_service.ChatTurn, error)
}

// ToolInvoker exposes registered tools to the chat loop.
type ToolInvoker interface {
	ToolDefinitions() []llm_service.ToolDefinition
	Invoke(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// SessionStore persists chat transcripts between requests.
type SessionStore interface {
	Save(session *lab_type.ChatSession) error
	Get(id string) (*lab_type.ChatSession, error)
}

type ChatHandler struct {
	cfg      llm_service.Config
	stream   Streamer
	tools    ToolInvoker
	sessions SessionStore
	maxSteps int
	logger   *slog.Logger
}

func NewChatHandler(cfg llm_service.Config, stream Streamer, tools ToolInvoker,
	sessions SessionStore, maxSteps int, logger *slog.Logger) *ChatHandler {
	if maxSteps <= 0 {
		maxSteps = 5
	}
	return &ChatHandler{
		cfg:      cfg,
		stream:   stream,
		tools:    tools,
		sessions: sessions,
		maxSteps: maxSteps,
		logger:   logger,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatEvent struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Chat runs a streaming, tool-using conversation turn over SSE. Each
// event is a JSON object: delta, tool_call, tool_result, error, done.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSONError(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, "Streaming is not supported", http.StatusInternalServerError)
		return
	}

	session := h.loadSession(req)
	session.Messages = append(session.Messages, lab_type.ChatMessage{
		Role:    "user",
		Content: req.Message,
	})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(event chatEvent) {
		payload, err := json.Marshal(event)
		if err != nil {
			return
		}
		w.Write([]byte("data: "))
		w.Write(payload)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	h.runAgentLoop(r.Context(), session, emit)

	if err := h.sessions.Save(session); err != nil {
		h.logger.Error("Failed to save chat session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()))
	}

	emit(chatEvent{Type: "done", SessionID: session.ID})
}

func (h *ChatHandler) loadSession(req chatRequest) *lab_type.ChatSession {
	if req.SessionID != "" {
		if session, err := h.sessions.Get(req.SessionID); err == nil {
			return session
		}
		h.logger.Warn("Chat session not found, starting a new one",
			slog.String("session_id", req.SessionID))
	}

	title := req.Message
	if len(title) > 60 {
		title = title[:60]
	}
	return &lab_type.ChatSession{Title: title}
}

// runAgentLoop alternates model turns and tool invocations until the
// model answers without tool calls or the step cap is reached.
func (h *ChatHandler) runAgentLoop(ctx context.Context, session *lab_type.ChatSession, emit func(chatEvent)) {
	messages := make([]lab_type.ChatMessage, 0, len(session.Messages)+1)
	messages = append(messages, lab_type.ChatMessage{Role: "system", Content: systemPrompt})
	messages = append(messages, session.Messages...)

	for step := 0; step < h.maxSteps; step++ {
		turn, err := h.stream.StreamChat(ctx, h.cfg, messages, h.tools.ToolDefinitions(), func(delta string) {
			emit(chatEvent{Type: "delta", Content: delta})
		})
		if err != nil {
			h.logger.Error("Chat completion failed",
				slog.String("session_id", session.ID),
				slog.Int("step", step),
				slog.String("error", err.Error()))
			emit(chatEvent{Type: "error", Content: "The assistant is unavailable right now"})
			return
		}

		assistant := lab_type.ChatMessage{
			Role:      "assistant",
			Content:   turn.Content,
			ToolCalls: turn.ToolCalls,
		}
		messages = append(messages, assistant)
		session.Messages = append(session.Messages, assistant)

		if len(turn.ToolCalls) == 0 {
			return
		}

		for _, call := range turn.ToolCalls {
			emit(chatEvent{Type: "tool_call", Name: call.Name, Arguments: call.Arguments})

			result, err := h.tools.Invoke(ctx, call.Name, json.RawMessage(call.Arguments))
			if err != nil {
				h.logger.Warn("Tool invocation failed",
					slog.String("tool", call.Name),
					slog.String("error", err.Error()))
				result = "tool error: " + err.Error()
			}

			toolMsg := lab_type.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			}
			messages = append(messages, toolMsg)
			session.Messages = append(session.Messages, toolMsg)
			emit(chatEvent{Type: "tool_result", Name: call.Name, Content: result})
		}
	}

	emit(chatEvent{Type: "error", Content: "Tool step limit reached without a final answer"})
}
