package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"github.com/chartchat/chartchat/internal/agent"
	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/session"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
	Model     string `json:"model,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "chartchat is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "request body is not valid JSON")
		return
	}

	slog.Info("Chat request", "session", req.SessionID, "model", req.Model)
	reply, err := s.orchestrator.Submit(r.Context(), agent.Request{
		SessionID: req.SessionID,
		Text:      req.Query,
		Model:     req.Model,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Answer:    reply.Answer,
		SessionID: reply.SessionID,
		Model:     reply.Model,
		ToolsUsed: reply.ToolsUsed,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	list := s.orchestrator.Sessions().List()
	if list == nil {
		list = []session.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msgs, err := s.orchestrator.Sessions().History(id)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "session "+id+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "messages": msgs})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.orchestrator.Sessions().Clear(id); errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "NotFound", "session "+id+" not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".png") || s.opts.PlotsDir == "" {
		writeError(w, http.StatusNotFound, "NotFound", "no such plot")
		return
	}
	path := filepath.Join(s.opts.PlotsDir, name)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "NotFound", "no such plot")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

// statusFor maps a turn error onto an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, agent.ErrEmptyMessage) {
		return http.StatusBadRequest
	}
	switch schema.KindOf(err) {
	case schema.KindSessionBusy:
		return http.StatusConflict
	case schema.KindTurnTimeout:
		return http.StatusGatewayTimeout
	case schema.KindModelUnavailable, schema.KindMultipleToolCalls,
		schema.KindUnknownTool, schema.KindToolLoopExceeded:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func errorKind(err error) string {
	if errors.Is(err, agent.ErrEmptyMessage) {
		return "EmptyMessage"
	}
	return string(schema.KindOf(err))
}

func writeSubmitError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), errorKind(err), err.Error())
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "err", err)
	}
}
