package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chartchat/chartchat/internal/agent"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI is served from a different origin
	},
}

// SafeConn serializes writes; progress events and replies come from
// different goroutines.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteJSON(v)
}

// Frame is one server → client websocket message.
type Frame struct {
	Type      string        `json:"type"` // "event", "answer" or "error"
	SessionID string        `json:"session_id,omitempty"`
	Event     *agent.Event  `json:"event,omitempty"`
	Answer    *ChatResponse `json:"answer,omitempty"`
	Error     *errorDetail  `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "err", err)
		return
	}
	conn := &SafeConn{Conn: rawConn}
	defer conn.Close()

	ctx := r.Context()
	var sessionID string

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("WS read ended", "err", err)
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}

		reply, err := s.orchestrator.Submit(ctx, agent.Request{
			SessionID: req.SessionID,
			Text:      req.Query,
			Model:     req.Model,
			OnEvent: func(ev agent.Event) {
				if ev.Type == agent.EventAnswer {
					return
				}
				e := ev
				_ = conn.WriteJSON(Frame{Type: "event", SessionID: ev.SessionID, Event: &e})
			},
		})
		if reply.SessionID != "" {
			sessionID = reply.SessionID
		}

		var frame Frame
		if err != nil {
			frame = Frame{
				Type:      "error",
				SessionID: reply.SessionID,
				Error:     &errorDetail{Kind: errorKind(err), Message: err.Error()},
			}
		} else {
			frame = Frame{
				Type:      "answer",
				SessionID: reply.SessionID,
				Answer: &ChatResponse{
					Answer:    reply.Answer,
					SessionID: reply.SessionID,
					Model:     reply.Model,
					ToolsUsed: reply.ToolsUsed,
				},
			}
		}
		if err := conn.WriteJSON(frame); err != nil {
			slog.Debug("WS write failed", "err", err)
			return
		}
	}
}
