package agent

// State is where a turn currently is.
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
)

// EventType labels a progress Event.
type EventType string

const (
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventAnswer     EventType = "answer"
)

// Event reports turn progress to a transport while the turn runs.
// Content is the tool result for EventToolResult and the reply for EventAnswer.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	Round     int            `json:"round,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	CallID    string         `json:"call_id,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Hint      string         `json:"hint,omitempty"`
	Content   string         `json:"content,omitempty"`
}

// EventFunc receives progress events. It is called from the turn's goroutine
// and must not block for long.
type EventFunc func(Event)
