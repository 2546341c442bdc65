package schema

import "time"

// Role tags who produced a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one function call requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Message is one entry in a session history.
//
// ToolCall is set only on assistant messages that request a tool.
// ToolResultFor and ToolName are set only on tool-result messages and
// carry the ID and name of the call they answer.
// Messages are never modified after they are appended to a session.
type Message struct {
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	ToolCall      *ToolCall `json:"tool_call,omitempty"`
	ToolResultFor string    `json:"tool_result_for,omitempty"`
	ToolName      string    `json:"tool_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, CreatedAt: time.Now()}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, CreatedAt: time.Now()}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, CreatedAt: time.Now()}
}

// NewToolCallMessage records the model's request to run one tool.
func NewToolCallMessage(call ToolCall) Message {
	c := call
	return Message{Role: RoleAssistant, ToolCall: &c, CreatedAt: time.Now()}
}

// NewToolResultMessage records the output of the call identified by callID.
func NewToolResultMessage(callID, toolName, result string) Message {
	return Message{
		Role:          RoleTool,
		Content:       result,
		ToolResultFor: callID,
		ToolName:      toolName,
		CreatedAt:     time.Now(),
	}
}

// AbortedToolResult is recorded for a tool call whose turn ended before
// the tool produced a result.
const AbortedToolResult = "Error: tool call was aborted before it produced a result"

// NewAbortedToolResult closes call with AbortedToolResult.
func NewAbortedToolResult(call ToolCall) Message {
	return NewToolResultMessage(call.ID, call.Name, AbortedToolResult)
}

// IsToolCall reports whether m is an assistant tool-call entry.
func (m Message) IsToolCall() bool { return m.Role == RoleAssistant && m.ToolCall != nil }

// IsToolResult reports whether m is a tool-result entry.
func (m Message) IsToolResult() bool { return m.Role == RoleTool }

// PendingToolCalls returns the IDs of tool calls in msgs that have no
// matching tool-result entry.
func PendingToolCalls(msgs []Message) []string {
	answered := make(map[string]bool)
	for _, m := range msgs {
		if m.IsToolResult() {
			answered[m.ToolResultFor] = true
		}
	}

	var pending []string
	for _, m := range msgs {
		if m.IsToolCall() && !answered[m.ToolCall.ID] {
			pending = append(pending, m.ToolCall.ID)
		}
	}
	return pending
}
