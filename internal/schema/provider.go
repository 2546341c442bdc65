package schema

import "context"

// ChatOptions configures a single model request. Zero values leave the
// endpoint's defaults in place.
type ChatOptions struct {
	Model            string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// ModelOutcome is what one model call produced: a FinalMessage or a ToolRequest.
type ModelOutcome interface {
	isModelOutcome()
}

// FinalMessage is a plain assistant reply; it ends the turn.
type FinalMessage struct {
	Text string
}

// ToolRequest asks the caller to run exactly one tool.
type ToolRequest struct {
	ToolName  string
	Arguments map[string]any
	CallID    string
}

func (FinalMessage) isModelOutcome() {}
func (ToolRequest) isModelOutcome()  {}

// LLMProvider is the boundary to the remote completion service.
//
// Complete returns ErrModelUnavailable for transport or decoding failures
// and ErrMultipleToolCalls when the model asks for more than one tool at once.
// Context errors are returned unwrapped.
type LLMProvider interface {
	Complete(ctx context.Context, history []Message, tools ToolCatalog, opts ChatOptions) (ModelOutcome, error)
	DefaultModel() string
}
