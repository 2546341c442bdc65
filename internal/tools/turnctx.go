package tools

import "context"

// TurnContext carries per-turn metadata through the context tree.
// The orchestrator sets it once per turn and refreshes Round before each
// tool call; tools read it for logging.
type TurnContext struct {
	SessionID string
	CallID    string
	Round     int
}

type turnKey struct{}

// WithTurnContext returns a child context that carries tc.
func WithTurnContext(ctx context.Context, tc TurnContext) context.Context {
	return context.WithValue(ctx, turnKey{}, tc)
}

// TurnCtx extracts the TurnContext from ctx.
// Returns a zero-value TurnContext if none was set.
func TurnCtx(ctx context.Context) TurnContext {
	tc, _ := ctx.Value(turnKey{}).(TurnContext)
	return tc
}
