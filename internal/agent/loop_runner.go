package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/session"
	"github.com/chartchat/chartchat/internal/shared/llmutils"
	"github.com/chartchat/chartchat/internal/tools"
)

// ToolInvoker is the part of the tool registry the loop needs.
type ToolInvoker interface {
	schema.ToolCatalog
	Invoke(ctx context.Context, name string, args map[string]any) (string, error)
}

// LoopRunner executes the model ↔ tool iteration for one turn.
type LoopRunner struct {
	provider schema.LLMProvider
	tools    ToolInvoker
	settings schema.AgentSettings
}

func newLoopRunner(provider schema.LLMProvider, invoker ToolInvoker, settings schema.AgentSettings) LoopRunner {
	return LoopRunner{provider: provider, tools: invoker, settings: settings}
}

// turnResult is the outcome of a finished loop.
type turnResult struct {
	answer    string
	toolsUsed []string
	rounds    int
}

// run drives AWAITING_MODEL → EXECUTING_TOOL → … → DONE for one turn.
// The user message must already be in sess. Every message produced along
// the way is appended to sess as soon as it exists, so a failed turn leaves
// the history exactly as far as it got.
//
// ctx carries the per-turn deadline; parent is the caller's context and
// is used to tell a caller cancellation apart from the turn timing out.
func (r *LoopRunner) run(
	ctx, parent context.Context,
	sessions *session.Manager,
	sess *session.Session,
	opts schema.ChatOptions,
	onEvent EventFunc,
) (turnResult, error) {
	var (
		res     turnResult
		state   = StateAwaitingModel
		catalog = r.catalog()
	)

	for state != StateDone {
		history := r.withSystemPrompt(sess.History())

		slog.Debug("Awaiting model", "session", sess.ID(), "round", res.rounds, "messages", len(history))
		outcome, err := await(ctx, parent, func(c context.Context) (schema.ModelOutcome, error) {
			return r.provider.Complete(c, history, catalog, opts)
		})
		if err != nil {
			return res, err
		}

		switch out := outcome.(type) {
		case schema.FinalMessage:
			res.answer = out.Text
			sessions.AppendTo(sess, schema.NewAssistantMessage(out.Text))
			emit(onEvent, Event{Type: EventAnswer, SessionID: sess.ID(), Round: res.rounds, Content: out.Text})
			state = StateDone

		case schema.ToolRequest:
			if res.rounds >= r.settings.MaxToolRounds {
				return res, schema.NewError(schema.KindToolLoopExceeded,
					"model still requesting tools after %d rounds", res.rounds)
			}
			state = StateExecutingTool
			res.rounds++

			result, err := r.executeTool(ctx, parent, sessions, sess, out, res.rounds, onEvent)
			if err != nil {
				return res, err
			}
			res.toolsUsed = append(res.toolsUsed, out.ToolName)
			emit(onEvent, Event{
				Type:      EventToolResult,
				SessionID: sess.ID(),
				Round:     res.rounds,
				Tool:      out.ToolName,
				CallID:    out.CallID,
				Content:   result,
			})
			state = StateAwaitingModel

		default:
			return res, schema.NewError(schema.KindModelUnavailable, "unexpected model outcome %T", outcome)
		}
	}
	return res, nil
}

// executeTool records the call, runs it, and records its result.
// An unknown tool or the turn deadline aborts the turn after the call has
// been recorded; the next turn closes it with an aborted result.
func (r *LoopRunner) executeTool(
	ctx, parent context.Context,
	sessions *session.Manager,
	sess *session.Session,
	req schema.ToolRequest,
	round int,
	onEvent EventFunc,
) (string, error) {
	call := schema.ToolCall{ID: req.CallID, Name: req.ToolName, Arguments: req.Arguments}
	if call.ID == "" {
		call.ID = "call_" + uuid.NewString()
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}
	sessions.AppendTo(sess, schema.NewToolCallMessage(call))

	argsJSON, _ := json.Marshal(call.Arguments)
	slog.Info("Tool call", "session", sess.ID(), "round", round, "name", call.Name,
		"args", llmutils.Truncate(string(argsJSON), 200))
	emit(onEvent, Event{
		Type:      EventToolCall,
		SessionID: sess.ID(),
		Round:     round,
		Tool:      call.Name,
		CallID:    call.ID,
		Arguments: call.Arguments,
		Hint:      llmutils.ToolHint(call),
	})

	toolCtx := tools.WithTurnContext(ctx, tools.TurnContext{SessionID: sess.ID(), CallID: call.ID, Round: round})
	result, err := await(toolCtx, parent, func(c context.Context) (string, error) {
		return r.tools.Invoke(c, call.Name, call.Arguments)
	})
	if err != nil {
		return "", err
	}

	sessions.AppendTo(sess, schema.NewToolResultMessage(call.ID, call.Name, result))
	return result, nil
}

func (r *LoopRunner) catalog() schema.ToolCatalog {
	if !r.settings.ToolsEnabled || r.tools == nil {
		return tools.NoTools
	}
	return r.tools
}

// withSystemPrompt prepends the configured system prompt. The prompt is
// sent on every request but never stored in the session.
func (r *LoopRunner) withSystemPrompt(history []schema.Message) []schema.Message {
	if r.settings.SystemPrompt == "" {
		return history
	}
	out := make([]schema.Message, 0, len(history)+1)
	out = append(out, schema.NewSystemMessage(r.settings.SystemPrompt))
	return append(out, history...)
}

// await runs fn in its own goroutine and waits for it or for ctx to end.
// When ctx ends first the result fn eventually produces is dropped.
// A parent cancellation is returned as is; any other end of ctx is the
// per-turn deadline and becomes ErrTurnTimeout.
func await[T any](ctx, parent context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		// Tools report failures as text, so a result can arrive with a nil
		// error after the deadline has already passed.
		if ctx.Err() != nil {
			return zero, deadlineError(ctx, parent)
		}
		return r.v, r.err
	case <-ctx.Done():
		return zero, deadlineError(ctx, parent)
	}
}

func deadlineError(ctx, parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return schema.WrapError(schema.KindTurnTimeout, ctx.Err(), "turn did not finish in time")
	}
	return ctx.Err()
}

func emit(fn EventFunc, ev Event) {
	if fn != nil {
		fn(ev)
	}
}
