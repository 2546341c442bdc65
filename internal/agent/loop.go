package agent

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chartchat/chartchat/internal/metrics"
	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/session"
	"github.com/chartchat/chartchat/internal/shared/llmutils"
)

// ErrEmptyMessage is returned by Submit for blank input.
var ErrEmptyMessage = errors.New("message is empty")

const helpText = "chartchat commands:\n/new  Start a new conversation\n/help Show available commands"

// Request is one inbound user message.
type Request struct {
	SessionID string // empty starts a new session
	Text      string
	Model     string // empty uses the configured default
	OnEvent   EventFunc
}

// Reply is the outcome of a successful turn.
type Reply struct {
	Answer    string   `json:"answer"`
	SessionID string   `json:"session_id"`
	Model     string   `json:"model"`
	ToolsUsed []string `json:"tools_used,omitempty"`
	Rounds    int      `json:"rounds"`
}

// Orchestrator runs conversation turns against the model and the tool
// registry and keeps each session's history.
//
// Turns on different sessions run concurrently; a session runs at most one
// turn at a time and the busy policy decides what a second one does.
type Orchestrator struct {
	settings schema.AgentSettings
	sessions *session.Manager
	recorder *metrics.Recorder
	runner   LoopRunner
}

// NewOrchestrator wires an Orchestrator. recorder may be nil.
func NewOrchestrator(
	provider schema.LLMProvider,
	invoker ToolInvoker,
	sessions *session.Manager,
	recorder *metrics.Recorder,
	settings schema.AgentSettings,
) *Orchestrator {
	if settings.MaxToolRounds <= 0 {
		settings.MaxToolRounds = schema.DefaultMaxToolRounds
	}
	if settings.TurnTimeout <= 0 {
		settings.TurnTimeout = schema.DefaultTurnTimeout
	}
	if settings.BusyPolicy == "" {
		settings.BusyPolicy = schema.BusyReject
	}
	if settings.Model == "" {
		settings.Model = provider.DefaultModel()
	}
	return &Orchestrator{
		settings: settings,
		sessions: sessions,
		recorder: recorder,
		runner:   newLoopRunner(provider, invoker, settings),
	}
}

// Settings returns the effective agent settings.
func (o *Orchestrator) Settings() schema.AgentSettings { return o.settings }

// Sessions returns the session store the orchestrator writes to.
func (o *Orchestrator) Sessions() *session.Manager { return o.sessions }

// Submit runs one turn: it appends req.Text to the session, loops through
// model calls and tool invocations until the model answers, and returns
// the answer. Failed turns keep every message appended before the failure.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (reply Reply, err error) {
	start := time.Now()
	outcome := metrics.OutcomeAnswered
	defer func() {
		if err != nil {
			outcome = string(schema.KindOf(err))
			if errors.Is(err, ErrEmptyMessage) {
				outcome = "EmptyMessage"
			}
		}
		o.recorder.ObserveTurn(outcome, time.Since(start))
	}()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Reply{SessionID: req.SessionID}, ErrEmptyMessage
	}

	sess := o.sessions.GetOrCreate(req.SessionID)
	model := llmutils.StringOrDefault(req.Model, o.settings.Model)
	reply = Reply{SessionID: sess.ID(), Model: model}

	release, err := sess.Acquire(ctx, o.settings.BusyPolicy == schema.BusyWait)
	if err != nil {
		slog.Warn("Session busy", "session", sess.ID())
		return reply, err
	}
	defer release()

	if answer, ok := o.handleSlashCommand(sess, text); ok {
		outcome = metrics.OutcomeCommand
		reply.Answer = answer
		emit(req.OnEvent, Event{Type: EventAnswer, SessionID: sess.ID(), Content: answer})
		return reply, nil
	}

	slog.Info("Processing message", "session", sess.ID(), "model", model, "content", llmutils.Truncate(text, 80))

	o.closePendingCalls(sess)
	o.sessions.AppendTo(sess, schema.NewUserMessage(req.Text))

	turnCtx, cancel := context.WithTimeout(ctx, o.settings.TurnTimeout)
	defer cancel()

	res, err := o.runner.run(turnCtx, ctx, o.sessions, sess, o.settings.ChatOptionsFor(model), req.OnEvent)
	reply.ToolsUsed = res.toolsUsed
	reply.Rounds = res.rounds
	if err != nil {
		slog.Error("Turn failed", "session", sess.ID(), "rounds", res.rounds, "err", err)
		return reply, err
	}

	reply.Answer = res.answer
	slog.Info("Response", "session", sess.ID(), "rounds", res.rounds, "length", len(res.answer))
	return reply, nil
}

// closePendingCalls records an aborted result for every tool call an
// earlier failed turn left unanswered, keeping each call paired with a
// result before new messages follow it.
func (o *Orchestrator) closePendingCalls(sess *session.Session) {
	history := sess.History()
	pending := schema.PendingToolCalls(history)
	if len(pending) == 0 {
		return
	}
	open := make(map[string]bool, len(pending))
	for _, id := range pending {
		open[id] = true
	}
	for _, m := range history {
		if m.IsToolCall() && open[m.ToolCall.ID] {
			slog.Warn("Closing aborted tool call", "session", sess.ID(), "call", m.ToolCall.ID, "name", m.ToolCall.Name)
			o.sessions.AppendTo(sess, schema.NewAbortedToolResult(*m.ToolCall))
		}
	}
}

// handleSlashCommand handles /new and /help. ok is false for anything else.
func (o *Orchestrator) handleSlashCommand(sess *session.Session, text string) (answer string, ok bool) {
	switch strings.ToLower(text) {
	case "/new":
		_ = o.sessions.Clear(sess.ID())
		return "New session started.", true
	case "/help":
		return helpText, true
	}
	return "", false
}
