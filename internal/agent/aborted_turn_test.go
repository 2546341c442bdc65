package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartchat/chartchat/internal/metrics"
	"github.com/chartchat/chartchat/internal/providers"
	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/session"
	"github.com/chartchat/chartchat/internal/tools"
)

// pairedAnswer answers text, or fails the call when the request still
// carries a tool call without a result.
func pairedAnswer(text string) step {
	return func(_ context.Context, h []schema.Message, _ schema.ToolCatalog) (schema.ModelOutcome, error) {
		if pending := schema.PendingToolCalls(h); len(pending) > 0 {
			return nil, fmt.Errorf("request carries unanswered calls %v", pending)
		}
		return schema.FinalMessage{Text: text}, nil
	}
}

// stallingTool ignores its context and returns only once release closes.
type stallingTool struct {
	release chan struct{}
	started chan struct{}
}

func (stallingTool) Name() string                { return "slow_tool" }
func (stallingTool) Description() string         { return "waits for release" }
func (stallingTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (s stallingTool) Execute(context.Context, map[string]any) (string, error) {
	s.started <- struct{}{}
	<-s.release
	return "late result", nil
}

func TestSubmit_TurnAfterUnknownToolClosesCall(t *testing.T) {
	p := &scriptedProvider{steps: []step{
		callTool("launch_rocket", "r1", nil),
		pairedAnswer("back on track"),
	}}
	o := newTestOrchestrator(t, p, nil)

	_, err := o.Submit(context.Background(), Request{SessionID: "u2", Text: "go"})
	require.True(t, errors.Is(err, schema.ErrUnknownTool), "%v", err)

	reply, err := o.Submit(context.Background(), Request{SessionID: "u2", Text: "hi again"})
	require.NoError(t, err)
	assert.Equal(t, "back on track", reply.Answer)

	h, _ := o.Sessions().History("u2")
	require.Len(t, h, 5)
	require.True(t, h[1].IsToolCall())
	assert.Equal(t, schema.RoleTool, h[2].Role)
	assert.Equal(t, "r1", h[2].ToolResultFor)
	assert.Equal(t, schema.AbortedToolResult, h[2].Content)
	assert.Equal(t, "hi again", h[3].Content)
	assert.Empty(t, schema.PendingToolCalls(h))
}

func TestSubmit_TimeoutDuringToolThenNextTurn(t *testing.T) {
	slow := stallingTool{release: make(chan struct{}), started: make(chan struct{}, 1)}
	defer close(slow.release)

	reg, err := tools.NewRegistryBuilder().WithTool(slow).Build()
	require.NoError(t, err)

	p := &scriptedProvider{steps: []step{
		callTool("slow_tool", "s1", nil),
		pairedAnswer("recovered"),
	}}
	o := NewOrchestrator(p, reg, session.NewManager(), metrics.New(nil), schema.AgentSettings{
		ToolsEnabled:  true,
		MaxToolRounds: 4,
		TurnTimeout:   50 * time.Millisecond,
	})

	_, err = o.Submit(context.Background(), Request{SessionID: "t", Text: "run it"})
	require.True(t, errors.Is(err, schema.ErrTurnTimeout), "%v", err)
	<-slow.started

	h, _ := o.Sessions().History("t")
	require.Len(t, h, 2, "the call stays recorded and no late result is appended")
	require.True(t, h[1].IsToolCall())

	reply, err := o.Submit(context.Background(), Request{SessionID: "t", Text: "and now?"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Answer)

	h, _ = o.Sessions().History("t")
	require.Len(t, h, 5)
	assert.Equal(t, "s1", h[2].ToolResultFor)
	assert.Equal(t, schema.AbortedToolResult, h[2].Content)
	assert.Empty(t, schema.PendingToolCalls(h))
}

// pairingEndpoint serves chat completions and rejects any request in
// which an assistant tool call is not answered by the next message.
type pairingEndpoint struct {
	mu    sync.Mutex
	calls int
}

func (e *pairingEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body struct {
		Messages []struct {
			Role       string `json:"role"`
			ToolCallID string `json:"tool_call_id"`
			ToolCalls  []struct {
				ID string `json:"id"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(raw, &body)

	for i, m := range body.Messages {
		for _, c := range m.ToolCalls {
			if i+1 >= len(body.Messages) || body.Messages[i+1].ToolCallID != c.ID {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":{"message":"tool_calls must be followed by tool messages","type":"invalid_request_error"}}`)
				return
			}
		}
	}

	e.mu.Lock()
	e.calls++
	n := e.calls
	e.mu.Unlock()

	message := `{"role":"assistant","content":"hello again"}`
	if n == 1 {
		message = `{"role":"assistant","content":null,"tool_calls":[` +
			`{"id":"call_x","type":"function","function":{"name":"no_such_tool","arguments":"{}"}}]}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"m",`+
		`"choices":[{"index":0,"finish_reason":"stop","message":`+message+`}]}`)
}

func TestSubmit_OpenAIEndpointAcceptsTurnAfterAbort(t *testing.T) {
	srv := httptest.NewServer(&pairingEndpoint{})
	t.Cleanup(srv.Close)

	p := providers.NewOpenAIProvider("test-key", srv.URL+"/v1", "m", 0)
	o := NewOrchestrator(p, newTestRegistry(t), session.NewManager(), metrics.New(nil), schema.AgentSettings{
		ToolsEnabled:  true,
		MaxToolRounds: 4,
		TurnTimeout:   5 * time.Second,
	})

	_, err := o.Submit(context.Background(), Request{SessionID: "e2e", Text: "plot something"})
	require.True(t, errors.Is(err, schema.ErrUnknownTool), "%v", err)

	for _, text := range []string{"hi again", "still there?"} {
		reply, err := o.Submit(context.Background(), Request{SessionID: "e2e", Text: text})
		require.NoError(t, err, text)
		assert.Equal(t, "hello again", reply.Answer)
	}
}
