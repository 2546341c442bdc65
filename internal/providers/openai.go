package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/shared/llmutils"
)

const defaultAPIBase = "https://api.openai.com/v1"

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client       openai.Client
	apiBase      string
	defaultModel string
}

// NewOpenAIProvider builds a provider from already-resolved values.
// Empty apiKey or apiBase leave the SDK's environment defaults in place.
func NewOpenAIProvider(apiKey, apiBase, defaultModel string, requestTimeout time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{
		// The orchestrator owns retries and the turn deadline.
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(apiBase, "/")+"/"))
	}
	if requestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(requestTimeout))
	}

	return &OpenAIProvider{
		client:       openai.NewClient(opts...),
		apiBase:      llmutils.StringOrDefault(apiBase, defaultAPIBase),
		defaultModel: defaultModel,
	}
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// APIBase reports the endpoint the provider was configured with.
func (p *OpenAIProvider) APIBase() string { return p.apiBase }

// Complete implements schema.LLMProvider.
func (p *OpenAIProvider) Complete(
	ctx context.Context,
	history []schema.Message,
	tools schema.ToolCatalog,
	opts schema.ChatOptions,
) (schema.ModelOutcome, error) {
	params, err := p.buildParams(history, tools, opts)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, schema.NewError(schema.KindModelUnavailable, "response has no choices")
	}

	return parseMessage(resp.Choices[0].Message)
}

func (p *OpenAIProvider) buildParams(
	history []schema.Message,
	tools schema.ToolCatalog,
	opts schema.ChatOptions,
) (openai.ChatCompletionNewParams, error) {
	messages, err := toWireMessages(history)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    llmutils.StringOrDefault(opts.Model, p.defaultModel),
		Messages: messages,
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.Temperature != 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.TopP != 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if opts.FrequencyPenalty != 0 {
		params.FrequencyPenalty = openai.Float(opts.FrequencyPenalty)
	}
	if opts.PresencePenalty != 0 {
		params.PresencePenalty = openai.Float(opts.PresencePenalty)
	}

	if tools != nil {
		defs := tools.Definitions()
		if len(defs) > 0 {
			wireTools, err := toWireTools(defs)
			if err != nil {
				return openai.ChatCompletionNewParams{}, err
			}
			params.Tools = wireTools
			params.ParallelToolCalls = openai.Bool(false)
		}
	}
	return params, nil
}

// ---------------------------------------------------------------------------
// Request mapping
// ---------------------------------------------------------------------------

// toWireMessages maps history onto request messages. A tool call with no
// recorded result is followed by an aborted result; endpoints reject an
// assistant tool_calls message that no tool message answers.
func toWireMessages(history []schema.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	unanswered := make(map[string]bool)
	for _, id := range schema.PendingToolCalls(history) {
		unanswered[id] = true
	}

	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+len(unanswered))
	for _, m := range history {
		switch m.Role {
		case schema.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case schema.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case schema.RoleAssistant:
			msg := openai.AssistantMessage(m.Content)
			if m.ToolCall != nil {
				args, err := json.Marshal(m.ToolCall.Arguments)
				if err != nil {
					return nil, fmt.Errorf("encode arguments of %s: %w", m.ToolCall.Name, err)
				}
				msg.OfAssistant.ToolCalls = []openai.ChatCompletionMessageToolCallUnionParam{{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: m.ToolCall.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      m.ToolCall.Name,
							Arguments: string(args),
						},
					},
				}}
			}
			out = append(out, msg)
			if m.ToolCall != nil && unanswered[m.ToolCall.ID] {
				out = append(out, openai.ToolMessage(schema.AbortedToolResult, m.ToolCall.ID))
			}
		case schema.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolResultFor))
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return out, nil
}

func toWireTools(defs []schema.ToolDefinition) ([]openai.ChatCompletionToolUnionParam, error) {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(defs))
	for _, d := range defs {
		var params openai.FunctionParameters
		if len(d.Parameters) > 0 {
			if err := json.Unmarshal(d.Parameters, &params); err != nil {
				return nil, fmt.Errorf("tool %s has invalid parameter schema: %w", d.Name, err)
			}
		}
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        d.Name,
					Description: openai.String(d.Description),
					Parameters:  params,
				},
			},
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Response mapping
// ---------------------------------------------------------------------------

func parseMessage(msg openai.ChatCompletionMessage) (schema.ModelOutcome, error) {
	switch n := len(msg.ToolCalls); {
	case n > 1:
		names := make([]string, 0, n)
		for _, tc := range msg.ToolCalls {
			names = append(names, tc.Function.Name)
		}
		return nil, schema.NewError(schema.KindMultipleToolCalls,
			"model requested %d tool calls at once: %s", n, strings.Join(names, ", "))
	case n == 1:
		tc := msg.ToolCalls[0]
		args, err := repairJSON(tc.Function.Arguments)
		if err != nil {
			slog.Warn("Unparseable tool arguments", "tool", tc.Function.Name, "err", err)
		}
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		return schema.ToolRequest{ToolName: tc.Function.Name, Arguments: args, CallID: id}, nil
	}

	return schema.FinalMessage{Text: strings.TrimSpace(llmutils.StripThink(msg.Content))}, nil
}

func classifyError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return schema.WrapError(schema.KindModelUnavailable, err,
			"model endpoint returned HTTP %d", apiErr.StatusCode)
	}
	return schema.WrapError(schema.KindModelUnavailable, err, "model endpoint unreachable")
}

// ---------------------------------------------------------------------------
// JSON repair
// ---------------------------------------------------------------------------

// repairJSON attempts to unmarshal JSON, retrying after stripping trailing
// garbage characters. Some models emit truncated tool arguments.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}

	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", llmutils.Truncate(raw, 200))
}
