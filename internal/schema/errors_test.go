package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NewError(KindUnknownTool, "tool %q is not registered", "nope")

	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.False(t, errors.Is(err, ErrDuplicateName))
	assert.Equal(t, `tool "nope" is not registered`, err.Error())
}

func TestError_WrappedChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("turn aborted: %w", WrapError(KindModelUnavailable, cause, "model call failed"))

	require.True(t, errors.Is(err, ErrModelUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindModelUnavailable, KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestPendingToolCalls(t *testing.T) {
	msgs := []Message{
		NewUserMessage("plot something"),
		NewToolCallMessage(ToolCall{ID: "a", Name: "get_time_series_data"}),
		NewToolResultMessage("a", "get_time_series_data", "{}"),
		NewToolCallMessage(ToolCall{ID: "b", Name: "plot_time_series_data"}),
	}

	assert.Equal(t, []string{"b"}, PendingToolCalls(msgs))
	assert.Empty(t, PendingToolCalls(msgs[:3]))
}
