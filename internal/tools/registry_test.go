package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartchat/chartchat/internal/schema"
)

type stubTool struct {
	name string
	fn   func(map[string]any) (string, error)
}

func (s *stubTool) Name() string                { return s.name }
func (s *stubTool) Description() string         { return "stub " + s.name }
func (s *stubTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (s *stubTool) Execute(_ context.Context, args map[string]any) (string, error) {
	return s.fn(args)
}

func echoTool(name string) *stubTool {
	return &stubTool{name: name, fn: func(args map[string]any) (string, error) {
		v, _ := args["v"].(string)
		return "echo:" + v, nil
	}}
}

func TestRegister_Duplicate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	err := r.Register(echoTool("echo"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrDuplicateName))
}

func TestResolve_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("missing")
	assert.True(t, errors.Is(err, schema.ErrUnknownTool))
}

func TestInvoke_Success(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	out, err := r.Invoke(context.Background(), "echo", map[string]any{"v": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo:hi", out)
}

func TestInvoke_ToolErrorBecomesResult(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "bad", fn: func(map[string]any) (string, error) {
		return "", schema.NewError(schema.KindMalformedData, "no arrays")
	}}))

	var observed []bool
	r.SetObserver(func(name string, failed bool) { observed = append(observed, failed) })

	out, err := r.Invoke(context.Background(), "bad", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error: bad: no arrays", out)
	assert.Equal(t, []bool{true}, observed)
}

func TestInvoke_PanicBecomesResult(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "explode", fn: func(map[string]any) (string, error) {
		panic("kaboom")
	}}))

	out, err := r.Invoke(context.Background(), "explode", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "kaboom")
}

func TestInvoke_UnknownIsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "nope", nil)
	assert.True(t, errors.Is(err, schema.ErrUnknownTool))
}

func TestDefinitions_SortedByName(t *testing.T) {
	r, err := NewRegistryBuilder().
		WithTool(echoTool("zeta")).
		WithTool(echoTool("alpha")).
		Build()
	require.NoError(t, err)

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestBuilder_Duplicate(t *testing.T) {
	_, err := NewRegistryBuilder().WithTool(echoTool("a")).WithTool(echoTool("a")).Build()
	assert.True(t, errors.Is(err, schema.ErrDuplicateName))
}

func TestNoTools(t *testing.T) {
	assert.Empty(t, NoTools.Definitions())
}
