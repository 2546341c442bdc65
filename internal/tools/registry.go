package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/chartchat/chartchat/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolGetTimeSeries  ToolName = "get_time_series_data"
	ToolPlotTimeSeries ToolName = "plot_time_series_data"
)

// InvokeObserver is told about every completed invocation; failed reports
// whether the tool's failure was converted into the result text.
type InvokeObserver func(name string, failed bool)

// Registry holds the named tools available to the model.
// Tools are registered at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]schema.Tool
	observer InvokeObserver
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]schema.Tool)}
}

// Register adds tool, failing with ErrDuplicateName if the name is taken.
func (r *Registry) Register(tool schema.Tool) error {
	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return schema.NewError(schema.KindDuplicateName, "tool %q already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Resolve returns the tool registered under name, or ErrUnknownTool.
func (r *Registry) Resolve(name string) (schema.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, schema.NewError(schema.KindUnknownTool, "tool %q is not registered", name)
	}
	return t, nil
}

// SetObserver installs fn as the invocation observer.
func (r *Registry) SetObserver(fn InvokeObserver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = fn
}

// Invoke runs the named tool. Only an unknown name is returned as an error;
// anything the tool itself returns or panics with becomes the result text
// so the model can see it and react.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return "", err
	}

	result, failed := r.execute(ctx, t, args)

	r.mu.RLock()
	observe := r.observer
	r.mu.RUnlock()
	if observe != nil {
		observe(name, failed)
	}
	return result, nil
}

func (r *Registry) execute(ctx context.Context, t schema.Tool, args map[string]any) (result string, failed bool) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Tool panicked", "name", t.Name(), "panic", p, "stack", string(debug.Stack()))
			result, failed = fmt.Sprintf("Error: %s: tool panicked: %v", t.Name(), p), true
		}
	}()

	out, err := t.Execute(ctx, args)
	if err != nil {
		slog.Warn("Tool failed", "name", t.Name(), "err", err)
		return fmt.Sprintf("Error: %s: %v", t.Name(), err), true
	}
	return out, false
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions implements schema.ToolCatalog. Order is by name so repeated
// requests declare tools identically.
func (r *Registry) Definitions() []schema.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]schema.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, schema.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// emptyCatalog declares no tools; used when tool calling is switched off.
type emptyCatalog struct{}

func (emptyCatalog) Definitions() []schema.ToolDefinition { return nil }

// NoTools is a ToolCatalog with nothing in it.
var NoTools schema.ToolCatalog = emptyCatalog{}
