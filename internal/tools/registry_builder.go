package tools

import "github.com/chartchat/chartchat/internal/schema"

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce the Registry; the first duplicate name is reported there.
type RegistryBuilder struct {
	tools []schema.Tool
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{}
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	b.tools = append(b.tools, tool)

	return b
}

// Build registers the accumulated tools in order.
func (b *RegistryBuilder) Build() (*Registry, error) {
	r := NewRegistry()
	for _, t := range b.tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}
