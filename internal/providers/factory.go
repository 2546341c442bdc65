package providers

import (
	"os"
	"time"

	"github.com/chartchat/chartchat/internal/schema"
)

// Params are the raw values needed to construct a schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey         string
	APIBase        string
	DefaultModel   string
	RequestTimeout time.Duration
}

// New creates the provider for p. Empty APIKey and APIBase fall back to
// OPENAI_API_KEY and OPENAI_BASE_URL.
func New(p Params) schema.LLMProvider {
	if p.APIKey == "" {
		p.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if p.APIBase == "" {
		p.APIBase = os.Getenv("OPENAI_BASE_URL")
	}
	return NewOpenAIProvider(p.APIKey, p.APIBase, p.DefaultModel, p.RequestTimeout)
}
