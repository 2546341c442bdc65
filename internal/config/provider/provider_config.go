package provider

const DefaultAPIBase = "https://api.openai.com/v1"

// ModelConfig holds the OpenAI-compatible endpoint and default model.
type ModelConfig struct {
	APIBase               string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	APIKey                string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
	Name                  string `json:"name" yaml:"name"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds" yaml:"requestTimeoutSeconds"`
}

func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Name:                  "gpt-4o-mini",
		RequestTimeoutSeconds: 60,
	}
}
