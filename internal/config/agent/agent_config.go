package agent

const DefaultSystemPrompt = "You are a helpful AI assistant."

type AgentConfig struct {
	SystemPrompt       string  `json:"systemPrompt" yaml:"systemPrompt"`
	ToolsEnabled       bool    `json:"toolsEnabled" yaml:"toolsEnabled"`
	MaxToolRounds      int     `json:"maxToolRounds" yaml:"maxToolRounds"`
	TurnTimeoutSeconds int     `json:"turnTimeoutSeconds" yaml:"turnTimeoutSeconds"`
	BusyPolicy         string  `json:"busyPolicy" yaml:"busyPolicy"` // "reject" or "wait"
	Temperature        float64 `json:"temperature" yaml:"temperature"`
	MaxTokens          int     `json:"maxTokens" yaml:"maxTokens"`
	TopP               float64 `json:"topP,omitempty" yaml:"topP,omitempty"`
	FrequencyPenalty   float64 `json:"frequencyPenalty,omitempty" yaml:"frequencyPenalty,omitempty"`
	PresencePenalty    float64 `json:"presencePenalty,omitempty" yaml:"presencePenalty,omitempty"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		SystemPrompt:       DefaultSystemPrompt,
		ToolsEnabled:       true,
		MaxToolRounds:      8,
		TurnTimeoutSeconds: 120,
		BusyPolicy:         "reject",
		Temperature:        0.7,
		MaxTokens:          4096,
	}
}
