// Package config defines the configuration schema for chartchat.
//
// JSON and YAML keys use camelCase. Every section has a Default* constructor
// and a file only needs to set the fields it wants to change.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/chartchat/chartchat/internal/config/agent"
	"github.com/chartchat/chartchat/internal/config/gateway"
	"github.com/chartchat/chartchat/internal/config/provider"
	"github.com/chartchat/chartchat/internal/config/tool"
	"github.com/chartchat/chartchat/internal/schema"
)

// SessionsConfig controls idle-session eviction.
type SessionsConfig struct {
	IdleTTLMinutes int    `json:"idleTtlMinutes" yaml:"idleTtlMinutes"` // 0 keeps sessions for the process lifetime
	SweepInterval  string `json:"sweepInterval" yaml:"sweepInterval"`   // robfig cron spec
}

func defaultSessionsConfig() SessionsConfig {
	return SessionsConfig{SweepInterval: "@every 1m"}
}

// Config is the root configuration object, loaded from ~/.chartchat/config.json.
type Config struct {
	Model    provider.ModelConfig `json:"model" yaml:"model"`
	Agent    agent.AgentConfig    `json:"agent" yaml:"agent"`
	Tools    tool.ToolsConfig     `json:"tools" yaml:"tools"`
	Server   gateway.ServerConfig `json:"server" yaml:"server"`
	Sessions SessionsConfig       `json:"sessions" yaml:"sessions"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Model:    provider.DefaultModelConfig(),
		Agent:    agent.DefaultAgentConfig(),
		Tools:    tool.DefaultToolConfigs(),
		Server:   gateway.DefaultServerConfig(),
		Sessions: defaultSessionsConfig(),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.Model.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("model.name must not be empty"))
	}
	if c.Model.RequestTimeoutSeconds < 0 {
		result = multierror.Append(result, fmt.Errorf("model.requestTimeoutSeconds must not be negative"))
	}
	if c.Agent.MaxToolRounds < 1 {
		result = multierror.Append(result, fmt.Errorf("agent.maxToolRounds must be at least 1, got %d", c.Agent.MaxToolRounds))
	}
	if c.Agent.TurnTimeoutSeconds < 1 {
		result = multierror.Append(result, fmt.Errorf("agent.turnTimeoutSeconds must be at least 1, got %d", c.Agent.TurnTimeoutSeconds))
	}
	switch schema.BusyPolicy(c.Agent.BusyPolicy) {
	case schema.BusyReject, schema.BusyWait:
	default:
		result = multierror.Append(result, fmt.Errorf("agent.busyPolicy must be %q or %q, got %q",
			schema.BusyReject, schema.BusyWait, c.Agent.BusyPolicy))
	}
	switch c.Tools.PlotResultFormat {
	case "tag", "markdown":
	default:
		result = multierror.Append(result, fmt.Errorf("tools.plotResultFormat must be \"tag\" or \"markdown\", got %q", c.Tools.PlotResultFormat))
	}
	if c.Tools.MaxDays < 0 {
		result = multierror.Append(result, fmt.Errorf("tools.maxDays must not be negative"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if w := c.Server.WriteTimeoutSeconds; w > 0 && w <= c.Agent.TurnTimeoutSeconds {
		result = multierror.Append(result, fmt.Errorf(
			"server.writeTimeoutSeconds (%d) must exceed agent.turnTimeoutSeconds (%d) so a timed-out turn can still be reported",
			w, c.Agent.TurnTimeoutSeconds))
	}
	if c.Sessions.IdleTTLMinutes < 0 {
		result = multierror.Append(result, fmt.Errorf("sessions.idleTtlMinutes must not be negative"))
	}

	return result.ErrorOrNil()
}

// AgentSettings converts the agent and model sections into schema.AgentSettings.
func (c *Config) AgentSettings() schema.AgentSettings {
	a := c.Agent
	return schema.AgentSettings{
		Model:         c.Model.Name,
		SystemPrompt:  a.SystemPrompt,
		ToolsEnabled:  a.ToolsEnabled,
		MaxToolRounds: a.MaxToolRounds,
		TurnTimeout:   time.Duration(a.TurnTimeoutSeconds) * time.Second,
		BusyPolicy:    schema.BusyPolicy(a.BusyPolicy),
		Sampling: schema.ChatOptions{
			MaxTokens:        a.MaxTokens,
			Temperature:      a.Temperature,
			TopP:             a.TopP,
			FrequencyPenalty: a.FrequencyPenalty,
			PresencePenalty:  a.PresencePenalty,
		},
	}
}

// APIKey returns the configured key or OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.Model.APIKey != "" {
		return c.Model.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// APIBase returns the configured endpoint, OPENAI_BASE_URL, or the public default.
func (c *Config) APIBase() string {
	if c.Model.APIBase != "" {
		return c.Model.APIBase
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		return v
	}
	return provider.DefaultAPIBase
}

// RequestTimeout is the per-request HTTP timeout for model calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Model.RequestTimeoutSeconds) * time.Second
}

// IdleTTL is how long an untouched session survives; 0 disables eviction.
func (c *Config) IdleTTL() time.Duration {
	return time.Duration(c.Sessions.IdleTTLMinutes) * time.Minute
}

// PlotsPath returns the plots directory with a leading ~ expanded.
func (c *Config) PlotsPath() string {
	return expandHome(c.Tools.PlotsDir)
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
