package schema

import "time"

// BusyPolicy decides what happens to a turn submitted while the same
// session is already running one.
type BusyPolicy string

const (
	BusyReject BusyPolicy = "reject"
	BusyWait   BusyPolicy = "wait"
)

// Defaults applied when a setting is left at zero.
const (
	DefaultMaxToolRounds = 8
	DefaultTurnTimeout   = 120 * time.Second
)

type AgentSettings struct {
	Model         string
	SystemPrompt  string
	ToolsEnabled  bool
	MaxToolRounds int
	TurnTimeout   time.Duration
	BusyPolicy    BusyPolicy
	Sampling      ChatOptions
}

// ChatOptionsFor returns the sampling options with the model resolved:
// model if non-empty, otherwise the configured default.
func (s AgentSettings) ChatOptionsFor(model string) ChatOptions {
	opts := s.Sampling
	opts.Model = s.Model
	if model != "" {
		opts.Model = model
	}
	return opts
}
