package tool

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	PlotsDir         string `json:"plotsDir" yaml:"plotsDir"`
	PlotResultFormat string `json:"plotResultFormat" yaml:"plotResultFormat"` // "tag" or "markdown"
	MaxDays          int    `json:"maxDays" yaml:"maxDays"`                   // 0 = unlimited
}

func DefaultToolConfigs() ToolsConfig {
	return ToolsConfig{
		PlotsDir:         "plots",
		PlotResultFormat: "tag",
	}
}
