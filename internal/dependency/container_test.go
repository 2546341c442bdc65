package dependency

import (
	"path/filepath"
	"testing"

	"github.com/chartchat/chartchat/internal/config"
	"github.com/chartchat/chartchat/internal/tools"
)

func TestNew_WiresEverything(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.APIKey = "test"
	cfg.Model.APIBase = "http://127.0.0.1:1/v1"
	cfg.Tools.PlotsDir = filepath.Join(t.TempDir(), "plots")

	c, err := New(&cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.Orchestrator() == nil || c.Server() == nil || c.Janitor() == nil {
		t.Fatal("expected all services to be built")
	}
	names := c.Tools().Names()
	if len(names) != 2 || names[0] != string(tools.ToolGetTimeSeries) || names[1] != string(tools.ToolPlotTimeSeries) {
		t.Fatalf("unexpected tools: %v", names)
	}
	if c.Settings().Model != cfg.Model.Name {
		t.Errorf("expected model %q, got %q", cfg.Model.Name, c.Settings().Model)
	}
	if c.Janitor().Enabled() {
		t.Error("janitor should be disabled by default")
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Agent.BusyPolicy = "sometimes"
	if _, err := New(&cfg); err == nil {
		t.Fatal("expected validation error")
	}
}
