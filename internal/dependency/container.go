// Package dependency wires core chartchat services using go.uber.org/dig.
package dependency

import (
	"fmt"
	"time"

	"go.uber.org/dig"

	"github.com/chartchat/chartchat/internal/agent"
	"github.com/chartchat/chartchat/internal/api"
	"github.com/chartchat/chartchat/internal/config"
	"github.com/chartchat/chartchat/internal/metrics"
	"github.com/chartchat/chartchat/internal/providers"
	"github.com/chartchat/chartchat/internal/schema"
	"github.com/chartchat/chartchat/internal/session"
	"github.com/chartchat/chartchat/internal/tools"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	provider     schema.LLMProvider
	registry     *tools.Registry
	orchestrator *agent.Orchestrator
	server       *api.Server
	janitor      *session.Janitor
}

func (c *Container) Provider() schema.LLMProvider      { return c.provider }
func (c *Container) Tools() *tools.Registry            { return c.registry }
func (c *Container) Orchestrator() *agent.Orchestrator { return c.orchestrator }
func (c *Container) Server() *api.Server               { return c.server }
func (c *Container) Janitor() *session.Janitor         { return c.janitor }
func (c *Container) Sessions() *session.Manager        { return c.orchestrator.Sessions() }
func (c *Container) Settings() schema.AgentSettings    { return c.orchestrator.Settings() }

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d := dig.New()
	for _, ctor := range []any{
		func() *config.Config { return cfg },
		newProvider,
		newToolRegistry,
		newSessionManager,
		newRecorder,
		newOrchestrator,
		newServer,
		newJanitor,
	} {
		if err := d.Provide(ctor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		provider schema.LLMProvider,
		registry *tools.Registry,
		orchestrator *agent.Orchestrator,
		server *api.Server,
		janitor *session.Janitor,
	) {
		result = &Container{
			provider:     provider,
			registry:     registry,
			orchestrator: orchestrator,
			server:       server,
			janitor:      janitor,
		}
	})
	return result, err
}

func newProvider(cfg *config.Config) schema.LLMProvider {
	return providers.New(providers.Params{
		APIKey:         cfg.APIKey(),
		APIBase:        cfg.APIBase(),
		DefaultModel:   cfg.Model.Name,
		RequestTimeout: cfg.RequestTimeout(),
	})
}

func newToolRegistry(cfg *config.Config, rec *metrics.Recorder) (*tools.Registry, error) {
	registry, err := tools.NewRegistryBuilder().
		WithTool(tools.NewTimeSeriesTool(cfg.Tools.MaxDays, nil)).
		WithTool(tools.NewPlotTool(cfg.PlotsPath(), tools.PlotResultFormat(cfg.Tools.PlotResultFormat))).
		Build()
	if err != nil {
		return nil, err
	}
	registry.SetObserver(rec.ObserveTool)
	return registry, nil
}

func newSessionManager() *session.Manager {
	return session.NewManager()
}

func newRecorder(sessions *session.Manager) *metrics.Recorder {
	return metrics.New(sessions.Len)
}

func newOrchestrator(
	cfg *config.Config,
	p schema.LLMProvider,
	registry *tools.Registry,
	sessions *session.Manager,
	rec *metrics.Recorder,
) *agent.Orchestrator {
	return agent.NewOrchestrator(p, registry, sessions, rec, cfg.AgentSettings())
}

func newServer(cfg *config.Config, orch *agent.Orchestrator, rec *metrics.Recorder, registry *tools.Registry) (*api.Server, error) {
	plotsDir := cfg.PlotsPath()
	t, err := registry.Resolve(string(tools.ToolPlotTimeSeries))
	if err == nil {
		if pt, ok := t.(*tools.PlotTool); ok {
			plotsDir = pt.Dir()
		}
	}
	return api.NewServer(api.Options{
		Addr:         cfg.Addr(),
		ReadTimeout:  secondsOrZero(cfg.Server.ReadTimeoutSeconds),
		WriteTimeout: secondsOrZero(cfg.Server.WriteTimeoutSeconds),
		PlotsDir:     plotsDir,
	}, orch, rec), nil
}

func newJanitor(cfg *config.Config, sessions *session.Manager) (*session.Janitor, error) {
	return session.NewJanitor(sessions, cfg.IdleTTL(), cfg.Sessions.SweepInterval)
}

func secondsOrZero(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
