package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// Janitor periodically evicts idle sessions from a Manager.
type Janitor struct {
	manager  *Manager
	ttl      time.Duration
	schedule string
	cron     *robfigcron.Cron
}

// NewJanitor creates a Janitor that runs EvictIdle(ttl) on schedule, which
// accepts any robfig cron spec ("@every 5m", "*/10 * * * *").
// A zero ttl disables the janitor.
func NewJanitor(manager *Manager, ttl time.Duration, schedule string) (*Janitor, error) {
	if schedule == "" {
		schedule = "@every 1m"
	}
	j := &Janitor{
		manager:  manager,
		ttl:      ttl,
		schedule: schedule,
		cron:     robfigcron.New(),
	}
	if ttl <= 0 {
		return j, nil
	}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Enabled reports whether idle eviction is configured.
func (j *Janitor) Enabled() bool { return j.ttl > 0 }

// Start runs the sweep schedule and blocks until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	if !j.Enabled() {
		slog.Debug("session janitor disabled")
		<-ctx.Done()
		return nil
	}

	j.cron.Start()
	slog.Info("session janitor: started", "ttl", j.ttl, "schedule", j.schedule)

	<-ctx.Done()

	<-j.cron.Stop().Done()
	return nil
}

func (j *Janitor) sweep() {
	j.manager.EvictIdle(j.ttl)
}
