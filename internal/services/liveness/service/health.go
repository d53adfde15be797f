// Package service implements the health report and the self-ping loop
package service

import (
	"context"
	"time"

	"gatekeeper/internal/core/version"
	"gatekeeper/internal/modkit/repokit"
	"gatekeeper/internal/services/liveness/domain"
)

// Health statuses
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDisabled = "disabled"
	StatusDown     = "down"
	StatusUp       = "up"
)

// Health reports uptime and dependency state
type Health struct {
	started time.Time
	now     func() time.Time
	stats   domain.Stats
	// db is nil when no journal database is configured
	db    repokit.Pinger
	build version.BuildInfo
}

// NewHealth starts the uptime clock; stats and db may be nil
func NewHealth(stats domain.Stats, db repokit.Pinger, now func() time.Time) *Health {
	if now == nil {
		now = time.Now
	}
	return &Health{started: now(), now: now, stats: stats, db: db, build: version.Info("gatekeeper-bot")}
}

// Report never fails; a missing gateway or database degrades the status
func (h *Health) Report(ctx context.Context) domain.Report {
	up := h.now().Sub(h.started).Round(time.Second)
	r := domain.Report{
		Status:        StatusOK,
		Started:       h.started.UTC(),
		Uptime:        up.String(),
		UptimeSeconds: int64(up / time.Second),
		Gateway:       StatusDown,
		Journal:       StatusDisabled,
		Build:         h.build,
	}
	if h.stats != nil {
		r.Guilds = h.stats.Guilds()
		if h.stats.Connected() {
			r.Gateway = StatusUp
		}
	}
	if r.Gateway != StatusUp {
		r.Status = StatusDegraded
	}
	if h.db != nil {
		r.Journal = StatusUp
		if err := repokit.Ping(ctx, "journal", h.db); err != nil {
			r.Journal = StatusDown
			r.Status = StatusDegraded
		}
	}
	return r
}

var _ domain.HealthPort = (*Health)(nil)
