// Package domain holds the liveness ports
package domain

import (
	"context"
	"time"

	"gatekeeper/internal/core/version"
)

// Stats is what the chat adapter reports about its session
type Stats interface {
	// Guilds is the number of communities the bot currently sits in
	Guilds() int
	// Connected reports whether the gateway session is up
	Connected() bool
}

// Report is the /healthz payload
type Report struct {
	Status        string    `json:"status"`
	Started       time.Time `json:"started"`
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Guilds        int       `json:"guilds"`
	Gateway       string    `json:"gateway"`
	Journal       string    `json:"journal"`

	Build version.BuildInfo `json:"build"`
}

// HealthPort builds the health report
type HealthPort interface {
	Report(ctx context.Context) Report
}

// LoopPort is a background loop bound to ctx
type LoopPort interface {
	Run(ctx context.Context)
}
