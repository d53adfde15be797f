package module

import (
	"time"

	"gatekeeper/internal/platform/config"
)

// Options controls the liveness server and self ping
type Options struct {
	SelfPingURL      string
	SelfPingInterval time.Duration
	CORSOrigins      []string
	Pprof            bool
	SlowRequest      time.Duration
}

// FromConfig reads the unprefixed hosting keys plus LIVENESS_ ones
func FromConfig(cfg config.Conf) Options {
	l := cfg.Prefix("LIVENESS_")
	return Options{
		SelfPingURL:      cfg.MayURL("SELF_PING_URL"),
		SelfPingInterval: cfg.MayDuration("SELF_PING_INTERVAL", 5*time.Minute),
		CORSOrigins:      l.MayCSV("CORS_ORIGINS", nil),
		Pprof:            l.MayBool("PPROF", false),
		SlowRequest:      l.MayDuration("SLOW_REQUEST", time.Second),
	}
}
