package store

import (
	"time"

	"gatekeeper/internal/platform/config"
)

// Config aggregates backend configuration
type Config struct {
	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero takes the defaults in openPG
	ConnectRetries int
	PingTimeout    time.Duration
}

// FromConfig reads SERVICE_PGSQL_*; the database is enabled only when DBURL is set
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("SERVICE_PGSQL_")
	url := c.MayString("DBURL", "")
	return Config{PG: PGConfig{
		Enabled:        url != "",
		URL:            url,
		MaxConns:       int32(c.MayInt("MAX_CONNS", 4)),
		SlowQueryMs:    c.MayInt("SLOW_MS", 500),
		LogSQL:         c.MayBool("LOG_SQL", false),
		ConnectRetries: c.MayInt("CONNECT_RETRIES", 0),
		PingTimeout:    c.MayDuration("PING_TIMEOUT", 0),
	}}
}
