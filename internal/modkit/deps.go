// Package modkit provides module wiring and core deps
package modkit

import (
	"gatekeeper/internal/modkit/repokit"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/logger"

	"github.com/prometheus/client_golang/prometheus"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	// PG is nil when no database is configured
	PG repokit.TxRunner
	// Metrics is where modules register collectors; nil means the default registerer
	Metrics prometheus.Registerer
}

// HasPG reports whether a database is wired
func (d Deps) HasPG() bool { return d.PG != nil }

// Registerer returns Metrics or the process default
func (d Deps) Registerer() prometheus.Registerer {
	if d.Metrics == nil {
		return prometheus.DefaultRegisterer
	}
	return d.Metrics
}
