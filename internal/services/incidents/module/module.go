// Package module wires the incident journal; without a database it falls back to a
// journal that drops writes and refuses reads
package module

import (
	"context"

	"gatekeeper/internal/modkit"
	phttp "gatekeeper/internal/platform/net/http"
	"gatekeeper/internal/services/incidents/domain"
	"gatekeeper/internal/services/incidents/service"
)

// Ports holds the ports exposed by the incidents module
type Ports struct {
	Recorder domain.Recorder
	Reader   domain.Reader
}

// Module defines the incidents module
type Module struct {
	ports   Ports
	durable bool
}

// New builds the module and creates the schema when a database is wired
func New(ctx context.Context, deps modkit.Deps) (*Module, error) {
	if !deps.HasPG() {
		deps.Log.Warn().Msg("no database configured, incidents are not journaled")
		return &Module{ports: Ports{Recorder: service.Nop{}, Reader: service.Nop{}}}, nil
	}
	svc := service.New(deps)
	if err := svc.Init(ctx); err != nil {
		return nil, err
	}
	return &Module{ports: Ports{Recorder: svc, Reader: svc}, durable: true}, nil
}

// Durable reports whether incidents reach a database
func (m *Module) Durable() bool { return m.durable }

// Ports returns the module ports (Recorder, Reader)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "incidents" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}

var _ modkit.Module = (*Module)(nil)
