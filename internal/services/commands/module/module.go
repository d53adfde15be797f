// Package module wires command dispatch and exposes its ports
package module

import (
	"gatekeeper/internal/modkit"
	"gatekeeper/internal/platform/config"
	phttp "gatekeeper/internal/platform/net/http"
	"gatekeeper/internal/services/commands/domain"
	"gatekeeper/internal/services/commands/service"
	incdom "gatekeeper/internal/services/incidents/domain"
)

// Options controls command dispatch
type Options struct {
	Prefix string
}

// FromConfig shares the prefix key with moderation so both agree on what a command is
func FromConfig(cfg config.Conf) Options {
	return Options{Prefix: cfg.Prefix("MODERATION_").MayString("COMMAND_PREFIX", "!")}
}

// Wiring carries the adapters; Reader may be nil, which drops !strikes
type Wiring struct {
	Replier domain.Replier
	Reader  incdom.Reader
}

// Ports holds the ports exposed by the commands module
type Ports struct {
	Dispatcher domain.DispatcherPort
}

// Module defines the commands module
type Module struct {
	svc   *service.Svc
	ports Ports
}

// New registers the built-in commands
func New(deps modkit.Deps, overrides Options, w Wiring) (*Module, error) {
	opts := FromConfig(deps.Cfg)
	if overrides.Prefix != "" {
		opts.Prefix = overrides.Prefix
	}

	svc := service.New(opts.Prefix, w.Replier, deps.Registerer())
	cmds := []service.Command{service.Ping(), service.Help(svc)}
	if w.Reader != nil {
		cmds = append(cmds, service.Strikes(w.Reader))
	}
	if err := svc.Register(cmds...); err != nil {
		return nil, err
	}

	m := &Module{svc: svc}
	m.ports = Ports{Dispatcher: svc}
	return m, nil
}

// Commands lists what is registered
func (m *Module) Commands() []service.Command { return m.svc.Commands() }

// Ports returns the module ports (Dispatcher)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "commands" }

// MountRoutes returns no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}

var _ modkit.Module = (*Module)(nil)
