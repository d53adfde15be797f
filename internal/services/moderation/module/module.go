// Package module wires the moderation orchestrator and exposes its ports
package module

import (
	"gatekeeper/internal/core/classifier"
	"gatekeeper/internal/core/escalation"
	"gatekeeper/internal/core/rulepack"
	"gatekeeper/internal/modkit"
	perr "gatekeeper/internal/platform/errors"
	phttp "gatekeeper/internal/platform/net/http"
	incdom "gatekeeper/internal/services/incidents/domain"
	"gatekeeper/internal/services/moderation/domain"
	"gatekeeper/internal/services/moderation/service"
)

// Wiring carries the adapters the module drives; Journal may be nil
type Wiring struct {
	Actions domain.Actions
	Journal incdom.Recorder
}

// Module defines the moderation module
type Module struct {
	deps  modkit.Deps
	opts  Options
	svc   *service.Svc
	ports Ports
}

// New loads the rules, builds the classifier and tracker and wires the orchestrator.
// Config defaults are read first, then non-zero overrides apply
func New(deps modkit.Deps, overrides Options, w Wiring) (*Module, error) {
	opts := FromConfig(deps.Cfg).merge(overrides)
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if w.Actions == nil {
		return nil, perr.New(perr.ErrorCodeInvalidArgument, "moderation: nil actions")
	}

	pack, err := loadPack(opts)
	if err != nil {
		return nil, err
	}
	tracker, err := escalation.New(escalation.Options{
		Cooldown: opts.Cooldown,
		Capacity: opts.TrackerCapacity,
	})
	if err != nil {
		return nil, err
	}

	svc := service.New(service.Config{
		ExemptChannelID: opts.ExemptChannelID,
		ExemptGrace:     opts.ExemptGrace,
		Mute:            opts.mute(),
		CommandPrefix:   opts.CommandPrefix,
	}, service.Parts{
		Classifier: classifier.New(pack, opts.classifier()),
		Tracker:    tracker,
		Actions:    w.Actions,
		Journal:    w.Journal,
		Metrics:    service.NewMetrics(deps.Registerer()),
	})

	deps.Log.Info().
		Int("terms", len(pack.Terms)).
		Int("whitelist", len(pack.Whitelist)).
		Int("patterns", len(pack.Patterns)).
		Bool("exempt_channel", opts.ExemptChannelID != "").
		Dur("cooldown", tracker.Cooldown()).
		Msg("moderation ready")

	m := &Module{deps: deps, opts: opts, svc: svc}
	m.ports = Ports{
		Handler: svc,
		Waiter:  svc,
	}
	return m, nil
}

// loadPack merges the optional overlay file and the CSV extras over the embedded rules
func loadPack(opts Options) (*rulepack.Pack, error) {
	var overlays []rulepack.Source
	if opts.RulesFile != "" {
		src, err := rulepack.ParseFile(opts.RulesFile)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, src)
	}
	if len(opts.ExtraTerms) > 0 || len(opts.ExtraWhitelist) > 0 {
		extra := rulepack.Source{Terms: opts.ExtraTerms, Whitelist: opts.ExtraWhitelist}
		if err := extra.Validate(); err != nil {
			return nil, perr.WithOp(err, "moderation.extras")
		}
		overlays = append(overlays, extra)
	}
	return rulepack.Load(overlays...)
}

// Options returns the effective options
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports (Handler, Waiter)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "moderation" }

// Prefix returns the module config prefix
func (m *Module) Prefix() string { return "MODERATION_" }

// MountRoutes returns no HTTP routes; counters are served by liveness on /metrics
func (m *Module) MountRoutes(_ phttp.Router) {}

var _ modkit.Module = (*Module)(nil)
