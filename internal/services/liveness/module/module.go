// Package module wires the liveness HTTP surface and the self-ping loop
package module

import (
	"net/http"
	"time"

	"gatekeeper/internal/modkit"
	"gatekeeper/internal/modkit/repokit"
	phttp "gatekeeper/internal/platform/net/http"
	"gatekeeper/internal/platform/net/httpclient"
	"gatekeeper/internal/platform/net/middleware"
	"gatekeeper/internal/services/liveness/domain"
	"gatekeeper/internal/services/liveness/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AliveText is the body of GET /, which uptime monitors match on
const AliveText = "Bot is alive!"

// Wiring carries the live collaborators; all fields are optional
type Wiring struct {
	Stats domain.Stats
	DB    repokit.Pinger
	// Ready gates the first self ping
	Ready    <-chan struct{}
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

// Ports holds the ports exposed by the liveness module
type Ports struct {
	Health   domain.HealthPort
	SelfPing domain.LoopPort
}

// Module defines the liveness module
type Module struct {
	opts     Options
	health   *service.Health
	gatherer prometheus.Gatherer
	ports    Ports
}

// New builds the module; non-zero overrides win over config
func New(deps modkit.Deps, overrides Options, w Wiring) *Module {
	opts := FromConfig(deps.Cfg)
	if overrides.SelfPingURL != "" {
		opts.SelfPingURL = overrides.SelfPingURL
	}
	if overrides.SelfPingInterval != 0 {
		opts.SelfPingInterval = overrides.SelfPingInterval
	}
	if len(overrides.CORSOrigins) > 0 {
		opts.CORSOrigins = overrides.CORSOrigins
	}
	if overrides.Pprof {
		opts.Pprof = true
	}
	if overrides.SlowRequest != 0 {
		opts.SlowRequest = overrides.SlowRequest
	}

	g := w.Gatherer
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	health := service.NewHealth(w.Stats, w.DB, w.Now)
	ping := service.NewSelfPinger(opts.SelfPingURL, opts.SelfPingInterval, httpclient.New("selfping"), w.Ready)

	return &Module{
		opts:     opts,
		health:   health,
		gatherer: g,
		ports:    Ports{Health: health, SelfPing: ping},
	}
}

// ServerOptions installs the middleware stack on the server mux
func (m *Module) ServerOptions() func(*chi.Mux) {
	return func(mux *chi.Mux) {
		mux.Use(chimw.RequestID)
		mux.Use(chimw.RealIP)
		mux.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow:  m.opts.SlowRequest,
			Quiet: []string{"/", "/healthz", "/metrics"},
		}))
		mux.Use(middleware.RecoverJSON)
		if len(m.opts.CORSOrigins) > 0 {
			mux.Use(cors.Handler(cors.Options{
				AllowedOrigins: m.opts.CORSOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodHead},
				MaxAge:         300,
			}))
		}
	}
}

// MountRoutes mounts /, /healthz, /metrics and optionally /debug
func (m *Module) MountRoutes(r phttp.Router) {
	alive := func(w http.ResponseWriter, _ *http.Request) { phttp.Text(w, http.StatusOK, AliveText) }
	r.Get("/", alive)
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/healthz", phttp.Handle(func(req *http.Request) phttp.Response {
		rep := m.health.Report(req.Context())
		if rep.Status != service.StatusOK {
			return phttp.Response{Status: http.StatusServiceUnavailable, Body: rep}
		}
		return phttp.OK(rep)
	}))

	r.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	phttp.MountProfiler(r, "/debug", m.opts.Pprof)
}

// Options returns the effective options
func (m *Module) Options() Options { return m.opts }

// Ports returns the module ports (Health, SelfPing)
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return "liveness" }

var _ modkit.Module = (*Module)(nil)
