package module

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gatekeeper/internal/modkit"
	"gatekeeper/internal/platform/config"
	phttp "gatekeeper/internal/platform/net/http"
	"gatekeeper/internal/platform/testkit"
	"gatekeeper/internal/services/liveness/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stats struct{ up bool }

func (s stats) Guilds() int     { return 2 }
func (s stats) Connected() bool { return s.up }

func serve(t *testing.T, m *Module) http.Handler {
	t.Helper()
	srv := phttp.NewServerAddr(":0", m.ServerOptions())
	m.MountRoutes(srv.Router())
	return srv.Handler()
}

func get(h http.Handler, path string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "gatekeeper_test_total", Help: "x"}).Inc()

	m := New(modkit.Deps{Cfg: config.New()}, Options{}, Wiring{Stats: stats{up: true}, Gatherer: reg})
	h := serve(t, m)

	rec := get(h, "/")
	if rec.Code != http.StatusOK || rec.Body.String() != AliveText {
		t.Fatalf("/ = %d %q", rec.Code, rec.Body.String())
	}

	rec = get(h, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("/healthz = %d", rec.Code)
	}
	var env struct {
		RequestID string        `json:"request_id"`
		Data      domain.Report `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Guilds != 2 || env.Data.Gateway != "up" || env.RequestID == "" {
		t.Fatalf("healthz = %+v", env)
	}

	rec = get(h, "/metrics")
	testkit.MustContain(t, rec.Body.String(), "gatekeeper_test_total 1")

	if rec := get(h, "/debug/pprof/"); rec.Code != http.StatusNotFound {
		t.Fatalf("pprof must be off by default, got %d", rec.Code)
	}
}

func TestHealthz_Degraded(t *testing.T) {
	m := New(modkit.Deps{Cfg: config.New()}, Options{}, Wiring{Stats: stats{up: false}, Gatherer: prometheus.NewRegistry()})
	if rec := get(serve(t, m), "/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("/healthz = %d", rec.Code)
	}
}

func TestCORSAndPprof(t *testing.T) {
	m := New(modkit.Deps{Cfg: config.New()}, Options{CORSOrigins: []string{"https://status.example"}, Pprof: true}, Wiring{Gatherer: prometheus.NewRegistry()})
	h := serve(t, m)

	rec := get(h, "/", "Origin", "https://status.example")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://status.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if rec := get(h, "/debug/pprof/"); rec.Code != http.StatusOK {
		t.Fatalf("pprof = %d", rec.Code)
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("SELF_PING_URL", "https://bot.example.com")
	t.Setenv("SELF_PING_INTERVAL", "1m")
	t.Setenv("LIVENESS_CORS_ORIGINS", "a.example,b.example")
	o := FromConfig(config.New())
	if o.SelfPingURL != "https://bot.example.com" || o.SelfPingInterval.String() != "1m0s" || len(o.CORSOrigins) != 2 {
		t.Fatalf("options = %+v", o)
	}
	t.Setenv("SELF_PING_URL", "not a url")
	if o := FromConfig(config.New()); o.SelfPingURL != "" || !strings.HasPrefix(o.SelfPingInterval.String(), "1m") {
		t.Fatalf("invalid url must disable self ping: %+v", o)
	}
}
