package modkit

import (
	"testing"

	"gatekeeper/internal/platform/config"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDeps_ZeroValue(t *testing.T) {
	t.Parallel()
	var d Deps
	if d.HasPG() {
		t.Fatal("zero Deps must report no database")
	}
	if d.Registerer() != prometheus.DefaultRegisterer {
		t.Fatal("zero Deps must fall back to the default registerer")
	}
}

func TestDeps_CustomRegisterer(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	d := Deps{Cfg: config.New(), Metrics: reg}
	if d.Registerer() != reg {
		t.Fatal("Registerer must return the configured registry")
	}
}
