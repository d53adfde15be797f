package modkit_test

import (
	"testing"

	"gatekeeper/internal/modkit"
	cmdmod "gatekeeper/internal/services/commands/module"
	incmod "gatekeeper/internal/services/incidents/module"
	livemod "gatekeeper/internal/services/liveness/module"
	modmod "gatekeeper/internal/services/moderation/module"
)

// every service module mounts into the same server and registry
var (
	_ modkit.Module = (*incmod.Module)(nil)
	_ modkit.Module = (*modmod.Module)(nil)
	_ modkit.Module = (*cmdmod.Module)(nil)
	_ modkit.Module = (*livemod.Module)(nil)
)

func TestModules_DistinctNames(t *testing.T) {
	names := map[string]bool{}
	for _, m := range []modkit.Module{
		(*incmod.Module)(nil),
		(*modmod.Module)(nil),
		(*cmdmod.Module)(nil),
		(*livemod.Module)(nil),
	} {
		n := m.Name()
		if n == "" || names[n] {
			t.Fatalf("module name %q empty or duplicated", n)
		}
		names[n] = true
	}
}
