package module

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gatekeeper/internal/modkit"
	mod "gatekeeper/internal/modkit/module"
	"gatekeeper/internal/platform/config"
	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/services/moderation/domain"

	"github.com/prometheus/client_golang/prometheus"
)

type nopActions struct{ deleted int }

func (a *nopActions) DeleteMessage(context.Context, string, string) error { a.deleted++; return nil }
func (a *nopActions) TimeoutUser(context.Context, string, string, time.Time, string) error {
	return nil
}
func (a *nopActions) SendNotice(context.Context, string, domain.Notice) error { return nil }

func deps() modkit.Deps {
	return modkit.Deps{Cfg: config.New(), Metrics: prometheus.NewRegistry()}
}

func TestFromConfig_Defaults(t *testing.T) {
	o := FromConfig(config.New())
	if o.Cooldown != time.Hour || o.ExemptGrace != 5*time.Second || o.LinkMute != time.Hour {
		t.Fatalf("durations = %+v", o)
	}
	if !o.Fuzzy || !o.Confusables || o.FuzzyThreshold != 0.8 || o.CommandPrefix != "!" {
		t.Fatalf("classifier defaults = %+v", o)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestFromConfig_Env(t *testing.T) {
	t.Setenv("MODERATION_EXEMPT_CHANNEL_ID", "123")
	t.Setenv("MODERATION_PROFANITY_MUTE", "24h")
	t.Setenv("MODERATION_FUZZY", "false")
	t.Setenv("MODERATION_EXTRA_TERMS", "frick, heck")

	o := FromConfig(config.New())
	if o.ExemptChannelID != "123" || o.ProfanityMute != 24*time.Hour || o.Fuzzy {
		t.Fatalf("options = %+v", o)
	}
	if len(o.ExtraTerms) != 2 || o.ExtraTerms[1] != "heck" {
		t.Fatalf("extra terms = %q", o.ExtraTerms)
	}
}

func TestValidate_Ranges(t *testing.T) {
	base := FromConfig(config.New())
	for name, mut := range map[string]func(*Options){
		"threshold":  func(o *Options) { o.FuzzyThreshold = 1.5 },
		"capacity":   func(o *Options) { o.TrackerCapacity = 0 },
		"mute":       func(o *Options) { o.LinkMute = 29 * 24 * time.Hour },
		"cooldown":   func(o *Options) { o.Cooldown = -time.Second },
		"prefix len": func(o *Options) { o.CommandPrefix = "!!!!!!!!!" },
	} {
		o := base
		mut(&o)
		if err := o.Validate(); !perr.IsCode(err, perr.ErrorCodeValidation) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

func TestNew_WiresPorts(t *testing.T) {
	acts := &nopActions{}
	m, err := New(deps(), Options{ExtraTerms: []string{"frick"}}, Wiring{Actions: acts})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Name() != "moderation" || m.Prefix() != "MODERATION_" {
		t.Fatalf("identity = %q %q", m.Name(), m.Prefix())
	}

	h := mod.MustPortsOf[domain.HandlerPort](m)
	out := h.Handle(context.Background(), domain.Message{
		ID: "m", ChannelID: "c", Author: domain.Author{ID: "u"}, Text: "oh frick",
	})
	if out.Verdict != domain.VerdictWarned || acts.deleted != 1 {
		t.Fatalf("extra term not enforced: %+v", out)
	}

	w := mod.MustPortsOf[domain.WaiterPort](m)
	w.Close()
	w.Wait()
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(deps(), Options{}, Wiring{}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("nil actions err = %v", err)
	}

	bad := filepath.Join(t.TempDir(), "rules.json")
	if err := os.WriteFile(bad, []byte(`{"whitelist": ["not a domain"]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(deps(), Options{RulesFile: bad}, Wiring{Actions: &nopActions{}}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("bad overlay err = %v", err)
	}

	_, err := New(deps(), Options{RulesFile: filepath.Join(t.TempDir(), "missing.json")}, Wiring{Actions: &nopActions{}})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing overlay err = %v", err)
	}
}
