package config

import (
	"slices"
	"testing"
	"time"
)

func TestPrefixAndKey(t *testing.T) {
	mod := New().Prefix("MODERATION_")
	if got := mod.key("COOLDOWN"); got != "MODERATION_COOLDOWN" {
		t.Fatalf("key() = %q", got)
	}
	if got := mod.Prefix("EXTRA_").key("TERMS"); got != "MODERATION_EXTRA_TERMS" {
		t.Fatalf("nested key() = %q", got)
	}
}

func TestMayString_Trims(t *testing.T) {
	c := New()
	t.Setenv("DISCORD", "  token ")
	if got := c.MayString("DISCORD", ""); got != "token" {
		t.Fatalf("MayString = %q", got)
	}
	t.Setenv("BLANK", "   ")
	if got := c.MayString("BLANK", "def"); got != "def" {
		t.Fatalf("blank MayString = %q", got)
	}
}

func TestMayScalars(t *testing.T) {
	c := New().Prefix("T_")
	t.Setenv("T_NAME", " gatekeeper ")
	t.Setenv("T_CAP", " 250 ")
	t.Setenv("T_BADINT", "x")
	t.Setenv("T_RATIO", "0.75")
	t.Setenv("T_BADF", "nope")
	t.Setenv("T_ON", "false")
	t.Setenv("T_BADB", "maybe")
	t.Setenv("T_WAIT", "5s")
	t.Setenv("T_BADD", "soon")

	if got := c.MayString("NAME", "x"); got != "gatekeeper" {
		t.Fatalf("MayString = %q", got)
	}
	if got := c.MayString("MISSING", "def"); got != "def" {
		t.Fatalf("MayString default = %q", got)
	}
	if c.MayInt("CAP", 1) != 250 || c.MayInt("BADINT", 7) != 7 || c.MayInt("MISSING", 9) != 9 {
		t.Fatalf("MayInt mismatch")
	}
	if c.MayFloat64("RATIO", 0.8) != 0.75 || c.MayFloat64("BADF", 0.8) != 0.8 {
		t.Fatalf("MayFloat64 mismatch")
	}
	if c.MayBool("ON", true) || !c.MayBool("BADB", true) || !c.MayBool("MISSING", true) {
		t.Fatalf("MayBool mismatch")
	}
	if c.MayDuration("WAIT", 0) != 5*time.Second || c.MayDuration("BADD", time.Hour) != time.Hour {
		t.Fatalf("MayDuration mismatch")
	}
}

func TestMayCSV(t *testing.T) {
	c := New().Prefix("L_")
	t.Setenv("L_TERMS", " heck , , darn ,")
	if got := c.MayCSV("TERMS", nil); !slices.Equal(got, []string{"heck", "darn"}) {
		t.Fatalf("MayCSV = %q", got)
	}
	t.Setenv("L_EMPTY", " , ,")
	if got := c.MayCSV("EMPTY", []string{"d"}); !slices.Equal(got, []string{"d"}) {
		t.Fatalf("MayCSV all-empty = %q", got)
	}
}

func TestMayPort(t *testing.T) {
	c := New()
	if got := c.MayPort("PORT_UNSET_X", 10000); got != ":10000" {
		t.Fatalf("default port = %q", got)
	}
	t.Setenv("PORT_X", "8080")
	if got := c.MayPort("PORT_X", 10000); got != ":8080" {
		t.Fatalf("MayPort = %q", got)
	}
	t.Setenv("PORT_OOB", "70000")
	if got := c.MayPort("PORT_OOB", 10000); got != ":10000" {
		t.Fatalf("out of range port = %q", got)
	}
}

func TestMayURL(t *testing.T) {
	c := New()
	t.Setenv("PING_OK", "https://bot.example.com/")
	t.Setenv("PING_REL", "/healthz")
	t.Setenv("PING_FTP", "ftp://example.com")
	if got := c.MayURL("PING_OK"); got != "https://bot.example.com/" {
		t.Fatalf("MayURL = %q", got)
	}
	for _, k := range []string{"PING_REL", "PING_FTP", "PING_UNSET"} {
		if got := c.MayURL(k); got != "" {
			t.Fatalf("MayURL(%s) = %q, want empty", k, got)
		}
	}
}
