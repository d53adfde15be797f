package module

import (
	"strings"
	"testing"

	phttp "gatekeeper/internal/platform/net/http"
)

type Handler interface{ Handle() string }

type handler string

func (h handler) Handle() string { return string(h) }

type fake struct {
	name  string
	ports any
}

func (f fake) MountRoutes(phttp.Router) {}
func (f fake) Ports() any               { return f.ports }
func (f fake) Name() string             { return f.name }

func TestPortsOf(t *testing.T) {
	type bundle struct {
		Handler Handler
		Limit   int
	}
	type hidden struct{ h Handler }

	tests := []struct {
		name  string
		ports any
		want  string
		ok    bool
	}{
		{name: "nil", ports: nil},
		{name: "direct", ports: Handler(handler("direct")), want: "direct", ok: true},
		{name: "field", ports: bundle{Handler: handler("field")}, want: "field", ok: true},
		{name: "pointer bundle", ports: &bundle{Handler: handler("ptr")}, want: "ptr", ok: true},
		{name: "nil pointer bundle", ports: (*bundle)(nil)},
		{name: "unexported field", ports: hidden{h: handler("x")}},
		{name: "scalar", ports: 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[Handler](fake{ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got.Handle() != tc.want {
				t.Fatalf("Handle() = %q, want %q", got.Handle(), tc.want)
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	if got := MustPortsOf[Handler](fake{ports: handler("ok")}); got.Handle() != "ok" {
		t.Fatalf("got %q", got.Handle())
	}
	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "moderation") {
			t.Fatalf("panic = %q, want module name", msg)
		}
	}()
	MustPortsOf[Handler](fake{name: "moderation"})
}

func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("incidents", handler("a"))
	Register("incidents", handler("b"))

	got, ok := PortsAs[handler]("incidents")
	if !ok || got != "b" {
		t.Fatalf("PortsAs = %q %v, want overwritten value", got, ok)
	}
	if _, ok := PortsAs[int]("incidents"); ok {
		t.Fatal("type mismatch must report false")
	}
	if _, ok := PortsAs[handler]("missing"); ok {
		t.Fatal("missing name must report false")
	}

	Reset()
	if _, ok := PortsAs[handler]("incidents"); ok {
		t.Fatal("Reset must clear the registry")
	}
}
