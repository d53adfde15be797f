package service

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/testkit"
	"gatekeeper/internal/services/commands/domain"
	incdom "gatekeeper/internal/services/incidents/domain"
	moddom "gatekeeper/internal/services/moderation/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type reply struct{ channel, text string }

type fakeReplier struct {
	got []reply
	err error
}

func (f *fakeReplier) Reply(_ context.Context, channelID, text string) error {
	f.got = append(f.got, reply{channelID, text})
	return f.err
}

type fakeReader struct {
	list []incdom.Incident
	err  error
	args []string
}

func (f *fakeReader) Recent(_ context.Context, guildID, userID string, _ int) ([]incdom.Incident, error) {
	f.args = []string{guildID, userID}
	return f.list, f.err
}

func newSvc(t *testing.T, r incdom.Reader) (*Svc, *fakeReplier) {
	t.Helper()
	rep := &fakeReplier{}
	s := New("!", rep, prometheus.NewRegistry())
	if err := s.Register(Ping(), Help(s), Strikes(r)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return s, rep
}

func text(s string) moddom.Message {
	return moddom.Message{GuildID: "g", ChannelID: "c", Author: moddom.Author{ID: "u"}, Text: s}
}

func TestParse(t *testing.T) {
	s := New("!", nil, prometheus.NewRegistry())
	tests := []struct {
		in   string
		name string
		args int
		ok   bool
	}{
		{in: "!ping", name: "ping", ok: true},
		{in: "!PING extra words", name: "ping", args: 2, ok: true},
		{in: "! help", name: "help", ok: true},
		{in: "!", ok: false},
		{in: "ping", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range tests {
		name, args, ok := s.Parse(tc.in)
		if ok != tc.ok || name != tc.name || len(args) != tc.args {
			t.Fatalf("Parse(%q) = %q %q %v", tc.in, name, args, ok)
		}
	}
	if _, _, ok := New("", nil, prometheus.NewRegistry()).Parse("!ping"); ok {
		t.Fatal("empty prefix must disable parsing")
	}
}

func TestRegister_Rejects(t *testing.T) {
	s := New("!", nil, prometheus.NewRegistry())
	if err := s.Register(Command{Name: "x"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing handler err = %v", err)
	}
	if err := s.Register(Ping(), Command{Name: "PING", Run: Ping().Run}); !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("duplicate err = %v", err)
	}
}

func TestDispatch_PingAndHelp(t *testing.T) {
	s, rep := newSvc(t, &fakeReader{})

	handled, err := s.Dispatch(context.Background(), text("!ping"))
	if !handled || err != nil || rep.got[0] != (reply{"c", "pong"}) {
		t.Fatalf("ping: %v %v %+v", handled, err, rep.got)
	}

	if _, err := s.Dispatch(context.Background(), text("!help")); err != nil {
		t.Fatalf("help err = %v", err)
	}
	help := rep.got[1].text
	for _, want := range []string{"!help", "!ping", "!strikes <@member>"} {
		testkit.MustContain(t, help, want)
	}
	if got := testutil.ToFloat64(s.runs.WithLabelValues("ping", "ok")); got != 1 {
		t.Fatalf("ping counter = %v", got)
	}
}

func TestDispatch_Ignores(t *testing.T) {
	s, rep := newSvc(t, &fakeReader{})
	bot := text("!ping")
	bot.Author.Bot = true
	for _, m := range []moddom.Message{text("hello"), text("!unknown"), bot} {
		if handled, _ := s.Dispatch(context.Background(), m); handled {
			t.Fatalf("Dispatch(%q) handled", m.Text)
		}
	}
	if len(rep.got) != 0 {
		t.Fatalf("replies = %+v", rep.got)
	}
}

func TestDispatch_StrikesNeedsPrivilege(t *testing.T) {
	r := &fakeReader{}
	s, rep := newSvc(t, r)

	s.Dispatch(context.Background(), text("!strikes <@42>"))
	testkit.MustContain(t, rep.got[0].text, "Manage Messages")
	if r.args != nil {
		t.Fatal("reader must not be called for unprivileged users")
	}
	if got := testutil.ToFloat64(s.runs.WithLabelValues("strikes", "denied")); got != 1 {
		t.Fatalf("denied counter = %v", got)
	}
}

func TestDispatch_Strikes(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	r := &fakeReader{list: []incdom.Incident{{Category: "link", Verdict: "muted", At: at}}}
	s, rep := newSvc(t, r)

	mod := text("!strikes <@!42>")
	mod.Author.CanManageMessages = true
	if _, err := s.Dispatch(context.Background(), mod); err != nil {
		t.Fatalf("strikes err = %v", err)
	}
	if r.args[0] != "g" || r.args[1] != "42" {
		t.Fatalf("reader args = %q", r.args)
	}
	testkit.MustContain(t, rep.got[0].text, "2024-05-01 12:30 link (muted)")

	r.list = nil
	s.Dispatch(context.Background(), mod)
	testkit.MustContain(t, rep.got[1].text, "clean record")

	r.err = perr.Unavailablef("disabled")
	s.Dispatch(context.Background(), mod)
	testkit.MustContain(t, rep.got[2].text, "journal is disabled")

	bad := text("!strikes someone")
	bad.Author.IsOwner = true
	s.Dispatch(context.Background(), bad)
	testkit.MustContain(t, rep.got[3].text, "Mention a member")

	r.err = errors.New("db exploded")
	_, err := s.Dispatch(context.Background(), mod)
	if err == nil {
		t.Fatal("handler error must be returned")
	}
	testkit.MustContain(t, rep.got[4].text, "Something went wrong")
}

func TestDispatch_ReplyFailure(t *testing.T) {
	s, rep := newSvc(t, &fakeReader{})
	rep.err = errors.New("missing access")
	handled, err := s.Dispatch(context.Background(), text("!ping"))
	if !handled || !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("reply failure: %v %v", handled, err)
	}
}

func TestUserArg(t *testing.T) {
	for in, want := range map[string]string{
		"<@42>":  "42",
		"<@!42>": "42",
		"42":     "42",
		"<@>":    "",
		"bob":    "",
		"<@4x2>": "",
	} {
		if got := userArg(in); got != want {
			t.Fatalf("userArg(%q) = %q, want %q", in, got, want)
		}
	}
}

var _ domain.Replier = (*fakeReplier)(nil)
