package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatekeeper/internal/modkit"
	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/testkit"
	"gatekeeper/internal/services/incidents/domain"

	"github.com/google/uuid"
)

type fakeRepo struct {
	rows      []domain.Incident
	insertErr error
	transient int // inserts that fail with a retryable error first
	inserts   int
	lastLimit int
}

func (f *fakeRepo) EnsureSchema(context.Context) error { return nil }

func (f *fakeRepo) Insert(_ context.Context, in domain.Incident) error {
	f.inserts++
	if f.transient > 0 {
		f.transient--
		return perr.Unavailablef("connection reset")
	}
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, in)
	return nil
}

func (f *fakeRepo) Recent(_ context.Context, guildID, userID string, limit int) ([]domain.Incident, error) {
	f.lastLimit = limit
	var out []domain.Incident
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].GuildID == guildID && f.rows[i].UserID == userID {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

func TestRecord_FillsIDAndTime(t *testing.T) {
	r := &fakeRepo{}
	s := NewWithRepo(r)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = testkit.NewClock(at).Now

	err := s.Record(context.Background(), domain.Incident{GuildID: "g", UserID: "u", Category: "link", Verdict: "warned"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(r.rows) != 1 || r.rows[0].ID == uuid.Nil || !r.rows[0].At.Equal(at) {
		t.Fatalf("stored = %+v", r.rows)
	}

	fixed := uuid.MustParse("0190a6b2-0000-7000-8000-000000000001")
	_ = s.Record(context.Background(), domain.Incident{ID: fixed, GuildID: "g", UserID: "u", Category: "link"})
	if r.rows[1].ID != fixed {
		t.Fatalf("preset id overwritten")
	}
}

func TestRecord_Errors(t *testing.T) {
	r := &fakeRepo{}
	s := NewWithRepo(r)

	if err := s.Record(context.Background(), domain.Incident{Category: "link"}); !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("missing user err = %v", err)
	}

	r.insertErr = perr.New(perr.ErrorCodeDB, "down")
	err := s.Record(context.Background(), domain.Incident{UserID: "u", Category: "link"})
	if e, ok := perr.As(err); !ok || e.Op() != "incidents.record" || e.Code() != perr.ErrorCodeDB {
		t.Fatalf("insert err = %v", err)
	}

	s.newID = func() (uuid.UUID, error) { return uuid.Nil, errors.New("entropy") }
	if err := s.Record(context.Background(), domain.Incident{UserID: "u", Category: "link"}); err == nil {
		t.Fatalf("id failure not surfaced")
	}
}

func TestRecord_RetriesTransientOnce(t *testing.T) {
	r := &fakeRepo{transient: 1}
	s := NewWithRepo(r)
	in := domain.Incident{GuildID: "g", UserID: "u", Category: "link"}

	if err := s.Record(context.Background(), in); err != nil || r.inserts != 2 || len(r.rows) != 1 {
		t.Fatalf("Record = %v after %d inserts", err, r.inserts)
	}

	r = &fakeRepo{transient: 2}
	s = NewWithRepo(r)
	if err := s.Record(context.Background(), in); !perr.IsCode(err, perr.ErrorCodeUnavailable) || r.inserts != 2 {
		t.Fatalf("second failure = %v after %d inserts", err, r.inserts)
	}

	// non-transient errors are not retried
	r = &fakeRepo{insertErr: perr.New(perr.ErrorCodeValidation, "bad row")}
	s = NewWithRepo(r)
	_ = s.Record(context.Background(), in)
	if r.inserts != 1 {
		t.Fatalf("validation error retried: %d inserts", r.inserts)
	}
}

func TestRecent_ClampsLimit(t *testing.T) {
	r := &fakeRepo{}
	s := NewWithRepo(r)
	for i := 0; i < 3; i++ {
		_ = s.Record(context.Background(), domain.Incident{GuildID: "g", UserID: "u", Category: "profanity"})
	}

	got, err := s.Recent(context.Background(), "g", "u", 0)
	if err != nil || len(got) != 1 || r.lastLimit != 1 {
		t.Fatalf("Recent(0) = %d rows, limit %d, err %v", len(got), r.lastLimit, err)
	}
	if _, _ = s.Recent(context.Background(), "g", "u", 500); r.lastLimit != MaxRecent {
		t.Fatalf("limit not capped: %d", r.lastLimit)
	}
	if _, err := s.Recent(context.Background(), "", "u", 5); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("missing guild err = %v", err)
	}
}

func TestNop(t *testing.T) {
	var j domain.Journal = Nop{}
	if err := j.Record(context.Background(), domain.Incident{}); err != nil {
		t.Fatalf("nop record: %v", err)
	}
	if _, err := j.Recent(context.Background(), "g", "u", 5); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nop recent err = %v", err)
	}
}

func TestNew_RequiresDatabase(t *testing.T) {
	testkit.MustPanic(t, func() { _ = New(modkit.Deps{}) })
}
