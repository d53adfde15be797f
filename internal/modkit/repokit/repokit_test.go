package repokit

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "gatekeeper/internal/platform/errors"
	"gatekeeper/internal/platform/testkit"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type txFunc func(ctx context.Context, fn func(Queryer) error) error

func (f txFunc) Tx(ctx context.Context, fn func(Queryer) error) error   { return f(ctx, fn) }
func (txFunc) Exec(context.Context, string, ...any) (CommandTag, error) { return nil, nil }
func (txFunc) Query(context.Context, string, ...any) (Rows, error)      { return nil, nil }
func (txFunc) QueryRow(context.Context, string, ...any) Row             { return nil }

func TestMustBind(t *testing.T) {
	b := BindFunc[string](func(Queryer) string { return "bound" })
	testkit.MustPanic(t, func() { MustBind[string](b, nil) })

	var q Queryer = txFunc(nil)
	if got := MustBind[string](b, q); got != "bound" {
		t.Fatalf("MustBind = %q", got)
	}
}

func TestWithTx_PassesFnThrough(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	tx := txFunc(func(ctx context.Context, fn func(Queryer) error) error {
		calls++
		return fn(nil)
	})
	err := WithTx(context.Background(), tx, func(Queryer) error { return boom })
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("WithTx err=%v calls=%d", err, calls)
	}
}

func TestPing(t *testing.T) {
	if err := Ping(context.Background(), "pg", nil); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("nil pinger err = %v", err)
	}

	var deadline time.Time
	ok := pingFunc(func(ctx context.Context) error {
		deadline, _ = ctx.Deadline()
		return nil
	})
	if err := Ping(context.Background(), "pg", ok); err != nil {
		t.Fatalf("healthy ping err = %v", err)
	}
	if left := time.Until(deadline); left <= 0 || left > DefaultPingTimeout {
		t.Fatalf("default deadline not applied, %v left", left)
	}

	failing := pingFunc(func(context.Context) error { return errors.New("refused") })
	err := Ping(context.Background(), "pg", failing)
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("failing ping err = %v", err)
	}
	testkit.MustContain(t, err.Error(), "pg ping failed")
}
