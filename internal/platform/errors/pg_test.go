package errors

import (
	"context"
	stderrs "errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func pg(code string) *pgconn.PgError { return &pgconn.PgError{Code: code} }

func TestDBErrorCode(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCode
	}{
		{"23505", ErrorCodeDuplicateKey},
		{"23503", ErrorCodeInvalidArgument},
		{"23502", ErrorCodeValidation},
		{"22001", ErrorCodeInvalidArgument},
		{"40P01", ErrorCodeDB},
		{"57P03", ErrorCodeUnavailable},
		{"XXXXX", ErrorCodeDB},
	}
	for _, c := range cases {
		got, ok := DBErrorCode(pg(c.code))
		if !ok || got != c.want {
			t.Fatalf("DBErrorCode(%s) = %v %v, want %v", c.code, got, ok, c.want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("nope")); ok {
		t.Fatalf("non-pg error mapped")
	}
}

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatalf("nil must pass through")
	}
	err := FromPostgres(pg("23505"), "insert incident")
	if !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("code = %v", CodeOf(err))
	}
	if !IsCode(FromPostgres(stderrs.New("eof"), "scan"), ErrorCodeDB) {
		t.Fatalf("foreign error should map to DB")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Wrap(pg("40001"), ErrorCodeDB, "tx")) {
		t.Fatalf("serialization failure should retry")
	}
	if IsRetryable(pg("23505")) {
		t.Fatalf("unique violation must not retry")
	}
	if !IsRetryable(stderrs.New("commit unexpectedly resulted in rollback")) {
		t.Fatalf("commit rollback text should retry")
	}
	if IsRetryable(context.DeadlineExceeded) || IsRetryable(nil) {
		t.Fatalf("deadline and nil must not retry")
	}
}
