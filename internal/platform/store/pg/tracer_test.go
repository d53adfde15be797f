package pg

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestCompact(t *testing.T) {
	in := "\n\tSELECT a,\n\t       b\n\tFROM t   WHERE x = $1\n"
	if got := compact(in); got != "SELECT a, b FROM t WHERE x = $1" {
		t.Fatalf("compact = %q", got)
	}
}

func TestTracer_Levels(t *testing.T) {
	var buf bytes.Buffer
	tr := Tracer(zerolog.New(&buf).Level(zerolog.ErrorLevel))

	tr.OnQuery(context.Background(), QueryEvent{SQL: "select 1", ElapsedUS: 1500})
	tr.OnQuery(context.Background(), QueryEvent{SQL: "select\n 2", Slow: true, Err: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines even above root level, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], `"level":"info"`) || !strings.Contains(lines[0], `"elapsed_ms":1.5`) {
		t.Fatalf("fast query line = %s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"warn"`) || !strings.Contains(lines[1], `"sql":"select 2"`) || !strings.Contains(lines[1], "boom") {
		t.Fatalf("slow query line = %s", lines[1])
	}
}
