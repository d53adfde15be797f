package net

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("empty ctx id = %q", got)
	}
	ctx := WithRequest(context.Background(), "host/abc-000001")
	if got := RequestID(ctx); got != "host/abc-000001" {
		t.Fatalf("RequestID = %q", got)
	}
	if WithRequest(ctx, "") != ctx {
		t.Fatalf("empty id should not wrap ctx")
	}
}
