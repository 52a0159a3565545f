package requestctx

import (
	"context"
	"testing"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Fatalf("expected req-1, got %q", got)
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}

func TestPrincipalRoundTrip(t *testing.T) {
	if _, ok := GetPrincipal(context.Background()); ok {
		t.Fatal("did not expect principal")
	}
	ctx := WithPrincipal(context.Background(), Principal{UserID: "u1", TenantID: "t1", Role: "admin"})
	p, ok := GetPrincipal(ctx)
	if !ok || p.TenantID != "t1" || p.Role != "admin" {
		t.Fatalf("unexpected principal: %+v", p)
	}
}
