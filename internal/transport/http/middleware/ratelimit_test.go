package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"manpower/internal/requestctx"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimitUsesUserKeyBeforeIPFallback(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	userCtx := requestctx.WithPrincipal(context.Background(), requestctx.Principal{
		TenantID: "tenant-1",
		UserID:   "user-1",
	})

	first := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil).WithContext(userCtx)
	first.RemoteAddr = "198.51.100.11:2222"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil).WithContext(userCtx)
	second.RemoteAddr = "198.51.100.12:3333"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by user key, got %d", secondRec.Code)
	}
	if secondRec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimitFallsBackToIP(t *testing.T) {
	limited := RateLimit(1, time.Minute)(noContent())

	first := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/settings", nil)
	first.RemoteAddr = "203.0.113.10:4444"
	firstRec := httptest.NewRecorder()
	limited.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodGet, "/api/v1/payroll/settings", nil)
	second.Header.Set("X-Forwarded-For", "203.0.113.10, 10.0.0.1")
	second.RemoteAddr = "10.0.0.1:5555"
	secondRec := httptest.NewRecorder()
	limited.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled by ip key, got %d", secondRec.Code)
	}
}

func TestRateLimitWindowReset(t *testing.T) {
	limited := RateLimit(1, 40*time.Millisecond)(noContent())

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/runs", nil)
		req.RemoteAddr = "192.0.2.20:1111"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}
	time.Sleep(60 * time.Millisecond)
	if code := send(); code != http.StatusNoContent {
		t.Fatalf("expected request after window reset to pass, got %d", code)
	}
}

func TestSensitiveLimitThrottlesLoginByEmail(t *testing.T) {
	var bodies []string
	limited := SensitiveMutationRateLimit(4, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		w.WriteHeader(http.StatusNoContent)
	}))

	login := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"email":"Payroll@Example.com","password":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := login("192.0.2.1:1000"); code != http.StatusNoContent {
		t.Fatalf("expected first login to pass, got %d", code)
	}
	if len(bodies) != 1 || bodies[0] != `{"email":"Payroll@Example.com","password":"x"}` {
		t.Fatalf("expected body to reach the handler intact, got %v", bodies)
	}
	if code := login("192.0.2.2:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second login for same email to be throttled, got %d", code)
	}
}

func TestSensitiveLimitCoversSettingsWritesOnly(t *testing.T) {
	limited := SensitiveMutationRateLimit(2, time.Minute)(noContent())
	userCtx := requestctx.WithPrincipal(context.Background(), requestctx.Principal{
		TenantID: "tenant-1",
		UserID:   "user-1",
	})

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil).WithContext(userCtx)
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(http.MethodPut, "/api/v1/payroll/settings/pt/KA"); code != http.StatusNoContent {
		t.Fatalf("expected first settings write to pass, got %d", code)
	}
	if code := send(http.MethodPut, "/api/v1/payroll/settings/rates"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second settings write to be throttled, got %d", code)
	}
	for i := 0; i < 3; i++ {
		if code := send(http.MethodGet, "/api/v1/payroll/settings"); code != http.StatusNoContent {
			t.Fatalf("expected reads to pass, got %d", code)
		}
	}
}
