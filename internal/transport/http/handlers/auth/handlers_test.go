package authhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"manpower/internal/domain/auth"
	"manpower/internal/transport/http/middleware"
)

const secret = "auth-handler-secret"

type fakeSessions struct {
	svc *auth.Service
}

func (f fakeSessions) Login(_ context.Context, email, password string) (auth.Session, error) {
	if email != "admin@example.com" || password != "correct" {
		return auth.Session{}, auth.ErrInvalidCredentials
	}
	return f.svc.Refresh("u1", "t1", auth.RoleAdmin)
}

func (f fakeSessions) Refresh(userID, tenantID, role string) (auth.Session, error) {
	return f.svc.Refresh(userID, tenantID, role)
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Auth(secret))
	NewHandler(fakeSessions{svc: auth.NewService(nil, secret, time.Hour)}).RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleLogin(t *testing.T) {
	router := newRouter()
	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{name: "valid credentials", body: map[string]string{"email": "Admin@Example.com", "password": "correct"}, want: http.StatusOK},
		{name: "wrong password", body: map[string]string{"email": "admin@example.com", "password": "nope"}, want: http.StatusUnauthorized},
		{name: "missing email", body: map[string]string{"password": "correct"}, want: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/auth/login", tc.body, "")
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleRefreshAndMe(t *testing.T) {
	router := newRouter()

	rec := postJSON(t, router, "/auth/refresh", map[string]string{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u2", TenantID: "t1", Role: auth.RoleViewer}, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	rec = postJSON(t, router, "/auth/refresh", map[string]string{}, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env struct {
		Data auth.Session `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.UserID != "u2" || env.Data.AccessToken == "" {
		t.Fatalf("unexpected session: %+v", env.Data)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200 from /auth/me, got %d", me.Code)
	}
}
