package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidatorPeriod(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	v := NewValidator()
	month, year := v.Period("", "", now)
	if v.HasIssues() || month != 3 || year != 2024 {
		t.Fatalf("expected current period, got %d/%d issues=%v", month, year, v.Issues())
	}

	v = NewValidator()
	month, year = v.Period("11", "2023", now)
	if v.HasIssues() || month != 11 || year != 2023 {
		t.Fatalf("expected 11/2023, got %d/%d", month, year)
	}

	v = NewValidator()
	v.Period("13", "abc", now)
	issues := v.Issues()
	if len(issues) != 2 || issues[0].Field != "month" || issues[1].Field != "year" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestValidatorRejectWritesEnvelope(t *testing.T) {
	v := NewValidator()
	v.NonNegative("salary.basic", -1)
	v.Required("state", " ", "is required")
	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "salary.basic") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Month int `json:"month"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"month": 4}`))
	if !DecodeJSON(httptest.NewRecorder(), req, &dst, "") || dst.Month != 4 {
		t.Fatalf("expected decode, got %+v", dst)
	}

	for _, body := range []string{`{"unknown": 1}`, `{"month": 1}{"month": 2}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if DecodeJSON(rec, req, &dst, "") {
			t.Fatalf("expected failure for %s", body)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePagination(req, 50, 200)
	if p.Limit != 200 || p.Offset != 20 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	p = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=-1", nil), 50, 200)
	if p.Limit != 50 || p.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}
