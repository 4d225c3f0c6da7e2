package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/emails", h.EmailsList)
	r.GET("/api/analytics/range", h.AnalyticsRange)
	r.GET("/api/auth/gmail", h.GmailAuthURL)
	r.POST("/api/auth/gmail/callback", h.GmailAuthCallback)
	r.POST("/api/sync", h.Sync)
	return r
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	return payload.Error.Code
}

func TestEmailsListRejectsCombinedFilters(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/emails?priority=urgent&sentiment=negative", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if code := errorCode(t, w.Body.Bytes()); code != "INVALID_INPUT" {
		t.Fatalf("expected INVALID_INPUT, got %s", code)
	}
}

func TestEmailsListRejectsUnknownPriority(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/emails?priority=sky-high", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyticsRangeValidation(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	r := newTestRouter(h)

	cases := []string{
		"/api/analytics/range",
		"/api/analytics/range?startDate=2025-03-10",
		"/api/analytics/range?startDate=10.03.2025&endDate=2025-03-12",
		"/api/analytics/range?startDate=2025-03-12&endDate=2025-03-10",
	}
	for _, url := range cases {
		req, _ := http.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", url, w.Code)
		}
	}
}

func TestGmailAuthUnconfigured(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop(), Validator: validator.New()}
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodGet, "/api/auth/gmail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if code := errorCode(t, w.Body.Bytes()); code != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %s", code)
	}

	req, _ = http.NewRequest(http.MethodPost, "/api/auth/gmail/callback", strings.NewReader(`{"code":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestSyncWithoutMailbox(t *testing.T) {
	h := &Handler{Logger: zerolog.Nop()}
	r := newTestRouter(h)

	req, _ := http.NewRequest(http.MethodPost, "/api/sync", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if code := errorCode(t, w.Body.Bytes()); code != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %s", code)
	}
}
