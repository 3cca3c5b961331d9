package httpapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestRequestIDKeepsIncomingHeader(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get("X-Request-Id") != "abc-123" {
		t.Fatalf("unexpected request id: ctx=%q header=%q", seen, rec.Header().Get("X-Request-Id"))
	}
}

func TestRecovererWritesServerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := Recoverer(logger, true)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestTraceOperationLogsRouteName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := mux.NewRouter()
	r.Use(TraceOperation(logger))
	r.HandleFunc("/users/{userId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Name("getUser")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(buf.String(), "operation=getUser") {
		t.Fatalf("expected operation name in log, got %q", buf.String())
	}
}

func TestLoginLimiterWindow(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < l.max; i++ {
		if !l.Allow("ip:1.2.3.4", now) {
			t.Fatalf("attempt %d rejected", i+1)
		}
	}
	if l.Allow("ip:1.2.3.4", now) {
		t.Fatalf("expected limit to apply")
	}
	if !l.Allow("ip:5.6.7.8", now) {
		t.Fatalf("limit must be per key")
	}
	if !l.Allow("ip:1.2.3.4", now.Add(l.window+time.Second)) {
		t.Fatalf("expected window to expire")
	}
}

func TestLoginLimiterSweepsIdleKeys(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Allow("ip:1.2.3.4", now)
	l.Allow("ip:5.6.7.8", now.Add(2*l.window))

	if _, ok := l.attempts["ip:1.2.3.4"]; ok {
		t.Fatalf("expected idle key to be swept")
	}
	if len(l.attempts) != 1 {
		t.Fatalf("unexpected keys: %v", l.attempts)
	}
}

func TestLoginLimiterBlockedOnlyCountsFailures(t *testing.T) {
	l := newLoginLimiter()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3*l.max; i++ {
		if l.Blocked("ip:1.2.3.4", now) {
			t.Fatalf("check %d blocked without failures", i+1)
		}
	}
	if _, ok := l.attempts["ip:1.2.3.4"]; ok {
		t.Fatalf("checking must not record attempts")
	}

	for i := 0; i < l.max; i++ {
		l.Fail("ip:1.2.3.4", now)
	}
	if !l.Blocked("ip:1.2.3.4", now) {
		t.Fatalf("expected failures to block")
	}
	if l.Allow("ip:1.2.3.4", now) {
		t.Fatalf("failures must count toward Allow as well")
	}
	if l.Blocked("ip:1.2.3.4", now.Add(l.window+time.Second)) {
		t.Fatalf("expected window to expire")
	}
}
