package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newShell(t *testing.T) *Shell {
	t.Helper()
	s, err := NewShell()
	if err != nil {
		t.Fatalf("NewShell() error = %v", err)
	}
	return s
}

func TestShellServesAssets(t *testing.T) {
	s := newShell(t)

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html; charset=utf-8", "My Collections"},
		{"/index.html", "text/html; charset=utf-8", "offline"},
		{"/save.html", "text/html; charset=utf-8", `action="/items"`},
		{"/app.js", "application/javascript", "suggest-title"},
		{"/manifest.json", "application/json", "share_target"},
		{"/icon-192.png", "image/png", "PNG"},
		{"/icon-512.png", "image/png", "PNG"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body does not contain %q", tt.contains)
			}
		})
	}
}

func TestShellIndexIsNotRedirected(t *testing.T) {
	rec := httptest.NewRecorder()
	newShell(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("GET /index.html = %d, want 200 without redirect", rec.Code)
	}
}

func TestShellNotFoundAndMethods(t *testing.T) {
	s := newShell(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/app.js", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST = %d, want 405", rec.Code)
	}
}

func TestShellConditionalGet(t *testing.T) {
	s := newShell(t)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.js", nil))
	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional GET = %d, want 304", rec.Code)
	}
}

func TestShellPaths(t *testing.T) {
	paths := newShell(t).Paths()
	want := []string{"/app.js", "/icon-192.png", "/icon-512.png", "/index.html", "/manifest.json", "/save.html"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("Paths() = %v, want %v", paths, want)
	}
}
