package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func preflight(handler http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/carts/c1/checkout", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsConfiguredTillOrigin(t *testing.T) {
	handler := CORS([]string{" https://till.example.com/ "}, false)(okHandler())

	rec := preflight(handler, "https://till.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://till.example.com" {
		t.Fatalf("expected till origin allowed, got %q", got)
	}

	rec = preflight(handler, "http://localhost:5173")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("dev origin must be refused in prod, got %q", got)
	}
}

func TestCORSAllowsDevOriginsOutsideProd(t *testing.T) {
	handler := CORS(nil, true)(okHandler())
	rec := preflight(handler, "http://localhost:5173")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected dev origin allowed, got %q", got)
	}
}
