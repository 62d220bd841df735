package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runSecurityHeaders(cfg SecurityHeadersConfig) *httptest.ResponseRecorder {
	handler := SecurityHeaders(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/people", nil))
	return rr
}

func TestSecurityHeaders_Production(t *testing.T) {
	rr := runSecurityHeaders(DefaultSecurityHeadersConfig(false))

	tests := []struct {
		header string
		want   string
	}{
		{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
	}

	for _, tt := range tests {
		if got := rr.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}

	hsts := rr.Header().Get("Strict-Transport-Security")
	if !strings.Contains(hsts, "max-age=31536000") {
		t.Errorf("Strict-Transport-Security = %q, want max-age=31536000", hsts)
	}
	if !strings.Contains(hsts, "includeSubDomains") {
		t.Errorf("Strict-Transport-Security = %q, want includeSubDomains", hsts)
	}
}

func TestSecurityHeaders_DevelopmentSkipsHSTS(t *testing.T) {
	rr := runSecurityHeaders(DefaultSecurityHeadersConfig(true))

	if hsts := rr.Header().Get("Strict-Transport-Security"); hsts != "" {
		t.Errorf("Strict-Transport-Security = %q, want unset in development", hsts)
	}

	// The rest of the headers still apply in development
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}

func TestSecurityHeaders_CustomConfig(t *testing.T) {
	cfg := SecurityHeadersConfig{
		IsDevelopment:         false,
		ContentSecurityPolicy: "default-src 'self'",
		HSTSMaxAge:            0,
		FrameOptions:          "",
		ReferrerPolicy:        "no-referrer",
	}
	rr := runSecurityHeaders(cfg)

	if got := rr.Header().Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Errorf("Content-Security-Policy = %q, want custom value", got)
	}
	if got := rr.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("Strict-Transport-Security = %q, want unset when max-age is 0", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("X-Frame-Options = %q, want unset when empty", got)
	}
	if got := rr.Header().Get("Referrer-Policy"); got != "no-referrer" {
		t.Errorf("Referrer-Policy = %q, want no-referrer", got)
	}
}
