package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":        LevelOff,
		"off":     LevelOff,
		"error":   LevelError,
		"info":    LevelInfo,
		"debug":   LevelDebug,
		"garbage": LevelOff,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q)=%d want %d", in, got, want)
		}
	}
}

func TestRequestLogLevelOverrides(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?log=debug", nil)
	if got := requestLogLevel(req); got != LevelDebug {
		t.Fatalf("query override level=%d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(req); got != LevelError {
		t.Fatalf("header override level=%d", got)
	}
}
