package httpapi

import (
	"net/http/httptest"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want LogLevel
	}{
		{"off", LevelOff},
		{"error", LevelError},
		{"", LevelInfo},
		{"info", LevelInfo},
		{"debug", LevelDebug},
		{"bogus", LevelInfo},
	}
	for _, c := range cases {
		if got := parseLevel(c.in); got != c.want {
			t.Fatalf("parseLevel(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestRequestLogLevelOverrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/status", nil)
	if got := requestLogLevel(r); got != LevelInfo {
		t.Fatalf("default level = %d", got)
	}

	r = httptest.NewRequest("GET", "/api/status?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query level = %d", got)
	}

	r = httptest.NewRequest("GET", "/api/status?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("legacy query level = %d", got)
	}

	r = httptest.NewRequest("GET", "/api/status", nil)
	r.Header.Set("X-Log-Level", "off")
	if got := requestLogLevel(r); got != LevelOff {
		t.Fatalf("header level = %d", got)
	}

	// The query parameter beats the header.
	r = httptest.NewRequest("GET", "/api/status?log=error", nil)
	r.Header.Set("X-Log-Level", "debug")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("precedence level = %d", got)
	}
}
