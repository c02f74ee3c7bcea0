package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LIBRARY_LOG_FORMAT", "console")
	t.Setenv("LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected console, got %q", got)
	}
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("LIBRARY_LOG_FORMAT", "  ")
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected unprefixed value, got %q", got)
	}

	t.Setenv("LOG_FORMAT", "")
	if got := Get("LOG_FORMAT", "json"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
