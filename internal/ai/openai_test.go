package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewOpenAIAnalyzerDefaultModel(t *testing.T) {
	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "test-key"})
	if a.Model() != "gpt-4o-mini" {
		t.Fatalf("expected gpt-4o-mini default, got %q", a.Model())
	}

	custom := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o"})
	if custom.Model() != "gpt-4o" {
		t.Fatalf("expected configured model, got %q", custom.Model())
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	if got := truncate("short body", 4000); got != "short body" {
		t.Fatalf("short input must pass through, got %q", got)
	}

	long := strings.Repeat("a", 4000) + "tail"
	if got := truncate(long, 4000); len(got) != 4000 {
		t.Fatalf("expected 4000 bytes, got %d", len(got))
	}

	// 3-byte runes: 4000 is not a multiple of 3, so a naive byte slice would
	// split a rune at the boundary.
	multi := strings.Repeat("日", 2000)
	got := truncate(multi, 4000)
	if len(got) > 4000 {
		t.Fatalf("expected at most 4000 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated string is not valid UTF-8")
	}
}
