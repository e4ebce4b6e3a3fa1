package redact_test

import (
	"testing"

	"github.com/kiokubot/kioku/common/redact"
)

func TestString_RedactsSensitiveValues(t *testing.T) {
	secret := "sk-live-abcdef123456"
	line := "llm request failed: 401 Unauthorized (key sk-live-abcdef123456)"
	got := redact.String(line, secret)
	const want = "llm request failed: 401 Unauthorized (key [REDACTED])"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestString_SkipsShortValues(t *testing.T) {
	line := "abc token"
	// "abc" is only 3 chars, too likely to collide with ordinary text
	if got := redact.String(line, "abc"); got != line {
		t.Fatalf("short value should not be redacted; got %q", got)
	}
}

func TestString_MultipleValues(t *testing.T) {
	botToken := "MTA0.討論.xyz-bot-token"
	apiKey := "AIzaSyFakeKey"
	line := "discord=" + botToken + " gemini=" + apiKey
	got := redact.String(line, botToken, apiKey)
	if got != "discord=[REDACTED] gemini=[REDACTED]" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestString_NoValues(t *testing.T) {
	line := "nothing to hide"
	if got := redact.String(line); got != line {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}
