package email

import (
	"strings"
	"testing"
)

func TestRedactedExcerptStripsIdentifiers(t *testing.T) {
	e := &Email{
		ID: "G-1",
		Body: `<html><body><article>
			<p>Dear user@example.com, your submission 1234567890 is live.</p>
			<p>See https://example.com/secret?token=abc for details.</p>
		</article></body></html>`,
	}

	got := RedactedExcerpt(e)

	if strings.Contains(got, "user@example.com") {
		t.Errorf("Expected address to be redacted, got '%s'", got)
	}
	if strings.Contains(got, "1234567890") {
		t.Errorf("Expected long digit run to be redacted, got '%s'", got)
	}
	if strings.Contains(got, "https://example.com") {
		t.Errorf("Expected link to be redacted, got '%s'", got)
	}
	if !strings.Contains(got, "is live") {
		t.Errorf("Expected surrounding prose to survive, got '%s'", got)
	}
}

func TestRedactedExcerptCapsLength(t *testing.T) {
	e := &Email{
		ID:   "G-2",
		Body: "<p>" + strings.Repeat("words and more words ", 300) + "</p>",
	}

	got := RedactedExcerpt(e)
	if len(got) > excerptLimit {
		t.Errorf("Expected excerpt capped at %d bytes, got %d", excerptLimit, len(got))
	}
}
