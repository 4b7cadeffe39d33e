package mailapi

import (
	"testing"
	"time"
)

func TestBackoffGrowsLinearly(t *testing.T) {
	var b Backoff

	for i := 1; i <= 5; i++ {
		delay := b.Fail()
		want := time.Duration(i) * 30 * time.Second
		if delay != want {
			t.Errorf("Failure %d: expected delay %v, got %v", i, want, delay)
		}
	}

	if b.Failures() != 5 {
		t.Errorf("Expected 5 failures, got %d", b.Failures())
	}
}

func TestBackoffReset(t *testing.T) {
	var b Backoff
	b.Fail()
	b.Fail()
	b.Reset()

	if b.Failures() != 0 {
		t.Errorf("Expected 0 failures after reset, got %d", b.Failures())
	}
	if delay := b.Fail(); delay != 30*time.Second {
		t.Errorf("Expected delay to restart at 30s, got %v", delay)
	}
}
