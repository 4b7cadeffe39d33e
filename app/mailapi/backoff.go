package mailapi

import "time"

// Backoff tracks consecutive transient failures and yields the delay before
// the next attempt. The remote endpoint gives no way to tell rate limiting
// from permanent failure, so there is no cap: the delay floor starts at 30s
// and grows by 30s per consecutive failure, and callers retry indefinitely.
// Pure state machine; rendering the countdown is the caller's concern.
type Backoff struct {
	failures int
}

// Fail records a failure and returns the delay to wait before retrying.
func (b *Backoff) Fail() time.Duration {
	b.failures++
	return time.Duration(b.failures) * 30 * time.Second
}

// Reset clears the failure streak after a successful attempt.
func (b *Backoff) Reset() {
	b.failures = 0
}

// Failures returns the current consecutive failure count.
func (b *Backoff) Failures() int {
	return b.failures
}
