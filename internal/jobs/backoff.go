package jobs

import "time"

// BackoffPolicy computes the delay before a failed job becomes eligible
// again. Delays double per attempt up to Max.
type BackoffPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// DefaultBackoffPolicy retries after 2s, 4s, 8s... capped at one minute.
var DefaultBackoffPolicy = BackoffPolicy{
	Base: 2 * time.Second,
	Max:  time.Minute,
}

// Delay returns the wait before the given retry attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := p.Base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.Max {
			return p.Max
		}
	}

	if delay > p.Max {
		return p.Max
	}

	return delay
}
