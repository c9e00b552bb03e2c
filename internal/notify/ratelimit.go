package notify

import (
	"sync"
	"time"
)

// RateLimiter implements rate limiting for notifications
type RateLimiter struct {
	mu        sync.Mutex
	events    map[PublisherType][]time.Time
	interval  time.Duration
	maxEvents int
}

// NewRateLimiter creates a sliding window limiter; a non-positive limit disables it
func NewRateLimiter(interval time.Duration, maxEvents int) *RateLimiter {
	return &RateLimiter{
		events:    make(map[PublisherType][]time.Time),
		interval:  interval,
		maxEvents: maxEvents,
	}
}

// AllowNotification checks if a notification is allowed under rate limits
func (r *RateLimiter) AllowNotification(publisherType PublisherType) bool {
	if r == nil || r.maxEvents <= 0 || r.interval <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	timestamps := r.events[publisherType]

	// Clean expired timestamps
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < r.interval {
			valid = append(valid, ts)
		}
	}

	// Check if limit exceeded
	if len(valid) >= r.maxEvents {
		r.events[publisherType] = valid
		return false
	}

	// Add new timestamp
	r.events[publisherType] = append(valid, now)
	return true
}
