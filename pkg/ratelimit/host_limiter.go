package ratelimit

import (
	"context"
	"sync"
	"time"
)

// HostLimiter enforces polite request spacing per scraped host. The
// helpdesk is a production support site; the scraper must never hammer it.
type HostLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	hosts       map[string]*hostState
}

type hostState struct {
	lastRequestTime time.Time
	backoffUntil    time.Time
	requestCount    int64
	errorCount      int64
}

// NewHostLimiter creates a limiter with the given minimum interval between
// requests to the same host.
func NewHostLimiter(minInterval time.Duration) *HostLimiter {
	return &HostLimiter{
		minInterval: minInterval,
		hosts:       make(map[string]*hostState),
	}
}

// Wait blocks until it is safe to make a request to the host.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	for {
		l.mu.Lock()
		state, ok := l.hosts[host]
		if !ok {
			state = &hostState{}
			l.hosts[host] = state
		}

		now := time.Now()

		var wait time.Duration
		if now.Before(state.backoffUntil) {
			wait = state.backoffUntil.Sub(now)
		} else if since := now.Sub(state.lastRequestTime); since < l.minInterval {
			wait = l.minInterval - since
		}

		if wait == 0 {
			state.lastRequestTime = now
			state.requestCount++
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RecordError records a failed request and triggers exponential backoff
// after repeated failures.
func (l *HostLimiter) RecordError(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.hosts[host]
	if !ok {
		state = &hostState{}
		l.hosts[host] = state
	}

	state.errorCount++
	if state.errorCount > 3 {
		backoff := time.Duration(state.errorCount) * 30 * time.Second
		if backoff > 5*time.Minute {
			backoff = 5 * time.Minute
		}
		state.backoffUntil = time.Now().Add(backoff)
	}
}

// RecordSuccess resets the error count for a host.
func (l *HostLimiter) RecordSuccess(host string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, ok := l.hosts[host]; ok {
		state.errorCount = 0
	}
}

// Stats contains request statistics for a host
type Stats struct {
	RequestCount int64
	ErrorCount   int64
	InBackoff    bool
	BackoffUntil time.Time
}

// GetStats returns statistics for all hosts seen so far.
func (l *HostLimiter) GetStats() map[string]Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make(map[string]Stats, len(l.hosts))
	now := time.Now()
	for host, state := range l.hosts {
		stats[host] = Stats{
			RequestCount: state.requestCount,
			ErrorCount:   state.errorCount,
			InBackoff:    now.Before(state.backoffUntil),
			BackoffUntil: state.backoffUntil,
		}
	}
	return stats
}
