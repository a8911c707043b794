package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Window represents the time window for rate limiting
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Config caps requests per scope. A zero limit disables that window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
}

// Enabled reports whether any window is limited
func (c Config) Enabled() bool {
	return c.RequestsPerMinute > 0 || c.RequestsPerHour > 0 || c.RequestsPerDay > 0
}

// Result represents the outcome of a rate limit check.
// RequestsRemaining is -1 when no window applies.
type Result struct {
	Allowed           bool
	RequestsRemaining int
	ResetAt           time.Time
	ViolatedWindow    Window
	ViolationReason   string
}

// RetryAfter is how long the caller should wait before trying again
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Service enforces sliding-window request limits per scope key, in process
type Service struct {
	config Config
	logger *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	events map[string][]time.Time
}

// NewService creates a rate limiter with the given limits
func NewService(config Config, logger *zap.Logger) *Service {
	return &Service{
		config: config,
		logger: logger,
		now:    time.Now,
		events: make(map[string][]time.Time),
	}
}

// Allow checks every configured window for scopeKey and, when all pass,
// records the request. Checking and recording happen under one lock.
func (s *Service) Allow(scopeKey string) *Result {
	if !s.config.Enabled() {
		return &Result{Allowed: true, RequestsRemaining: -1}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	events := s.events[scopeKey]

	checks := []struct {
		window Window
		limit  int
	}{
		{WindowMinute, s.config.RequestsPerMinute},
		{WindowHour, s.config.RequestsPerHour},
		{WindowDay, s.config.RequestsPerDay},
	}

	remaining := -1
	for _, c := range checks {
		if c.limit <= 0 {
			continue
		}
		allowed, left, resetAt := checkWindow(events, c.window, now, c.limit)
		if !allowed {
			return &Result{
				Allowed:         false,
				ResetAt:         resetAt,
				ViolatedWindow:  c.window,
				ViolationReason: fmt.Sprintf("exceeded %d requests per %s", c.limit, c.window),
			}
		}
		if remaining < 0 || left-1 < remaining {
			remaining = left - 1
		}
	}

	s.events[scopeKey] = append(events, now)
	return &Result{Allowed: true, RequestsRemaining: remaining}
}

// Usage returns how many requests scopeKey made in each window
func (s *Service) Usage(scopeKey string) UsageStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	events := s.events[scopeKey]
	return UsageStats{
		RequestsLastMinute: countSince(events, windowStart(now, WindowMinute)),
		RequestsLastHour:   countSince(events, windowStart(now, WindowHour)),
		RequestsLastDay:    countSince(events, windowStart(now, WindowDay)),
	}
}

// UsageStats represents current usage statistics
type UsageStats struct {
	RequestsLastMinute int
	RequestsLastHour   int
	RequestsLastDay    int
}

// CleanupOldRequests drops events older than olderThan and returns how many were removed
func (s *Service) CleanupOldRequests(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for key, events := range s.events {
		kept := events[:0]
		for _, ts := range events {
			if ts.After(cutoff) {
				kept = append(kept, ts)
			}
		}
		removed += len(events) - len(kept)
		if len(kept) == 0 {
			delete(s.events, key)
			continue
		}
		s.events[key] = kept
	}
	return removed
}

// StartCleanupWorker periodically prunes events older than a day until ctx is cancelled
func (s *Service) StartCleanupWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("started rate limit cleanup worker", zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			if removed := s.CleanupOldRequests(24 * time.Hour); removed > 0 {
				s.logger.Debug("cleaned up rate limit events", zap.Int("removed", removed))
			}
		case <-ctx.Done():
			s.logger.Info("stopping rate limit cleanup worker")
			return
		}
	}
}

// checkWindow counts events inside the sliding window. resetAt is when the
// oldest counted event leaves the window.
func checkWindow(events []time.Time, window Window, now time.Time, limit int) (allowed bool, remaining int, resetAt time.Time) {
	start := windowStart(now, window)

	count := 0
	var oldest time.Time
	for _, ts := range events {
		if !ts.After(start) {
			continue
		}
		if count == 0 || ts.Before(oldest) {
			oldest = ts
		}
		count++
	}

	if count >= limit {
		return false, 0, oldest.Add(now.Sub(start))
	}
	return true, limit - count, time.Time{}
}

func windowStart(now time.Time, window Window) time.Time {
	switch window {
	case WindowMinute:
		return now.Add(-time.Minute)
	case WindowHour:
		return now.Add(-time.Hour)
	default:
		return now.Add(-24 * time.Hour)
	}
}

func countSince(events []time.Time, start time.Time) int {
	n := 0
	for _, ts := range events {
		if ts.After(start) {
			n++
		}
	}
	return n
}
