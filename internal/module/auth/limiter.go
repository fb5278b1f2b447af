package auth

import (
	"context"
	"sync"
	"time"

	"github.com/omnimedia/server/internal/port/outbound"
)

// MemoryLimiter is a process-local sliding-window limiter. Events are kept
// as microsecond timestamps so decisions match the redis implementation.
type MemoryLimiter struct {
	mu     sync.Mutex
	events map[string][]int64
	now    func() time.Time
}

// NewMemoryLimiter creates a limiter. A nil clock means time.Now.
func NewMemoryLimiter(now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		events: make(map[string][]int64),
		now:    now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return l.AllowN(ctx, key, 1, limit, window)
}

func (l *MemoryLimiter) AllowN(_ context.Context, key string, n int, limit int, window time.Duration) (bool, error) {
	if n <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UnixMicro()
	events := l.trim(key, now, window)
	if len(events)+n > limit {
		return false, nil
	}
	for i := 0; i < n; i++ {
		events = append(events, now)
	}
	l.events[key] = events
	return true, nil
}

func (l *MemoryLimiter) GetRemaining(_ context.Context, key string, limit int, window time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := l.trim(key, l.now().UnixMicro(), window)
	return max(limit-len(events), 0), nil
}

func (l *MemoryLimiter) Backend() string {
	return "memory"
}

// trim drops events strictly older than now-window. Caller holds mu.
func (l *MemoryLimiter) trim(key string, now int64, window time.Duration) []int64 {
	threshold := now - window.Microseconds()
	events := l.events[key]
	i := 0
	for i < len(events) && events[i] < threshold {
		i++
	}
	events = events[i:]
	if len(events) == 0 {
		delete(l.events, key)
		return nil
	}
	l.events[key] = events
	return events
}

var _ outbound.RateLimiterPort = (*MemoryLimiter)(nil)
