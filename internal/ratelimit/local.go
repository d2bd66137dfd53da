package ratelimit

import (
	"context"
	"sync"
	"time"
)

type visitor struct {
	// start times admitted inside the current window, oldest first
	hits     []time.Time
	lastSeen time.Time
}

// LocalLimiter keeps a sliding log of admitted starts per key in process
// memory. A start is allowed while fewer than Limit starts were admitted in
// the trailing Window.
type LocalLimiter struct {
	cfg      Config
	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

func NewLocalLimiter(cfg Config) *LocalLimiter {
	return &LocalLimiter{
		cfg:      cfg.withDefaults(),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// WithClock replaces the time source, used by tests
func (l *LocalLimiter) WithClock(now func() time.Time) *LocalLimiter {
	l.now = now
	return l
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{}
		l.visitors[key] = v
	}
	v.lastSeen = now
	v.hits = trimBefore(v.hits, now.Add(-l.cfg.Window))

	if len(v.hits) >= l.cfg.Limit {
		return Decision{Allowed: false, RetryAfter: v.hits[0].Add(l.cfg.Window).Sub(now)}, nil
	}
	v.hits = append(v.hits, now)
	return Decision{Allowed: true, Remaining: l.cfg.Limit - len(v.hits)}, nil
}

// trimBefore drops hits at or before cutoff
func trimBefore(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append(hits[:0], hits[i:]...)
}

// Cleanup drops keys idle for longer than three windows
func (l *LocalLimiter) Cleanup() int {
	expiry := l.cfg.Window * 3
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > expiry {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every minute until ctx is done
func (l *LocalLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}
