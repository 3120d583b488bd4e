package pipeline

import (
	"sync"
	"time"
)

// Limiter caps how many snapshots a camera may take inside a sliding window.
// A flapping motion sensor can publish several triggers per second and every
// snapshot opens a fresh RTSP session, so captures must not pile up.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	history map[string][]time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		history: map[string][]time.Time{},
	}
}

// Allow reports whether camera may take another snapshot now and, when it
// may, records the attempt.
func (l *Limiter) Allow(camera string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	kept := make([]time.Time, 0, len(l.history[camera]))
	for _, t := range l.history[camera] {
		if now.Sub(t) < l.window {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.limit {
		l.history[camera] = kept
		return false
	}

	l.history[camera] = append(kept, now)
	return true
}
