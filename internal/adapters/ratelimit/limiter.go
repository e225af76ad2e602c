package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/loopline-ai/loopline/internal/ports"
)

type Config struct {
	Limit           int
	Window          time.Duration
	CleanupInterval time.Duration
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// SlidingWindow is a process-local, per-key sliding-window limiter. It is
// not shared across service instances; horizontally scaled deployments get
// per-instance quotas.
type SlidingWindow struct {
	config  Config
	logger  *slog.Logger
	windows sync.Map
	done    chan struct{}
	once    sync.Once
}

func NewSlidingWindow(config Config, logger *slog.Logger) *SlidingWindow {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Limit <= 0 {
		config.Limit = 60
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	sw := &SlidingWindow{
		config: config,
		logger: logger.With("component", "rate-limiter"),
		done:   make(chan struct{}),
	}

	go sw.cleanupStaleKeys()

	return sw
}

var _ ports.RateLimiter = (*SlidingWindow)(nil)

// Allow records one request for key and reports whether it is inside the
// rolling quota. The request that hits the limit is denied and not counted.
func (sw *SlidingWindow) Allow(key string) bool {
	w := sw.getWindow(key)
	now := time.Now()
	cutoff := now.Add(-sw.config.Window)

	w.mu.Lock()
	defer w.mu.Unlock()

	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= sw.config.Limit {
		sw.logger.Debug("request denied", "key", key, "count", len(w.stamps), "limit", sw.config.Limit)
		return false
	}

	w.stamps = append(w.stamps, now)
	return true
}

// Limit returns the configured quota.
func (sw *SlidingWindow) Limit() int {
	return sw.config.Limit
}

// Window returns the configured rolling window.
func (sw *SlidingWindow) Window() time.Duration {
	return sw.config.Window
}

// Reset drops all recorded requests for key.
func (sw *SlidingWindow) Reset(key string) {
	sw.windows.Delete(key)
}

// Close stops the cleanup goroutine.
func (sw *SlidingWindow) Close() {
	sw.once.Do(func() {
		close(sw.done)
	})
}

func (sw *SlidingWindow) getWindow(key string) *window {
	if value, ok := sw.windows.Load(key); ok {
		return value.(*window)
	}
	value, _ := sw.windows.LoadOrStore(key, &window{})
	return value.(*window)
}

func (sw *SlidingWindow) cleanupStaleKeys() {
	ticker := time.NewTicker(sw.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sw.config.Window)
			sw.windows.Range(func(key, value interface{}) bool {
				w := value.(*window)
				w.mu.Lock()
				stale := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
				w.mu.Unlock()
				if stale {
					sw.windows.Delete(key)
					sw.logger.Debug("expired rate limit key", "key", key)
				}
				return true
			})
		}
	}
}
