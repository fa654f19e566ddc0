// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Counter admits or refuses one attempt for key in a fixed window.
type Counter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Limiter is the in-process Counter. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	duration time.Duration
	now      func() time.Time
	stop     chan struct{}
}

type window struct {
	count     int
	expiresAt time.Time
}

var _ Counter = (*Limiter)(nil)

// New creates a limiter admitting limit attempts per key per duration.
// Expired windows are swept every 2*duration until Close.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records an attempt and reports whether it is within the limit.
func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true, nil
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Remaining reports attempts left for key in its current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || l.now().After(w.expiresAt) {
		return l.limit
	}
	return max(l.limit-w.count, 0)
}

// Reset clears key.
func (l *Limiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// Close stops the sweeper.
func (l *Limiter) Close() {
	select {
	case <-l.stop:
	default:
		close(l.stop)
	}
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the
// RemoteAddr host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter limits sign-in attempts per client IP and per login name.
type LoginLimiter struct {
	byIP    Counter
	byLogin Counter
}

// NewLoginLimiter wires two counters. Pass the in-process Limiter for a
// single instance or RedisLimiter when several instances share traffic.
func NewLoginLimiter(byIP, byLogin Counter) *LoginLimiter {
	return &LoginLimiter{byIP: byIP, byLogin: byLogin}
}

// DefaultLoginLimiter allows 10 attempts per IP per minute and 5 per login
// name per 5 minutes, in process.
func DefaultLoginLimiter() *LoginLimiter {
	return NewLoginLimiter(New(10, time.Minute), New(5, 5*time.Minute))
}

func loginKey(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Check records an attempt. It returns false with a user-facing reason when
// the attempt must be refused. Counter errors fail open.
func (ll *LoginLimiter) Check(r *http.Request, login string) (bool, string) {
	ctx := r.Context()
	if ok, err := ll.byIP.Allow(ctx, "ip:"+ClientIP(r)); err == nil && !ok {
		return false, "Too many sign-in attempts. Please wait a minute before trying again."
	}
	if k := loginKey(login); k != "" {
		if ok, err := ll.byLogin.Allow(ctx, "login:"+k); err == nil && !ok {
			return false, "Too many sign-in attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetLogin clears the per-login counter after a successful sign-in.
func (ll *LoginLimiter) ResetLogin(ctx context.Context, login string) {
	if k := loginKey(login); k != "" {
		_ = ll.byLogin.Reset(ctx, "login:"+k)
	}
}
