package service

import (
	"strings"
	"sync"
	"time"
)

const (
	defaultLoginAttempts = 5
	defaultLoginWindow   = 10 * time.Minute
)

// LoginRateLimiter lleva la cuenta de logins fallidos por usuario. Un login
// correcto no consume cupo y borra los fallos acumulados.
type LoginRateLimiter interface {
	// Allowed indica si el usuario todavía puede intentar un login.
	Allowed(username string) bool
	RecordFailure(username string)
	Reset(username string)
}

type failedLogins struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	now      func() time.Time
	failures map[string][]time.Time
}

// NewLoginRateLimiter bloquea a un usuario tras max fallos dentro de window.
func NewLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &failedLogins{
		window:   window,
		max:      max,
		now:      time.Now,
		failures: make(map[string][]time.Time),
	}
}

func (f *failedLogins) Allowed(username string) bool {
	key := loginKey(username)
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recent(key)) < f.max
}

func (f *failedLogins) RecordFailure(username string) {
	key := loginKey(username)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key] = append(f.recent(key), f.now())
}

func (f *failedLogins) Reset(username string) {
	key := loginKey(username)
	f.mu.Lock()
	delete(f.failures, key)
	f.mu.Unlock()
}

// recent descarta los fallos fuera de la ventana. Requiere f.mu.
func (f *failedLogins) recent(key string) []time.Time {
	stamps, ok := f.failures[key]
	if !ok {
		return nil
	}
	cutoff := f.now().Add(-f.window)
	n := 0
	for _, ts := range stamps {
		if ts.After(cutoff) {
			stamps[n] = ts
			n++
		}
	}
	if n == 0 {
		delete(f.failures, key)
		return nil
	}
	f.failures[key] = stamps[:n]
	return stamps[:n]
}

func loginKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
