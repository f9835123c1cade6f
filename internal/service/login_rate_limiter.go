package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginRateLimiter cuenta intentos fallidos de login por clave (email
// normalizado). Allowed no consume cupo; solo Fail suma un intento.
type LoginRateLimiter interface {
	Allowed(key string) bool
	Fail(key string)
	Reset(key string)
}

type loginRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	failures  map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewLoginRateLimiter crea un limiter en memoria de ventana deslizante.
func NewLoginRateLimiter(window time.Duration, max int) LoginRateLimiter {
	return newMemoryLoginRateLimiter(window, max)
}

func newMemoryLoginRateLimiter(window time.Duration, max int) *loginRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &loginRateLimiter{
		window:   window,
		max:      max,
		failures: make(map[string][]time.Time),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (l *loginRateLimiter) Allowed(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pruneLocked(key, l.now())) < l.max
}

func (l *loginRateLimiter) Fail(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.sweepLocked(now)
	l.failures[key] = append(l.pruneLocked(key, now), now)
}

func (l *loginRateLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
}

// pruneLocked descarta intentos fuera de la ventana y borra la clave si queda vacia.
func (l *loginRateLimiter) pruneLocked(key string, now time.Time) []time.Time {
	entries, ok := l.failures[key]
	if !ok {
		return nil
	}
	cutoff := now.Add(-l.window)
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

// sweepLocked recorre todas las claves como mucho una vez por ventana.
func (l *loginRateLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key := range l.failures {
		l.pruneLocked(key, now)
	}
}

func (l *loginRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.failures)
}

const redisLoginFailScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisLimiterClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisLoginRateLimiter struct {
	client  redisLimiterClient
	window  time.Duration
	max     int
	prefix  string
	timeout time.Duration
}

// NewRedisLoginRateLimiter comparte los contadores de fallos entre instancias.
// Ante errores de Redis el login no se bloquea.
func NewRedisLoginRateLimiter(client *redis.Client, window time.Duration, max int) LoginRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisLoginRateLimiter{
		client:  client,
		window:  window,
		max:     max,
		prefix:  "login:fail:",
		timeout: 500 * time.Millisecond,
	}
}

func (l *redisLoginRateLimiter) key(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}
	return l.prefix + normalized
}

func (l *redisLoginRateLimiter) Allowed(raw string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := l.key(raw)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	count, err := l.client.Get(ctx, key).Int()
	if err != nil {
		// redis.Nil o Redis caido: no se bloquea.
		return true
	}
	return count < l.max
}

func (l *redisLoginRateLimiter) Fail(raw string) {
	if l == nil || l.client == nil {
		return
	}
	key := l.key(raw)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	_ = l.client.Eval(ctx, redisLoginFailScript, []string{key}, seconds).Err()
}

func (l *redisLoginRateLimiter) Reset(raw string) {
	if l == nil || l.client == nil {
		return
	}
	key := l.key(raw)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	_ = l.client.Del(ctx, key).Err()
}
