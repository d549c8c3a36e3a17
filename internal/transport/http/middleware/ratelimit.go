package middleware

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"dayflow/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

// RateStore counts hits per key in fixed windows. Incr returns the count
// after this hit and the time left until the window resets.
type RateStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
}

type rateBucket struct {
	count int
	reset time.Time
}

// MemoryRateStore keeps windows in process memory; counts are per instance.
type MemoryRateStore struct {
	mu      sync.Mutex
	clients map[string]*rateBucket
	now     func() time.Time
}

func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{clients: map[string]*rateBucket{}, now: time.Now}
}

func (s *MemoryRateStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.clients[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(window)}
		s.clients[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

// RedisRateStore shares windows across instances.
type RedisRateStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisRateStore(client redis.Cmdable) *RedisRateStore {
	return &RedisRateStore{client: client, prefix: "dayflow:ratelimit:"}
}

func (s *RedisRateStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	fullKey := s.prefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return int(incr.Val()), remaining, nil
}

type rateLimiter struct {
	limit  int
	window time.Duration
	keyFn  RateLimitKeyFunc
	store  RateStore
	scope  string
}

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func WithStore(store RateStore) RateLimitOption {
	return func(rl *rateLimiter) {
		if store != nil {
			rl.store = store
		}
	}
}

// WithScope namespaces keys so two limiters can share one store.
func WithScope(scope string) RateLimitOption {
	return func(rl *rateLimiter) {
		rl.scope = scope
	}
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := &rateLimiter{limit: limit, window: window, keyFn: actorOrIPKey, scope: "api"}
	for _, opt := range opts {
		opt(rl)
	}
	if rl.store == nil {
		rl.store = NewMemoryRateStore()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.enforce(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return "ip:" + clientIPKey(r)
}

func ClientIPKey(r *http.Request) string {
	return "ip:" + clientIPKey(r)
}

func (rl *rateLimiter) enforce(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = ClientIPKey(r)
	}
	count, resetIn, err := rl.store.Incr(r.Context(), rl.scope+":"+key, rl.window)
	if err != nil {
		slog.Warn("rate limit store failed", "err", err)
		return true
	}

	remaining := rl.limit - count
	resetSec := durationSeconds(resetIn)
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))

	if count > rl.limit {
		w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
		slog.Warn("rate limit exceeded",
			"key", key,
			"path", r.URL.Path,
			"method", r.Method,
			"limit", rl.limit,
			"windowSec", int(rl.window.Seconds()),
		)
		api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
		return false
	}
	return true
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d.Seconds())
	if seconds <= 0 {
		return 1
	}
	return seconds
}

// AuthEmailOrIPKey keys credential endpoints by the e-mail in the JSON
// body, falling back to the client IP. The body is restored for the handler.
func AuthEmailOrIPKey(field string) RateLimitKeyFunc {
	normalizedField := strings.TrimSpace(field)
	if normalizedField == "" {
		normalizedField = "email"
	}
	return func(r *http.Request) string {
		email := extractJSONField(r, normalizedField)
		if email == "" {
			return ClientIPKey(r)
		}
		return "email:" + strings.ToLower(email)
	}
}

func extractJSONField(r *http.Request, field string) string {
	if r == nil || r.Body == nil {
		return ""
	}
	contentType := strings.ToLower(strings.TrimSpace(r.Header.Get("Content-Type")))
	if !strings.Contains(contentType, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		return ""
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if len(raw) == 0 {
		return ""
	}
	payload := map[string]any{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	value, _ := payload[field].(string)
	return strings.TrimSpace(value)
}
