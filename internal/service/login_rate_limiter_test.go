package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeRedisCounter struct {
	values  map[string]int64
	ttl     map[string]time.Duration
	err     error
	deleted []string
}

func newFakeRedisCounter() *fakeRedisCounter {
	return &fakeRedisCounter{values: map[string]int64{}, ttl: map[string]time.Duration{}}
}

func (f *fakeRedisCounter) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(strconv.FormatInt(v, 10))
	return cmd
}

func (f *fakeRedisCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.values[key]++
	cmd.SetVal(f.values[key])
	return cmd
}

func (f *fakeRedisCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key)
	f.ttl[key] = expiration
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedisCounter) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "del")
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	for _, k := range keys {
		delete(f.values, k)
		delete(f.ttl, k)
		f.deleted = append(f.deleted, k)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestFailedLoginsSlidingWindow(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l := NewLoginRateLimiter(time.Minute, 2).(*failedLogins)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allowed("alice") {
			t.Fatalf("checking alone must not consume attempts")
		}
	}

	l.RecordFailure("alice")
	now = now.Add(30 * time.Second)
	l.RecordFailure(" ALICE ")
	if l.Allowed("alice") {
		t.Fatalf("two failures inside the window must block")
	}
	if !l.Allowed("bob") {
		t.Fatalf("users are counted independently")
	}

	// El primer fallo sale de la ventana, el segundo sigue dentro.
	now = now.Add(31 * time.Second)
	if !l.Allowed("alice") {
		t.Fatalf("expired failures must not count")
	}
	l.RecordFailure("alice")
	if l.Allowed("alice") {
		t.Fatalf("expected block after a new failure")
	}

	l.Reset("Alice")
	if !l.Allowed("alice") {
		t.Fatalf("reset must clear the failures")
	}
	if _, ok := l.failures["alice"]; ok {
		t.Fatalf("reset must drop the key")
	}
}

func TestRedisFailedLogins(t *testing.T) {
	counter := newFakeRedisCounter()
	l := &redisFailedLogins{client: counter, window: 2 * time.Minute, max: 3, logger: zap.NewNop()}

	for i := 0; i < 3; i++ {
		if !l.Allowed(" Alice ") {
			t.Fatalf("failure %d: expected attempt to be allowed", i)
		}
		l.RecordFailure(" Alice ")
	}
	if got := counter.values["login:failed:alice"]; got != 3 {
		t.Fatalf("expected 3 failures stored, got %d", got)
	}
	if got := counter.ttl["login:failed:alice"]; got != 2*time.Minute {
		t.Fatalf("expected ttl set on first failure, got %v", got)
	}
	if l.Allowed("alice") {
		t.Fatalf("expected alice to be blocked")
	}
	if !l.Allowed("bob") {
		t.Fatalf("missing key means no failures")
	}

	l.Reset("ALICE")
	if len(counter.deleted) != 1 || counter.deleted[0] != "login:failed:alice" {
		t.Fatalf("unexpected deletes %v", counter.deleted)
	}
	if !l.Allowed("alice") {
		t.Fatalf("expected alice to be allowed after reset")
	}
}

func TestRedisFailedLoginsFailOpen(t *testing.T) {
	counter := newFakeRedisCounter()
	counter.err = errors.New("connection refused")
	l := &redisFailedLogins{client: counter, window: time.Minute, max: 1, logger: zap.NewNop()}

	l.RecordFailure("alice")
	l.RecordFailure("alice")
	if !l.Allowed("alice") {
		t.Fatalf("redis errors must let the attempt through")
	}
	l.Reset("alice")

	var nilLimiter *redisFailedLogins
	if !nilLimiter.Allowed("alice") {
		t.Fatalf("nil limiter must let attempts through")
	}
	nilLimiter.RecordFailure("alice")
	nilLimiter.Reset("alice")

	blank := &redisFailedLogins{client: newFakeRedisCounter(), window: time.Minute, max: 1}
	blank.RecordFailure("   ")
	if len(blank.client.(*fakeRedisCounter).values) != 0 {
		t.Fatalf("blank usernames must not touch redis")
	}
}

func TestNewRedisLoginRateLimiterDefaults(t *testing.T) {
	if NewRedisLoginRateLimiter(nil, nil, time.Minute, 5) != nil {
		t.Fatalf("expected nil limiter without a client")
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	l := NewRedisLoginRateLimiter(nil, client, time.Millisecond, 0).(*redisFailedLogins)
	if l.window != time.Minute || l.max != 1 || l.logger == nil {
		t.Fatalf("unexpected defaults: window=%v max=%d", l.window, l.max)
	}
}
