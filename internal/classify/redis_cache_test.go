package classify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client, ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRedisCache_PutGet(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	c.Put("https://example.com/a", true)
	c.Put("https://example.com/b", false)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a", true},
		{"https://example.com/b", false},
	}
	for _, tt := range tests {
		got, ok := c.Get(tt.url)
		if !ok {
			t.Errorf("Get(%q) missed", tt.url)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)

	c.Put("https://example.com/a", true)
	mr.FastForward(2 * time.Minute)

	if _, ok := c.Get("https://example.com/a"); ok {
		t.Error("Get() hit after TTL")
	}
}

func TestRedisCache_KeysAreHashed(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)

	c.Put("https://example.com/a?with=query", true)

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want one", keys)
	}
	if len(keys[0]) != len(DefaultRedisKeyPrefix)+64 {
		t.Errorf("key %q is not prefix + sha256 hex", keys[0])
	}
}

func TestRedisCache_UnavailableIsAMiss(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	mr.Close()

	c.Put("https://example.com/a", true)
	if _, ok := c.Get("https://example.com/a"); ok {
		t.Error("Get() hit with Redis down")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping() error = nil with Redis down")
	}
}

func TestProbeIsImage_SharedRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	var calls int32
	newProber := func() *Prober {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewProber(WithLoader(countingLoader(&calls, errors.New("not an image"))), WithCache(NewRedisCache(client, time.Minute)))
	}

	first, second := newProber(), newProber()
	ctx := context.Background()

	if ok, _ := first.ProbeIsImage(ctx, "https://example.com/page"); ok {
		t.Fatal("first probe = true, want false")
	}
	if ok, err := second.ProbeIsImage(ctx, "https://example.com/page"); ok || !errors.Is(err, ErrProbeDecode) {
		t.Fatalf("second probe = %v, %v; want false, ErrProbeDecode", ok, err)
	}
	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
}
