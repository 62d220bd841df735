package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test unless a Redis server is configured.
func skipIfNoRedis(t *testing.T) string {
	t.Helper()
	url := os.Getenv("ODIR_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: ODIR_TEST_REDIS_URL not set")
	}
	return url
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	_ = cache.Clear(ctx)

	key := "test-key"
	value := []byte("test-value")

	if err := cache.Set(ctx, key, value, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	exists, err := cache.Has(ctx, key)
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !exists {
		t.Error("Has returned false for existing key")
	}

	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = cache.Get(ctx, key)
	if err != ErrCacheMiss {
		t.Errorf("Get after Delete returned %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Miss(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	_, err = cache.Get(context.Background(), "nonexistent-key-12345")
	if err != ErrCacheMiss {
		t.Errorf("Get nonexistent key returned %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_TTL(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()

	key := "ttl-test-key"
	if err := cache.Set(ctx, key, []byte("ttl-test-value"), 100*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := cache.Get(ctx, key); err != nil {
		t.Fatalf("Get immediately after Set failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	_, err = cache.Get(ctx, key)
	if err != ErrCacheMiss {
		t.Errorf("Get after TTL expiration returned %v, want ErrCacheMiss", err)
	}
}

func TestRedisCache_Clear(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-clear-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		key := "key-" + string(rune('a'+i))
		if err := cache.Set(ctx, key, []byte("value"), time.Minute); err != nil {
			t.Fatalf("Set key %s failed: %v", key, err)
		}
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		key := "key-" + string(rune('a'+i))
		_, err = cache.Get(ctx, key)
		if err != ErrCacheMiss {
			t.Errorf("Get key %s after Clear returned %v, want ErrCacheMiss", key, err)
		}
	}
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-prefix-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	_ = cache.Clear(ctx)

	_ = cache.Set(ctx, "people:1", []byte("ada"), time.Minute)
	_ = cache.Set(ctx, "people:2", []byte("grace"), time.Minute)
	_ = cache.Set(ctx, "feed:1", []byte("posts"), time.Minute)

	if err := cache.DeleteByPrefix(ctx, "people:"); err != nil {
		t.Fatalf("DeleteByPrefix failed: %v", err)
	}

	if _, err := cache.Get(ctx, "people:1"); err != ErrCacheMiss {
		t.Error("people:1 should be deleted")
	}
	if _, err := cache.Get(ctx, "people:2"); err != ErrCacheMiss {
		t.Error("people:2 should be deleted")
	}

	if _, err := cache.Get(ctx, "feed:1"); err != nil {
		t.Errorf("feed:1 should still exist, got error: %v", err)
	}
}

func TestRedisCache_Stats(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-stats-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	ctx := context.Background()
	_ = cache.Clear(ctx)
	cache.ResetStats()

	_ = cache.Set(ctx, "key1", []byte("value1"), time.Minute)
	_ = cache.Set(ctx, "key2", []byte("value2"), time.Minute)
	_, _ = cache.Get(ctx, "key1") // hit
	_, _ = cache.Get(ctx, "key1") // hit
	_, _ = cache.Get(ctx, "key3") // miss

	stats := cache.Stats()

	if stats.Sets != 2 {
		t.Errorf("Sets = %d, want 2", stats.Sets)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}

	wantHitRate := float64(2) / float64(3) * 100
	if stats.HitRate < wantHitRate-1 || stats.HitRate > wantHitRate+1 {
		t.Errorf("HitRate = %.2f, want ~%.2f", stats.HitRate, wantHitRate)
	}
}

func TestRedisCache_Ping(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-ping-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	if err := cache.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestRedisCache_Close(t *testing.T) {
	url := skipIfNoRedis(t)

	cache, err := NewRedisCacheFromURL(url, "odir-close-test:", time.Minute)
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}

	ctx := context.Background()

	if err := cache.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	_, err = cache.Get(ctx, "key")
	if err != ErrCacheClosed {
		t.Errorf("Get after Close returned %v, want ErrCacheClosed", err)
	}

	err = cache.Set(ctx, "key", []byte("value"), time.Minute)
	if err != ErrCacheClosed {
		t.Errorf("Set after Close returned %v, want ErrCacheClosed", err)
	}
}

func TestRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCacheFromURL("invalid-url", "odir-test:", time.Minute)
	if err == nil {
		t.Error("expected error with invalid URL, got nil")
	}
}

func TestRedisCache_EmptyURL(t *testing.T) {
	_, err := NewRedisCacheFromURL("", "odir-test:", time.Minute)
	if err == nil {
		t.Error("expected error with empty URL, got nil")
	}
}
