// Valis - SDSS Remote Data Access API
// Copyright 2026 SDSS Collaboration
// SPDX-License-Identifier: BSD-3-Clause
// https://github.com/sdss/valis

package cache

import (
	"testing"
	"time"

	"github.com/sdss/valis/internal/config"
)

func newTestCache(t *testing.T, cfg config.CacheConfig) *Cache {
	t.Helper()
	if cfg.TTL == 0 {
		cfg.TTL = time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = time.Hour
	}
	c := New("test", cfg)
	t.Cleanup(c.Stop)
	return c
}

func TestSetGet(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{})

	c.Set("target:123", "payload")

	got, ok := c.Get("target:123")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "payload" {
		t.Errorf("Get = %v, want payload", got)
	}
}

func TestGetMissing(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{})

	if _, ok := c.Get("nope"); ok {
		t.Error("expected cache miss for absent key")
	}
}

func TestExpiration(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{})

	c.SetWithTTL("short", 1, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len after expiry = %d, want 0", c.Len())
	}
}

func TestMaxEntriesEviction(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{MaxEntries: 3})

	// Distinct TTLs so the soonest-to-expire victim is deterministic.
	c.SetWithTTL("a", 1, time.Minute)
	c.SetWithTTL("b", 2, time.Hour)
	c.SetWithTTL("c", 3, time.Hour)
	c.SetWithTTL("d", 4, time.Hour)

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("expected soonest-expiring entry to be evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %q to survive eviction", key)
		}
	}
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{MaxEntries: 2})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	if got, _ := c.Get("a"); got != 10 {
		t.Errorf("Get(a) = %v, want 10", got)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("overwrite evicted an unrelated entry")
	}
}

func TestDeleteAndClear(t *testing.T) {
	c := newTestCache(t, config.CacheConfig{})

	c.Set("a", 1)
	c.Set("b", 2)

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected deleted key to miss")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}
}

func TestCleanupRemovesExpired(t *testing.T) {
	cfg := config.CacheConfig{TTL: 10 * time.Millisecond, CleanupInterval: 20 * time.Millisecond}
	c := New("test", cfg)
	t.Cleanup(c.Stop)

	c.Set("a", 1)
	time.Sleep(80 * time.Millisecond)

	if c.Len() != 0 {
		t.Errorf("Len after cleanup = %d, want 0", c.Len())
	}
}

func TestGenerateKeyStable(t *testing.T) {
	type params struct {
		RA, Dec, Radius float64
	}
	k1 := GenerateKey("cone", params{230.5, 43.2, 0.1})
	k2 := GenerateKey("cone", params{230.5, 43.2, 0.1})
	k3 := GenerateKey("cone", params{230.5, 43.2, 0.2})

	if k1 != k2 {
		t.Errorf("keys differ for equal params: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Error("keys collide for different params")
	}
	if want := "cone:"; k1[:len(want)] != want {
		t.Errorf("key %q missing operation prefix", k1)
	}
}

func TestGenerateKeyUnmarshalableFallback(t *testing.T) {
	k := GenerateKey("op", func() {})
	if k == "" {
		t.Fatal("empty key")
	}
	if want := "op:"; k[:len(want)] != want {
		t.Errorf("key %q missing operation prefix", k)
	}
}
