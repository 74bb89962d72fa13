package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		m := NewMemory()
		if err := m.Set(ctx, "k", map[string]int{"a": 1}, time.Minute); err != nil {
			t.Fatalf("set: %v", err)
		}
		var got map[string]int
		hit, err := m.Get(ctx, "k", &got)
		if err != nil || !hit {
			t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
		}
		if got["a"] != 1 {
			t.Fatalf("unexpected value: %v", got)
		}
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		m := NewMemory()
		var got string
		hit, err := m.Get(ctx, "missing", &got)
		if err != nil || hit {
			t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
		}
	})

	t.Run("entries expire", func(t *testing.T) {
		m := NewMemory()
		now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		m.now = func() time.Time { return now }

		if err := m.Set(ctx, "k", "v", 30*time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}

		var got string
		if hit, _ := m.Get(ctx, "k", &got); !hit {
			t.Fatalf("expected hit before expiry")
		}

		now = now.Add(31 * time.Second)
		if hit, _ := m.Get(ctx, "k", &got); hit {
			t.Fatalf("expected miss after expiry")
		}
	})

	t.Run("invalidate", func(t *testing.T) {
		m := NewMemory()
		_ = m.Set(ctx, "k", "v", time.Minute)
		if err := m.Invalidate(ctx, "k"); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		var got string
		if hit, _ := m.Get(ctx, "k", &got); hit {
			t.Fatalf("expected miss after invalidate")
		}
	})

	t.Run("invalidate prefix", func(t *testing.T) {
		m := NewMemory()
		_ = m.Set(ctx, "metrics:general", "a", time.Minute)
		_ = m.Set(ctx, "metrics:ranking", "b", time.Minute)
		_ = m.Set(ctx, "leads:sdrs", "c", time.Minute)

		if err := m.InvalidatePrefix(ctx, "metrics:"); err != nil {
			t.Fatalf("invalidate prefix: %v", err)
		}

		var got string
		if hit, _ := m.Get(ctx, "metrics:general", &got); hit {
			t.Fatalf("expected metrics:general gone")
		}
		if hit, _ := m.Get(ctx, "metrics:ranking", &got); hit {
			t.Fatalf("expected metrics:ranking gone")
		}
		if hit, _ := m.Get(ctx, "leads:sdrs", &got); !hit {
			t.Fatalf("expected leads:sdrs kept")
		}
	})

	t.Run("flush", func(t *testing.T) {
		m := NewMemory()
		_ = m.Set(ctx, "a", 1, time.Minute)
		_ = m.Set(ctx, "b", 2, time.Minute)
		if err := m.Flush(ctx); err != nil {
			t.Fatalf("flush: %v", err)
		}
		var got int
		if hit, _ := m.Get(ctx, "a", &got); hit {
			t.Fatalf("expected empty store after flush")
		}
	})
}
