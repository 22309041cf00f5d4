package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	t.Run("set and get", func(t *testing.T) {
		c.Set(ctx, "key", []byte("value"), time.Hour)

		val, ok := c.Get(ctx, "key")
		if !ok {
			t.Fatal("expected key to exist")
		}
		if string(val) != "value" {
			t.Errorf("Get() = %q, want %q", val, "value")
		}
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		c.Set(ctx, "copy", []byte("abc"), time.Hour)
		val, _ := c.Get(ctx, "copy")
		val[0] = 'x'

		again, _ := c.Get(ctx, "copy")
		if string(again) != "abc" {
			t.Errorf("cached value mutated to %q", again)
		}
	})

	t.Run("missing key", func(t *testing.T) {
		if _, ok := c.Get(ctx, "missing"); ok {
			t.Error("expected key to not exist")
		}
	})

	t.Run("expired entry", func(t *testing.T) {
		c.Set(ctx, "expired", []byte("value"), -time.Hour)
		if _, ok := c.Get(ctx, "expired"); ok {
			t.Error("expected expired key to not exist")
		}
	})
}

func TestMemoryCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "key", []byte("value"), time.Hour)
	c.Delete(ctx, "key")

	if _, ok := c.Get(ctx, "key"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "key1", []byte("value1"), time.Hour)
	c.Set(ctx, "key2", []byte("value2"), time.Hour)
	c.Clear(ctx)

	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestMemoryCache_Cleanup(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	c.Set(ctx, "valid", []byte("value"), time.Hour)
	c.Set(ctx, "expired", []byte("value"), -time.Second)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	c.Cleanup()

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get(ctx, "valid"); !ok {
		t.Error("expected valid key to exist")
	}
}

func TestComputeKey(t *testing.T) {
	key1 := ComputeKey([]byte("content"))
	key2 := ComputeKey([]byte("content"))
	key3 := ComputeKey([]byte("different"))

	if key1 != key2 {
		t.Error("same content should produce same key")
	}
	if key1 == key3 {
		t.Error("different content should produce different key")
	}
	if len(key1) != 32 {
		t.Errorf("key length = %d, want 32", len(key1))
	}
	if ComputeKey([]byte("ab"), []byte("c")) == ComputeKey([]byte("a"), []byte("bc")) {
		t.Error("part boundaries should change the key")
	}
}

func TestComputeKeyWithPrefix(t *testing.T) {
	key := ComputeKeyWithPrefix("module", []byte("content"))
	if len(key) != len("module:")+32 || key[:7] != "module:" {
		t.Errorf("key = %q, want module:<hash>", key)
	}
}
