package correspondence

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "conceptsync:correspondence"), mr
}

func TestRedisStoreReplacesTable(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	if _, err := store.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := NewBuilder(nil)
	first.Put(101, 5001)
	first.Put(103, 5003)
	if err := store.Save(ctx, first.Build()); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := NewBuilder(nil)
	second.Put(101, 5001)
	if err := store.Save(ctx, second.Build()); err != nil {
		t.Fatalf("save: %v", err)
	}

	if got := mr.HGet("conceptsync:correspondence", "101"); got != "5001" {
		t.Fatalf("unexpected hash value %q", got)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 1 {
		t.Fatalf("expected stale entries to be removed, got %d entries", loaded.Len())
	}
}

func TestRedisStoreCorruptHash(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.HSet("conceptsync:correspondence", "101", "abc")
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
