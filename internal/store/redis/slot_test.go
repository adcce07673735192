package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/domain"
	"github.com/tellsiddh/collections/internal/logger"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSlotGetEmpty(t *testing.T) {
	client, _ := newTestClient(t)
	slot := NewSlot(client, "myCollections")

	data, err := slot.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if data != nil {
		t.Errorf("Get() on empty slot = %q, want nil", data)
	}
}

func TestSlotUpdate(t *testing.T) {
	client, mr := newTestClient(t)
	slot := NewSlot(client, "myCollections")
	ctx := context.Background()

	err := slot.Update(ctx, func(current []byte) ([]byte, error) {
		if current != nil {
			t.Errorf("first Update() saw %q, want nil", current)
		}
		return []byte(`[]`), nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := mr.Get(SlotKey("myCollections"))
	if err != nil || got != "[]" {
		t.Errorf("stored value = %q, %v", got, err)
	}
}

func TestSlotUpdateErrorLeavesValue(t *testing.T) {
	client, mr := newTestClient(t)
	slot := NewSlot(client, "s")
	_ = mr.Set(SlotKey("s"), "keep")

	err := slot.Update(context.Background(), func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("nope")
	})
	if err == nil {
		t.Fatal("Update() should return fn's error")
	}
	if got, _ := mr.Get(SlotKey("s")); got != "keep" {
		t.Errorf("value changed to %q after failed update", got)
	}
}

func TestSlotConcurrentAddsAreNotLost(t *testing.T) {
	client, _ := newTestClient(t)
	store := collection.NewStore(NewSlot(client, "myCollections"), logger.New("error", false))
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := domain.Item{ID: fmt.Sprintf("id-%d", i), URL: "https://example.com"}
			if err := store.Add(ctx, item); err != nil {
				t.Errorf("Add() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	items, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != writers {
		t.Errorf("Load() returned %d items, want %d (lost update)", len(items), writers)
	}
}

func TestSlotPing(t *testing.T) {
	client, mr := newTestClient(t)
	slot := NewSlot(client, "s")

	if err := slot.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	mr.Close()
	if err := slot.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail once redis is gone")
	}
}

func nopLogger() logger.Logger {
	return logger.NewNop()
}
