package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/tellsiddh/collections/internal/logger"
)

func openInMemory(t *testing.T) *Slot {
	t.Helper()
	slot, err := Open(Options{InMemory: true, Key: "myCollections"}, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = slot.Close() })
	return slot
}

func TestSlotGetEmpty(t *testing.T) {
	slot := openInMemory(t)

	data, err := slot.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if data != nil {
		t.Errorf("Get() on empty slot = %q, want nil", data)
	}
}

func TestSlotUpdateAndGet(t *testing.T) {
	slot := openInMemory(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := slot.Update(ctx, func(current []byte) ([]byte, error) {
			return append(current, 'x'), nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	data, _ := slot.Get(ctx)
	if string(data) != "xxx" {
		t.Errorf("Get() = %q, want xxx", data)
	}
}

func TestSlotConcurrentUpdates(t *testing.T) {
	slot := openInMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- slot.Update(ctx, func(current []byte) ([]byte, error) {
				return append(current, 'x'), nil
			})
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	data, _ := slot.Get(ctx)
	if len(data) != succeeded {
		t.Errorf("slot has %d writes but %d updates succeeded", len(data), succeeded)
	}
}

func TestSlotPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := Open(Options{Dir: dir, Key: "k"}, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = first.Update(ctx, func([]byte) ([]byte, error) { return []byte(`[{"id":"1"}]`), nil })
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := Open(Options{Dir: dir, Key: "k"}, logger.NewNop())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	data, _ := second.Get(ctx)
	if string(data) != `[{"id":"1"}]` {
		t.Errorf("Get() after reopen = %q", data)
	}
}

func TestSlotUpdatePropagatesError(t *testing.T) {
	slot := openInMemory(t)
	err := slot.Update(context.Background(), func([]byte) ([]byte, error) {
		return nil, fmt.Errorf("nope")
	})
	if err == nil {
		t.Error("Update() should return fn's error")
	}
}

func TestOpenValidatesOptions(t *testing.T) {
	if _, err := Open(Options{Dir: t.TempDir()}, logger.NewNop()); err == nil {
		t.Error("Open() should reject an empty key")
	}
	if _, err := Open(Options{Key: "k"}, logger.NewNop()); err == nil {
		t.Error("Open() should reject an empty dir when not in memory")
	}
}

func TestSlotPingAfterClose(t *testing.T) {
	slot, err := Open(Options{InMemory: true, Key: "k"}, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := slot.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	_ = slot.Close()
	if err := slot.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail after Close()")
	}
}

func TestSlotCollectGarbage(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		slot := openInMemory(t)

		n, err := slot.CollectGarbage(context.Background())
		if err != nil || n != 0 {
			t.Errorf("CollectGarbage() = %d, %v; want 0, nil", n, err)
		}
	})

	t.Run("on disk", func(t *testing.T) {
		slot, err := Open(Options{Dir: t.TempDir(), Key: "myCollections"}, logger.NewNop())
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer func() { _ = slot.Close() }()

		ctx := context.Background()
		for i := 0; i < 20; i++ {
			_ = slot.Update(ctx, func([]byte) ([]byte, error) {
				return []byte(fmt.Sprintf(`[{"id":"%d"}]`, i)), nil
			})
		}

		if _, err := slot.CollectGarbage(ctx); err != nil {
			t.Errorf("CollectGarbage() error = %v", err)
		}
	})
}
