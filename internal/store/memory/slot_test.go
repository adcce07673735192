package memory

import (
	"context"
	"sync"
	"testing"
)

func TestSlotUpdateIsSerialized(t *testing.T) {
	slot := NewSlot()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = slot.Update(ctx, func(current []byte) ([]byte, error) {
				return append(current, 'x'), nil
			})
		}()
	}
	wg.Wait()

	data, _ := slot.Get(ctx)
	if len(data) != 50 {
		t.Errorf("slot holds %d writes, want 50", len(data))
	}
}

func TestSlotGetReturnsCopy(t *testing.T) {
	slot := NewSlot()
	slot.Set([]byte("abc"))

	data, _ := slot.Get(context.Background())
	data[0] = 'z'

	again, _ := slot.Get(context.Background())
	if string(again) != "abc" {
		t.Errorf("Get() exposed internal buffer, now %q", again)
	}
}

func TestSlotEmpty(t *testing.T) {
	data, err := NewSlot().Get(context.Background())
	if err != nil || data != nil {
		t.Errorf("Get() on empty slot = %q, %v", data, err)
	}
}
