package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tellsiddh/collections/internal/logger"
)

type fakeCollectable struct {
	calls atomic.Int32
	n     int
	err   error
}

func (f *fakeCollectable) CollectGarbage(context.Context) (int, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestGarbageCollector_Collect(t *testing.T) {
	tests := []struct {
		name    string
		target  *fakeCollectable
		wantErr bool
	}{
		{"nothing to do", &fakeCollectable{}, false},
		{"files rewritten", &fakeCollectable{n: 2}, false},
		{"failure", &fakeCollectable{err: errors.New("disk full")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gc := NewGarbageCollector(tt.target, logger.New("error", false), time.Hour)

			err := gc.Collect(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Collect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.target.calls.Load() != 1 {
				t.Errorf("target called %d times, want 1", tt.target.calls.Load())
			}
		})
	}
}

func TestGarbageCollector_StartRunsPeriodically(t *testing.T) {
	target := &fakeCollectable{}
	gc := NewGarbageCollector(target, logger.New("error", false), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := gc.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer gc.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("collector ran %d times, want at least 3", target.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGarbageCollector_StartToleratesInitialFailure(t *testing.T) {
	gc := NewGarbageCollector(&fakeCollectable{err: errors.New("boom")}, logger.New("error", false), time.Hour)

	if err := gc.Start(context.Background()); err != nil {
		t.Errorf("Start() should only log the initial failure, got %v", err)
	}
	gc.Stop()
}
