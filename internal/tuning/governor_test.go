package tuning

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func TestEffectiveParallelismBounds(t *testing.T) {
	g := NewGovernor(GovernorConfig{CPUReserve: 1, HardCap: 4})
	got := g.EffectiveParallelism()
	if got < 1 {
		t.Fatalf("parallelism %d, must be at least 1", got)
	}
	if got > 4 {
		t.Fatalf("parallelism %d exceeds hard cap 4", got)
	}
	want := runtime.NumCPU() - 1
	if want > 4 {
		want = 4
	}
	if want < 1 {
		want = 1
	}
	if got != want {
		t.Fatalf("parallelism %d, want %d", got, want)
	}
}

func TestEffectiveParallelismGPU(t *testing.T) {
	g := NewGovernor(GovernorConfig{CPUReserve: 1, GPU: true, GPUCap: 2, HardCap: 8})
	if got := g.EffectiveParallelism(); got > 2 {
		t.Fatalf("gpu parallelism %d exceeds gpu cap 2", got)
	}
}

func TestEffectiveParallelismNeverZero(t *testing.T) {
	g := NewGovernor(GovernorConfig{CPUReserve: 10000})
	if got := g.EffectiveParallelism(); got != 1 {
		t.Fatalf("parallelism %d, want floor of 1", got)
	}
}

func TestWaitUntilMemoryAvailableDisabled(t *testing.T) {
	g := NewGovernor(GovernorConfig{})
	if err := g.WaitUntilMemoryAvailable(context.Background()); err != nil {
		t.Fatalf("disabled gate returned %v", err)
	}
}

func TestWaitUntilMemoryAvailableBlocksThenOpens(t *testing.T) {
	g := NewGovernor(GovernorConfig{
		MemoryBudgetBytes: 1000,
		MemoryFraction:    0.8,
		PollInterval:      5 * time.Millisecond,
	})
	var heap atomic.Uint64
	heap.Store(2000)
	g.heapInUse = func() uint64 { return heap.Load() }

	done := make(chan error, 1)
	go func() {
		done <- g.WaitUntilMemoryAvailable(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("gate opened while over budget")
	case <-time.After(20 * time.Millisecond):
	}

	heap.Store(100)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("gate error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("gate never opened after pressure dropped")
	}
}

func TestWaitUntilMemoryAvailableCancel(t *testing.T) {
	g := NewGovernor(GovernorConfig{
		MemoryBudgetBytes: 1000,
		PollInterval:      5 * time.Millisecond,
	})
	g.heapInUse = func() uint64 { return 10000 }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- g.WaitUntilMemoryAvailable(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("gate did not observe cancellation")
	}
}
