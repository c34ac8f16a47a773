package tuning

import (
	"context"
	"runtime"
	"time"
)

// GovernorConfig bounds tuning concurrency and memory pressure.
type GovernorConfig struct {
	CPUReserve        int           // cores left for the rest of the process
	GPU               bool          // GPU-backed predictor: fewer, heavier workers
	HardCap           int           // safety maximum regardless of core count
	GPUCap            int           // cap applied when GPU is present
	MemoryBudgetBytes uint64        // process heap budget; 0 disables the gate
	MemoryFraction    float64       // gate opens below fraction*budget
	PollInterval      time.Duration // backoff between memory checks
}

// Governor computes safe parallelism and applies cooperative memory
// back-pressure before task submission. It cannot stop an individual task
// from exceeding the budget on its own.
type Governor struct {
	cfg GovernorConfig

	// heapInUse is swappable for tests.
	heapInUse func() uint64
}

func NewGovernor(cfg GovernorConfig) *Governor {
	if cfg.CPUReserve <= 0 {
		cfg.CPUReserve = 1
	}
	if cfg.HardCap <= 0 {
		cfg.HardCap = 8
	}
	if cfg.GPUCap <= 0 {
		cfg.GPUCap = 2
	}
	if cfg.MemoryFraction <= 0 || cfg.MemoryFraction > 1 {
		cfg.MemoryFraction = 0.8
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Governor{cfg: cfg, heapInUse: readHeapInUse}
}

func readHeapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}

// EffectiveParallelism returns the worker count for configuration
// evaluation: cores minus reserve, halved and low-capped on a GPU backend,
// capped at the hard maximum, never below one.
func (g *Governor) EffectiveParallelism() int {
	n := runtime.NumCPU() - g.cfg.CPUReserve
	if g.cfg.GPU {
		n /= 2
		if n > g.cfg.GPUCap {
			n = g.cfg.GPUCap
		}
	}
	if n > g.cfg.HardCap {
		n = g.cfg.HardCap
	}
	if n < 1 {
		n = 1
	}
	return n
}

// WaitUntilMemoryAvailable blocks while heap usage exceeds the configured
// fraction of the budget, polling with a fixed backoff. It returns early on
// context cancellation.
func (g *Governor) WaitUntilMemoryAvailable(ctx context.Context) error {
	if g.cfg.MemoryBudgetBytes == 0 {
		return nil
	}
	limit := uint64(float64(g.cfg.MemoryBudgetBytes) * g.cfg.MemoryFraction)
	for g.heapInUse() > limit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(g.cfg.PollInterval):
		}
	}
	return nil
}
