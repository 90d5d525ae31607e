//go:build test

package suggest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/bastiangx/mocword/pkg/corpus/corpustest"
	"github.com/charmbracelet/log"
)

var leakLines = []string{
	"t", "th", "the", "the ", "the c", "the ca", "the cat ",
	"the cat s", "the cat sat ", "the cat sat o", "the cat sat on ",
	"c", "ca", "cat ", "sat ", "on ", "The ", "dog ",
}

func leakEngine(t *testing.T, backend string) *Engine {
	log.SetLevel(log.ErrorLevel)
	t.Cleanup(func() { log.SetLevel(log.InfoLevel) })
	return NewEngine(corpustest.Stores(t, richCorpus())[backend], Options{})
}

func TestMemoryLeakBasic(t *testing.T) {
	for _, backend := range []string{"memory", "sqlite"} {
		for _, iterCount := range []int{100, 1000} {
			t.Run(fmt.Sprintf("%s_iterations_%d", backend, iterCount), func(t *testing.T) {
				runBasicMemoryTest(t, leakEngine(t, backend), iterCount)
			})
		}
	}
}

func TestMemoryLeakConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
	}{
		{workers: 1, iterationsPerWorker: 400},
		{workers: 4, iterationsPerWorker: 100},
		{workers: 8, iterationsPerWorker: 50},
	}
	for _, config := range configs {
		t.Run(fmt.Sprintf("workers_%d_iter_%d", config.workers, config.iterationsPerWorker), func(t *testing.T) {
			runConcurrentMemoryTest(t, leakEngine(t, "memory"), config.workers, config.iterationsPerWorker)
		})
	}
}

func runBasicMemoryTest(t *testing.T, e *Engine, iterations int) {
	ctx := context.Background()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	for i := 0; i < iterations; i++ {
		for _, line := range leakLines {
			_, _ = e.Complete(ctx, line, 10)
		}
	}

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	totalOps := iterations * len(leakLines)
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		iterations, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}

func runConcurrentMemoryTest(t *testing.T, e *Engine, workers, iterationsPerWorker int) {
	ctx := context.Background()

	var baseline runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&baseline)
	baselineGoroutines := runtime.NumGoroutine()

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iter := 0; iter < iterationsPerWorker; iter++ {
				for _, line := range leakLines {
					_, _ = e.Complete(ctx, line, 10)
				}
			}
		}()
	}
	wg.Wait()

	var final runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&final)

	totalOps := workers * iterationsPerWorker * len(leakLines)
	memDelta := int64(final.Alloc) - int64(baseline.Alloc)
	goroutineDelta := runtime.NumGoroutine() - baselineGoroutines
	memPerOp := float64(memDelta) / float64(totalOps)

	t.Logf("workers=%d iter_per_worker=%d total_ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
		workers, iterationsPerWorker, totalOps, memDelta, memPerOp, goroutineDelta)

	if memPerOp > 1000 {
		t.Errorf("excessive memory usage per operation: %.2f bytes", memPerOp)
	}
	if goroutineDelta > 3 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutineDelta)
	}
}
