package jobs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsEverySubmittedTask(t *testing.T) {
	p := NewPool(2)
	var ran int32
	for i := 0; i < 20; i++ {
		p.Submit(func() { atomic.AddInt32(&ran, 1) })
	}
	p.Close()
	if got := atomic.LoadInt32(&ran); got != 20 {
		t.Errorf("Ran %d tasks, want 20", got)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2)
	var (
		mu      sync.Mutex
		active  int
		highest int
	)
	for i := 0; i < 10; i++ {
		p.Submit(func() {
			mu.Lock()
			active++
			if active > highest {
				highest = active
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	p.Close()
	if highest > 2 {
		t.Errorf("Observed %d concurrent tasks, pool capacity is 2", highest)
	}
}

func TestPoolSurvivesPanickingTask(t *testing.T) {
	p := NewPool(1)
	var ran int32
	p.Submit(func() { panic("boom") })
	p.Submit(func() { atomic.AddInt32(&ran, 1) })
	p.Close()
	if atomic.LoadInt32(&ran) != 1 {
		t.Error("Task after a panic never ran")
	}
}

func TestPoolSubmitNeverBlocks(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})
	p.Submit(func() { <-release })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Submit(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked while the only worker was busy")
	}
	close(release)
	p.Close()
}

func TestPoolMinimumOneWorker(t *testing.T) {
	p := NewPool(0)
	var ran int32
	p.Submit(func() { atomic.AddInt32(&ran, 1) })
	p.Close()
	if atomic.LoadInt32(&ran) != 1 {
		t.Error("Pool with clamped worker count did not run the task")
	}
}
