package delayed_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sabouaram/uacore/delayed"
)

func TestDrainRunsFIFOOfSnapshot(t *testing.T) {
	var q delayed.Queue
	var order []int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		i := i
		q.Add(func(app, ctx interface{}) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}, nil, nil)
	}

	q.Drain()

	mu.Lock()
	defer mu.Unlock()
	for i := 0; i < 5; i++ {
		if order[i] != i {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestCallbackEnqueuedDuringDrainRunsNextIteration(t *testing.T) {
	var q delayed.Queue
	var firstPassCount int32
	var reentrant int32

	q.Add(func(app, ctx interface{}) {
		atomic.AddInt32(&firstPassCount, 1)
		q.Add(func(app, ctx interface{}) {
			atomic.AddInt32(&reentrant, 1)
		}, nil, nil)
	}, nil, nil)

	q.Drain()
	if atomic.LoadInt32(&firstPassCount) != 1 {
		t.Fatalf("expected first callback to run once")
	}
	if atomic.LoadInt32(&reentrant) != 0 {
		t.Fatalf("I5 violated: re-enqueued callback ran in the same Drain")
	}
	if q.Empty() {
		t.Fatalf("expected the re-enqueued callback to be pending")
	}

	q.Drain()
	if atomic.LoadInt32(&reentrant) != 1 {
		t.Fatalf("expected re-enqueued callback to run on the next Drain")
	}
}

func TestRemoveTombstonesBeforeDrain(t *testing.T) {
	var q delayed.Queue
	var ran int32

	h := q.Add(func(app, ctx interface{}) {
		atomic.AddInt32(&ran, 1)
	}, nil, nil)
	q.Remove(h)
	q.Drain()

	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("expected removed callback to be skipped")
	}
}

func TestEmptyReflectsPendingWork(t *testing.T) {
	var q delayed.Queue
	if !q.Empty() {
		t.Fatalf("expected fresh queue to be empty")
	}
	q.Add(func(app, ctx interface{}) {}, nil, nil)
	if q.Empty() {
		t.Fatalf("expected queue to be non-empty after Add")
	}
}

func TestConcurrentAddIsRaceFree(t *testing.T) {
	var q delayed.Queue
	var wg sync.WaitGroup
	var count int32

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Add(func(app, ctx interface{}) {
				atomic.AddInt32(&count, 1)
			}, nil, nil)
		}()
	}
	wg.Wait()
	q.Drain()

	if atomic.LoadInt32(&count) != 50 {
		t.Fatalf("expected 50 callbacks to run, got %d", count)
	}
}
