package otlp

import (
	"fmt"
	"sync"
	"testing"
)

func TestBatchQueueOrder(t *testing.T) {
	q := NewBatchQueue[int](64)
	for i := 0; i < 10; i++ {
		if err := q.Append(i); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	batch := q.Drain()
	if len(batch) != 10 {
		t.Fatalf("expected 10 items, got %d", len(batch))
	}
	for i, v := range batch {
		if v != i {
			t.Errorf("position %d: got %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue should be empty after drain, has %d", q.Len())
	}
}

func TestBatchQueueCapacity(t *testing.T) {
	q := NewBatchQueue[int](64)
	for i := 0; i < 64; i++ {
		if err := q.Append(i); err != nil {
			t.Fatalf("Append(%d) failed: %v", i, err)
		}
	}

	if err := q.Append(64); err != ErrBatchFull {
		t.Fatalf("expected ErrBatchFull for 65th item, got %v", err)
	}

	// The rejected item must not corrupt the batch.
	batch := q.Drain()
	if len(batch) != 64 {
		t.Fatalf("expected 64 items, got %d", len(batch))
	}
	for i, v := range batch {
		if v != i {
			t.Errorf("position %d: got %d, want %d", i, v, i)
		}
	}
}

func TestBatchQueueDrainEmpty(t *testing.T) {
	q := NewBatchQueue[string](8)
	if batch := q.Drain(); batch != nil {
		t.Errorf("expected nil from empty drain, got %v", batch)
	}
}

// Concurrent producers and a draining consumer must neither lose nor
// duplicate items: the union of all drained batches plus the final residue
// equals the set of successfully enqueued items.
func TestBatchQueueConcurrentEnqueueDrain(t *testing.T) {
	const producers = 8
	const perProducer = 200

	q := NewBatchQueue[string](64)

	var enqueued sync.Map
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				key := fmt.Sprintf("%d-%d", p, i)
				if err := q.Append(key); err == nil {
					enqueued.Store(key, true)
				}
			}
		}(p)
	}

	drained := make(map[string]int)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	collect := func() {
		for _, v := range q.Drain() {
			drained[v]++
		}
	}
	for {
		select {
		case <-done:
			collect() // final residue
			var accepted int
			enqueued.Range(func(key, _ any) bool {
				accepted++
				if drained[key.(string)] != 1 {
					t.Errorf("item %v drained %d times, want 1", key, drained[key.(string)])
				}
				return true
			})
			if len(drained) != accepted {
				t.Errorf("drained %d distinct items, accepted %d", len(drained), accepted)
			}
			return
		default:
			collect()
		}
	}
}
