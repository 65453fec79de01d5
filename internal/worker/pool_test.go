package worker

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
)

func TestPool_OrderAndErrors(t *testing.T) {
	errOdd := errors.New("odd")
	p := NewPool[int, int](3, func(ctx context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, errOdd
		}
		return n * n, nil
	})

	inputs := []int{0, 1, 2, 3, 4, 5, 6}
	got := p.Execute(context.Background(), inputs)

	if len(got) != len(inputs) {
		t.Fatalf("Execute() returned %d tasks, want %d", len(got), len(inputs))
	}
	for i, task := range got {
		if task.Input != inputs[i] || !task.Done {
			t.Errorf("task %d = %+v", i, task)
		}
		if i%2 == 1 {
			if !errors.Is(task.Err, errOdd) {
				t.Errorf("task %d error = %v, want errOdd", i, task.Err)
			}
			continue
		}
		if task.Err != nil || task.Result != i*i {
			t.Errorf("task %d = (%d, %v), want (%d, nil)", i, task.Result, task.Err, i*i)
		}
	}
}

func TestPool_RespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	block := make(chan struct{})

	p := NewPool[int, struct{}](2, func(ctx context.Context, _ int) (struct{}, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-block
		running.Add(-1)
		return struct{}{}, nil
	})

	done := make(chan []Task[int, struct{}])
	go func() { done <- p.Execute(context.Background(), make([]int, 6)) }()
	close(block)
	<-done

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
}

func TestPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := NewPool[int, int](4, func(ctx context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	got := p.Execute(ctx, []int{1, 2, 3})

	if calls.Load() != 0 {
		t.Errorf("process called %d times after cancellation", calls.Load())
	}
	for i, task := range got {
		if task.Done {
			t.Errorf("task %d ran after cancellation", i)
		}
	}
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	p := NewPool[int, int](0, func(ctx context.Context, n int) (int, error) { return n, nil })
	if p.workers != 1 {
		t.Errorf("workers = %d, want 1", p.workers)
	}
}

func TestBatch(t *testing.T) {
	got := Batch([]int{1, 2, 3, 4, 5}, 2)
	want := [][]int{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Batch() = %v, want %v", got, want)
	}
	if got := Batch([]int{1, 2}, 0); len(got) != 2 {
		t.Errorf("Batch(size 0) = %v, want single-item batches", got)
	}
}
