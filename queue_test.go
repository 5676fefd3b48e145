package mcclient

import (
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 100; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) rejected", i)
		}
	}
	if q.Len() != 100 {
		t.Fatalf("Len: got %d, want 100", q.Len())
	}

	for i := 0; i < 100; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("Pop: got %d, %t, want %d", v, ok, i)
		}
	}
}

func TestQueue_CloseDrains(t *testing.T) {
	q := newQueue[string]()
	q.Push("a")
	q.Push("b")
	q.Close()

	if q.Push("c") {
		t.Error("Push after Close accepted")
	}
	for _, want := range []string{"a", "b"} {
		if v, ok := q.Pop(); !ok || v != want {
			t.Fatalf("Pop: got %q, %t, want %q", v, ok, want)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop on drained closed queue returned an item")
	}
}

func TestQueue_BlockingPop(t *testing.T) {
	q := newQueue[int]()
	got := make(chan int)

	go func() {
		for {
			v, ok := q.Pop()
			if !ok {
				close(got)
				return
			}
			got <- v
		}
	}()

	select {
	case v := <-got:
		t.Fatalf("Pop returned %d on an empty queue", v)
	case <-time.After(20 * time.Millisecond):
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			q.Push(i)
		}
	}()

	for i := 0; i < 1000; i++ {
		if v := <-got; v != i {
			t.Fatalf("Pop: got %d, want %d", v, i)
		}
	}
	wg.Wait()

	q.Close()
	if _, ok := <-got; ok {
		t.Error("consumer still running after Close")
	}
}
