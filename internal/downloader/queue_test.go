package downloader

import (
	"context"
	"testing"

	"github.com/lvcoi/ytbatch/internal/filename"
)

func TestQueuePopsInOrderThenDrains(t *testing.T) {
	q := NewQueue([]filename.Task{{URL: "a"}, {URL: "b"}})
	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	for _, want := range []string{"a", "b"} {
		task, ok := q.Pop(context.Background())
		if !ok || task.URL != want {
			t.Fatalf("Pop() = %q, %v; want %q, true", task.URL, ok, want)
		}
	}
	if _, ok := q.Pop(context.Background()); ok {
		t.Fatal("Pop() on drained queue returned ok")
	}
	if _, ok := q.Pop(context.Background()); ok {
		t.Fatal("drained queue must stay drained")
	}
}

func TestQueuePopCancelled(t *testing.T) {
	q := NewQueue([]filename.Task{{URL: "a"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := q.Pop(ctx); ok {
		t.Fatal("Pop() with cancelled context returned ok")
	}
	if q.Len() != 1 {
		t.Fatalf("cancelled Pop consumed a task")
	}
}
