package downloader

import (
	"context"

	"github.com/lvcoi/ytbatch/internal/filename"
)

// Queue is a FIFO of tasks filled once and closed before any worker starts.
// A drained queue stays drained, so a worker that finds it empty can stop.
type Queue struct {
	tasks chan filename.Task
}

// NewQueue seeds a closed queue with tasks.
func NewQueue(tasks []filename.Task) *Queue {
	ch := make(chan filename.Task, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)
	return &Queue{tasks: ch}
}

// Pop returns the next task. ok is false once the queue is drained or ctx
// is cancelled; a cancelled context wins over remaining tasks.
func (q *Queue) Pop(ctx context.Context) (task filename.Task, ok bool) {
	if ctx.Err() != nil {
		return filename.Task{}, false
	}
	select {
	case <-ctx.Done():
		return filename.Task{}, false
	case task, ok = <-q.tasks:
		return task, ok
	}
}

// Len is the number of tasks not yet claimed.
func (q *Queue) Len() int {
	return len(q.tasks)
}
