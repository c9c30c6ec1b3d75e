// Package downloader runs the download tasks on a fixed set of workers and
// tallies the results.
package downloader

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lvcoi/ytbatch/internal/filename"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 4

// Pool drains one Queue with Workers goroutines. Each goroutine owns a
// private Worker built by NewWorker.
type Pool struct {
	Workers   int
	NewWorker func(id int) *Worker
	Log       zerolog.Logger
}

// Run processes every task and returns exactly one Result per claimed task.
// Tasks left in the queue after ctx is cancelled produce no result.
func (p *Pool) Run(ctx context.Context, tasks []filename.Task) []Result {
	workers := p.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	queue := NewQueue(tasks)
	results := make(chan Result, len(tasks))
	total := len(tasks)
	var done atomic.Int64

	p.Log.Info().Msg("Start downloading the video.")
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		worker := p.NewWorker(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := queue.Pop(ctx)
				if !ok {
					worker.log.Debug().Msg("Empty queue. This worker is closed.")
					return
				}
				results <- worker.Process(ctx, task)
				p.Log.Info().Msgf("Progress: %d / %d", done.Add(1), total)
			}
		}()
	}
	wg.Wait()
	close(results)
	p.Log.Info().Msg("Downloading of the video is completed.")

	out := make([]Result, 0, total)
	for r := range results {
		out = append(out, r)
	}
	return out
}
