// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/bpowers/tsvpack/internal/chunk"
)

// completion is one finished unit of dispatch: a worker result tagged with
// the chunk it was for, or a planning error with no chunk.
type completion struct {
	chunk  chunk.Chunk
	result Result
	err    error
}

type dispatcher struct {
	runner  Runner
	workers int
	logger  *slog.Logger
	metrics *pipelineMetrics
}

// start begins submitting one task per planned chunk, at most d.workers at
// a time, and returns the channel completions are delivered on in the
// order tasks finish.  Calling stop prevents any further submissions;
// tasks already running are left alone and still delivered.  The channel
// is closed once planning has ended and every submitted task has been
// delivered, so the caller must drain it.
func (d *dispatcher) start(plan iter.Seq2[chunk.Chunk, error], newTask func(chunk.Chunk) Task) (completions <-chan completion, stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var stopOnce sync.Once
	stop = func() {
		stopOnce.Do(cancel)
	}

	out := make(chan completion)
	go func() {
		var g errgroup.Group
		sem := semaphore.NewWeighted(int64(d.workers))
		defer func() {
			_ = g.Wait()
			cancel()
			close(out)
		}()

		for c, err := range plan {
			if err != nil {
				out <- completion{err: err}
				return
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				d.logger.Info("dispatch stopped", "next_chunk", c.Index)
				return
			}
			if ctx.Err() != nil {
				sem.Release(1)
				d.logger.Info("dispatch stopped", "next_chunk", c.Index)
				return
			}

			t := newTask(c)
			g.Go(func() error {
				defer sem.Release(1)
				d.metrics.workerStarted()
				res, err := d.runner.Run(t)
				err = classify(err)
				d.metrics.workerDone(res, err)
				out <- completion{chunk: c, result: res, err: err}
				return nil
			})
		}
	}()

	return out, stop
}
