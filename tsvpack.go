// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package tsvpack converts a large tab separated text file into a binary
// archive of encoded records.  The input is split into line aligned
// chunks that are converted in parallel, and the per-chunk outputs are
// stitched back together in input order.  The archive only appears at the
// output path once every chunk has been converted.
package tsvpack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bpowers/tsvpack/internal/chunk"
)

// Stats summarizes a successful conversion.
type Stats struct {
	Chunks  int
	Records uint64
	Bytes   int64
	Elapsed time.Duration
}

func canceled(ctx context.Context) error {
	return ErrCanceled.Wrap(context.Cause(ctx))
}

// removeRunDir deletes the per-run part directory.  Once the archive is
// published a failure is only logged.
func removeRunDir(dir string, published bool, logger *slog.Logger) error {
	err := os.RemoveAll(dir)
	if err == nil {
		return nil
	}
	if published {
		logger.Warn("removing run dir", "dir", dir, "error", err)
		return nil
	}
	return ErrReassembly.Wrap(fmt.Errorf("removing run dir: %w", err))
}

// Convert encodes every row of input into the archive at output.  Rows
// keep their input order no matter how many workers run.
//
// ctx is only consulted between worker completions: a canceled run lets
// running workers finish, deletes their output and publishes nothing,
// leaving any existing file at output untouched.  The returned error wraps
// one of ErrChunkPlanning, ErrParse, ErrEncode, ErrWorker, ErrReassembly
// or ErrCanceled.
func Convert(ctx context.Context, input, output string, opts ...Option) (stats *Stats, err error) {
	start := time.Now()
	o := newOptions(opts)

	if ctx.Err() != nil {
		return nil, canceled(ctx)
	}

	if input, err = filepath.Abs(input); err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	if output, err = filepath.Abs(output); err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}

	runDir, err := os.MkdirTemp(o.tempDir, "tsvpack-run.*")
	if err != nil {
		return nil, ErrReassembly.Wrap(fmt.Errorf("os.MkdirTemp: %w", err))
	}
	defer func() {
		if rmErr := removeRunDir(runDir, stats != nil, o.logger); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
	}()

	o.logger.Info("starting conversion",
		"input", input,
		"output", output,
		"scheme", o.scheme,
		"chunk_size", o.chunkSize,
		"workers", o.workers,
	)

	d := &dispatcher{
		runner:  o.runner,
		workers: o.workers,
		logger:  o.logger,
		metrics: newPipelineMetrics(o.registry),
	}
	asm := newReassembler(output, o.logger)

	completions, stop := d.start(chunk.Plan(input, o.chunkSize), func(c chunk.Chunk) Task {
		return Task{Input: input, Chunk: c, Scheme: o.scheme, Dir: runDir}
	})
	defer stop()

	var firstErr, cleanupErr error
	fail := func(err error) {
		if firstErr == nil {
			firstErr = err
			stop()
		}
	}

	result := &Stats{}
	done := ctx.Done()
	for completions != nil {
		select {
		case c, ok := <-completions:
			if !ok {
				completions = nil
				continue
			}
			if c.err != nil {
				if errors.Is(c.err, ErrChunkPlanning) {
					o.logger.Error("chunk planning failed", "error", c.err)
				} else {
					o.logger.Error("chunk failed", "chunk", c.chunk.Index, "error", c.err)
				}
				fail(c.err)
				continue
			}
			if firstErr != nil {
				cleanupErr = errors.Join(cleanupErr, removePart(c.result.Path))
				continue
			}
			if err := asm.add(c.result); err != nil {
				fail(err)
				cleanupErr = errors.Join(cleanupErr, removePart(c.result.Path))
				continue
			}
			result.Chunks++
			result.Records += c.result.Part.Records
			o.logger.Info("chunk done",
				"chunk", c.chunk.Index,
				"records", c.result.Part.Records,
				"bytes", c.result.Written(),
			)
		case <-done:
			done = nil
			o.logger.Warn("canceled, waiting for running workers", "cause", context.Cause(ctx))
			fail(canceled(ctx))
		}
	}

	// workers killed by the same signal that canceled ctx may have
	// reported first
	if ctx.Err() != nil && !errors.Is(firstErr, ErrCanceled) {
		firstErr = errors.Join(canceled(ctx), firstErr)
	}
	if firstErr != nil {
		return nil, errors.Join(firstErr, cleanupErr, asm.discard())
	}

	written, err := asm.publish()
	if err != nil {
		return nil, err
	}
	result.Bytes = written
	result.Elapsed = time.Since(start)

	o.logger.Info("conversion finished",
		"chunks", result.Chunks,
		"records", result.Records,
		"bytes", result.Bytes,
		"elapsed", result.Elapsed,
	)
	return result, nil
}
