// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"go.ytsaurus.tech/library/go/core/metrics"

	"github.com/bpowers/tsvpack/internal/chunk"
	"github.com/bpowers/tsvpack/internal/codec"
)

// DefaultChunkSize is the number of input bytes handed to each worker.
const DefaultChunkSize = chunk.DefaultSize

// Option configures Convert.
type Option func(*options)

type options struct {
	scheme    codec.Scheme
	chunkSize int64
	workers   int
	tempDir   string
	runner    Runner
	logger    *slog.Logger
	registry  metrics.Registry
}

func newOptions(opts []Option) options {
	o := options{
		scheme:    codec.SchemeYSON,
		chunkSize: DefaultChunkSize,
		workers:   runtime.NumCPU(),
		tempDir:   os.TempDir(),
		runner:    InProcess{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// WithScheme selects the record encoding.  The default is codec.SchemeYSON.
func WithScheme(s codec.Scheme) Option {
	return func(o *options) {
		o.scheme = s
	}
}

// WithChunkSize sets the target number of input bytes per worker task.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithWorkers bounds how many chunks are converted at once.  It defaults
// to the number of CPUs.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTempDir sets where per-chunk part files are kept while a run is in
// progress.  The archive's own temporary file always lives next to the
// output path so that publishing it is a rename.
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithRunner sets how worker tasks are executed.  The default runs them
// on goroutines of the calling process; Subprocess isolates each one in a
// child process.
func WithRunner(r Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLogger sets an optional logger for progress updates.
// If not provided, no logging output will be produced.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets a registry to report pipeline counters to.
func WithMetrics(r metrics.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}
