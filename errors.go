// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"errors"

	"go.ytsaurus.tech/library/go/core/xerrors"

	"github.com/bpowers/tsvpack/internal/chunk"
	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/row"
)

// Every error returned by Convert wraps exactly one of these; test with
// errors.Is.
var (
	// ErrChunkPlanning marks I/O failures while looking for line boundaries.
	ErrChunkPlanning = chunk.ErrPlanning
	// ErrParse marks a malformed input line.
	ErrParse = row.ErrParse
	// ErrEncode marks a value the selected scheme can't represent.
	ErrEncode = codec.ErrEncode
	// ErrWorker marks any other failure inside a worker, including a
	// crashed worker process.
	ErrWorker = xerrors.NewSentinel("worker failure")
	// ErrReassembly marks I/O failures while building or publishing the
	// archive, and cleanup failures.
	ErrReassembly = xerrors.NewSentinel("reassembly")
	// ErrCanceled marks a run stopped by its context.
	ErrCanceled = xerrors.NewSentinel("canceled")
)

// classify leaves the row level error kinds alone and marks everything
// else that went wrong inside a worker as a worker failure.
func classify(err error) error {
	if err == nil || errors.Is(err, ErrParse) || errors.Is(err, ErrEncode) || errors.Is(err, ErrWorker) {
		return err
	}
	return ErrWorker.Wrap(err)
}
