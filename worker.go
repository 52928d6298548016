// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"errors"
	"fmt"
	"os"

	"github.com/bpowers/tsvpack/internal/chunk"
	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/partfile"
	"github.com/bpowers/tsvpack/internal/row"
)

// Task is the unit of work handed to a Runner: convert one chunk of Input
// into a new part file inside Dir.
type Task struct {
	Input  string
	Chunk  chunk.Chunk
	Scheme codec.Scheme
	Dir    string
}

// Result describes the part file a successful Task produced.
type Result struct {
	Chunk chunk.Chunk
	Path  string
	// Part is the header of the part file, including the number of
	// payload bytes actually written.
	Part partfile.Header
}

// Written is the number of archive bytes the chunk encoded to.
func (r Result) Written() int64 {
	return r.Part.Length
}

// RunTask converts t.Chunk on the calling goroutine.  On failure the part
// file is removed and the error wraps ErrParse, ErrEncode or ErrWorker.
func RunTask(t Task) (Result, error) {
	res, err := runTask(t)
	if err != nil {
		return Result{}, classify(fmt.Errorf("%s: %w", t.Chunk, err))
	}
	return res, nil
}

func runTask(t Task) (res Result, err error) {
	enc, err := codec.NewEncoder(t.Scheme)
	if err != nil {
		return Result{}, err
	}

	f, err := os.CreateTemp(t.Dir, fmt.Sprintf("part-%06d.*.tmp", t.Chunk.Index))
	if err != nil {
		return Result{}, fmt.Errorf("os.CreateTemp: %w", err)
	}
	// the part file only survives if we get all the way to the end,
	// including when a panic is unwinding through here
	finished := false
	defer func() {
		if finished {
			return
		}
		_ = f.Close()
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("removing part file: %w", rmErr))
		}
	}()

	w, err := partfile.NewWriter(f, t.Chunk.Index)
	if err != nil {
		return Result{}, fmt.Errorf("partfile.NewWriter: %w", err)
	}

	for r, err := range row.Read(t.Input, t.Chunk.Start, t.Chunk.End) {
		if err != nil {
			return Result{}, err
		}
		rec, err := enc.Encode(r)
		if err != nil {
			return Result{}, err
		}
		if err := w.Write(rec); err != nil {
			return Result{}, fmt.Errorf("partfile.Write: %w", err)
		}
	}

	h, err := w.Finish()
	if err != nil {
		return Result{}, fmt.Errorf("partfile.Finish: %w", err)
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("f.Close: %w", err)
	}
	finished = true

	return Result{Chunk: t.Chunk, Path: f.Name(), Part: h}, nil
}
