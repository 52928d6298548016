// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package chunk splits a line-oriented file into line-aligned byte ranges
// that can be decoded independently.
package chunk

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"go.ytsaurus.tech/library/go/core/xerrors"
)

const (
	// DefaultSize is the target number of body bytes per chunk.
	DefaultSize = 100 * 1024 * 1024

	scanBufferSize = 64 * 1024
)

// ErrPlanning is wrapped around every I/O failure hit while looking for
// line boundaries.
var ErrPlanning = xerrors.NewSentinel("chunk planning")

// Chunk is the half-open byte range [Start, End) of the input file.
type Chunk struct {
	Index int
	Start int64
	End   int64
}

// Len is the number of input bytes covered by c.
func (c Chunk) Len() int64 {
	return c.End - c.Start
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%d, %d)", c.Index, c.Start, c.End)
}

// Plan lazily yields the chunks of the file at path.  The first line of the
// file is a header and belongs to no chunk.  Each chunk ends right after a
// line terminator (or at end of file), so no line is ever split, and
// consecutive chunks share their boundary.  A file with nothing after its
// header yields no chunks.
//
// Iteration stops at the first error, which wraps ErrPlanning.
func Plan(path string, size int64) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		if size <= 0 {
			yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("chunk size must be positive, got %d", size)))
			return
		}

		f, err := os.Open(path)
		if err != nil {
			yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("os.Open: %w", err)))
			return
		}
		defer func() { _ = f.Close() }()

		fi, err := f.Stat()
		if err != nil {
			yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("f.Stat: %w", err)))
			return
		}
		fileSize := fi.Size()

		r := bufio.NewReaderSize(f, scanBufferSize)
		start, err := lineLen(r)
		if err != nil {
			yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("reading header: %w", err)))
			return
		}

		index := 0
		for k := int64(1); start < fileSize; k++ {
			// a line longer than size can push start past the next
			// candidate; skip ahead rather than overlap the previous chunk
			if k*size-1 < start {
				k = (start + size) / size
			}
			candidate := k*size - 1

			var end int64
			if candidate >= fileSize {
				end = fileSize
			} else {
				if _, err := f.Seek(candidate, io.SeekStart); err != nil {
					yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("f.Seek(%d): %w", candidate, err)))
					return
				}
				r.Reset(f)
				n, err := lineLen(r)
				if err != nil {
					yield(Chunk{}, ErrPlanning.Wrap(fmt.Errorf("scanning from %d: %w", candidate, err)))
					return
				}
				if n == 0 {
					return
				}
				end = candidate + n
			}

			if end > start {
				if !yield(Chunk{Index: index, Start: start, End: end}, nil) {
					return
				}
				index++
			}
			start = end
		}
	}
}

// Collect drains a plan into a slice.
func Collect(plan iter.Seq2[Chunk, error]) ([]Chunk, error) {
	var chunks []Chunk
	for c, err := range plan {
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, nil
}

// lineLen consumes bytes from r up to and including the next newline and
// returns how many were consumed.  Hitting EOF first is not an error.
func lineLen(r *bufio.Reader) (int64, error) {
	var n int64
	for {
		b, err := r.ReadSlice('\n')
		n += int64(len(b))
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return n, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return n, err
		}
	}
}
