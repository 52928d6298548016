// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bpowers/tsvpack/internal/partfile"
	"github.com/bpowers/tsvpack/internal/sysio"
)

const copyBufferSize = 4 * 1024 * 1024

// removePart deletes a part file.  A file that is already gone is not an
// error.
func removePart(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ErrReassembly.Wrap(fmt.Errorf("removing part file: %w", err))
	}
	return nil
}

// reassembler collects worker results, keyed by chunk index, and turns
// them into the output archive.
type reassembler struct {
	output string
	logger *slog.Logger
	parts  map[int]Result
}

func newReassembler(output string, logger *slog.Logger) *reassembler {
	return &reassembler{
		output: output,
		logger: logger,
		parts:  make(map[int]Result),
	}
}

func (r *reassembler) add(res Result) error {
	idx := res.Chunk.Index
	if prev, ok := r.parts[idx]; ok {
		return ErrReassembly.Wrap(fmt.Errorf("chunk %d reported twice (%s and %s)", idx, prev.Path, res.Path))
	}
	if res.Part.Index != idx {
		return ErrReassembly.Wrap(fmt.Errorf("%s: part file is for chunk %d", res.Chunk, res.Part.Index))
	}
	r.parts[idx] = res
	return nil
}

// ordered returns the collected results by ascending chunk index, checking
// that the indices are exactly 0 through n-1.
func (r *reassembler) ordered() ([]Result, error) {
	results := make([]Result, 0, len(r.parts))
	for _, res := range r.parts {
		results = append(results, res)
	}
	slices.SortFunc(results, func(a, b Result) int {
		return a.Chunk.Index - b.Chunk.Index
	})
	for i, res := range results {
		if res.Chunk.Index != i {
			return nil, ErrReassembly.Wrap(fmt.Errorf("missing chunk %d", i))
		}
	}
	return results, nil
}

// publish writes the archive next to the output path and renames it into
// place.  Every part file is consumed, whether or not publishing succeeds.
func (r *reassembler) publish() (written int64, err error) {
	defer func() {
		if discardErr := r.discard(); discardErr != nil {
			err = errors.Join(err, discardErr)
		}
	}()

	results, err := r.ordered()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, res := range results {
		total += res.Written()
	}

	f, err := os.CreateTemp(filepath.Dir(r.output), "tsvpack.*.tmp")
	if err != nil {
		return 0, ErrReassembly.Wrap(fmt.Errorf("os.CreateTemp: %w", err))
	}
	published := false
	defer func() {
		if published {
			return
		}
		_ = f.Close()
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, ErrReassembly.Wrap(fmt.Errorf("removing archive temp file: %w", rmErr)))
		}
	}()

	if err := sysio.Preallocate(f, total); err != nil {
		r.logger.Warn("couldn't preallocate archive", "size", total, "error", err)
	}

	w := bufio.NewWriterSize(f, copyBufferSize)
	for _, res := range results {
		n, err := copyPart(w, res)
		written += n
		if err != nil {
			return written, err
		}
		delete(r.parts, res.Chunk.Index)
		if err := removePart(res.Path); err != nil {
			return written, err
		}
	}

	if err := w.Flush(); err != nil {
		return written, ErrReassembly.Wrap(fmt.Errorf("bufio.Flush: %w", err))
	}
	if err := f.Sync(); err != nil {
		return written, ErrReassembly.Wrap(fmt.Errorf("f.Sync: %w", err))
	}
	if err := f.Close(); err != nil {
		return written, ErrReassembly.Wrap(fmt.Errorf("f.Close: %w", err))
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return written, ErrReassembly.Wrap(fmt.Errorf("os.Chmod: %w", err))
	}
	if err := os.Rename(f.Name(), r.output); err != nil {
		return written, ErrReassembly.Wrap(fmt.Errorf("os.Rename: %w", err))
	}
	published = true

	if err := sysio.SyncDir(filepath.Dir(r.output)); err != nil {
		return written, ErrReassembly.Wrap(err)
	}

	r.logger.Info("published archive", "path", r.output, "chunks", len(results), "bytes", written)
	return written, nil
}

func copyPart(w *bufio.Writer, res Result) (int64, error) {
	f, err := os.Open(res.Path)
	if err != nil {
		return 0, ErrReassembly.Wrap(fmt.Errorf("%s: %w", res.Chunk, err))
	}
	defer func() { _ = f.Close() }()

	n, err := partfile.CopyPayload(w, f, res.Part)
	if err != nil {
		return n, ErrReassembly.Wrap(fmt.Errorf("%s: %w", res.Chunk, err))
	}
	return n, nil
}

// discard deletes every part file that hasn't been consumed yet.
func (r *reassembler) discard() error {
	var errs []error
	for idx, res := range r.parts {
		if err := removePart(res.Path); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(r.parts, idx)
	}
	return errors.Join(errs...)
}
