// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package partfile implements the private file a worker writes one chunk's
// records into: a fixed header followed by the concatenated records.
package partfile

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"

	"go.ytsaurus.tech/library/go/core/xerrors"
)

const defaultBufferSize = 4 * 1024 * 1024

// ErrCorrupt is wrapped around part files whose payload does not match
// their header.
var ErrCorrupt = xerrors.NewSentinel("corrupt part file")

type nopWriter struct{}

func (nopWriter) Write([]byte) (int, error) {
	return 0, io.EOF
}

// FileWriter is usually an *os.File, but specified as an interface for easier testing.
type FileWriter interface {
	io.Writer
	io.WriterAt
}

type Writer struct {
	f        FileWriter
	h        Header
	w        *bufio.Writer
	sum      *Checksum
	finished atomic.Bool
}

// NewWriter writes a placeholder header for chunk index to f.  The real
// header is written by Finish.
func NewWriter(f FileWriter, index int) (*Writer, error) {
	w := &Writer{
		f:   f,
		h:   Header{Index: index},
		w:   bufio.NewWriterSize(f, defaultBufferSize),
		sum: NewChecksum(),
	}

	if _, err := w.h.WriteTo(w.w); err != nil {
		return nil, fmt.Errorf("Header.WriteTo: %w", err)
	}

	// try to expose errors when writing to the backing file early
	if err := w.w.Flush(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}

	return w, nil
}

// Write appends one encoded record to the payload.
func (w *Writer) Write(rec []byte) error {
	if w.finished.Load() {
		return fmt.Errorf("write after Finish")
	}
	n, err := w.w.Write(rec)
	if err != nil {
		return fmt.Errorf("bufio.Write: %w", err)
	}
	_, _ = w.sum.Write(rec[:n])
	w.h.Length += int64(n)
	w.h.Records++
	return nil
}

// Header reports what has been written so far.
func (w *Writer) Header() Header {
	h := w.h
	h.Checksum = w.sum.Sum64()
	return h
}

// Finish flushes the payload and fills in the header.  The returned header
// carries the measured payload length and checksum.
func (w *Writer) Finish() (Header, error) {
	if alreadyFinished := w.finished.Swap(true); alreadyFinished {
		// nothing to do - already cleaned up
		return w.h, nil
	}

	defer func() {
		w.w.Reset(&nopWriter{})
		w.w = nil
	}()

	if err := w.w.Flush(); err != nil {
		return Header{}, fmt.Errorf("bufio.Flush: %w", err)
	}

	w.h.Checksum = w.sum.Sum64()
	if err := w.h.WriteAt(w.f); err != nil {
		return Header{}, fmt.Errorf("Header.WriteAt: %w", err)
	}
	return w.h, nil
}
