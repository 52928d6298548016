// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package row decodes tab separated lines into the fixed nine column record
// tsvpack archives.
package row

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"unicode/utf8"

	"go.ytsaurus.tech/library/go/core/xerrors"

	"github.com/bpowers/tsvpack/internal/bytesutil"
	"github.com/bpowers/tsvpack/internal/sysio"
	"github.com/bpowers/tsvpack/internal/unsafestring"
)

// Columns is the number of tab separated fields in every line.
const Columns = 9

const readBufferSize = 1024 * 1024

// ErrParse is wrapped around every malformed line.
var ErrParse = xerrors.NewSentinel("parse")

// Row is one decoded line: three integers, a float, an integer and four
// text fields, in that column order.  The tags name the columns of the
// skiff table schema.
type Row struct {
	C0 int64   `yson:"c0"`
	C1 int64   `yson:"c1"`
	C2 int64   `yson:"c2"`
	C3 float64 `yson:"c3"`
	C4 int64   `yson:"c4"`
	C5 string  `yson:"c5"`
	C6 string  `yson:"c6"`
	C7 string  `yson:"c7"`
	C8 string  `yson:"c8"`
}

// Text returns the four text columns in order.
func (r Row) Text() [4]string {
	return [4]string{r.C5, r.C6, r.C7, r.C8}
}

// AppendTSV appends r to dst as a tab separated line, including the
// terminating newline.  The result parses back to r.
func (r Row) AppendTSV(dst []byte) []byte {
	dst = strconv.AppendInt(dst, r.C0, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.C1, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.C2, 10)
	dst = append(dst, '\t')
	dst = strconv.AppendFloat(dst, r.C3, 'g', -1, 64)
	dst = append(dst, '\t')
	dst = strconv.AppendInt(dst, r.C4, 10)
	for _, s := range r.Text() {
		dst = append(dst, '\t')
		dst = append(dst, s...)
	}
	return append(dst, '\n')
}

// Parse decodes a single line, with or without its trailing newline.
func Parse(line []byte) (Row, error) {
	line = bytesutil.TrimNewline(line)

	var fields [Columns][]byte
	if n := bytesutil.SplitInto(fields[:], line, '\t'); n != Columns {
		return Row{}, ErrParse.Wrap(fmt.Errorf("expected %d columns, found %d", Columns, n))
	}

	var r Row
	var err error
	ints := [...]*int64{0: &r.C0, 1: &r.C1, 2: &r.C2, 4: &r.C4}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		field := bytes.TrimSpace(fields[i])
		if *dst, err = strconv.ParseInt(unsafestring.FromBytes(field), 10, 64); err != nil {
			return Row{}, numError(i, field, err)
		}
	}
	field := bytes.TrimSpace(fields[3])
	if r.C3, err = strconv.ParseFloat(unsafestring.FromBytes(field), 64); err != nil {
		return Row{}, numError(3, field, err)
	}

	text := [...]*string{&r.C5, &r.C6, &r.C7, &r.C8}
	for i, dst := range text {
		field := fields[5+i]
		if !utf8.Valid(field) {
			return Row{}, ErrParse.Wrap(fmt.Errorf("column %d: invalid UTF-8", 5+i))
		}
		*dst = string(field)
	}

	return r, nil
}

// numError reports a bad numeric column.  strconv errors hold on to
// their input, which here still points into the line buffer.
func numError(col int, field []byte, err error) error {
	reason := "invalid syntax"
	if errors.Is(err, strconv.ErrRange) {
		reason = "value out of range"
	}
	return ErrParse.Wrap(fmt.Errorf("column %d: %s: %q", col, reason, field))
}

// Read lazily decodes every line in [start, end) of the file at path.
// start must be the first byte of a line and end must follow a newline or
// be the end of the file.  The sequence stops at the first error; running
// out of input before end is an error, as is a line that crosses end.
func Read(path string, start, end int64) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(Row{}, fmt.Errorf("os.Open: %w", err))
			return
		}
		defer func() { _ = f.Close() }()

		if _, err := f.Seek(start, io.SeekStart); err != nil {
			yield(Row{}, fmt.Errorf("f.Seek(%d): %w", start, err))
			return
		}
		// advisory only
		_ = sysio.AdviseSequential(f, start, end-start)

		lr := lineReader{r: bufio.NewReaderSize(f, readBufferSize)}
		for off := start; off < end; {
			line, err := lr.next()
			if err != nil {
				yield(Row{}, fmt.Errorf("reading %s at offset %d: %w", path, off, err))
				return
			}
			if len(line) == 0 {
				yield(Row{}, ErrParse.Wrap(fmt.Errorf("%s: input ends at offset %d, before range end %d", path, off, end)))
				return
			}
			if off+int64(len(line)) > end {
				yield(Row{}, ErrParse.Wrap(fmt.Errorf("%s: line at offset %d crosses range end %d", path, off, end)))
				return
			}

			r, err := Parse(line)
			if err != nil {
				yield(Row{}, fmt.Errorf("%s: line at offset %d: %w", path, off, err))
				return
			}
			if !yield(r, nil) {
				return
			}
			off += int64(len(line))
		}
	}
}

// lineReader returns whole lines of any length, reusing one buffer for the
// lines that don't fit into the bufio.Reader.
type lineReader struct {
	r    *bufio.Reader
	long []byte
}

// next returns the next line including its newline, or a final
// unterminated line, or an empty slice at EOF.  The result is only valid
// until the following call.
func (lr *lineReader) next() ([]byte, error) {
	line, err := lr.r.ReadSlice('\n')
	if err == nil || errors.Is(err, io.EOF) {
		return line, nil
	}
	if !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	lr.long = append(lr.long[:0], line...)
	for {
		line, err = lr.r.ReadSlice('\n')
		lr.long = append(lr.long, line...)
		switch {
		case err == nil, errors.Is(err, io.EOF):
			return lr.long, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}
