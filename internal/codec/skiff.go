// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"fmt"
	"io"
	"iter"

	"go.ytsaurus.tech/yt/go/skiff"

	"github.com/bpowers/tsvpack/internal/row"
)

// SkiffSchema is the row schema of skiff archives.  Column names match the
// yson tags of row.Row.
func SkiffSchema() skiff.Schema {
	return skiff.Schema{
		Type: skiff.TypeTuple,
		Children: []skiff.Schema{
			{Type: skiff.TypeInt64, Name: "c0"},
			{Type: skiff.TypeInt64, Name: "c1"},
			{Type: skiff.TypeInt64, Name: "c2"},
			{Type: skiff.TypeDouble, Name: "c3"},
			{Type: skiff.TypeInt64, Name: "c4"},
			{Type: skiff.TypeString32, Name: "c5"},
			{Type: skiff.TypeString32, Name: "c6"},
			{Type: skiff.TypeString32, Name: "c7"},
			{Type: skiff.TypeString32, Name: "c8"},
		},
	}
}

type skiffEncoder struct {
	buf  bytes.Buffer
	enc  *skiff.Encoder
	cols []any
}

func newSkiffEncoder() (*skiffEncoder, error) {
	e := &skiffEncoder{cols: make([]any, row.Columns)}
	enc, err := skiff.NewEncoder(&e.buf, SkiffSchema())
	if err != nil {
		return nil, fmt.Errorf("skiff.NewEncoder: %w", err)
	}
	e.enc = enc
	return e, nil
}

func (e *skiffEncoder) Encode(r row.Row) ([]byte, error) {
	e.buf.Reset()

	e.cols[0], e.cols[1], e.cols[2] = r.C0, r.C1, r.C2
	e.cols[3], e.cols[4] = r.C3, r.C4
	e.cols[5], e.cols[6], e.cols[7], e.cols[8] = r.C5, r.C6, r.C7, r.C8
	if err := e.enc.WriteRow(e.cols); err != nil {
		return nil, ErrEncode.Wrap(fmt.Errorf("skiff: %w", err))
	}
	if err := e.enc.Flush(); err != nil {
		return nil, ErrEncode.Wrap(fmt.Errorf("skiff: %w", err))
	}

	return e.buf.Bytes(), nil
}

// NewSkiffReader decodes a skiff archive.
func NewSkiffReader(in io.Reader) iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		schema := SkiffSchema()
		d, err := skiff.NewDecoder(in, skiff.Format{Name: "skiff", TableSchemas: []any{&schema}})
		if err != nil {
			yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("skiff.NewDecoder: %w", err)))
			return
		}

		for n := 0; d.Next(); n++ {
			var r row.Row
			if err := d.Scan(&r); err != nil {
				yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("skiff record %d: %w", n, err)))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := d.Err(); err != nil {
			yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("skiff: %w", err)))
		}
	}
}
