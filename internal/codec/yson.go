// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"fmt"
	"io"
	"iter"

	"go.ytsaurus.tech/yt/go/yson"

	"github.com/bpowers/tsvpack/internal/row"
)

type ysonEncoder struct {
	buf bytes.Buffer
}

func (e *ysonEncoder) Encode(r row.Row) ([]byte, error) {
	e.buf.Reset()

	w := yson.NewWriterConfig(&e.buf, yson.WriterConfig{Format: yson.FormatBinary, Kind: yson.StreamListFragment})
	w.BeginList()
	w.Int64(r.C0)
	w.Int64(r.C1)
	w.Int64(r.C2)
	w.Float64(r.C3)
	w.Int64(r.C4)
	w.String(r.C5)
	w.String(r.C6)
	w.String(r.C7)
	w.String(r.C8)
	w.EndList()
	if err := w.Finish(); err != nil {
		return nil, ErrEncode.Wrap(fmt.Errorf("yson: %w", err))
	}

	return e.buf.Bytes(), nil
}

// NewYSONReader decodes a yson archive.
func NewYSONReader(in io.Reader) iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		r := yson.NewReaderKind(in, yson.StreamListFragment)
		for n := 0; ; n++ {
			ok, err := r.NextListItem()
			if err != nil {
				yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("yson record %d: %w", n, err)))
				return
			}
			if !ok {
				return
			}

			var value any
			d := yson.Decoder{R: r}
			if err := d.Decode(&value); err != nil {
				yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("yson record %d: %w", n, err)))
				return
			}
			rec, err := rowFromList(value)
			if err != nil {
				yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("yson record %d: %w", n, err)))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func rowFromList(value any) (row.Row, error) {
	list, ok := value.([]any)
	if !ok {
		return row.Row{}, fmt.Errorf("expected a list, got %T", value)
	}
	if len(list) != row.Columns {
		return row.Row{}, fmt.Errorf("expected %d items, got %d", row.Columns, len(list))
	}

	var r row.Row
	ints := [...]*int64{0: &r.C0, 1: &r.C1, 2: &r.C2, 4: &r.C4}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		v, ok := list[i].(int64)
		if !ok {
			return row.Row{}, fmt.Errorf("item %d: expected int64, got %T", i, list[i])
		}
		*dst = v
	}
	if r.C3, ok = list[3].(float64); !ok {
		return row.Row{}, fmt.Errorf("item 3: expected double, got %T", list[3])
	}
	text := [...]*string{&r.C5, &r.C6, &r.C7, &r.C8}
	for i, dst := range text {
		v, ok := list[5+i].(string)
		if !ok {
			return row.Row{}, fmt.Errorf("item %d: expected string, got %T", 5+i, list[5+i])
		}
		*dst = v
	}

	return r, nil
}
