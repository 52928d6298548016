// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/bpowers/tsvpack/internal/row"
)

// StructPrefixSize is the length of the fixed part of a struct record:
//
//	[0, 4)   C0 as int32
//	[4, 6)   C1 as int16
//	[6, 8)   zero padding
//	[8, 16)  C2 as int64
//	[16, 24) C3 as IEEE 754 double
//	[24]     C4 as a 0 or 1 byte
//
// All integers are little endian.  The UTF-8 bytes of C5 through C8 follow
// back to back.
const StructPrefixSize = 25

const (
	structOffC1 = 4
	structOffC2 = 8
	structOffC3 = 16
	structOffC4 = 24
)

// Lengths holds the byte lengths of a row's four text columns.
type Lengths [4]int

// LengthsOf returns the text lengths a struct reader needs to decode the
// record of r.
func LengthsOf(r row.Row) Lengths {
	return Lengths{len(r.C5), len(r.C6), len(r.C7), len(r.C8)}
}

func (l Lengths) total() int {
	return l[0] + l[1] + l[2] + l[3]
}

type structEncoder struct {
	buf []byte
}

func (e *structEncoder) Encode(r row.Row) ([]byte, error) {
	if r.C0 < math.MinInt32 || r.C0 > math.MaxInt32 {
		return nil, ErrEncode.Wrap(fmt.Errorf("struct: column 0 value %d overflows int32", r.C0))
	}
	if r.C1 < math.MinInt16 || r.C1 > math.MaxInt16 {
		return nil, ErrEncode.Wrap(fmt.Errorf("struct: column 1 value %d overflows int16", r.C1))
	}
	if r.C4 != 0 && r.C4 != 1 {
		return nil, ErrEncode.Wrap(fmt.Errorf("struct: column 4 value %d is not a bool", r.C4))
	}

	var prefix [StructPrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:structOffC1], uint32(int32(r.C0)))
	binary.LittleEndian.PutUint16(prefix[structOffC1:], uint16(int16(r.C1)))
	binary.LittleEndian.PutUint64(prefix[structOffC2:], uint64(r.C2))
	binary.LittleEndian.PutUint64(prefix[structOffC3:], math.Float64bits(r.C3))
	prefix[structOffC4] = byte(r.C4)

	e.buf = append(e.buf[:0], prefix[:]...)
	for _, s := range r.Text() {
		e.buf = append(e.buf, s...)
	}
	return e.buf, nil
}

// DecodeStruct decodes one struct record whose text columns have the given
// byte lengths.
func DecodeStruct(rec []byte, lengths Lengths) (row.Row, error) {
	for i, n := range lengths {
		if n < 0 {
			return row.Row{}, ErrDecode.Wrap(fmt.Errorf("struct: negative length %d for column %d", n, 5+i))
		}
	}
	if want := StructPrefixSize + lengths.total(); len(rec) != want {
		return row.Row{}, ErrDecode.Wrap(fmt.Errorf("struct: record is %d bytes, expected %d", len(rec), want))
	}

	var r row.Row
	r.C0 = int64(int32(binary.LittleEndian.Uint32(rec[:structOffC1])))
	r.C1 = int64(int16(binary.LittleEndian.Uint16(rec[structOffC1:])))
	r.C2 = int64(binary.LittleEndian.Uint64(rec[structOffC2:]))
	r.C3 = math.Float64frombits(binary.LittleEndian.Uint64(rec[structOffC3:]))
	switch b := rec[structOffC4]; b {
	case 0, 1:
		r.C4 = int64(b)
	default:
		return row.Row{}, ErrDecode.Wrap(fmt.Errorf("struct: bool byte is %#x", b))
	}

	text := rec[StructPrefixSize:]
	for i, dst := range [...]*string{&r.C5, &r.C6, &r.C7, &r.C8} {
		*dst = string(text[:lengths[i]])
		text = text[lengths[i]:]
	}
	return r, nil
}

// NewStructReader decodes a struct archive, taking the text lengths of
// each record from lengths.  The archive must hold exactly as many records
// as lengths yields.
func NewStructReader(in io.Reader, lengths iter.Seq[Lengths]) iter.Seq2[row.Row, error] {
	return func(yield func(row.Row, error) bool) {
		var buf []byte
		n := 0
		for l := range lengths {
			size := StructPrefixSize + l.total()
			if cap(buf) < size {
				buf = make([]byte, size)
			}
			buf = buf[:size]
			if _, err := io.ReadFull(in, buf); err != nil {
				yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("struct record %d: %w", n, err)))
				return
			}
			r, err := DecodeStruct(buf, l)
			if err != nil {
				yield(row.Row{}, fmt.Errorf("struct record %d: %w", n, err))
				return
			}
			if !yield(r, nil) {
				return
			}
			n++
		}

		var extra [1]byte
		switch _, err := io.ReadFull(in, extra[:]); {
		case err == nil:
			yield(row.Row{}, ErrDecode.Wrap(fmt.Errorf("struct: trailing data after %d records", n)))
		case !errors.Is(err, io.EOF):
			yield(row.Row{}, fmt.Errorf("struct: %w", err))
		}
	}
}
