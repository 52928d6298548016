// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package codec turns rows into archive records and back.
//
// Three schemes are supported:
//
//	yson    each record is a binary YSON list; an archive is a YSON list
//	        fragment and needs no schema to read back.
//	struct  each record is a fixed 25 byte little endian prefix followed by
//	        the raw UTF-8 bytes of the four text columns.  The text lengths
//	        are not stored, so reading an archive back needs them out of band.
//	skiff   each record is a skiff row with length prefixed strings.
package codec

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"go.ytsaurus.tech/library/go/core/xerrors"

	"github.com/bpowers/tsvpack/internal/row"
)

// Scheme names a record encoding.
type Scheme string

const (
	SchemeYSON   Scheme = "yson"
	SchemeStruct Scheme = "struct"
	SchemeSkiff  Scheme = "skiff"
)

// Schemes lists every supported scheme, default first.
var Schemes = []Scheme{SchemeYSON, SchemeStruct, SchemeSkiff}

var (
	// ErrEncode is wrapped around values a scheme can't represent.
	ErrEncode = xerrors.NewSentinel("encode")
	// ErrDecode is wrapped around archives that don't match their scheme.
	ErrDecode = xerrors.NewSentinel("decode")
)

// ParseScheme validates a scheme name.
func ParseScheme(name string) (Scheme, error) {
	for _, s := range Schemes {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown scheme %q (want one of %s)", name, schemeList())
}

func schemeList() string {
	names := make([]string, 0, len(Schemes))
	for _, s := range Schemes {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// Encoder turns rows into records.  Encoders are not safe for concurrent
// use.
type Encoder interface {
	// Encode returns the record for r.  The returned slice is reused by
	// the next call.
	Encode(r row.Row) ([]byte, error)
}

// NewEncoder returns a fresh Encoder for s.
func NewEncoder(s Scheme) (Encoder, error) {
	switch s {
	case SchemeYSON:
		return &ysonEncoder{}, nil
	case SchemeStruct:
		return &structEncoder{}, nil
	case SchemeSkiff:
		return newSkiffEncoder()
	default:
		return nil, fmt.Errorf("unknown scheme %q", s)
	}
}

// NewReader decodes an archive written with a self-delimiting scheme.
// struct archives can't be read without their text lengths; use
// NewStructReader for those.
func NewReader(s Scheme, in io.Reader) (iter.Seq2[row.Row, error], error) {
	switch s {
	case SchemeYSON:
		return NewYSONReader(in), nil
	case SchemeSkiff:
		return NewSkiffReader(in), nil
	case SchemeStruct:
		return nil, fmt.Errorf("%s archives don't record text lengths and can't be read on their own", s)
	default:
		return nil, fmt.Errorf("unknown scheme %q", s)
	}
}
