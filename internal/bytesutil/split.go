// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bytesutil

import (
	"bytes"
)

// SplitInto slices s around every instance of sep, storing the pieces in
// dst, and returns how many pieces s holds.  If s holds more pieces than
// dst has room for, the extra pieces are counted but not stored.
//
// SplitInto returns slices of the original slice s, not copies, and does
// not allocate.
func SplitInto(dst [][]byte, s []byte, sep byte) int {
	n := 0
	for {
		i := bytes.IndexByte(s, sep)
		if i < 0 {
			if n < len(dst) {
				dst[n] = s
			}
			return n + 1
		}
		if n < len(dst) {
			dst[n] = s[:i]
		}
		n++
		s = s[i+1:]
	}
}

// TrimNewline strips a single trailing '\n', if present.
func TrimNewline(s []byte) []byte {
	if len(s) > 0 && s[len(s)-1] == '\n' {
		return s[:len(s)-1]
	}
	return s
}
