// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bytesutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitInto(t *testing.T) {
	sep := byte('\t')
	for _, testcase := range []string{
		"",
		"a\tb",
		"\ta\tb\t",
		"a\tb\t",
		"1\t2\t3\t1.5\t1\tx\ty\tz\tw",
	} {
		input := []byte(testcase)
		expected := bytes.Split(input, []byte{sep})
		dst := make([][]byte, 16)
		var n int
		allocs := testing.AllocsPerRun(1, func() {
			n = SplitInto(dst, input, sep)
		})
		require.Zero(t, allocs)
		require.Equal(t, len(expected), n)
		for i := range expected {
			require.Equal(t, expected[i], dst[i])
		}
	}
}

func TestSplitInto_Overflow(t *testing.T) {
	dst := make([][]byte, 2)
	n := SplitInto(dst, []byte("a,b,c,d"), ',')
	require.Equal(t, 4, n)
	require.Equal(t, []byte("a"), dst[0])
	require.Equal(t, []byte("b"), dst[1])
}

func TestTrimNewline(t *testing.T) {
	require.Equal(t, []byte("abc"), TrimNewline([]byte("abc\n")))
	require.Equal(t, []byte("abc"), TrimNewline([]byte("abc")))
	require.Equal(t, []byte("abc\r"), TrimNewline([]byte("abc\r\n")))
	require.Empty(t, TrimNewline([]byte("\n")))
	require.Empty(t, TrimNewline(nil))
}
