// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafestring

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytes(t *testing.T) {
	for _, input := range [][]byte{
		nil,
		{},
		[]byte("abc"),
		[]byte("😀"),
	} {
		var s string
		allocs := testing.AllocsPerRun(1, func() {
			s = FromBytes(input)
		})
		require.Zero(t, allocs)
		require.Equal(t, string(input), s)
	}
}

func TestFromBytes_NumberParsing(t *testing.T) {
	line := []byte("-42\t3.25")
	var n int64
	var f float64
	var err error
	allocs := testing.AllocsPerRun(1, func() {
		n, err = strconv.ParseInt(FromBytes(line[:3]), 10, 64)
		if err != nil {
			return
		}
		f, err = strconv.ParseFloat(FromBytes(line[4:]), 64)
	})
	require.NoError(t, err)
	require.Zero(t, allocs)
	require.Equal(t, int64(-42), n)
	require.Equal(t, 3.25, f)
}
