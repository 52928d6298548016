// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsvpack/internal/chunk"
	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/partfile"
)

func TestRunTask(t *testing.T) {
	dir, tmp := testDirs(t)
	rows := genRows(20)
	input := writeInput(t, dir, rows)
	fi, err := os.Stat(input)
	require.NoError(t, err)

	c := chunk.Chunk{Index: 3, Start: int64(len(header)), End: fi.Size()}
	res, err := RunTask(Task{Input: input, Chunk: c, Scheme: codec.SchemeSkiff, Dir: tmp})
	require.NoError(t, err)
	assert.Equal(t, c, res.Chunk)
	assert.Equal(t, 3, res.Part.Index)
	assert.Equal(t, uint64(len(rows)), res.Part.Records)
	assert.Equal(t, tmp, filepath.Dir(res.Path))

	f, err := os.Open(res.Path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	h, err := partfile.ReadHeader(f)
	require.NoError(t, err)
	assert.Equal(t, res.Part, h)

	pfi, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, partfile.HeaderSize+res.Written(), pfi.Size())
}

func TestRunTask_FailureRemovesPart(t *testing.T) {
	dir, tmp := testDirs(t)
	rows := genRows(20)
	rows[15].C0 = 1 << 40
	input := writeInput(t, dir, rows)
	fi, err := os.Stat(input)
	require.NoError(t, err)

	c := chunk.Chunk{Start: int64(len(header)), End: fi.Size()}
	_, err = RunTask(Task{Input: input, Chunk: c, Scheme: codec.SchemeStruct, Dir: tmp})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncode))
	assert.Contains(t, err.Error(), "chunk 0")

	// a range ending mid-line
	_, err = RunTask(Task{Input: input, Chunk: chunk.Chunk{Start: int64(len(header)), End: fi.Size() - 3}, Scheme: codec.SchemeYSON, Dir: tmp})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunTask_WorkerErrors(t *testing.T) {
	dir, tmp := testDirs(t)
	input := writeInput(t, dir, genRows(5))

	_, err := InProcess{}.Run(Task{Input: input, Chunk: chunk.Chunk{Start: int64(len(header)), End: 100}, Scheme: codec.SchemeYSON, Dir: filepath.Join(dir, "missing")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorker), "%v", err)

	_, err = InProcess{}.Run(Task{Input: input, Chunk: chunk.Chunk{}, Scheme: codec.Scheme("pickle"), Dir: tmp})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWorker), "%v", err)
}

func TestTaskArgs(t *testing.T) {
	want := Task{
		Input:  "/data/in.tsv",
		Chunk:  chunk.Chunk{Index: 7, Start: 1 << 33, End: 1<<33 + 100},
		Scheme: codec.SchemeStruct,
		Dir:    "/tmp/run",
	}
	got, err := parseTaskArgs(taskArgs(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = parseTaskArgs([]string{"-input", "x"})
	assert.Error(t, err)
	_, err = parseTaskArgs(append(taskArgs(want), "-scheme", "pickle"))
	assert.Error(t, err)
}

func TestWorkerReply(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want error
	}{
		{ErrParse.Wrap(errors.New("bad line")), ErrParse},
		{ErrEncode.Wrap(errors.New("too big")), ErrEncode},
		{ErrWorker.Wrap(errors.New("disk")), ErrWorker},
	} {
		reply := newWorkerReply(Result{}, tc.err)
		err := reply.err()
		require.Error(t, err)
		assert.True(t, errors.Is(err, tc.want))
		assert.Equal(t, tc.err.Error(), reply.Error)
	}

	res := Result{Path: "/tmp/part", Part: partfile.Header{Index: 2, Records: 9, Length: 100, Checksum: 42}}
	reply := newWorkerReply(res, nil)
	assert.NoError(t, reply.err())
	assert.Equal(t, 2, reply.Index)
	assert.Equal(t, uint64(42), reply.Checksum)
}
