// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsvpack/internal/chunk"
	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/partfile"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func convertChunks(t *testing.T, input, dir string, size int64) []Result {
	t.Helper()
	chunks, err := chunk.Collect(chunk.Plan(input, size))
	require.NoError(t, err)

	var results []Result
	for _, c := range chunks {
		res, err := RunTask(Task{Input: input, Chunk: c, Scheme: codec.SchemeYSON, Dir: dir})
		require.NoError(t, err)
		results = append(results, res)
	}
	return results
}

func requireGone(t *testing.T, results []Result) {
	t.Helper()
	for _, res := range results {
		_, err := os.Stat(res.Path)
		assert.True(t, errors.Is(err, os.ErrNotExist), "%s still exists", res.Path)
	}
}

func TestReassembler_ReverseArrival(t *testing.T) {
	dir, tmp := testDirs(t)
	rows := genRows(300)
	input := writeInput(t, dir, rows)
	results := convertChunks(t, input, tmp, 1024)
	require.Greater(t, len(results), 2)

	output := filepath.Join(dir, "out.bin")
	asm := newReassembler(output, discardLogger)
	for i := len(results) - 1; i >= 0; i-- {
		require.NoError(t, asm.add(results[i]))
	}

	written, err := asm.publish()
	require.NoError(t, err)
	var total int64
	for _, res := range results {
		total += res.Written()
	}
	assert.Equal(t, total, written)
	assert.Equal(t, rows, readArchive(t, codec.SchemeYSON, output))
	requireGone(t, results)
	requireClean(t, dir, tmp)
}

func TestReassembler_Duplicate(t *testing.T) {
	dir, tmp := testDirs(t)
	results := convertChunks(t, writeInput(t, dir, genRows(10)), tmp, 1<<20)
	require.Len(t, results, 1)

	asm := newReassembler(filepath.Join(dir, "out.bin"), discardLogger)
	require.NoError(t, asm.add(results[0]))
	err := asm.add(results[0])
	assert.True(t, errors.Is(err, ErrReassembly))
	require.NoError(t, asm.discard())
	requireGone(t, results)
}

func TestReassembler_MissingChunk(t *testing.T) {
	dir, tmp := testDirs(t)
	results := convertChunks(t, writeInput(t, dir, genRows(300)), tmp, 1024)
	require.Greater(t, len(results), 2)

	output := filepath.Join(dir, "out.bin")
	asm := newReassembler(output, discardLogger)
	for i, res := range results {
		if i == 1 {
			require.NoError(t, removePart(res.Path))
			continue
		}
		require.NoError(t, asm.add(res))
	}

	_, err := asm.publish()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReassembly))
	assert.Contains(t, err.Error(), "missing chunk 1")

	_, statErr := os.Stat(output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	requireGone(t, results)
	requireClean(t, dir, tmp)
}

func TestReassembler_CorruptPart(t *testing.T) {
	dir, tmp := testDirs(t)
	results := convertChunks(t, writeInput(t, dir, genRows(300)), tmp, 1024)
	require.Greater(t, len(results), 2)

	// the worker reported one byte less than it wrote
	results[1].Part.Length--

	output := filepath.Join(dir, "out.bin")
	asm := newReassembler(output, discardLogger)
	for _, res := range results {
		require.NoError(t, asm.add(res))
	}
	_, err := asm.publish()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReassembly))
	assert.True(t, errors.Is(err, partfile.ErrCorrupt))

	_, statErr := os.Stat(output)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	requireGone(t, results)
	requireClean(t, dir, tmp)
}

func TestRemovePart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	require.NoError(t, removePart(path))
	require.NoError(t, removePart(path), "already gone")
	require.NoError(t, removePart(""))

	require.NoError(t, os.Mkdir(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "child"), nil, 0o644))
	err := removePart(path)
	assert.True(t, errors.Is(err, ErrReassembly))
}
