// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package shutdown

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/tsvpack"
)

func newTestController(t *testing.T) (*Controller, *bytes.Buffer, string) {
	t.Helper()
	var stdout bytes.Buffer
	warnLog := filepath.Join(t.TempDir(), "logging_warning.out")
	now := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	c := New(Config{
		WarnLog: warnLog,
		Observer: Observer{
			Stdout: &stdout,
			Now:    func() time.Time { return now },
		},
	})
	return c, &stdout, warnLog
}

func TestExit_Success(t *testing.T) {
	c, stdout, warnLog := newTestController(t)
	assert.Equal(t, ExitOK, c.Exit(nil))
	assert.Empty(t, stdout.String())

	_, err := os.Stat(warnLog)
	assert.True(t, errors.Is(err, os.ErrNotExist), "warning log is only written on cancellation")
}

func TestExit_Failure(t *testing.T) {
	c, stdout, warnLog := newTestController(t)
	err := tsvpack.ErrParse.Wrap(errors.New("line 7: expected 9 columns"))
	assert.Equal(t, ExitFailed, c.Exit(err))
	assert.Contains(t, stdout.String(), "expected 9 columns")

	_, statErr := os.Stat(warnLog)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestExit_Canceled(t *testing.T) {
	c, stdout, warnLog := newTestController(t)
	err := tsvpack.ErrCanceled.Wrap(errors.New("received hangup"))

	assert.Equal(t, ExitCanceled, c.Exit(err))
	assert.Equal(t, ExitCanceled, c.Exit(err))

	data, readErr := os.ReadFile(warnLog)
	require.NoError(t, readErr)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "warnings are appended")
	assert.Contains(t, lines[0], "Exiting")
	assert.Contains(t, lines[0], "received hangup")
	assert.Contains(t, lines[0], "2024-03-01T12:30:00")

	assert.Contains(t, stdout.String(), warnLog)

	logs, globErr := LogFiles(warnLog)
	require.NoError(t, globErr)
	assert.Equal(t, []string{warnLog}, logs)
}

func TestExit_CanceledWithWorkerFailure(t *testing.T) {
	c, stdout, warnLog := newTestController(t)
	err := errors.Join(
		tsvpack.ErrCanceled.Wrap(errors.New("received terminated")),
		tsvpack.ErrWorker.Wrap(errors.New("signal: terminated")),
	)
	assert.Equal(t, ExitCanceled, c.Exit(err))
	assert.Contains(t, stdout.String(), warnLog)

	data, readErr := os.ReadFile(warnLog)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "received terminated")
}

func TestExit_RotatesBySize(t *testing.T) {
	c, _, warnLog := newTestController(t)
	full := bytes.Repeat([]byte("x"), DefaultMaxBytes)
	require.NoError(t, os.WriteFile(warnLog, full, 0o644))

	assert.Equal(t, ExitCanceled, c.Exit(tsvpack.ErrCanceled.Wrap(errors.New("received interrupt"))))

	rotated, err := os.ReadFile(warnLog + ".1")
	require.NoError(t, err)
	assert.Equal(t, full, rotated)

	current, err := os.ReadFile(warnLog)
	require.NoError(t, err)
	assert.Contains(t, string(current), "received interrupt")
	assert.Less(t, len(current), DefaultMaxBytes)
}

func TestRotateBySize(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "warn.out")

	require.NoError(t, rotateBySize(name, 10, 2), "a missing log is left alone")

	require.NoError(t, os.WriteFile(name, []byte("short"), 0o644))
	require.NoError(t, rotateBySize(name, 10, 2))
	logs, err := LogFiles(name)
	require.NoError(t, err)
	assert.Equal(t, []string{name}, logs, "a small log is not rotated")

	for _, content := range []string{"first-full", "second-full", "third-full"} {
		require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
		require.NoError(t, rotateBySize(name, 10, 2))
	}
	logs, err = LogFiles(name)
	require.NoError(t, err)
	assert.Equal(t, []string{name + ".1", name + ".2"}, logs, "copies past the keep count are dropped")

	newest, err := os.ReadFile(name + ".1")
	require.NoError(t, err)
	assert.Equal(t, "third-full", string(newest))
	oldest, err := os.ReadFile(name + ".2")
	require.NoError(t, err)
	assert.Equal(t, "second-full", string(oldest))
}

func TestLogFiles(t *testing.T) {
	dir := t.TempDir()
	warnLog := filepath.Join(dir, "warn.out")
	for _, name := range []string{"warn.out", "warn.out.1", "warn.out.2", "other.out"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	logs, err := LogFiles(warnLog)
	require.NoError(t, err)
	assert.Equal(t, []string{warnLog, warnLog + ".1", warnLog + ".2"}, logs)
}

func TestWatch_Signal(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx, stop := c.Watch(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("signal did not cancel the context")
	}
	assert.Contains(t, context.Cause(ctx).Error(), "hangup")
}

func TestWatch_Stop(t *testing.T) {
	c, _, _ := newTestController(t)
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	ctx, stop := c.Watch(parent)
	require.NoError(t, ctx.Err())
	stop()
	stop()
	assert.Error(t, ctx.Err())

	ctx, stop = c.Watch(parent)
	defer stop()
	cancelParent()
	<-ctx.Done()
	assert.True(t, errors.Is(context.Cause(ctx), context.Canceled))
}
