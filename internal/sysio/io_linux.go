// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build linux

package sysio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// AdviseSequential tells the kernel that [off, off+n) of f is about to be
// read front to back.
func AdviseSequential(f *os.File, off, n int64) error {
	return unix.Fadvise(int(f.Fd()), off, n, unix.FADV_SEQUENTIAL)
}

// Preallocate reserves size bytes of disk for f without changing its
// length.  Filesystems that can't preallocate are silently skipped.
func Preallocate(f *os.File, size int64) error {
	if size <= 0 {
		return nil
	}
	err := unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return nil
	}
	return err
}
