// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !linux

package sysio

import (
	"os"
)

func AdviseSequential(f *os.File, off, n int64) error {
	return nil
}

func Preallocate(f *os.File, size int64) error {
	return nil
}
