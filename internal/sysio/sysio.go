// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package sysio wraps the few platform specific file calls tsvpack makes.
// Everything here is advisory except SyncDir.
package sysio

import (
	"fmt"
	"os"
)

// SyncDir flushes the directory entry table of dir, making a preceding
// rename durable.
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("d.Sync: %w", err)
	}
	return d.Close()
}
