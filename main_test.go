// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) {
	// Subprocess re-executes the test binary
	if InsideWorker() {
		os.Exit(WorkerMain())
	}
	os.Exit(m.Run())
}
