// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"fmt"
	"runtime/debug"
)

// Runner executes worker tasks.  Run is called concurrently from several
// goroutines, one task per call, and must not share state between tasks.
type Runner interface {
	Run(t Task) (Result, error)
}

// InProcess runs each task on the calling goroutine.  A panicking task is
// reported as ErrWorker instead of taking the process down.
type InProcess struct{}

func (InProcess) Run(t Task) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = ErrWorker.Wrap(fmt.Errorf("%s: panic: %v\n%s", t.Chunk, p, debug.Stack()))
		}
	}()
	return RunTask(t)
}
