// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command tsvpack converts tab separated text files into binary archives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/tsvpack"
	"github.com/bpowers/tsvpack/internal/shutdown"
)

var rootCmd = &cobra.Command{
	Use:           "tsvpack",
	Short:         "Convert tab separated text into binary record archives",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// convert re-executes this binary for each chunk
	if tsvpack.InsideWorker() {
		os.Exit(tsvpack.WorkerMain())
	}

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(shutdown.ExitFailed)
	}
}
