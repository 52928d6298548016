// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/tsvpack/internal/codec"
)

var (
	flagDumpInput  string
	flagDumpScheme string
	flagDumpLimit  int
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the rows of an archive as TSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scheme, err := codec.ParseScheme(flagDumpScheme)
		if err != nil {
			return err
		}
		path, err := expandPath(flagDumpInput)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		return dump(cmd.OutOrStdout(), scheme, bufio.NewReader(f), flagDumpLimit)
	},
}

func init() {
	dumpCmd.Flags().StringVarP(&flagDumpInput, "input", "i", "", "path to the archive")
	dumpCmd.Flags().StringVar(&flagDumpScheme, "scheme", string(codec.SchemeYSON), "record encoding of the archive: yson or skiff")
	dumpCmd.Flags().IntVar(&flagDumpLimit, "limit", 0, "stop after this many rows (0 prints all)")
	if err := dumpCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(dumpCmd)
}

func dump(out io.Writer, scheme codec.Scheme, in io.Reader, limit int) error {
	rows, err := codec.NewReader(scheme, in)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	var line []byte
	n := 0
	for r, err := range rows {
		if err != nil {
			_ = w.Flush()
			return fmt.Errorf("after %d rows: %w", n, err)
		}
		line = r.AppendTSV(line[:0])
		if _, err := w.Write(line); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			break
		}
	}
	return w.Flush()
}
