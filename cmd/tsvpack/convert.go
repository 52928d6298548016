// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.ytsaurus.tech/library/go/core/metrics/solomon"

	"github.com/bpowers/tsvpack"
	"github.com/bpowers/tsvpack/internal/shutdown"
)

var (
	convertFlags   = defaultConfig()
	flagConfigPath string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a TSV file into an archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := convertFlags
		if flagConfigPath != "" {
			var err error
			if cfg, err = loadConfig(flagConfigPath, convertFlags, cmd.Flags().Changed); err != nil {
				return err
			}
		}
		code, err := doConvert(cmd.Context(), cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code != shutdown.ExitOK {
			os.Exit(code)
		}
		return nil
	},
}

func init() {
	flags := convertCmd.Flags()
	flags.StringVar(&convertFlags.Scheme, "scheme", convertFlags.Scheme, "record encoding: yson, struct or skiff")
	flags.StringVarP(&convertFlags.Input, "input", "i", convertFlags.Input, "path to the TSV input")
	flags.StringVarP(&convertFlags.Output, "output", "o", convertFlags.Output, "path to write the archive to")
	flags.Int64Var(&convertFlags.ChunkSize, "chunk-size", convertFlags.ChunkSize, "input bytes per worker task")
	flags.IntVar(&convertFlags.Workers, "workers", convertFlags.Workers, "number of concurrent workers (default: number of CPUs)")
	flags.StringVar(&convertFlags.TmpDir, "tmp-dir", convertFlags.TmpDir, "directory for per-chunk part files (default: system temp dir)")
	flags.StringVar(&convertFlags.Isolation, "isolation", convertFlags.Isolation, "how workers run: process or goroutine")
	flags.StringVar(&convertFlags.WarnLog, "warn-log", convertFlags.WarnLog, "rotated log that records canceled runs")
	flags.StringVar(&convertFlags.MetricsFile, "metrics-file", convertFlags.MetricsFile, "write pipeline metrics as JSON to this file")
	flags.StringVar(&flagConfigPath, "config", "", "path to a yson config")
	rootCmd.AddCommand(convertCmd)
}

// doConvert runs one conversion and returns the exit status.  The error
// is only set for invalid configuration.
func doConvert(ctx context.Context, cfg Config, stdout io.Writer) (int, error) {
	if cfg.Input == "" || cfg.Output == "" {
		return 0, fmt.Errorf("both --input and --output are required")
	}
	input, err := expandPath(cfg.Input)
	if err != nil {
		return 0, err
	}
	output, err := expandPath(cfg.Output)
	if err != nil {
		return 0, err
	}
	opts, err := cfg.options()
	if err != nil {
		return 0, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	registry := solomon.NewRegistry(solomon.NewRegistryOpts())
	opts = append(opts, tsvpack.WithLogger(logger), tsvpack.WithMetrics(registry))

	ctl := shutdown.New(shutdown.Config{
		WarnLog: cfg.WarnLog,
		Observer: shutdown.Observer{
			Stdout: stdout,
			Now:    time.Now,
			Logger: logger,
		},
	})

	start := time.Now()
	_, _ = fmt.Fprintln(stdout, start.Format(time.RFC3339))

	runCtx, stop := ctl.Watch(ctx)
	stats, err := tsvpack.Convert(runCtx, input, output, opts...)
	stop()

	if stats != nil {
		logger.Info("converted",
			"chunks", stats.Chunks,
			"records", stats.Records,
			"bytes", stats.Bytes,
		)
	}
	if cfg.MetricsFile != "" {
		if metricsErr := writeMetrics(ctx, registry, cfg.MetricsFile); metricsErr != nil {
			logger.Error("writing metrics", "path", cfg.MetricsFile, "error", metricsErr)
		}
	}

	code := ctl.Exit(err)
	_, _ = fmt.Fprintln(stdout, time.Since(start))
	return code, nil
}

func writeMetrics(ctx context.Context, registry *solomon.Registry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create: %w", err)
	}
	if _, err := registry.StreamJSON(ctx, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("StreamJSON: %w", err)
	}
	return f.Close()
}
