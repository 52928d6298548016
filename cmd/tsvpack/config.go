// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.ytsaurus.tech/yt/go/yson"

	"github.com/bpowers/tsvpack"
	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/shutdown"
)

const (
	isolationProcess   = "process"
	isolationGoroutine = "goroutine"
)

// Config holds every convert setting.  It can be loaded from a YSON file
// with --config; flags given on the command line win over the file.
type Config struct {
	Scheme      string `yson:"scheme"`
	Input       string `yson:"input"`
	Output      string `yson:"output"`
	ChunkSize   int64  `yson:"chunk_size"`
	Workers     int    `yson:"workers"`
	TmpDir      string `yson:"tmp_dir"`
	Isolation   string `yson:"isolation"`
	WarnLog     string `yson:"warn_log"`
	MetricsFile string `yson:"metrics_file"`
}

func defaultConfig() Config {
	return Config{
		Scheme:    string(codec.SchemeYSON),
		ChunkSize: tsvpack.DefaultChunkSize,
		Isolation: isolationProcess,
		WarnLog:   shutdown.DefaultWarnLog,
	}
}

// configFlags maps each flag name to the Config field it sets.
var configFlags = map[string]func(dst, src *Config){
	"scheme":       func(dst, src *Config) { dst.Scheme = src.Scheme },
	"input":        func(dst, src *Config) { dst.Input = src.Input },
	"output":       func(dst, src *Config) { dst.Output = src.Output },
	"chunk-size":   func(dst, src *Config) { dst.ChunkSize = src.ChunkSize },
	"workers":      func(dst, src *Config) { dst.Workers = src.Workers },
	"tmp-dir":      func(dst, src *Config) { dst.TmpDir = src.TmpDir },
	"isolation":    func(dst, src *Config) { dst.Isolation = src.Isolation },
	"warn-log":     func(dst, src *Config) { dst.WarnLog = src.WarnLog },
	"metrics-file": func(dst, src *Config) { dst.MetricsFile = src.MetricsFile },
}

// mergeConfig overlays the YSON document content on flags, then puts back
// every flag for which changed reports true.
func mergeConfig(flags Config, content []byte, changed func(name string) bool) (Config, error) {
	cfg := flags
	if err := yson.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing yson config: %w", err)
	}
	for name, set := range configFlags {
		if changed(name) {
			set(&cfg, &flags)
		}
	}
	return cfg, nil
}

func loadConfig(path string, flags Config, changed func(name string) bool) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return mergeConfig(flags, content, changed)
}

// expandPath resolves a leading ~ to the home directory and makes path
// absolute.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("os.UserHomeDir: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// options validates cfg and turns it into Convert options.
func (cfg *Config) options() ([]tsvpack.Option, error) {
	scheme, err := codec.ParseScheme(cfg.Scheme)
	if err != nil {
		return nil, err
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}

	opts := []tsvpack.Option{
		tsvpack.WithScheme(scheme),
		tsvpack.WithChunkSize(cfg.ChunkSize),
	}
	if cfg.Workers > 0 {
		opts = append(opts, tsvpack.WithWorkers(cfg.Workers))
	}
	if cfg.TmpDir != "" {
		dir, err := expandPath(cfg.TmpDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tsvpack.WithTempDir(dir))
	}

	switch cfg.Isolation {
	case isolationProcess:
		opts = append(opts, tsvpack.WithRunner(tsvpack.Subprocess{}))
	case isolationGoroutine:
		opts = append(opts, tsvpack.WithRunner(tsvpack.InProcess{}))
	default:
		return nil, fmt.Errorf("unknown isolation %q (want %s or %s)", cfg.Isolation, isolationProcess, isolationGoroutine)
	}
	return opts, nil
}
