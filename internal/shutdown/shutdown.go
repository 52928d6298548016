// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package shutdown turns termination signals into cooperative cancellation
// of a run, and a run's outcome into a process exit status.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.ytsaurus.tech/library/go/core/log"
	logzap "go.ytsaurus.tech/library/go/core/log/zap"
	"go.ytsaurus.tech/yt/go/ytlog/selfrotate"

	"github.com/bpowers/tsvpack"
)

// Exit statuses.
const (
	ExitOK       = 0
	ExitCanceled = 1
	ExitFailed   = 2
)

const (
	// DefaultWarnLog is where cancellation warnings go unless configured
	// otherwise.
	DefaultWarnLog = "logging_warning.out"
	// DefaultMaxBytes is the size at which the warning log is rotated.
	DefaultMaxBytes = 2000
	// DefaultMaxKeep is how many rotated copies of the warning log are
	// retained.
	DefaultMaxKeep = 5
	// DefaultMaxSize bounds the total size of the retained warning logs.
	DefaultMaxSize = (DefaultMaxKeep + 1) * DefaultMaxBytes
)

// Signals are the signals Watch treats as a request to stop.
var Signals = []os.Signal{syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM}

// Observer is everything a Controller reports through.  It is built by the
// caller for one run; nothing here reaches for process globals.
type Observer struct {
	Stdout io.Writer
	Now    func() time.Time
	Logger *slog.Logger
}

// Config configures a Controller.  Zero fields take defaults.
type Config struct {
	WarnLog  string
	MaxBytes int64
	MaxKeep  int
	MaxSize  int64
	Observer Observer
}

type Controller struct {
	cfg Config
}

func New(cfg Config) *Controller {
	if cfg.WarnLog == "" {
		cfg.WarnLog = DefaultWarnLog
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxKeep == 0 {
		cfg.MaxKeep = DefaultMaxKeep
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Observer.Stdout == nil {
		cfg.Observer.Stdout = io.Discard
	}
	if cfg.Observer.Now == nil {
		cfg.Observer.Now = time.Now
	}
	if cfg.Observer.Logger == nil {
		cfg.Observer.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{cfg: cfg}
}

// Watch returns a copy of parent that is canceled when the process
// receives one of Signals.  The cancellation cause names the signal.  Call
// stop to release the signal handlers once the run is over.
func (c *Controller) Watch(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancelCause(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, Signals...)

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			c.cfg.Observer.Logger.Warn("stopping", "signal", sig.String())
			cancel(fmt.Errorf("received %s", sig))
		case <-done:
		case <-ctx.Done():
		}
	}()

	var once sync.Once
	stop = func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
			cancel(nil)
		})
	}
	return ctx, stop
}

// Exit reports the outcome of a run and returns the process exit status.
// A canceled run leaves a warning in the rotated warning log and lists the
// log files.
func (c *Controller) Exit(err error) int {
	out := c.cfg.Observer.Stdout
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, tsvpack.ErrCanceled):
		if logErr := c.logCanceled(err); logErr != nil {
			c.cfg.Observer.Logger.Error("writing warning log", "path", c.cfg.WarnLog, "error", logErr)
		}
		logs, globErr := LogFiles(c.cfg.WarnLog)
		if globErr != nil {
			c.cfg.Observer.Logger.Error("listing warning logs", "error", globErr)
		}
		_, _ = fmt.Fprintln(out, logs)
		return ExitCanceled
	default:
		_, _ = fmt.Fprintf(out, "error: %v\n", err)
		return ExitFailed
	}
}

func (c *Controller) logCanceled(cause error) error {
	if err := rotateBySize(c.cfg.WarnLog, c.cfg.MaxBytes, c.cfg.MaxKeep); err != nil {
		return err
	}
	w, err := selfrotate.New(selfrotate.Options{
		Name:           c.cfg.WarnLog,
		MaxKeep:        c.cfg.MaxKeep,
		MaxSize:        c.cfg.MaxSize,
		Compress:       selfrotate.CompressNone,
		RotateInterval: selfrotate.RotateDaily,
	})
	if err != nil {
		return fmt.Errorf("selfrotate.New: %w", err)
	}
	defer func() { _ = w.Close() }()

	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), zapcore.AddSync(w), zap.WarnLevel)
	l := &logzap.Logger{L: zap.New(core)}

	l.Warn("Exiting",
		log.Time("at", c.cfg.Observer.Now()),
		log.Error(cause),
	)
	return l.L.Sync()
}

// rotateBySize shifts name to name.1, name.1 to name.2 and so on once name
// has reached maxBytes, dropping the copy past maxKeep.  selfrotate names
// its rotated files the same way.
func rotateBySize(name string, maxBytes int64, maxKeep int) error {
	fi, err := os.Stat(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("os.Stat: %w", err)
	}
	if fi.Size() < maxBytes {
		return nil
	}

	backup := func(i int) string { return fmt.Sprintf("%s.%d", name, i) }
	if err := os.Remove(backup(maxKeep)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("os.Remove: %w", err)
	}
	for i := maxKeep - 1; i >= 1; i-- {
		if err := os.Rename(backup(i), backup(i+1)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("os.Rename: %w", err)
		}
	}
	if err := os.Rename(name, backup(1)); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}

// LogFiles lists the warning log and its rotated copies.
func LogFiles(warnLog string) ([]string, error) {
	return filepath.Glob(warnLog + "*")
}
