// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package tsvpack

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.ytsaurus.tech/yt/go/yson"

	"github.com/bpowers/tsvpack/internal/codec"
	"github.com/bpowers/tsvpack/internal/partfile"
)

const workerEnv = "TSVPACK_WORKER"

// Error kinds carried across the process boundary.
const (
	kindParse  = "parse"
	kindEncode = "encode"
	kindWorker = "worker"
)

// InsideWorker reports whether the current process was started by
// Subprocess to run a single task.
func InsideWorker() bool {
	return os.Getenv(workerEnv) != ""
}

// Subprocess runs each task in a fresh child process.  The child is the
// current executable re-executed with TSVPACK_WORKER set, so any binary
// that uses Subprocess must place the following code at the beginning of
// its main() function (or TestMain):
//
//	if tsvpack.InsideWorker() {
//	    os.Exit(tsvpack.WorkerMain())
//	}
type Subprocess struct {
	// Executable overrides the binary to run.  Empty means os.Executable().
	Executable string
}

// workerReply is what a worker process prints on stdout.
type workerReply struct {
	Path      string `yson:"path,omitempty"`
	Index     int    `yson:"index"`
	Records   uint64 `yson:"records"`
	Length    int64  `yson:"length"`
	Checksum  uint64 `yson:"checksum"`
	ErrorKind string `yson:"error_kind,omitempty"`
	Error     string `yson:"error,omitempty"`
}

func newWorkerReply(res Result, err error) workerReply {
	if err != nil {
		kind := kindWorker
		switch {
		case errors.Is(err, ErrParse):
			kind = kindParse
		case errors.Is(err, ErrEncode):
			kind = kindEncode
		}
		return workerReply{ErrorKind: kind, Error: err.Error()}
	}
	return workerReply{
		Path:     res.Path,
		Index:    res.Part.Index,
		Records:  res.Part.Records,
		Length:   res.Part.Length,
		Checksum: res.Part.Checksum,
	}
}

func (r *workerReply) err() error {
	if r.ErrorKind == "" && r.Error == "" {
		return nil
	}
	remote := errors.New(r.Error)
	switch r.ErrorKind {
	case kindParse:
		return ErrParse.Wrap(remote)
	case kindEncode:
		return ErrEncode.Wrap(remote)
	default:
		return ErrWorker.Wrap(remote)
	}
}

func taskArgs(t Task) []string {
	return []string{
		"-input", t.Input,
		"-index", strconv.Itoa(t.Chunk.Index),
		"-start", strconv.FormatInt(t.Chunk.Start, 10),
		"-end", strconv.FormatInt(t.Chunk.End, 10),
		"-scheme", string(t.Scheme),
		"-dir", t.Dir,
	}
}

func parseTaskArgs(args []string) (t Task, err error) {
	flags := flag.NewFlagSet("worker", flag.ContinueOnError)

	var scheme string
	flags.StringVar(&t.Input, "input", "", "")
	flags.IntVar(&t.Chunk.Index, "index", 0, "")
	flags.Int64Var(&t.Chunk.Start, "start", 0, "")
	flags.Int64Var(&t.Chunk.End, "end", 0, "")
	flags.StringVar(&scheme, "scheme", string(codec.SchemeYSON), "")
	flags.StringVar(&t.Dir, "dir", "", "")

	if err = flags.Parse(args); err != nil {
		return Task{}, err
	}
	if t.Input == "" || t.Dir == "" {
		return Task{}, fmt.Errorf("-input and -dir are required")
	}
	if t.Scheme, err = codec.ParseScheme(scheme); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (s Subprocess) Run(t Task) (Result, error) {
	exe := s.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return Result{}, ErrWorker.Wrap(fmt.Errorf("os.Executable: %w", err))
		}
	}

	// no context: a started worker always runs to completion
	cmd := exec.Command(exe, taskArgs(t)...)
	cmd.Env = append(os.Environ(), workerEnv+"=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	var reply workerReply
	if err := yson.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &reply); err != nil {
		if runErr != nil {
			return Result{}, ErrWorker.Wrap(fmt.Errorf("%s: worker process: %w: %s", t.Chunk, runErr, strings.TrimSpace(stderr.String())))
		}
		return Result{}, ErrWorker.Wrap(fmt.Errorf("%s: unreadable worker reply: %w", t.Chunk, err))
	}
	if err := reply.err(); err != nil {
		return Result{}, err
	}
	if runErr != nil {
		return Result{}, errors.Join(
			ErrWorker.Wrap(fmt.Errorf("%s: worker process: %w: %s", t.Chunk, runErr, strings.TrimSpace(stderr.String()))),
			removePart(reply.Path),
		)
	}
	if reply.Index != t.Chunk.Index {
		return Result{}, errors.Join(
			ErrWorker.Wrap(fmt.Errorf("%s: worker replied for chunk %d", t.Chunk, reply.Index)),
			removePart(reply.Path),
		)
	}

	return Result{
		Chunk: t.Chunk,
		Path:  reply.Path,
		Part: partfile.Header{
			Index:    reply.Index,
			Records:  reply.Records,
			Length:   reply.Length,
			Checksum: reply.Checksum,
		},
	}, nil
}

// WorkerMain runs the task described by the command line and prints the
// outcome for the parent.  It returns the process exit code.
func WorkerMain() int {
	// interrupts reach the whole process group; the parent decides when
	// to stop and lets running workers finish
	signal.Ignore(os.Interrupt, syscall.SIGHUP)

	t, err := parseTaskArgs(os.Args[1:])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "worker: %+v\n", err)
		return 2
	}

	res, err := InProcess{}.Run(t)
	reply := newWorkerReply(res, err)
	out, marshalErr := yson.Marshal(&reply)
	if marshalErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "worker: %+v\n", marshalErr)
		_ = removePart(res.Path)
		return 3
	}
	if _, writeErr := os.Stdout.Write(out); writeErr != nil {
		_ = removePart(res.Path)
		return 3
	}
	if err != nil {
		return 1
	}
	return 0
}

var _ Runner = Subprocess{}
var _ Runner = InProcess{}
