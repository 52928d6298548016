// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package partfile

import (
	"errors"
	"fmt"
	"io"
)

// CopyPayload copies the payload of the part file r to dst.  want is what
// the producer of the part file reported; the file's own header must agree
// with it, and exactly want.Length bytes matching want.Checksum are copied.
func CopyPayload(dst io.Writer, r io.ReaderAt, want Header) (int64, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return 0, ErrCorrupt.Wrap(err)
	}
	if h != want {
		return 0, ErrCorrupt.Wrap(fmt.Errorf("header %+v does not match reported %+v", h, want))
	}

	sum := NewChecksum()
	payload := io.TeeReader(io.NewSectionReader(r, HeaderSize, want.Length), sum)
	n, err := io.CopyN(dst, payload, want.Length)
	if errors.Is(err, io.EOF) {
		return n, ErrCorrupt.Wrap(fmt.Errorf("payload is %d bytes, expected %d", n, want.Length))
	} else if err != nil {
		return n, fmt.Errorf("io.CopyN: %w", err)
	}
	if got := sum.Sum64(); got != want.Checksum {
		return n, ErrCorrupt.Wrap(fmt.Errorf("payload checksum %x, expected %x", got, want.Checksum))
	}
	return n, nil
}
