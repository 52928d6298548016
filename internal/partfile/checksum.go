// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package partfile

import (
	"encoding/binary"
	"hash"

	"github.com/dgryski/go-farm"
)

// ChecksumBlockSize is the granularity of the payload checksum.  The
// checksum of a payload depends only on its bytes, not on how they were
// split into writes.
const ChecksumBlockSize = 64 * 1024

// Checksum is a farmhash chained across fixed size blocks: each full block
// is hashed seeded with the sum of the blocks before it.
type Checksum struct {
	sum   uint64
	block []byte
}

var _ hash.Hash64 = &Checksum{}

func NewChecksum() *Checksum {
	return &Checksum{block: make([]byte, 0, ChecksumBlockSize)}
}

func (c *Checksum) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		room := ChecksumBlockSize - len(c.block)
		if room > len(p) {
			room = len(p)
		}
		c.block = append(c.block, p[:room]...)
		p = p[room:]
		if len(c.block) == ChecksumBlockSize {
			c.sum = farm.Hash64WithSeed(c.block, c.sum)
			c.block = c.block[:0]
		}
	}
	return n, nil
}

// Sum64 returns the checksum of everything written so far.
func (c *Checksum) Sum64() uint64 {
	if len(c.block) == 0 {
		return c.sum
	}
	return farm.Hash64WithSeed(c.block, c.sum)
}

func (c *Checksum) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, c.Sum64())
}

func (c *Checksum) Reset() {
	c.sum = 0
	c.block = c.block[:0]
}

func (c *Checksum) Size() int      { return 8 }
func (c *Checksum) BlockSize() int { return ChecksumBlockSize }
