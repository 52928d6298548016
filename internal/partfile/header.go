// Copyright 2026 The tsvpack Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package partfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// HeaderSize is the length of the header every part file starts with.
	// The payload follows immediately.
	HeaderSize = 64

	magicPartHeader   = 0x54535650 // "TSVP"
	fileFormatVersion = 1

	offIndex    = 8
	offRecords  = 16
	offLength   = 24
	offChecksum = 32
)

// Header describes the payload of one part file.
type Header struct {
	Index    int
	Records  uint64
	Length   int64
	Checksum uint64
}

func (h *Header) MarshalTo(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("buf too short: %d < %d", len(buf), HeaderSize)
	}
	clear(buf[:HeaderSize])
	binary.LittleEndian.PutUint32(buf[:4], magicPartHeader)
	binary.LittleEndian.PutUint32(buf[4:8], fileFormatVersion)
	binary.LittleEndian.PutUint64(buf[offIndex:], uint64(h.Index))
	binary.LittleEndian.PutUint64(buf[offRecords:], h.Records)
	binary.LittleEndian.PutUint64(buf[offLength:], uint64(h.Length))
	binary.LittleEndian.PutUint64(buf[offChecksum:], h.Checksum)
	return nil
}

func (h *Header) UnmarshalBytes(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("header too short: %d < %d", len(buf), HeaderSize)
	}
	if magic := binary.LittleEndian.Uint32(buf[:4]); magic != magicPartHeader {
		return fmt.Errorf("bad magic number on part file (%x) -- not a tsvpack part file or corrupted", magic)
	}
	if version := binary.LittleEndian.Uint32(buf[4:8]); version != fileFormatVersion {
		return fmt.Errorf("this version of tsvpack can only read v%d part files; found v%d", fileFormatVersion, version)
	}
	h.Index = int(binary.LittleEndian.Uint64(buf[offIndex:]))
	h.Records = binary.LittleEndian.Uint64(buf[offRecords:])
	h.Length = int64(binary.LittleEndian.Uint64(buf[offLength:]))
	h.Checksum = binary.LittleEndian.Uint64(buf[offChecksum:])
	return nil
}

func (h *Header) WriteTo(w io.Writer) (int64, error) {
	var buf [HeaderSize]byte
	if err := h.MarshalTo(buf[:]); err != nil {
		return 0, err
	}
	if _, err := w.Write(buf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return HeaderSize, nil
}

// WriteAt overwrites the header at the start of w.
func (h *Header) WriteAt(w io.WriterAt) error {
	var buf [HeaderSize]byte
	if err := h.MarshalTo(buf[:]); err != nil {
		return err
	}
	if _, err := w.WriteAt(buf[:], 0); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}
	return nil
}

// ReadHeader reads and validates the header of a part file.
func ReadHeader(r io.ReaderAt) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return Header{}, fmt.Errorf("r.ReadAt: %w", err)
	}
	var h Header
	if err := h.UnmarshalBytes(buf[:]); err != nil {
		return Header{}, err
	}
	return h, nil
}
