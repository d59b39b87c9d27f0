// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The firmware package wraps a raw firmware image and locates its
// embedded font tables. The image has no usable header for the tables;
// detection is content-driven (see Detect).
//
// All multi-byte fields in the image are little-endian.
package firmware

import (
	"bytes"
	"encoding/binary"
)

// A FormatError reports that the input is not a plausible firmware image.
type FormatError string

func (e FormatError) Error() string {
	return "firmfont: invalid firmware image: " + string(e)
}

// An Image is an owned firmware byte buffer. All reads and writes in the
// engine go through the one buffer; writers mutate it in place and
// readers observe the mutation immediately.
type Image struct {
	data []byte
}

// NewImage wraps data. The Image takes ownership of the slice.
func NewImage(data []byte) *Image {
	return &Image{data: data}
}

// Len returns the image size in bytes.
func (m *Image) Len() int {
	return len(m.data)
}

// Bytes returns the live backing buffer.
func (m *Image) Bytes() []byte {
	return m.data
}

// Byte reads the byte at off. ok is false if off is outside the image.
func (m *Image) Byte(off int) (b byte, ok bool) {
	if off < 0 || off >= len(m.data) {
		return 0, false
	}
	return m.data[off], true
}

// U16 reads a little-endian uint16 at off. ok is false if the read would
// pass the end of the image.
func (m *Image) U16(off int) (v uint16, ok bool) {
	if off < 0 || off+2 > len(m.data) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.data[off:]), true
}

// U32 reads a little-endian uint32 at off.
func (m *Image) U32(off int) (v uint32, ok bool) {
	if off < 0 || off+4 > len(m.data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.data[off:]), true
}

// I32 reads a little-endian int32 at off.
func (m *Image) I32(off int) (v int32, ok bool) {
	u, ok := m.U32(off)
	return int32(u), ok
}

// Slice returns up to n bytes starting at off. A start at or past the
// end of the image returns the empty slice; a short tail returns what
// remains. The returned slice aliases the image.
func (m *Image) Slice(off, n int) []byte {
	if off < 0 || off >= len(m.data) || n <= 0 {
		return nil
	}
	end := off + n
	if end > len(m.data) {
		end = len(m.data)
	}
	return m.data[off:end]
}

// Find returns the offset of the first occurrence of pattern at or after
// from, or -1 if the pattern does not occur.
func (m *Image) Find(pattern []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(m.data) {
		return -1
	}
	i := bytes.Index(m.data[from:], pattern)
	if i < 0 {
		return -1
	}
	return from + i
}
