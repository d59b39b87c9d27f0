// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitmap

import (
	"encoding/binary"
)

// The device exchanges glyphs as minimal 1-bpp Windows bitmaps: a 14-byte
// file header, a 40-byte BITMAPINFOHEADER and a two-entry palette, so the
// pixel data always starts at byte 62. Rows are stored bottom-up with the
// stride rounded up to four bytes. Palette entry 0 is white, entry 1 is
// black; a set Bitmap pixel is stored as palette index 1.
const (
	bmpHeaderSize = 14 + 40 + 2*4
	bmpResolution = 2835 // pixels per metre, both axes
)

// EncodeBMP serialises b as a monochrome BMP.
func EncodeBMP(b *Bitmap) []byte {
	stride := ((b.Cols + 31) / 32) * 4
	size := bmpHeaderSize + stride*b.Rows
	out := make([]byte, size)
	le := binary.LittleEndian

	out[0], out[1] = 'B', 'M'
	le.PutUint32(out[2:], uint32(size))
	le.PutUint32(out[10:], bmpHeaderSize)

	le.PutUint32(out[14:], 40)
	le.PutUint32(out[18:], uint32(b.Cols))
	le.PutUint32(out[22:], uint32(b.Rows))
	le.PutUint16(out[26:], 1) // planes
	le.PutUint16(out[28:], 1) // bits per pixel
	le.PutUint32(out[30:], 0) // no compression
	le.PutUint32(out[34:], uint32(stride*b.Rows))
	le.PutUint32(out[38:], bmpResolution)
	le.PutUint32(out[42:], bmpResolution)
	le.PutUint32(out[46:], 2) // colours used

	// Palette: white then black, each stored as B, G, R, reserved.
	out[54], out[55], out[56] = 0xFF, 0xFF, 0xFF

	for y := 0; y < b.Rows; y++ {
		row := out[bmpHeaderSize+(b.Rows-1-y)*stride:]
		for x := 0; x < b.Cols; x++ {
			if b.At(x, y) {
				row[x>>3] |= 0x80 >> (x & 7)
			}
		}
	}
	return out
}

// DecodeBMP parses a monochrome BMP produced by EncodeBMP, or any
// compatible uncompressed 1-bpp bottom-up BMP. It returns nil for inputs
// that are not such a bitmap: bad magic, truncated headers, unsupported
// bit depth or compression, or declared dimensions that exceed the
// buffer.
func DecodeBMP(data []byte) *Bitmap {
	if len(data) < bmpHeaderSize || data[0] != 'B' || data[1] != 'M' {
		return nil
	}
	le := binary.LittleEndian
	offBits := int(le.Uint32(data[10:]))
	width := int(int32(le.Uint32(data[18:])))
	height := int(int32(le.Uint32(data[22:])))
	if width <= 0 || height <= 0 {
		return nil
	}
	if le.Uint16(data[28:]) != 1 || le.Uint32(data[30:]) != 0 {
		return nil
	}
	stride := ((width + 31) / 32) * 4
	if offBits < 0 || offBits+stride*height > len(data) {
		return nil
	}

	b := New(height, width)
	for y := 0; y < height; y++ {
		row := data[offBits+(height-1-y)*stride:]
		for x := 0; x < width; x++ {
			if row[x>>3]&(0x80>>(x&7)) != 0 {
				b.Set(x, y, true)
			}
		}
	}
	return b
}
