// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The firmfont package provides a convenient API to read and rewrite the
// bitmap font tables embedded in a pocket-translator firmware image. Use
// the firmware, glyph and bitmap packages for lower level control over
// address detection and the chunk codec.
package firmfont

import (
	"fmt"

	"github.com/firmfont/firmfont/bitmap"
	"github.com/firmfont/firmfont/firmware"
	"github.com/firmfont/firmfont/glyph"
)

// A Font holds the state for reading and writing glyphs in one firmware
// image. It owns the image buffer exclusively: no two Fonts may share a
// buffer, and writes mutate it in place.
type Font struct {
	img    *firmware.Image
	addrs  *firmware.Addresses
	ranges []Range
}

// New detects the font table addresses in data and returns a Font that
// takes ownership of the slice. Detection failure aborts the session.
func New(data []byte) (*Font, error) {
	img := firmware.NewImage(data)
	addrs, err := firmware.Detect(img)
	if err != nil {
		return nil, err
	}
	return &Font{img: img, addrs: addrs}, nil
}

// NewWithAddresses returns a Font over data using previously detected
// (or externally known) addresses.
func NewWithAddresses(data []byte, addrs *firmware.Addresses) *Font {
	return &Font{img: firmware.NewImage(data), addrs: addrs}
}

// SetRanges sets the code point ranges ExtractAll iterates when called
// without an explicit list.
func (f *Font) SetRanges(ranges []Range) {
	f.ranges = ranges
}

// Addresses returns the table addresses the Font operates on.
func (f *Font) Addresses() *firmware.Addresses {
	return f.addrs
}

// Bytes returns the live firmware buffer, including any glyph writes
// made through the Font.
func (f *Font) Bytes() []byte {
	return f.img.Bytes()
}

// Lookup returns the configuration byte for a code point. One lookup
// byte covers eight consecutive code points.
func (f *Font) Lookup(cp rune) byte {
	b, _ := f.img.Byte(int(f.addrs.LookupTable + int64(cp>>3)))
	return b
}

// Addr returns the chunk address for a code point in the given class.
func (f *Font) Addr(cp rune, class glyph.Class) int64 {
	if class == glyph.Small {
		return class.Addr(f.addrs.SmallBase, cp)
	}
	return class.Addr(f.addrs.LargeBase, cp)
}

// ReadChunk returns a copy of the stored chunk for a code point, or nil
// if the chunk address falls outside the image.
func (f *Font) ReadChunk(cp rune, class glyph.Class) []byte {
	addr := f.Addr(cp, class)
	stride := class.Stride()
	if addr < 0 || addr+int64(stride) > int64(f.img.Len()) {
		return nil
	}
	chunk := make([]byte, stride)
	copy(chunk, f.img.Slice(int(addr), stride))
	return chunk
}

// uniform reports whether every byte of chunk equals the first. Uniform
// chunks are table filler: "no glyph here".
func uniform(chunk []byte) bool {
	for _, b := range chunk[1:] {
		if b != chunk[0] {
			return false
		}
	}
	return true
}

// ReadPixels decodes the glyph stored for a code point. It returns nil
// when there is no usable glyph: the address is out of range, the chunk
// is uniform filler, or the decoded grid is not plausible. Small glyphs
// come back as their displayed 12×12 crop, Large as the full 16×16.
func (f *Font) ReadPixels(cp rune, class glyph.Class) *bitmap.Bitmap {
	chunk := f.ReadChunk(cp, class)
	if chunk == nil || uniform(chunk) {
		return nil
	}
	g := glyph.Decode(chunk, glyph.ParseConfig(f.Lookup(cp)))
	if g.Rows != 16 || !class.Valid(g) {
		return nil
	}
	if class == glyph.Small {
		return g.Crop(12, 12)
	}
	return g
}

// WriteChunk stores a chunk at a code point's address. It reports false,
// leaving the image untouched, if the chunk length does not match the
// class stride, the chunk is a degenerate uniform fill, or the address
// is out of range.
func (f *Font) WriteChunk(cp rune, class glyph.Class, chunk []byte) bool {
	if len(chunk) != class.Stride() || uniform(chunk) {
		return false
	}
	addr := f.Addr(cp, class)
	if addr < 0 || addr+int64(len(chunk)) > int64(f.img.Len()) {
		return false
	}
	copy(f.img.Bytes()[addr:], chunk)
	return true
}

// WritePixels encodes a grid and stores it at a code point's address.
// Small requires exactly a 12×12 grid, which is padded back to the
// stored 16×16 with clear right columns and bottom rows; Large requires
// exactly 16×16 and keeps the chunk's original footer byte. It reports
// false, leaving the image untouched, for wrong-shaped or implausible
// grids and out-of-range addresses.
func (f *Font) WritePixels(cp rune, class glyph.Class, g *bitmap.Bitmap) bool {
	chunk := f.encodePixels(cp, class, g)
	if chunk == nil {
		return false
	}
	return f.WriteChunk(cp, class, chunk)
}

// encodePixels turns a display grid into the full stored chunk for a
// code point, including a Large chunk's preserved footer byte. It
// returns nil for grids WritePixels must reject.
func (f *Font) encodePixels(cp rune, class glyph.Class, g *bitmap.Bitmap) []byte {
	switch class {
	case glyph.Small:
		if g.Rows != 12 || g.Cols != 12 {
			return nil
		}
		g = g.Pad(16, 16)
	case glyph.Large:
		if g.Rows != 16 || g.Cols != 16 {
			return nil
		}
	}
	if !class.Valid(g) {
		return nil
	}
	pix := glyph.Encode(g, glyph.ParseConfig(f.Lookup(cp)))
	if pix == nil {
		return nil
	}
	if class == glyph.Large {
		orig := f.ReadChunk(cp, class)
		if orig == nil {
			return nil
		}
		pix = append(pix, orig[32])
	}
	return pix
}

// VerifyChunk reads back the stored chunk for a code point and reports
// whether it matches want byte for byte.
func (f *Font) VerifyChunk(cp rune, class glyph.Class, want []byte) bool {
	got := f.ReadChunk(cp, class)
	if got == nil || len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// A WriteOp is one entry of a batch write plan.
type WriteOp struct {
	Code  rune
	Class glyph.Class
	Grid  *bitmap.Bitmap
}

// A WriteError reports a batch entry whose grid was rejected before it
// reached the image.
type WriteError struct {
	Code rune
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("firmfont: write rejected at U+%04X", e.Code)
}

// A VerifyError reports a batch entry whose read-back did not match what
// was stored.
type VerifyError struct {
	Code rune
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("firmfont: verify mismatch at U+%04X", e.Code)
}

// WriteBatch applies a write plan in order, verifying every entry by
// read-back immediately after its store. The batch halts at the first
// rejected write or verify mismatch; later entries are not attempted.
func (f *Font) WriteBatch(ops []WriteOp) error {
	for _, op := range ops {
		chunk := f.encodePixels(op.Code, op.Class, op.Grid)
		if chunk == nil || !f.WriteChunk(op.Code, op.Class, chunk) {
			return &WriteError{Code: op.Code}
		}
		if !f.VerifyChunk(op.Code, op.Class, chunk) {
			return &VerifyError{Code: op.Code}
		}
	}
	return nil
}

// An Artifact is one extracted glyph: a path-shaped name and a
// monochrome BMP payload.
type Artifact struct {
	Name string
	Data []byte
}

// ExtractAll walks every code point of every range in both classes and
// returns a BMP artifact for each stored glyph. A nil list falls back to
// the ranges set with SetRanges. Code points without a usable glyph are
// skipped silently; extraction never fails.
func (f *Font) ExtractAll(ranges []Range) []Artifact {
	if ranges == nil {
		ranges = f.ranges
	}
	var out []Artifact
	for _, r := range ranges {
		for _, class := range []glyph.Class{glyph.Small, glyph.Large} {
			for cp := r.Lo; cp <= r.Hi; cp++ {
				g := f.ReadPixels(cp, class)
				if g == nil {
					continue
				}
				name := fmt.Sprintf("%s/%s/0x%06X_%02X_U+%04X.bmp",
					r.Prefix(), class, f.Addr(cp, class), f.Lookup(cp), cp)
				out = append(out, Artifact{Name: name, Data: bitmap.EncodeBMP(g)})
			}
		}
	}
	return out
}
