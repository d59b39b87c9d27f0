// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package glyph

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/firmfont/firmfont/bitmap"
)

func TestClassConstants(t *testing.T) {
	for _, tc := range []struct {
		class        Class
		stride, size int
		name         string
	}{
		{Small, 32, 12, "small"},
		{Large, 33, 16, "large"},
	} {
		if got := tc.class.Stride(); got != tc.stride {
			t.Errorf("%v.Stride() = %d, want %d", tc.class, got, tc.stride)
		}
		if got := tc.class.Size(); got != tc.size {
			t.Errorf("%v.Size() = %d, want %d", tc.class, got, tc.size)
		}
		if got := tc.class.String(); got != tc.name {
			t.Errorf("%v.String() = %q, want %q", tc.class, got, tc.name)
		}
	}
}

func TestClassAddr(t *testing.T) {
	if got, want := Small.Addr(0x100000, 0x0041), int64(0x100820); got != want {
		t.Errorf("Small.Addr(0x100000, U+0041) = %#x, want %#x", got, want)
	}
	if got, want := Large.Addr(0x80000, 0x4E00), int64(0x80000); got != want {
		t.Errorf("Large.Addr(0x80000, U+4E00) = %#x, want %#x", got, want)
	}
	if d := Large.Addr(0x80000, 0x4E01) - Large.Addr(0x80000, 0x4E00); d != 33 {
		t.Errorf("consecutive Large addresses differ by %d, want 33", d)
	}
}

func TestParseConfig(t *testing.T) {
	for _, tc := range []struct {
		lookup byte
		want   Config
	}{
		{0x00, Config{}},
		{0x08, Config{Bits: true}},
		{0x10, Config{HWSwap: true}},
		{0x20, Config{ByteSwap: true}},
		{0x38, Config{Bits: true, HWSwap: true, ByteSwap: true}},
		{0xC7, Config{}}, // bits outside 3..5 are ignored
	} {
		if got := ParseConfig(tc.lookup); got != tc.want {
			t.Errorf("ParseConfig(%#02x) = %+v, want %+v", tc.lookup, got, tc.want)
		}
	}
}

// oneHotChunk holds one descending hot bit per row: row 0 is 0x0080,
// row 1 is 0x0040, wrapping through all sixteen bit positions.
func oneHotChunk() []byte {
	chunk := make([]byte, 32)
	for row := 0; row < 16; row++ {
		v := uint16(0x80) >> (row % 8)
		if row >= 8 {
			v <<= 8
		}
		chunk[2*row] = byte(v)
		chunk[2*row+1] = byte(v >> 8)
	}
	return chunk
}

func TestDecodeIdentityConfig(t *testing.T) {
	chunk := oneHotChunk()
	g := Decode(chunk, ParseConfig(0x00))
	if g.Rows != 16 || g.Cols != 16 {
		t.Fatalf("Decode: got %d×%d grid, want 16×16", g.Rows, g.Cols)
	}
	// With the all-zero config the stored word for row 0 is 0x0080,
	// byte-swapped by the post-fixup to 0x8000: only bit 15 is set, the
	// leftmost pixel.
	for x := 0; x < 16; x++ {
		if got, want := g.At(x, 0), x == 0; got != want {
			t.Errorf("row 0, col %d = %v, want %v", x, got, want)
		}
	}
	if !g.At(1, 1) {
		t.Errorf("row 1: hot pixel not at col 1")
	}
	if got := Encode(g, ParseConfig(0x00)); !bytes.Equal(got, chunk) {
		t.Errorf("re-encode:\ngot  % X\nwant % X", got, chunk)
	}
}

func TestCodecRoundTripAllConfigs(t *testing.T) {
	chunk := oneHotChunk()
	for _, lookup := range []byte{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		cfg := ParseConfig(lookup)
		g := Decode(chunk, cfg)
		if got := Encode(g, cfg); !bytes.Equal(got, chunk) {
			t.Errorf("lookup %#02x: encode(decode(chunk)) differs:\ngot  % X\nwant % X",
				lookup, got, chunk)
		}
	}
}

func TestCodecGridRoundTripAllConfigs(t *testing.T) {
	g := bitmap.New(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			g.Set(x, y, (x*7+y*3)%5 < 2)
		}
	}
	for _, lookup := range []byte{0x00, 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		cfg := ParseConfig(lookup)
		chunk := Encode(g, cfg)
		if len(chunk) != 32 {
			t.Fatalf("lookup %#02x: Encode returned %d bytes, want 32", lookup, len(chunk))
		}
		got := Decode(chunk, cfg)
		if diff := cmp.Diff(g, got); diff != "" {
			t.Errorf("lookup %#02x: decode(encode(grid)) differs (-want +got):\n%s", lookup, diff)
		}
	}
}

func TestDecodeSkipsLargeFooter(t *testing.T) {
	chunk := make([]byte, 33)
	for i := range chunk {
		chunk[i] = 0xAA
	}
	chunk[32] = 0x90
	cfg := ParseConfig(0x00)
	withFooter := Decode(chunk, cfg)
	without := Decode(chunk[:32], cfg)
	if diff := cmp.Diff(without, withFooter); diff != "" {
		t.Errorf("footer byte leaked into decode (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsWrongShape(t *testing.T) {
	if got := Encode(bitmap.New(12, 12), ParseConfig(0)); got != nil {
		t.Errorf("Encode(12×12) = % X, want nil", got)
	}
}

func TestClassValid(t *testing.T) {
	g := bitmap.New(16, 16)
	for x := 0; x < 16; x++ {
		for y := 0; y < 6; y++ {
			g.Set(x, y, true)
		}
	}
	if !Small.Valid(g) || !Large.Valid(g) {
		t.Errorf("plausible glyph rejected by Valid")
	}
	if Small.Valid(bitmap.New(16, 16)) {
		t.Errorf("Small.Valid accepted an empty grid")
	}
	nearlyFull := bitmap.New(16, 16)
	for i := range nearlyFull.Pix {
		nearlyFull.Pix[i] = true
	}
	nearlyFull.Set(0, 0, false) // 255/256 ≈ 0.996
	if Small.Valid(nearlyFull) || Large.Valid(nearlyFull) {
		t.Errorf("Valid accepted a nearly full grid")
	}
}
