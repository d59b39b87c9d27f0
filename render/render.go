// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The render package rasterises characters from a vector font into the
// boolean grids the write path and the tofu detector consume. Rendering
// is deliberately crude: no anti-aliasing survives, because the firmware
// displays hard 1-bit pixels and the tofu detector compares patterns
// pixel for pixel.
package render

import (
	"errors"
	"image"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/firmfont/firmfont/bitmap"
)

const (
	// Upscale is the supersampling factor of the scaled mode: glyphs are
	// rasterised at Upscale times the target size and decimated with a
	// nearest-neighbour pass, which keeps edges hard.
	Upscale = 10

	// PadScale and Padding define the padded mode: the glyph is drawn at
	// PadScale times the font size onto a canvas Padding pixels larger
	// on every side, so a pattern match can absorb baseline drift.
	PadScale = 4
	Padding  = 10

	// DefaultThreshold is the brightness cut for a dark pixel.
	DefaultThreshold = 128
)

// A Renderer turns one character into a boolean grid. Implementations
// must be deterministic: the same character renders to the same grid.
type Renderer interface {
	// Render produces the character at size×size (the scaled mode).
	Render(ch rune, size int) (*bitmap.Bitmap, error)
	// RenderPadded produces the character on a canvas of side
	// size*PadScale + 2*Padding, drawn at size*PadScale offset by
	// Padding on both axes, thresholded at threshold.
	RenderPadded(ch rune, size int, threshold uint8) (*bitmap.Bitmap, error)
}

// A FaceRenderer rasterises through a font.Face per pixel size.
type FaceRenderer struct {
	newFace func(px int) font.Face
	faces   map[int]font.Face
}

// NewFaceRenderer parses TrueType font data and returns a renderer over
// it. Hinting is disabled so glyph nodes keep their geometric positions.
func NewFaceRenderer(fontData []byte) (*FaceRenderer, error) {
	f, err := truetype.Parse(fontData)
	if err != nil {
		return nil, err
	}
	return NewRenderer(func(px int) font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    float64(px),
			DPI:     72,
			Hinting: font.HintingNone,
		})
	}), nil
}

// NewRenderer returns a FaceRenderer over an arbitrary face source. The
// source is called once per distinct pixel size.
func NewRenderer(newFace func(px int) font.Face) *FaceRenderer {
	return &FaceRenderer{
		newFace: newFace,
		faces:   make(map[int]font.Face),
	}
}

func (r *FaceRenderer) face(px int) font.Face {
	if f, ok := r.faces[px]; ok {
		return f
	}
	f := r.newFace(px)
	r.faces[px] = f
	return f
}

// errNoGlyph reports a character the face could not draw at all.
var errNoGlyph = errors.New("render: face drew nothing")

// draw rasterises ch with a face of px pixels onto a white side×side
// canvas with the top of the face's ascent at (x, y); the baseline dot
// sits at (x, y+ascent).
func (r *FaceRenderer) draw(ch rune, px, side, x, y int) (*image.RGBA, error) {
	face := r.face(px)
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(x),
			Y: fixed.I(y) + face.Metrics().Ascent,
		},
	}
	if _, _, _, _, ok := face.Glyph(d.Dot, ch); !ok {
		return nil, errNoGlyph
	}
	d.DrawString(string(ch))
	return dst, nil
}

// Render rasterises ch at size*Upscale and decimates to size×size with
// a nearest-neighbour pass. A pixel is set iff its mean brightness is
// below DefaultThreshold.
func (r *FaceRenderer) Render(ch rune, size int) (*bitmap.Bitmap, error) {
	big, err := r.draw(ch, size*Upscale, size*Upscale, 0, 0)
	if err != nil {
		return nil, err
	}
	small := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(small, small.Bounds(), big, big.Bounds(), draw.Src, nil)
	return threshold(small, DefaultThreshold), nil
}

// RenderPadded rasterises ch at size*PadScale onto a canvas Padding
// pixels larger on every side.
func (r *FaceRenderer) RenderPadded(ch rune, size int, thr uint8) (*bitmap.Bitmap, error) {
	px := size * PadScale
	side := px + 2*Padding
	img, err := r.draw(ch, px, side, Padding, Padding)
	if err != nil {
		return nil, err
	}
	return threshold(img, thr), nil
}

// threshold converts an image to a boolean grid: a pixel is set iff the
// arithmetic mean of its R, G and B channels is below thr. Alpha is
// ignored.
func threshold(img *image.RGBA, thr uint8) *bitmap.Bitmap {
	b := img.Bounds()
	out := bitmap.New(b.Dy(), b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			mean := (int(c.R) + int(c.G) + int(c.B)) / 3
			if mean < int(thr) {
				out.Set(x-b.Min.X, y-b.Min.Y, true)
			}
		}
	}
	return out
}
