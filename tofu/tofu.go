// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The tofu package recognises code points a user font cannot actually
// draw. A font with no glyph for a character renders the fallback
// ".notdef" box — tofu — instead; the package caches that box's pixel
// signature per size and searches rendered characters for it.
//
// Matching scans rather than comparing in place: different fonts sit the
// same nominal glyph at slightly different baselines, and a sliding
// window is invariant to that drift up to the render padding.
package tofu

import (
	"errors"
	"sync"

	"github.com/firmfont/firmfont/bitmap"
	"github.com/firmfont/firmfont/render"
)

const (
	// ScaleFactor relates the signature side to the font size; it must
	// match the padded render geometry (render.PadScale).
	ScaleFactor = 4

	// MatchThreshold is the minimum sliding-window equality ratio at
	// which a rendered character counts as tofu.
	MatchThreshold = 0.98

	// SignatureThreshold is the brightness cut used when rendering the
	// signature itself; looser than the display cut, so lighter edge
	// pixels of the fallback box count as set in the signature too.
	SignatureThreshold = 200

	// FallbackFontName is the canonical fallback family whose only
	// glyph is the .notdef box.
	FallbackFontName = "Adobe-NotDef"

	// replacement is the code point rendered to produce the signature;
	// no real font maps it to anything but a box.
	replacement = '�'
)

// A Context owns the fallback renderer and the per-size signature
// cache. The cache is single-writer, many-reader.
type Context struct {
	mu       sync.RWMutex
	fallback render.Renderer
	sigs     map[int]*bitmap.Bitmap
}

// NewContext returns a Context over the given fallback renderer, which
// must render through the fallback font only.
func NewContext(fallback render.Renderer) *Context {
	return &Context{
		fallback: fallback,
		sigs:     make(map[int]*bitmap.Bitmap),
	}
}

// Signature returns the tofu pattern for a font size: the centre
// size*ScaleFactor square of a padded render of U+FFFD through the
// fallback font. The first call per size renders and caches.
func (c *Context) Signature(size int) (*bitmap.Bitmap, error) {
	c.mu.RLock()
	sig, ok := c.sigs[size]
	c.mu.RUnlock()
	if ok {
		return sig, nil
	}

	padded, err := c.fallback.RenderPadded(replacement, size, SignatureThreshold)
	if err != nil {
		return nil, err
	}
	side := size * ScaleFactor
	sig = padded.Region(render.Padding, render.Padding, side, side)

	c.mu.Lock()
	c.sigs[size] = sig
	c.mu.Unlock()
	return sig, nil
}

// MatchRatio slides pattern over every position where it fits inside
// grid and returns the best fraction of equal pixels.
func MatchRatio(grid, pattern *bitmap.Bitmap) float64 {
	if pattern.Rows > grid.Rows || pattern.Cols > grid.Cols {
		return 0
	}
	total := pattern.Rows * pattern.Cols
	if total == 0 {
		return 0
	}
	best := 0.0
	for y := 0; y+pattern.Rows <= grid.Rows; y++ {
		for x := 0; x+pattern.Cols <= grid.Cols; x++ {
			eq := 0
			for sy := 0; sy < pattern.Rows; sy++ {
				for sx := 0; sx < pattern.Cols; sx++ {
					if grid.At(x+sx, y+sy) == pattern.At(sx, sy) {
						eq++
					}
				}
			}
			if ratio := float64(eq) / float64(total); ratio > best {
				best = ratio
			}
		}
	}
	return best
}

// Match reports whether a padded rendered character contains the tofu
// signature for the size.
func (c *Context) Match(padded *bitmap.Bitmap, size int) (bool, error) {
	sig, err := c.Signature(size)
	if err != nil {
		return false, err
	}
	return MatchRatio(padded, sig) >= MatchThreshold, nil
}

// Skip decides whether a code point should be left out of a patch run:
// when the optional firmware-existence predicate denies it, or when the
// user font renders it as tofu. A render failure also skips — a
// character the renderer cannot produce cannot be patched.
func (c *Context) Skip(cp rune, size int, user render.Renderer, exists func(rune) bool) (bool, error) {
	if exists != nil && !exists(cp) {
		return true, nil
	}
	padded, err := user.RenderPadded(cp, size, render.DefaultThreshold)
	if err != nil {
		return true, nil
	}
	return c.Match(padded, size)
}

// The process-wide context. The underlying rasteriser has one font
// registry, so there is one fallback registration per process; Load and
// Unload are idempotent.
var (
	defaultMu  sync.Mutex
	defaultCtx *Context
)

// ErrNotLoaded reports use of the process context before Load.
var ErrNotLoaded = errors.New("tofu: fallback font not loaded")

// Load installs the process-wide fallback renderer. Loading again
// replaces the context (and drops its signature cache).
func Load(fallback render.Renderer) {
	defaultMu.Lock()
	defaultCtx = NewContext(fallback)
	defaultMu.Unlock()
}

// Unload clears the process-wide context and its cached signatures.
func Unload() {
	defaultMu.Lock()
	defaultCtx = nil
	defaultMu.Unlock()
}

// Default returns the process-wide context, or ErrNotLoaded before Load.
func Default() (*Context, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultCtx == nil {
		return nil, ErrNotLoaded
	}
	return defaultCtx, nil
}
