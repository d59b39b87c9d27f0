// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"github.com/firmfont/firmfont/glyph"
)

// FitClass decides which firmware font class a rendered font suits,
// judged by a probe character. The small class wins whenever its 12 px
// render is plausible; otherwise the large class gets a chance at 16 px.
// ok is false when neither size produces a usable glyph.
func FitClass(r Renderer, probe rune) (class glyph.Class, ok bool) {
	if g, err := r.Render(probe, glyph.Small.Size()); err == nil && glyph.Small.Valid(g) {
		return glyph.Small, true
	}
	if g, err := r.Render(probe, glyph.Large.Size()); err == nil && glyph.Large.Valid(g) {
		return glyph.Large, true
	}
	return 0, false
}
