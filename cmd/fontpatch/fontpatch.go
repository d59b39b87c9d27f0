// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Fontpatch renders a user TrueType font and writes its glyphs into a
// firmware image, skipping code points the font only covers as tofu.
// Every write is verified by read-back; the run halts on the first
// mismatch.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/firmfont/firmfont"
	"github.com/firmfont/firmfont/render"
	"github.com/firmfont/firmfont/tofu"
)

var (
	firmwareFile = flag.String("firmware", "", "filename of the firmware image")
	fontFile     = flag.String("font", "", "filename of the replacement TrueType font")
	fallbackFile = flag.String("fallback", "", "filename of the Adobe-NotDef fallback font")
	outFile      = flag.String("out", "patched.bin", "filename for the patched image")
	rangeFlags   multiFlag
)

type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint(*m) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Var(&rangeFlags, "range", "code point range as Name:0xSSSS:0xEEEE (repeatable)")
	flag.Parse()

	data, err := os.ReadFile(*firmwareFile)
	if err != nil {
		fatalf("failed to load firmware from %s: %v", *firmwareFile, err)
	}
	fontData, err := os.ReadFile(*fontFile)
	if err != nil {
		fatalf("failed to load font from %s: %v", *fontFile, err)
	}
	fallbackData, err := os.ReadFile(*fallbackFile)
	if err != nil {
		fatalf("failed to load fallback font from %s: %v", *fallbackFile, err)
	}

	user, err := render.NewFaceRenderer(fontData)
	if err != nil {
		fatalf("failed to parse font: %v", err)
	}
	fallback, err := render.NewFaceRenderer(fallbackData)
	if err != nil {
		fatalf("failed to parse fallback font: %v", err)
	}
	tofu.Load(fallback)
	defer tofu.Unload()
	ctx, err := tofu.Default()
	if err != nil {
		fatalf("%v", err)
	}

	f, err := firmfont.New(data)
	if err != nil {
		fatalf("failed to detect font tables: %v", err)
	}

	class, ok := render.FitClass(user, 'A')
	if !ok {
		fatalf("font renders no usable glyph at either size")
	}
	size := class.Size()
	exists := func(cp rune) bool {
		return f.ReadPixels(cp, class) != nil
	}

	var ranges []firmfont.Range
	for _, s := range rangeFlags {
		r, err := firmfont.ParseRange(s)
		if err != nil {
			fatalf("%v", err)
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		ranges = []firmfont.Range{{Name: "CJK", Lo: 0x4E00, Hi: 0x9FFF}}
	}

	written, skipped := 0, 0
	for _, r := range ranges {
		for cp := r.Lo; cp <= r.Hi; cp++ {
			skip, err := ctx.Skip(cp, size, user, exists)
			if err != nil {
				fatalf("tofu detection failed at U+%04X: %v", cp, err)
			}
			if skip {
				skipped++
				continue
			}
			grid, err := user.Render(cp, size)
			if err != nil {
				skipped++
				continue
			}
			if err := f.WriteBatch([]firmfont.WriteOp{{Code: cp, Class: class, Grid: grid}}); err != nil {
				if _, isVerify := err.(*firmfont.VerifyError); isVerify {
					fatalf("%v", err)
				}
				skipped++
				continue
			}
			written++
		}
	}

	if err := os.WriteFile(*outFile, f.Bytes(), 0o644); err != nil {
		fatalf("failed to write %s: %v", *outFile, err)
	}
	fmt.Printf("%s class: wrote %d glyphs, skipped %d, output %s\n",
		class, written, skipped, *outFile)
}
