// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Fontdump detects the font tables in a firmware image and extracts
// every stored glyph as a monochrome BMP.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/firmfont/firmfont"
)

var (
	firmwareFile = flag.String("firmware", "", "filename of the firmware image")
	outDir       = flag.String("out", "glyphs", "directory to write BMPs into")
	rangeFlags   multiFlag
)

// multiFlag collects repeated -range values.
type multiFlag []string

func (m *multiFlag) String() string { return fmt.Sprint(*m) }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	flag.Var(&rangeFlags, "range", "code point range as Name:0xSSSS:0xEEEE (repeatable)")
	flag.Parse()

	data, err := os.ReadFile(*firmwareFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load firmware from %s: %v\n", *firmwareFile, err)
		os.Exit(1)
	}

	var ranges []firmfont.Range
	for _, s := range rangeFlags {
		r, err := firmfont.ParseRange(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		ranges = append(ranges, r)
	}
	if len(ranges) == 0 {
		ranges = []firmfont.Range{
			{Name: "Basic-Latin", Lo: 0x0020, Hi: 0x007E},
			{Name: "CJK", Lo: 0x4E00, Hi: 0x9FFF},
		}
	}

	f, err := firmfont.New(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to detect font tables: %v\n", err)
		os.Exit(1)
	}
	a := f.Addresses()
	fmt.Printf("small base  %#08x (%d/3 probes valid)\n", a.SmallBase, a.SmallValid)
	fmt.Printf("large base  %#08x (%d/3 probes valid)\n", a.LargeBase, a.LargeValid)
	fmt.Printf("lookup base %#08x, %d MOVW signatures\n", a.LookupTable, a.MovwCount)

	arts := f.ExtractAll(ranges)
	for _, art := range arts {
		path := filepath.Join(*outDir, filepath.FromSlash(art.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	fmt.Printf("extracted %d glyphs to %s\n", len(arts), *outDir)
}
