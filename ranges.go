// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package firmfont

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/rangetable"
)

// A Range is one contiguous span of code points to iterate during bulk
// extraction or patching, with a human-readable name.
type Range struct {
	Name   string
	Lo, Hi rune
}

// ParseRange parses the "Name:0xSSSS:0xEEEE" form used on command lines.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Range{}, fmt.Errorf("firmfont: bad range %q: want Name:0xSSSS:0xEEEE", s)
	}
	lo, err := strconv.ParseUint(strings.TrimPrefix(parts[1], "0x"), 16, 32)
	if err != nil {
		return Range{}, fmt.Errorf("firmfont: bad range start in %q: %v", s, err)
	}
	hi, err := strconv.ParseUint(strings.TrimPrefix(parts[2], "0x"), 16, 32)
	if err != nil {
		return Range{}, fmt.Errorf("firmfont: bad range end in %q: %v", s, err)
	}
	if parts[0] == "" || lo > hi {
		return Range{}, fmt.Errorf("firmfont: bad range %q", s)
	}
	return Range{Name: parts[0], Lo: rune(lo), Hi: rune(hi)}, nil
}

// Prefix returns the artifact directory prefix for the range,
// "U+SSSS-EEEE_Name".
func (r Range) Prefix() string {
	return fmt.Sprintf("U+%04X-%04X_%s", r.Lo, r.Hi, r.Name)
}

// Table merges the ranges into a single unicode.RangeTable for
// membership tests.
func Table(ranges []Range) *unicode.RangeTable {
	tables := make([]*unicode.RangeTable, 0, len(ranges))
	for _, r := range ranges {
		var t unicode.RangeTable
		if r.Hi <= 0xFFFF {
			t.R16 = []unicode.Range16{{Lo: uint16(r.Lo), Hi: uint16(r.Hi), Stride: 1}}
		} else if r.Lo > 0xFFFF {
			t.R32 = []unicode.Range32{{Lo: uint32(r.Lo), Hi: uint32(r.Hi), Stride: 1}}
		} else {
			t.R16 = []unicode.Range16{{Lo: uint16(r.Lo), Hi: 0xFFFF, Stride: 1}}
			t.R32 = []unicode.Range32{{Lo: 0x10000, Hi: uint32(r.Hi), Stride: 1}}
		}
		tables = append(tables, &t)
	}
	return rangetable.Merge(tables...)
}
