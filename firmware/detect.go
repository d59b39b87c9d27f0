// Copyright 2024 The Firmfont Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package firmware

import (
	"sort"
)

// The small-font table base is stored split across two configuration
// words; the large-font table has no stored base at all and is found by
// scoring candidate windows for long runs of 33-byte records whose final
// byte is one of the footer values observed in shipped tables.
const (
	// LookupTableBase is the fixed start of the per-character lookup
	// table: one byte covers eight consecutive code points.
	LookupTableBase = 0x080000

	smallBaseLoOff = 0x78
	smallBaseHiOff = 0x7A

	// part_2_firmware_b partition descriptor: {offset, size}.
	partOffsetOff = 0x80
	partSizeOff   = 0x84

	// LargeRecordLen is the stride of one large-font record; the byte at
	// +32 is the record footer.
	LargeRecordLen = 33

	// WindowRecords is the empirical record count of a full large-font
	// table, used to size the initial search window. Derived from
	// observed firmware; it is a heuristic, not a format guarantee.
	WindowRecords = 20902

	// maxAnomalies is how many consecutive unrecognised footer bytes a
	// run tolerates before it is closed.
	maxAnomalies = 5

	// strideFloor ends the zoom: once the window step is this small the
	// best candidate is final.
	strideFloor = 100

	// topWindows is how many candidate windows survive each round.
	topWindows = 5
)

// FooterBytes are the record footer values observed in shipped
// large-font tables. Empirical, like WindowRecords.
var FooterBytes = []byte{0x90, 0x8F, 0x89, 0x8B, 0x8D, 0x8E, 0x8C}

var isFooter [256]bool

func init() {
	for _, b := range FooterBytes {
		isFooter[b] = true
	}
}

// A DetectionError reports that no large-font table candidate scored.
type DetectionError string

func (e DetectionError) Error() string {
	return "firmfont: address detection failed: " + string(e)
}

// Addresses holds the detected table offsets plus an advisory confidence
// triple. Detection succeeding is not a correctness proof; callers
// should gate destructive writes on the confidence counts.
type Addresses struct {
	SmallBase   int64
	LargeBase   int64
	LookupTable int64

	// SmallValid and LargeValid count, out of three probe code points
	// per class, how many map to a non-uniform chunk. MovwCount is the
	// number of MOVW instruction encodings found in the image, a
	// corroborating signal that this is the expected device family.
	SmallValid int
	LargeValid int
	MovwCount  int
}

// A window is one scored candidate region: the length of its longest
// footer run and the address of that run's first record.
type window struct {
	score int
	first int64
}

type region struct {
	start, end int64
}

// scoreWindow walks candidate record starts through [start, end) at
// LargeRecordLen steps and returns the longest run of records whose
// footer byte is recognised. A 0x00 or 0xFF footer is table filler and
// closes the run; up to maxAnomalies consecutive unrecognised values are
// absorbed into the run; one more closes it. alignment, when
// non-negative, pins record starts to that residue mod LargeRecordLen.
func scoreWindow(data []byte, start, end, alignment int64) window {
	addr := start
	if alignment >= 0 {
		if rem := addr % LargeRecordLen; rem != alignment {
			addr += (alignment - rem + LargeRecordLen) % LargeRecordLen
		}
	}

	best := window{first: -1}
	runLen, anomalies := 0, 0
	runFirst := int64(-1)
	closeRun := func() {
		if runLen > best.score {
			best = window{score: runLen, first: runFirst}
		}
		runLen, anomalies, runFirst = 0, 0, -1
	}

	for ; addr+LargeRecordLen <= end; addr += LargeRecordLen {
		b := data[addr+LargeRecordLen-1]
		switch {
		case b == 0x00 || b == 0xFF:
			closeRun()
		case isFooter[b]:
			if runLen == 0 {
				runFirst = addr
				runLen = 1
			} else {
				// A footer match confirms that the tolerated anomalies
				// were records after all.
				runLen += anomalies + 1
			}
			anomalies = 0
		default:
			anomalies++
			if anomalies > maxAnomalies {
				closeRun()
			}
		}
	}
	closeRun()
	return best
}

// detectLarge runs the iterative window zoom over the partition at
// [partStart, partEnd) and returns the best run start.
func detectLarge(data []byte, partStart, partEnd int64) (int64, error) {
	const fullWindow = int64(WindowRecords * LargeRecordLen)
	stride := fullWindow / 2
	alignment := int64(-1)
	overall := window{first: -1}

	regions := []region{{partStart, partEnd}}
	for {
		var wins []window
		for _, reg := range regions {
			size := fullWindow
			if reg.end-reg.start < size {
				size = reg.end - reg.start
			}
			if size < LargeRecordLen {
				continue
			}
			for w := reg.start; w+size <= reg.end; w += stride {
				if sc := scoreWindow(data, w, w+size, alignment); sc.score > 0 {
					wins = append(wins, sc)
				}
			}
		}
		if len(wins) == 0 {
			break
		}
		sort.Slice(wins, func(i, j int) bool { return wins[i].score > wins[j].score })
		if len(wins) > topWindows {
			wins = wins[:topWindows]
		}
		if alignment < 0 {
			alignment = wins[0].first % LargeRecordLen
		}
		for _, w := range wins {
			if w.score > overall.score {
				overall = w
			}
		}
		if stride <= strideFloor {
			break
		}

		// Zoom: re-centre a region on each surviving run start, extending
		// one stride's worth of records (plus one) on each side.
		span := ((stride+LargeRecordLen-1)/LargeRecordLen + 1) * LargeRecordLen
		regions = regions[:0]
		for _, w := range wins {
			r := region{w.first - span, w.first + span}
			if r.start < partStart {
				r.start = partStart
			}
			if r.end > partEnd {
				r.end = partEnd
			}
			regions = append(regions, r)
		}
		stride /= 2
	}

	if overall.first < 0 {
		return 0, DetectionError("no large-font record run found")
	}
	return overall.first, nil
}

// Detect locates the firmware's font tables.
//
// The small-font base is read from the configuration words at 0x78/0x7A.
// The large-font base is searched for inside the part_2_firmware_b
// partition with the window spacing score method. The lookup table start
// is fixed. Detect returns a DetectionError when no large-font candidate
// ever scores; the confidence counts are advisory and never fail the
// call.
func Detect(img *Image) (*Addresses, error) {
	lo, ok := img.U16(smallBaseLoOff)
	if !ok {
		return nil, FormatError("image too short for configuration words")
	}
	hi, ok := img.U16(smallBaseHiOff)
	if !ok {
		return nil, FormatError("image too short for configuration words")
	}
	smallBase := int64(hi)<<16 | int64(lo)

	partOff, ok1 := img.U32(partOffsetOff)
	partSize, ok2 := img.U32(partSizeOff)
	if !ok1 || !ok2 {
		return nil, FormatError("image too short for partition table")
	}
	partStart := int64(partOff)
	partEnd := partStart + int64(partSize)
	if partStart < 0 || partStart >= int64(img.Len()) {
		return nil, FormatError("part_2_firmware_b offset outside image")
	}
	if partEnd > int64(img.Len()) {
		partEnd = int64(img.Len())
	}

	largeBase, err := detectLarge(img.Bytes(), partStart, partEnd)
	if err != nil {
		return nil, err
	}

	a := &Addresses{
		SmallBase:   smallBase,
		LargeBase:   largeBase,
		LookupTable: LookupTableBase,
	}
	a.SmallValid = countValidProbes(img, smallBase, 32, []rune{0x41, 0x42, 0x43}, 0)
	a.LargeValid = countValidProbes(img, largeBase, LargeRecordLen, []rune{0x4E00, 0x4E01, 0x4E02}, 0x4E00)
	a.MovwCount = countMovw(img.Bytes())
	return a, nil
}

// countValidProbes reads one chunk per probe code point and counts the
// chunks that are not a uniform byte fill.
func countValidProbes(img *Image, base int64, stride int, probes []rune, first rune) int {
	n := 0
	for _, cp := range probes {
		addr := base + int64(cp-first)*int64(stride)
		chunk := img.Slice(int(addr), stride)
		if len(chunk) != stride {
			continue
		}
		uniform := true
		for _, b := range chunk[1:] {
			if b != chunk[0] {
				uniform = false
				break
			}
		}
		if !uniform {
			n++
		}
	}
	return n
}

// countMovw counts occurrences of the device's MOVW instruction
// signature F2 40 ?? ?? ?? 42 anywhere in the image.
func countMovw(data []byte) int {
	n := 0
	for i := 0; i+6 <= len(data); i++ {
		if data[i] == 0xF2 && data[i+1] == 0x40 && data[i+5] == 0x42 {
			n++
		}
	}
	return n
}
