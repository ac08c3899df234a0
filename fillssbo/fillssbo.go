// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fillssbo verifies coherent persistent-mapped shader storage
// buffers under compute-shader writes: three SSBOs are filled from the
// CPU through their mappings, mutated in sub-ranges by dispatched
// compute invocations at varying strides and offsets straddling OS
// page boundaries, and probed byte-for-byte through the same mappings
// after each fence.
package fillssbo

import "fmt"

// ValuesCount is the number of int values in each storage buffer.
const ValuesCount = 45000

// Byte-repeating fill patterns and the values the compute stages
// write. A fills the buffer before the offset mapping, B fills the
// mapped range; the stage values are distinct from both.
const (
	fillValueA      uint32 = 0b01010101010101010101010101010101
	fillValueB      uint32 = 0b11010111110101111101011111010111
	modifiedValue   uint32 = 0b0101010101010101010101010101010
	remodifiedValue uint32 = 0b1100110010001010111010010101010
)

// Case is one stride/offset combination. Stride is in compute
// invocations; Offset is the byte offset of the persistent mapping
// (and the start clamp passed to the shader).
type Case struct {
	Stride uint32
	Offset uint32
}

// Cases returns the stride/offset combinations for the given page
// size. Apart from the dense baseline, offsets sit on, just below,
// and just above the first and second page boundaries, so mappings
// and compute writes straddle pages.
func Cases(pageSize uint32) []Case {
	return []Case{
		{Stride: 2, Offset: 0},
		{Stride: pageSize, Offset: pageSize},
		{Stride: pageSize, Offset: pageSize - 4},
		{Stride: pageSize, Offset: pageSize + 4},
		{Stride: pageSize, Offset: pageSize * 2},
		{Stride: pageSize, Offset: pageSize*2 + 4},
		{Stride: pageSize, Offset: pageSize*2 - 4},
	}
}

// probeInitialState checks that the mapped range (which starts at the
// case offset) still holds the B fill pattern everywhere.
func probeInitialState(data []uint32, c Case) bool {
	for i, v := range data {
		if v != fillValueB {
			fmt.Printf("Probe mismatch in probeInitialState data[%d]: %d\n", i, v)
			return false
		}
	}
	return true
}

// probeValueInRange checks the mapped range after a compute stage:
// positions off the stride must still hold the B pattern, and stride
// positions within [start, end) must hold value. start and end are
// whole-buffer indices; element i of the view is whole-buffer element
// i + Offset/4. The dispatch clamps its start bound to the mapping
// offset, so only stride positions at or past that clamp are required
// to carry the value.
func probeValueInRange(data []uint32, c Case, start, end, value uint32) bool {
	shift := c.Offset / 4
	for i, v := range data {
		if (uint32(i)+shift)%c.Stride != 0 && v != fillValueB {
			fmt.Printf("Probe mismatch in probeValueInRange data[%d]: %d\n", i, v)
			return false
		}
	}
	written := max(c.Offset, start)
	lo := int(start) - int(shift)
	if lo < 0 {
		lo = 0
	}
	hi := int(end) - int(shift)
	for i := lo; i < hi; i++ {
		si := uint32(i) + shift
		if si%c.Stride == 0 && si >= written && data[i] != value {
			fmt.Printf("Probe mismatch in probeValueInRange data[%d]: %d\n", i, data[i])
			return false
		}
	}
	return true
}
