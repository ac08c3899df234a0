// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fillssbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPageSize = 4096

// newBuffer returns a whole buffer with the A pattern below the
// offset and the B pattern in the mapped range, plus the mapped view,
// mirroring initSSBO + mapAt.
func newBuffer(c Case) (whole, view []uint32) {
	whole = make([]uint32, ValuesCount)
	shift := int(c.Offset / 4)
	for i := range whole[:shift] {
		whole[i] = fillValueA
	}
	view = whole[shift:]
	for i := range view {
		view[i] = fillValueB
	}
	return whole, view
}

// applyCompute mirrors one dispatch of the fill shader over the whole
// buffer, including the start clamp to the mapping offset.
func applyCompute(whole []uint32, c Case, start, end, value uint32) {
	start = max(c.Offset, start)
	for id := uint32(0); id < ValuesCount; id++ {
		if id >= start && id < end && id%c.Stride == 0 {
			whole[id] = value
		}
	}
}

func TestCases(t *testing.T) {
	cases := Cases(testPageSize)
	require.Len(t, cases, 7)

	assert.Equal(t, Case{Stride: 2, Offset: 0}, cases[0])
	for _, c := range cases[1:] {
		assert.Equal(t, uint32(testPageSize), c.Stride)
		assert.Zero(t, c.Offset%4, "offsets must stay value-aligned")
	}

	// The offsets must hit the page boundary exactly and straddle it
	// by one value on each side, for both the first and second page.
	offsets := []uint32{}
	for _, c := range cases[1:] {
		offsets = append(offsets, c.Offset)
	}
	assert.ElementsMatch(t, []uint32{
		testPageSize, testPageSize - 4, testPageSize + 4,
		2 * testPageSize, 2*testPageSize + 4, 2*testPageSize - 4,
	}, offsets)
}

func TestProbeInitialState(t *testing.T) {
	for _, c := range Cases(testPageSize) {
		_, view := newBuffer(c)
		assert.True(t, probeInitialState(view, c))

		view[len(view)/2] = modifiedValue
		assert.False(t, probeInitialState(view, c))
	}
}

func TestProbeStages(t *testing.T) {
	const oneThird = ValuesCount / 3
	const twoThird = 2 * oneThird

	for _, c := range Cases(testPageSize) {
		wholeA, viewA := newBuffer(c)
		wholeB, viewB := newBuffer(c)
		_, viewC := newBuffer(c)

		// Stage 1
		applyCompute(wholeB, c, 0, oneThird, modifiedValue)
		assert.True(t, probeValueInRange(viewB, c, 0, oneThird, modifiedValue))
		assert.True(t, probeInitialState(viewA, c))
		assert.True(t, probeInitialState(viewC, c))

		// Stage 2
		applyCompute(wholeA, c, 0, ValuesCount, modifiedValue)
		applyCompute(wholeB, c, oneThird, twoThird, modifiedValue)
		assert.True(t, probeValueInRange(viewA, c, 0, ValuesCount, modifiedValue))
		assert.True(t, probeValueInRange(viewB, c, 0, twoThird, modifiedValue))
		assert.True(t, probeInitialState(viewC, c))

		// Stage 3
		applyCompute(wholeB, c, oneThird, twoThird, remodifiedValue)
		assert.True(t, probeValueInRange(viewB, c, 0, oneThird, modifiedValue))
		assert.True(t, probeValueInRange(viewB, c, oneThird, twoThird, remodifiedValue))
	}
}

func TestProbeCatchesStrayWrite(t *testing.T) {
	for _, c := range Cases(testPageSize) {
		whole, view := newBuffer(c)
		applyCompute(whole, c, 0, ValuesCount, modifiedValue)

		// Find an off-stride position inside the view and corrupt it,
		// as a write leaking past the stride would.
		shift := int(c.Offset / 4)
		for i := range view {
			if uint32(i+shift)%c.Stride != 0 {
				view[i] = modifiedValue
				break
			}
		}
		assert.False(t, probeValueInRange(view, c, 0, ValuesCount, modifiedValue))
	}
}

func TestProbeCatchesLostWrite(t *testing.T) {
	// A replay that fails to carry a GPU write through the coherent
	// mapping leaves a stride position inside the view at the B
	// pattern; the probe must fail on it, for the offset cases too.
	for _, c := range Cases(testPageSize) {
		whole, view := newBuffer(c)
		applyCompute(whole, c, 0, ValuesCount, modifiedValue)

		lost := false
		for i := range view {
			if view[i] == modifiedValue {
				view[i] = fillValueB
				lost = true
				break
			}
		}
		require.True(t, lost, "stage must write inside the view")
		assert.False(t, probeValueInRange(view, c, 0, ValuesCount, modifiedValue))
	}
}

func TestProbeClampBelowMappedOffset(t *testing.T) {
	// With the mapping just past the page boundary, the stride
	// position on the boundary itself sits below the dispatch clamp:
	// it is never written and must not be required to hold the value.
	c := Case{Stride: testPageSize, Offset: testPageSize + 4}
	whole, view := newBuffer(c)
	applyCompute(whole, c, 0, ValuesCount, modifiedValue)

	shift := int(c.Offset / 4)
	i := testPageSize - shift // whole-buffer element on the boundary
	require.Equal(t, fillValueB, view[i])
	assert.True(t, probeValueInRange(view, c, 0, ValuesCount, modifiedValue))
}
