// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fillssbo

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/gl/v4.4-core/gl"

	"github.com/glconform/coherent/gltest"
)

// computeShader writes value into data[id] for invocations on the
// stride within [start_bound, end_bound). 45 work groups cover the
// 45000 buffer values.
const computeShader = `#version 430 core
#extension GL_ARB_uniform_buffer_object : require
layout(local_size_x = 1000) in;

uniform uint stride;
uniform uint start_bound;
uniform uint end_bound;
uniform int value;

layout(std430, binding=0) buffer Fragments { int data[]; };

void main()
{
	if (gl_GlobalInvocationID.x >= start_bound && gl_GlobalInvocationID.x < end_bound)
	{
		if (mod(gl_GlobalInvocationID.x, stride) == 0)
			data[gl_GlobalInvocationID.x] = value;
	}
}
`

// coherentData is one storage buffer together with its persistent
// mapped view starting at the case offset.
type coherentData struct {
	buf  *gltest.CoherentBuffer
	data []uint32
}

// initSSBO creates a coherent storage buffer and fills all of it with
// the A pattern through a temporary whole-buffer mapping.
func initSSBO() (*coherentData, error) {
	buf, err := gltest.NewCoherentBuffer(gl.SHADER_STORAGE_BUFFER, ValuesCount*4, gltest.ReadWriteMap)
	if err != nil {
		return nil, err
	}
	buf.BindBase(0)
	buf.Map(0, gltest.ReadWriteMap)
	vals := buf.Uint32s()
	for i := range vals {
		vals[i] = fillValueA
	}
	buf.Unmap()
	if err := gltest.CheckError(); err != nil {
		buf.Release()
		return nil, err
	}
	return &coherentData{buf: buf}, nil
}

// mapAt establishes the persistent mapping at the case offset and
// fills the mapped range with the B pattern.
func (cd *coherentData) mapAt(offset uint32) {
	cd.buf.BindBase(0)
	cd.buf.Map(int(offset), gltest.ReadWriteMap)
	cd.data = cd.buf.Uint32s()
	for i := range cd.data {
		cd.data[i] = fillValueB
	}
}

// computeExec dispatches one mutation pass over the buffer. The start
// bound is clamped to the mapping offset so the shader never writes
// below the mapped range.
func computeExec(prog *gltest.Program, cd *coherentData, c Case, start, end, value uint32) {
	cd.buf.BindBase(0)

	gl.Uniform1ui(prog.UniformLocation("stride"), c.Stride)
	gl.Uniform1ui(prog.UniformLocation("start_bound"), max(c.Offset, start))
	gl.Uniform1ui(prog.UniformLocation("end_bound"), end)
	gl.Uniform1i(prog.UniformLocation("value"), int32(value))

	gl.DispatchCompute(45, 1, 1)
}

// probeOffsetPrefix remaps [0, offset) and verifies the prefix below
// the mapped offset kept the initial A pattern: neither the offset
// mapping nor the clamped compute writes may touch it.
func (cd *coherentData) probeOffsetPrefix(c Case) bool {
	if c.Offset == 0 {
		return true
	}
	cd.buf.BindBase(0)
	cd.buf.Unmap()
	cd.buf.MapRange(0, int(c.Offset), gltest.ReadWriteMap)
	for i, v := range cd.buf.Uint32s() {
		if v != fillValueA {
			fmt.Printf("Probe mismatch in probeOffsetPrefix data[%d]: %d\n", i, v)
			return false
		}
	}
	return true
}

// runCase runs the three-stage mutation script for one stride/offset
// case over three buffers:
//
//	 buff_a    buff_b    buff_c
//	+------+  +------+  +------+
//	|AAAAAA|  |AAAAAA|  |AAAAAA|    offset prefix: A pattern
//	|BBBBBB|  |BBBBBB|  |BBBBBB|    mapped range: B pattern
//	+------+  +------+  +------+
//
// Stage 1 writes the first third of b; stage 2 all of a and the middle
// third of b; stage 3 rewrites a, re-modifies b's middle third, and
// writes c's middle third. Probes run after each fence, and the
// offset prefixes are verified at the end.
func runCase(prog *gltest.Program, c Case) (bool, error) {
	const oneThird = ValuesCount / 3
	const twoThird = 2 * oneThird
	pass := true

	var bufs [3]*coherentData
	for i := range bufs {
		cd, err := initSSBO()
		if err != nil {
			return false, err
		}
		defer cd.buf.Release()
		cd.mapAt(c.Offset)
		bufs[i] = cd
	}
	buffA, buffB, buffC := bufs[0], bufs[1], bufs[2]

	pass = probeInitialState(buffA.data, c) && pass
	pass = probeInitialState(buffB.data, c) && pass
	pass = probeInitialState(buffC.data, c) && pass

	prog.Activate()

	// Stage 1
	computeExec(prog, buffB, c, 0, oneThird, modifiedValue)
	gltest.Fence()

	pass = probeValueInRange(buffB.data, c, 0, oneThird, modifiedValue) && pass
	pass = probeInitialState(buffA.data, c) && pass
	pass = probeInitialState(buffC.data, c) && pass

	// Stage 2
	computeExec(prog, buffA, c, 0, ValuesCount, modifiedValue)
	computeExec(prog, buffB, c, oneThird, twoThird, modifiedValue)
	gltest.Fence()

	pass = probeValueInRange(buffA.data, c, 0, ValuesCount, modifiedValue) && pass
	pass = probeValueInRange(buffB.data, c, 0, twoThird, modifiedValue) && pass
	pass = probeInitialState(buffC.data, c) && pass

	// Stage 3
	computeExec(prog, buffA, c, 0, ValuesCount, modifiedValue)
	computeExec(prog, buffB, c, oneThird, twoThird, remodifiedValue)
	computeExec(prog, buffC, c, oneThird, twoThird, modifiedValue)
	gltest.Fence()

	pass = probeValueInRange(buffA.data, c, 0, ValuesCount, modifiedValue) && pass
	pass = probeValueInRange(buffB.data, c, 0, oneThird, modifiedValue) && pass
	pass = probeValueInRange(buffB.data, c, oneThird, twoThird, remodifiedValue) && pass
	pass = probeValueInRange(buffC.data, c, oneThird, twoThird, modifiedValue) && pass

	// Values below the mapped bounds must not have been modified.
	pass = buffA.probeOffsetPrefix(c) && pass
	pass = buffB.probeOffsetPrefix(c) && pass
	pass = buffC.probeOffsetPrefix(c) && pass

	return pass, nil
}

// Run executes the full coherent SSBO fill sequence on the current GL
// context, one pass per stride/offset case. It returns nil when all
// cases pass, [gltest.ErrSkip] when a required feature or allocation
// is unavailable, and a failure error otherwise.
func Run() error {
	for _, ext := range []string{
		"GL_ARB_uniform_buffer_object",
		"GL_ARB_buffer_storage",
		"GL_ARB_map_buffer_range",
	} {
		if err := gltest.RequireExtension(ext); err != nil {
			return err
		}
	}

	prog, err := gltest.NewComputeProgram(computeShader)
	if err != nil {
		return err
	}
	defer prog.Delete()

	pass := true
	for _, c := range Cases(uint32(gltest.PageSize())) {
		ok, err := runCase(prog, c)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("Test failed  with offset: %d stride: %d \n", c.Offset, c.Stride)
			pass = false
		}
	}
	if !pass {
		return errors.New("coherent SSBO fill verification failed")
	}
	return nil
}
