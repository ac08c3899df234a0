// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mapdraw

import (
	"fmt"

	"github.com/go-gl/gl/v4.4-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/glconform/coherent/gltest"
)

// windowSize is the blit destination size on the default framebuffer.
const windowSize = 1024

// ssboBinding is the fragment shader's color SSBO binding point.
const ssboBinding = 1

const vertexShader = `#version 430 core
#extension GL_ARB_uniform_buffer_object : require

layout (location = 0) in vec3 pos;

void main()
{
	gl_Position = vec4(pos, 1);
}
`

const fragmentShader = `#version 430 core
#extension GL_ARB_uniform_buffer_object : require

layout(pixel_center_integer) in vec4 gl_FragCoord;

layout(std430, binding = 1) buffer ssbo { vec4 color[65536]; };

out vec4 fragColor;

void main()
{
	fragColor = color[int(gl_FragCoord.x + 256 * gl_FragCoord.y)];
}
`

// buffers holds the three coherent persistent-mapped buffers and the
// render targets for the draw loop.
type buffers struct {
	ssbo *gltest.CoherentBuffer
	vbo  *gltest.CoherentBuffer
	ibo  *gltest.CoherentBuffer
	vao  uint32
	fbo  uint32
	rbo  uint32
}

// setupBuffers allocates the color SSBO, vertex buffer, and index
// buffer with coherent persistent storage, leaves all three
// persistently mapped for writing, and builds the FBO the quad
// renders into. All three buffers share the surface byte size, which
// leaves ample slack for the vertex and index data.
func setupBuffers(width, height int) (*buffers, error) {
	for _, ext := range []string{
		"GL_ARB_uniform_buffer_object",
		"GL_ARB_buffer_storage",
		"GL_ARB_map_buffer_range",
	} {
		if err := gltest.RequireExtension(ext); err != nil {
			return nil, err
		}
	}

	size := width * height * 4 * 4
	bs := &buffers{}

	ssbo, err := gltest.NewCoherentBuffer(gl.SHADER_STORAGE_BUFFER, size,
		gltest.WriteMap|gl.DYNAMIC_STORAGE_BIT)
	if err != nil {
		return nil, err
	}
	bs.ssbo = ssbo
	ssbo.BindBase(ssboBinding)
	ssbo.Map(0, gltest.WriteMap)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, 0)
	if err := gltest.CheckError(); err != nil {
		return nil, err
	}

	gl.GenFramebuffers(1, &bs.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, bs.fbo)

	gl.GenRenderbuffers(1, &bs.rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, bs.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA, int32(width), int32(height))
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, bs.rbo)

	gl.GenVertexArrays(1, &bs.vao)
	gl.BindVertexArray(bs.vao)

	vbo, err := gltest.NewCoherentBuffer(gl.ARRAY_BUFFER, size,
		gltest.WriteMap|gl.DYNAMIC_STORAGE_BIT)
	if err != nil {
		return nil, err
	}
	bs.vbo = vbo
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	vbo.Map(0, gltest.WriteMap)

	ibo, err := gltest.NewCoherentBuffer(gl.ELEMENT_ARRAY_BUFFER, size,
		gltest.WriteMap|gl.DYNAMIC_STORAGE_BIT)
	if err != nil {
		return nil, err
	}
	bs.ibo = ibo
	ibo.Map(0, gltest.WriteMap)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	if gl.CheckFramebufferStatus(gl.FRAMEBUFFER) != gl.FRAMEBUFFER_COMPLETE {
		return nil, fmt.Errorf("%w: framebuffer incomplete", gltest.ErrSkip)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	return bs, gltest.CheckError()
}

// drawLoop renders the strip into the FBO, fencing before each draw
// so the CPU writes through the coherent mappings are resolved, and
// blits to the default framebuffer until the window is closed.
func drawLoop(w *gltest.Window, prog *gltest.Program, bs *buffers, indexCount, width, height int) {
	prog.Activate()

	for !w.ShouldClose() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, bs.fbo)
		gl.Viewport(0, 0, int32(width), int32(height))

		gl.ClearColor(1, 0, 0, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		gltest.Fence()

		gl.BindVertexArray(bs.vao)
		bs.ibo.Bind()
		gl.DrawElements(gl.TRIANGLE_STRIP, int32(indexCount), gl.UNSIGNED_INT, gl.PtrOffset(0))
		gl.BindVertexArray(0)

		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, bs.fbo)
		gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
		gl.BlitFramebuffer(0, 0, int32(width), int32(height),
			0, 0, windowSize, windowSize, gl.COLOR_BUFFER_BIT, gl.NEAREST)
		w.SwapBuffers()
		glfw.PollEvents()
	}
}

// Run sets up the coherent buffers, fills them through their
// persistent mappings, and renders until the window is closed.
// Pixel verification is visual only: [ExpectedColor] defines what the
// blit should show, but the loop does not read pixels back.
func Run(w *gltest.Window) error {
	prog, err := gltest.NewRenderProgram(vertexShader, fragmentShader)
	if err != nil {
		return err
	}
	defer prog.Delete()

	bs, err := setupBuffers(SurfaceWidth, SurfaceHeight)
	if err != nil {
		return err
	}
	defer func() {
		bs.ssbo.Release()
		bs.vbo.Release()
		bs.ibo.Release()
	}()

	vertexCount, indexCount := GenerateGrid(bs.vbo.Float32s(), bs.ibo.Uint32s(),
		SurfaceWidth, SurfaceHeight, GridStep)
	fmt.Printf("Vertexes count %d \n", vertexCount)
	fmt.Printf("Indexes count %d \n", indexCount)

	colorCount := GenerateColors(bs.ssbo.Float32s(), SurfaceWidth, SurfaceHeight)
	fmt.Printf("Colors count %d \n", colorCount)

	drawLoop(w, prog, bs, indexCount, SurfaceWidth, SurfaceHeight)
	return nil
}
