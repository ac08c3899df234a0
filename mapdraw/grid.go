// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mapdraw verifies coherent persistent-mapped buffers under
// fixed-function rasterization: a color SSBO, vertex buffer, and
// index buffer are filled through direct pointer writes into their
// persistent mappings, and a tessellated quad is rendered whose
// fragment shader reads its colors from the mapped SSBO, blitting the
// result to the window.
package mapdraw

import "cogentcore.org/core/math32"

// Logical surface the quad is tessellated over, and the grid step.
// The color SSBO holds one vec4 per surface pixel.
const (
	SurfaceWidth  = 256
	SurfaceHeight = 256
	GridStep      = 8
)

// GenerateColors fills dst (4 floats per pixel, row-major) with the
// color ramp the fragment shader is expected to reproduce:
// r = x/w, g = y/h, b = linear index/(w*h), a = 1.
// It returns the number of colors written.
func GenerateColors(dst []float32, width, height int) int {
	index := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dst[index] = float32(x) / float32(width)
			index++
			dst[index] = float32(y) / float32(height)
			index++
			dst[index] = float32(x+y*width) / float32(width*height)
			index++
			dst[index] = 1
			index++
		}
	}
	return index / 4
}

// GenerateGrid fills vertices with an NDC grid of vec3 positions
// covering the surface at the given step, top row first, and indexes
// with a single triangle strip over the grid, stitching rows together
// with degenerate indices. It returns the vertex and index counts.
func GenerateGrid(vertices []float32, indexes []uint32, width, height, step int) (vertexCount, indexCount int) {
	index := 0
	for y := height / 2; y >= -height/2; y -= step {
		for x := -width / 2; x <= width/2; x += step {
			vertices[index] = float32(x) / float32(width/2)
			index++
			vertices[index] = float32(y) / float32(height/2)
			index++
			vertices[index] = 0
			index++
		}
	}
	vertexCount = index / 3

	cols := width / step
	rows := height / step

	index = 0
	for y := 0; y < rows; y++ {
		indexes[index] = uint32(y * (cols + 1))
		index++
		for x := 0; x <= cols; x++ {
			indexes[index] = uint32(y*(cols+1) + x)
			index++
			indexes[index] = uint32((y+1)*(cols+1) + x)
			index++
		}
		indexes[index] = uint32((y+1)*(cols+1) + (cols - 1))
		index++
	}
	return vertexCount, index
}

// ExpectedColor returns the SSBO color the fragment shader samples at
// pixel (x, y): color[x + width*y].
func ExpectedColor(colors []float32, x, y, width int) [4]float32 {
	i := (x + y*width) * 4
	return [4]float32{colors[i], colors[i+1], colors[i+2], colors[i+3]}
}

// ColorsEqual reports whether two colors match within the probe
// tolerance.
func ColorsEqual(a, b [4]float32) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > 0.01 {
			return false
		}
	}
	return true
}
