// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gltest

import (
	"fmt"
	"strings"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/gl/v4.4-core/gl"
)

// Program manages one linked shader program. The context must be
// current for all methods.
type Program struct {
	handle uint32
}

// NewComputeProgram compiles and links a program from a single
// compute shader source.
func NewComputeProgram(src string) (*Program, error) {
	cs, err := compileShader(gl.COMPUTE_SHADER, src)
	if err != nil {
		return nil, err
	}
	return linkProgram(cs)
}

// NewRenderProgram compiles and links a program from vertex and
// fragment shader sources.
func NewRenderProgram(vertSrc, fragSrc string) (*Program, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertSrc)
	if err != nil {
		return nil, err
	}
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragSrc)
	if err != nil {
		gl.DeleteShader(vs)
		return nil, err
	}
	return linkProgram(vs, fs)
}

// compileShader compiles the given source, returning the shader
// handle, with the driver info log in the error on failure.
func compileShader(typ uint32, src string) (uint32, error) {
	handle := gl.CreateShader(typ)

	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(handle, 1, csources, nil)
	free()
	gl.CompileShader(handle)

	var status int32
	gl.GetShaderiv(handle, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(handle, gl.INFO_LOG_LENGTH, &logLength)

		msg := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(handle, logLength, nil, gl.Str(msg))
		gl.DeleteShader(handle)

		return 0, errors.Log(fmt.Errorf("gltest: failed to compile shader:\n%v\nerror: %v", src, msg))
	}
	return handle, nil
}

// linkProgram links the compiled shaders into a program; the shaders
// are detached and deleted regardless of the outcome.
func linkProgram(shaders ...uint32) (*Program, error) {
	handle := gl.CreateProgram()
	for _, sh := range shaders {
		gl.AttachShader(handle, sh)
	}
	gl.LinkProgram(handle)
	for _, sh := range shaders {
		gl.DetachShader(handle, sh)
		gl.DeleteShader(sh)
	}

	var status int32
	gl.GetProgramiv(handle, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(handle, gl.INFO_LOG_LENGTH, &logLength)

		lg := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(handle, logLength, nil, gl.Str(lg))
		gl.DeleteProgram(handle)

		return nil, errors.Log(fmt.Errorf("gltest: failed to link program: %v", lg))
	}
	return &Program{handle: handle}, nil
}

// Handle returns the GL handle for the program.
func (pr *Program) Handle() uint32 {
	return pr.handle
}

// Activate makes this the active program.
func (pr *Program) Activate() {
	gl.UseProgram(pr.handle)
}

// UniformLocation returns the location of the named uniform,
// -1 if it is not active in the program.
func (pr *Program) UniformLocation(name string) int32 {
	return gl.GetUniformLocation(pr.handle, gl.Str(name+"\x00"))
}

// Delete deletes the GPU resources associated with the program.
func (pr *Program) Delete() {
	gl.DeleteProgram(pr.handle)
	pr.handle = 0
}
