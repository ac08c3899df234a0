// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gltest is the shared harness for the coherent-mapping
// conformance programs: window and context bring-up, required-feature
// gating, GL error classification, fence synchronization, and the
// exit-code convention reported to the trace harness.
package gltest

import (
	"fmt"
	"os"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/gl/v4.4-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Exit codes reported by the conformance programs.
const (
	ExitPass = 0
	ExitFail = 1

	// ExitSkip is the automake skip convention, reported when the
	// driver lacks a required feature or is out of memory.
	ExitSkip = 77
)

// ErrSkip is the sentinel for conditions that skip the test instead of
// failing it: a missing feature, no window, or GL_OUT_OF_MEMORY.
var ErrSkip = errors.New("skip")

// ExitCode maps the error returned by a test program to its process
// exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitPass
	case errors.Is(err, ErrSkip):
		return ExitSkip
	default:
		return ExitFail
	}
}

// PageSize returns the OS memory page size, which the test cases use
// to place buffer offsets across page boundaries.
func PageSize() int {
	return os.Getpagesize()
}

// Window is the visible window whose context the tests drive.
type Window struct {
	*glfw.Window
}

// NewWindow initializes glfw and creates a visible window with a
// GL 4.3 core forward-compatible context, makes it current, and loads
// the GL functions. A window that cannot be created yields [ErrSkip]:
// headless or feature-limited drivers skip rather than fail.
// Must be called on the main thread.
func NewWindow(width, height int, title string) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Log(err)
	}
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("%w: no window: %v", ErrSkip, err)
	}
	w.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		w.Destroy()
		glfw.Terminate()
		return nil, errors.Log(err)
	}
	return &Window{Window: w}, nil
}

// Destroy destroys the window and terminates glfw.
// Must be called on the main thread.
func (w *Window) Destroy() {
	w.Window.Destroy()
	glfw.Terminate()
}

// RequireExtension returns [ErrSkip] if the current context does not
// support the given extension. The context must be current.
func RequireExtension(extension string) error {
	if glfw.ExtensionSupported(extension) {
		return nil
	}
	fmt.Fprintf(os.Stderr, "error: %s not supported\n", extension)
	return fmt.Errorf("%w: %s not supported", ErrSkip, extension)
}

// CheckError classifies the pending GL error: nil for GL_NO_ERROR,
// [ErrSkip] for GL_OUT_OF_MEMORY (the allocation was simply too big
// for this driver), and a failure error for anything else.
func CheckError() error {
	return classifyError(gl.GetError())
}

func classifyError(code uint32) error {
	switch code {
	case gl.NO_ERROR:
		return nil
	case gl.OUT_OF_MEMORY:
		return fmt.Errorf("%w: GL_OUT_OF_MEMORY", ErrSkip)
	default:
		return fmt.Errorf("GL error 0x%04x", code)
	}
}

// Fence inserts a fence after the submitted GL commands and blocks,
// flushing, until the GPU has executed them. Coherent mapped memory is
// defined to be consistent with GPU writes once the fence has
// signaled, with no explicit barriers.
func Fence() {
	f := gl.FenceSync(gl.SYNC_GPU_COMMANDS_COMPLETE, 0)
	gl.ClientWaitSync(f, gl.SYNC_FLUSH_COMMANDS_BIT, gl.TIMEOUT_IGNORED)
	gl.DeleteSync(f)
}
