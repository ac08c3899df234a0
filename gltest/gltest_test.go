// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gltest

import (
	"fmt"
	"testing"

	"github.com/go-gl/gl/v4.4-core/gl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitPass, ExitCode(nil))
	assert.Equal(t, ExitSkip, ExitCode(ErrSkip))
	assert.Equal(t, ExitSkip, ExitCode(fmt.Errorf("%w: GL_OUT_OF_MEMORY", ErrSkip)))
	assert.Equal(t, ExitFail, ExitCode(fmt.Errorf("GL error 0x%04x", 0x0502)))
}

func TestClassifyError(t *testing.T) {
	assert.NoError(t, classifyError(gl.NO_ERROR))

	err := classifyError(gl.OUT_OF_MEMORY)
	assert.ErrorIs(t, err, ErrSkip)

	err = classifyError(gl.INVALID_OPERATION)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkip)
}

func TestPageSize(t *testing.T) {
	ps := PageSize()
	assert.Greater(t, ps, 0)
	assert.Zero(t, ps&(ps-1), "page size must be a power of two")
}

func TestCoherentRoundTrip(t *testing.T) {
	t.Skip("Need software GPU on CI")
	w, err := NewWindow(64, 64, "coherent")
	require.NoError(t, err)
	defer w.Destroy()

	buf, err := NewCoherentBuffer(gl.SHADER_STORAGE_BUFFER, 4096, ReadWriteMap)
	require.NoError(t, err)
	defer buf.Release()

	buf.Map(0, ReadWriteMap)
	vals := buf.Uint32s()
	require.Len(t, vals, 1024)
	for i := range vals {
		vals[i] = uint32(i)
	}
	Fence()
	assert.Equal(t, uint32(7), vals[7])
	buf.Bind()
	buf.Unmap()
}
