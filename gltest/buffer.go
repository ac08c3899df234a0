// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gltest

import (
	"unsafe"

	"github.com/go-gl/gl/v4.4-core/gl"
)

// Access masks for coherent persistent mappings. The storage flags
// passed to [NewCoherentBuffer] must include the same bits.
const (
	// ReadWriteMap maps for CPU reads and writes.
	ReadWriteMap = gl.MAP_READ_BIT | gl.MAP_WRITE_BIT | gl.MAP_PERSISTENT_BIT | gl.MAP_COHERENT_BIT

	// WriteMap maps for CPU writes only.
	WriteMap = gl.MAP_WRITE_BIT | gl.MAP_PERSISTENT_BIT | gl.MAP_COHERENT_BIT
)

// CoherentBuffer is a buffer object with immutable coherent persistent
// storage. The mapped pointer stays valid across GPU use of the
// buffer; CPU and GPU writes become visible to the other side after a
// [Fence], with no explicit flushes or barriers. The context must be
// current for all methods.
type CoherentBuffer struct {
	handle uint32
	target uint32
	size   int
	ptr    unsafe.Pointer
	mapLen int
}

// NewCoherentBuffer generates a buffer of size bytes bound on target
// and allocates immutable storage for it with the given flags
// (one of the access masks above, plus any storage-only bits such as
// DYNAMIC_STORAGE_BIT). The buffer is left bound. Returns [ErrSkip]
// via [CheckError] if the driver is out of memory.
func NewCoherentBuffer(target uint32, size int, storageFlags uint32) (*CoherentBuffer, error) {
	cb := &CoherentBuffer{target: target, size: size}
	gl.GenBuffers(1, &cb.handle)
	gl.BindBuffer(target, cb.handle)
	gl.BufferStorage(target, size, nil, storageFlags)
	if err := CheckError(); err != nil {
		return nil, err
	}
	return cb, nil
}

// Handle returns the GL buffer object name.
func (cb *CoherentBuffer) Handle() uint32 { return cb.handle }

// Size returns the storage size in bytes.
func (cb *CoherentBuffer) Size() int { return cb.size }

// Bind binds the buffer on its target.
func (cb *CoherentBuffer) Bind() {
	gl.BindBuffer(cb.target, cb.handle)
}

// BindBase binds the buffer to the indexed binding point on its
// target (and to the generic target binding).
func (cb *CoherentBuffer) BindBase(index uint32) {
	gl.BindBufferBase(cb.target, index, cb.handle)
}

// Map maps the range from offset through the end of the buffer with
// the given access mask, returning the mapped pointer. The buffer
// must be bound on its target.
func (cb *CoherentBuffer) Map(offset int, access uint32) unsafe.Pointer {
	return cb.MapRange(offset, cb.size-offset, access)
}

// MapRange maps length bytes starting at offset with the given access
// mask. The buffer must be bound on its target.
func (cb *CoherentBuffer) MapRange(offset, length int, access uint32) unsafe.Pointer {
	cb.ptr = gl.MapBufferRange(cb.target, offset, length, access)
	cb.mapLen = length
	return cb.ptr
}

// Unmap releases the current mapping. The buffer must be bound on its
// target.
func (cb *CoherentBuffer) Unmap() {
	gl.UnmapBuffer(cb.target)
	cb.ptr = nil
	cb.mapLen = 0
}

// Int32s returns the mapped range viewed as int32 values.
func (cb *CoherentBuffer) Int32s() []int32 {
	return unsafe.Slice((*int32)(cb.ptr), cb.mapLen/4)
}

// Uint32s returns the mapped range viewed as uint32 values.
func (cb *CoherentBuffer) Uint32s() []uint32 {
	return unsafe.Slice((*uint32)(cb.ptr), cb.mapLen/4)
}

// Float32s returns the mapped range viewed as float32 values.
func (cb *CoherentBuffer) Float32s() []float32 {
	return unsafe.Slice((*float32)(cb.ptr), cb.mapLen/4)
}

// Release deletes the buffer object. Any mapping is implicitly
// released by the driver.
func (cb *CoherentBuffer) Release() {
	if cb.handle == 0 {
		return
	}
	gl.DeleteBuffers(1, &cb.handle)
	cb.handle = 0
	cb.ptr = nil
	cb.mapLen = 0
}
