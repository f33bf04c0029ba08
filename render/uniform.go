// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// uniformAlignWords is the allocation granularity in float32 words. It
// matches the common 256-byte minimum uniform offset alignment.
const uniformAlignWords = 64

// UniformBuffer is a growable per-frame uniform staging buffer.
//
// Allocations are made against a CPU shadow copy; PrepareToRender uploads
// the range written this frame. When a frame needs more room than the
// device buffer has, the buffer is reallocated at the next
// PrepareToRender, the cache drops bindings that referenced the old
// buffer, and the old buffer is destroyed. Insts bind the UniformBuffer
// itself as a BufferSource, so they pick up the new buffer.
type UniformBuffer struct {
	device gpucore.Device
	cache  *Cache
	label  string

	buf      gpucore.BufferID
	capacity uint64 // bytes of the device buffer

	shadow  []float32
	used    int // words allocated this frame
	dirtyLo int
	dirtyHi int

	destroyed bool
}

var _ BufferSource = (*UniformBuffer)(nil)

// NewUniformBuffer returns an empty buffer. initialBytes sizes the first
// device allocation.
func NewUniformBuffer(device gpucore.Device, cache *Cache, initialBytes uint64) *UniformBuffer {
	words := int(initialBytes / 4)
	return &UniformBuffer{
		device:  device,
		cache:   cache,
		label:   "uniforms",
		shadow:  make([]float32, max(words, uniformAlignWords)),
		dirtyLo: math.MaxInt,
	}
}

// Allocate reserves words float32 slots and returns the word offset of the
// allocation. Offsets are aligned to 256 bytes.
func (u *UniformBuffer) Allocate(words int) int {
	offset := u.used
	u.used += (words + uniformAlignWords - 1) / uniformAlignWords * uniformAlignWords
	if u.used > len(u.shadow) {
		n := len(u.shadow)
		for n < u.used {
			n *= 2
		}
		grown := make([]float32, n)
		copy(grown, u.shadow)
		u.shadow = grown
	}
	return offset
}

// Write copies data into the shadow copy at word offset.
func (u *UniformBuffer) Write(offset int, data []float32) {
	copy(u.shadow[offset:], data)
	u.dirtyLo = min(u.dirtyLo, offset)
	u.dirtyHi = max(u.dirtyHi, offset+len(data))
}

// Binding returns a uniform binding for an allocation.
//
//nolint:gosec // G115: offsets are non-negative word counts
func (u *UniformBuffer) Binding(binding uint32, offset, words int) UniformBinding {
	return UniformBinding{
		Binding: binding,
		Buffer:  u,
		Offset:  uint64(offset) * 4,
		Size:    uint64(words) * 4,
	}
}

// Buffer implements BufferSource.
func (u *UniformBuffer) Buffer() gpucore.BufferID { return u.buf }

// Used returns the number of words allocated this frame.
func (u *UniformBuffer) Used() int { return u.used }

// PrepareToRender makes the device buffer large enough for this frame's
// allocations and uploads the written range.
func (u *UniformBuffer) PrepareToRender() error {
	if u.destroyed {
		return ErrUseAfterDestroy
	}
	need := uint64(len(u.shadow)) * 4
	if u.buf == gpucore.InvalidID || need > u.capacity {
		if err := u.grow(need); err != nil {
			return err
		}
	}
	if u.dirtyHi <= u.dirtyLo {
		return nil
	}
	lo, hi := u.dirtyLo, u.dirtyHi
	data := make([]byte, (hi-lo)*4)
	for i, f := range u.shadow[lo:hi] {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(f))
	}
	//nolint:gosec // G115: lo is a non-negative word offset
	if err := u.device.WriteBuffer(u.buf, uint64(lo)*4, data); err != nil {
		return fmt.Errorf("render: upload uniforms: %w", err)
	}
	u.dirtyLo, u.dirtyHi = math.MaxInt, 0
	return nil
}

func (u *UniformBuffer) grow(size uint64) error {
	buf, err := u.device.CreateBuffer(&gpucore.BufferDescriptor{
		Label: u.label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: allocate uniform buffer: %w", err)
	}
	if old := u.buf; old != gpucore.InvalidID {
		if u.cache != nil {
			u.cache.InvalidateBindings(old)
		}
		u.device.DestroyBuffer(old)
	}
	gscene.Logger().Debug("render: uniform buffer grown", "from", u.capacity, "to", size)
	u.buf = buf
	u.capacity = size
	// The new buffer starts empty: upload everything allocated so far.
	u.dirtyLo = 0
	u.dirtyHi = max(u.dirtyHi, u.used)
	return nil
}

// Reset starts a new frame. The shadow copy and device buffer are kept.
func (u *UniformBuffer) Reset() {
	u.used = 0
	u.dirtyLo, u.dirtyHi = math.MaxInt, 0
}

// Destroy releases the device buffer.
func (u *UniformBuffer) Destroy() {
	if u.destroyed {
		return
	}
	if u.buf != gpucore.InvalidID {
		if u.cache != nil {
			u.cache.InvalidateBindings(u.buf)
		}
		u.device.DestroyBuffer(u.buf)
	}
	u.buf = gpucore.InvalidID
	u.destroyed = true
}
