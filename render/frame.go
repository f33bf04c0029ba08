// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
)

// FrameContext is what a frame builder sees during RenderFrame. Insts
// submitted to Insts are drawn by the main pass into Back; further passes
// can be added to Graph.
type FrameContext struct {
	// Index counts frames from zero, including failed ones.
	Index uint64

	Graph    *Graph
	Insts    *InstManager
	Uniforms *UniformBuffer
	Cache    *Cache
	Device   gpucore.Device

	// Back is the graph resource of the target being drawn.
	Back ResourceID

	Width, Height uint32
	Format        gputypes.TextureFormat
	SampleCount   uint32

	ctx     context.Context
	prepare []func() error
}

// OnPrepare registers fn to run once the frame's graph has compiled and
// before the frame's uniforms are uploaded. Builders defer device uploads
// to it so that a frame aborted during build or compile leaves device
// buffers untouched. Callbacks run in registration order; the first error
// aborts the frame.
func (f *FrameContext) OnPrepare(fn func() error) {
	f.prepare = append(f.prepare, fn)
}

// Context returns the context RenderFrame was called with.
func (f *FrameContext) Context() context.Context { return f.ctx }

// PassTarget returns the description of the back target.
func (f *FrameContext) PassTarget() PassTarget {
	return PassTarget{Format: f.Format, SampleCount: f.SampleCount}
}

// FrameFunc populates one frame.
type FrameFunc func(f *FrameContext) error
