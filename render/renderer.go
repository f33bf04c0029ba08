// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// MainPassName is the name of the pass that executes the main inst list.
const MainPassName = "main"

// Renderer drives frames on a device. It owns the resource cache, the
// transient target pool, the inst manager, the uniform buffer and two
// back targets it alternates between.
//
// Each RenderFrame builds a fresh Graph whose first pass clears the back
// target and draws the main inst list. When a frame fails, nothing it
// recorded is submitted and the previously presented target stays
// visible.
//
// A Renderer is driven from one goroutine; Presented and FrameCount may
// be read from others.
type Renderer struct {
	mu sync.Mutex

	device   gpucore.Device
	opts     options
	cache    *Cache
	pool     *TargetPool
	insts    *InstManager
	uniforms *UniformBuffer

	targets   [2]gpucore.RenderTargetID
	presented int // index into targets, -1 before the first frame
	frames    uint64
	destroyed bool
}

// NewRenderer creates a renderer on device.
func NewRenderer(device gpucore.Device, opts ...Option) (*Renderer, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cache := NewCache(device)
	r := &Renderer{
		device:    device,
		opts:      o,
		cache:     cache,
		pool:      NewTargetPool(device),
		insts:     NewInstManager(),
		uniforms:  NewUniformBuffer(device, cache, o.uniformBytes),
		presented: -1,
	}
	if err := r.createTargets(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) targetDesc(i int) gpucore.RenderTargetDescriptor {
	return gpucore.RenderTargetDescriptor{
		Label:       fmt.Sprintf("back%d", i),
		Width:       r.opts.width,
		Height:      r.opts.height,
		Format:      r.opts.format,
		SampleCount: r.opts.sampleCount,
	}
}

func (r *Renderer) createTargets() error {
	for i := range r.targets {
		desc := r.targetDesc(i)
		id, err := r.device.CreateRenderTarget(&desc)
		if err != nil {
			r.destroyTargets()
			return fmt.Errorf("render: create back target: %w", err)
		}
		r.targets[i] = id
	}
	return nil
}

func (r *Renderer) destroyTargets() {
	for i, id := range r.targets {
		if id != gpucore.InvalidID {
			r.device.DestroyRenderTarget(id)
		}
		r.targets[i] = gpucore.InvalidID
	}
	r.presented = -1
}

// Cache returns the renderer's resource cache.
func (r *Renderer) Cache() *Cache { return r.cache }

// Insts returns the renderer's inst manager.
func (r *Renderer) Insts() *InstManager { return r.insts }

// Uniforms returns the renderer's uniform buffer.
func (r *Renderer) Uniforms() *UniformBuffer { return r.uniforms }

// Pool returns the transient target pool.
func (r *Renderer) Pool() *TargetPool { return r.pool }

// Device returns the device frames are recorded on.
func (r *Renderer) Device() gpucore.Device { return r.device }

// Size returns the size of the back targets.
func (r *Renderer) Size() (width, height uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opts.width, r.opts.height
}

// Presented returns the target shown by the last successful frame, or
// gpucore.InvalidID if no frame has succeeded since creation or Resize.
func (r *Renderer) Presented() gpucore.RenderTargetID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.presented < 0 {
		return gpucore.InvalidID
	}
	return r.targets[r.presented]
}

// FrameCount returns how many frames were started, including failed ones.
func (r *Renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// RenderFrame builds and executes one frame.
//
// build submits insts and may add passes. The frame is aborted if build
// fails, if templates are left pushed, if the graph has a cycle or if any
// device operation fails; in every case the device's pending work is
// discarded and the error is returned. Nothing is written to device
// buffers until the graph has compiled.
func (r *Renderer) RenderFrame(ctx context.Context, build FrameFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return ErrUseAfterDestroy
	}

	index := r.frames
	r.frames++
	backIdx := 0
	if r.presented == 0 {
		backIdx = 1
	}
	desc := r.targetDesc(backIdx)
	graph := NewGraph(r.device, r.pool)
	defer graph.Destroy()

	err := r.renderFrame(ctx, graph, index, backIdx, &desc, build)
	if endErr := r.insts.EndFrame(); err == nil {
		err = endErr
	}
	if err != nil {
		r.device.Discard()
		gscene.Logger().Warn("render: frame aborted", "frame", index, "err", err)
		return err
	}
	r.presented = backIdx
	return nil
}

func (r *Renderer) renderFrame(ctx context.Context, graph *Graph, index uint64, backIdx int, desc *gpucore.RenderTargetDescriptor, build FrameFunc) error {
	back := graph.ImportTarget("back", r.targets[backIdx], *desc)
	r.uniforms.Reset()

	_, err := graph.AddPass(PassDesc{
		Name:       MainPassName,
		Target:     back,
		Clear:      true,
		ClearColor: r.opts.clearColor,
		Exec: func(pc *PassContext) error {
			return r.insts.Execute(pc.Encoder, r.cache, pc.PassTarget())
		},
	})
	if err != nil {
		return err
	}

	f := &FrameContext{
		Index:       index,
		Graph:       graph,
		Insts:       r.insts,
		Uniforms:    r.uniforms,
		Cache:       r.cache,
		Device:      r.device,
		Back:        back,
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      desc.Format,
		SampleCount: max(desc.SampleCount, 1),
		ctx:         ctx,
	}
	if build != nil {
		if err := build(f); err != nil {
			return fmt.Errorf("render: build frame %d: %w", index, err)
		}
	}
	if n := r.insts.Depth(); n > 0 {
		return fmt.Errorf("%w: %d template(s) still pushed after build", ErrUnbalancedTemplateStack, n)
	}
	if _, err := graph.Compile(); err != nil {
		return err
	}
	for _, fn := range f.prepare {
		if err := fn(); err != nil {
			return fmt.Errorf("render: prepare frame %d: %w", index, err)
		}
	}
	if err := r.uniforms.PrepareToRender(); err != nil {
		return err
	}
	if err := graph.Execute(ctx); err != nil {
		return err
	}
	if err := r.device.Submit(); err != nil {
		return fmt.Errorf("render: submit frame %d: %w", index, err)
	}
	if err := r.device.Present(r.targets[backIdx]); err != nil {
		return fmt.Errorf("render: present frame %d: %w", index, err)
	}
	return nil
}

// Resize recreates the back targets at the new size. Nothing is presented
// until the next successful frame.
func (r *Renderer) Resize(width, height uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return ErrUseAfterDestroy
	}
	if width == r.opts.width && height == r.opts.height {
		return nil
	}
	r.destroyTargets()
	r.opts.width, r.opts.height = width, height
	return r.createTargets()
}

// Destroy releases everything the renderer created. The device itself is
// left to the caller.
func (r *Renderer) Destroy() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return ErrUseAfterDestroy
	}
	r.destroyed = true
	r.insts.Destroy()
	r.uniforms.Destroy()
	r.pool.Destroy()
	r.destroyTargets()
	return r.cache.Destroy()
}
