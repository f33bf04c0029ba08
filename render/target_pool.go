// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// targetKey is the part of a target descriptor that decides reuse.
type targetKey struct {
	width, height uint32
	format        gputypes.TextureFormat
	samples       uint32
}

func keyOf(d *gpucore.RenderTargetDescriptor) targetKey {
	return targetKey{d.Width, d.Height, d.Format, max(d.SampleCount, 1)}
}

// TargetPool keeps physical render targets alive across frames. Graphs
// are rebuilt every frame; their transient targets are acquired from the
// pool and released back to it, so a steady-state frame creates no
// targets.
type TargetPool struct {
	mu        sync.Mutex
	device    gpucore.Device
	free      map[targetKey][]gpucore.RenderTargetID
	owned     map[gpucore.RenderTargetID]targetKey
	created   int
	destroyed bool
}

// NewTargetPool returns an empty pool creating targets on device.
func NewTargetPool(device gpucore.Device) *TargetPool {
	return &TargetPool{
		device: device,
		free:   make(map[targetKey][]gpucore.RenderTargetID),
		owned:  make(map[gpucore.RenderTargetID]targetKey),
	}
}

// Acquire returns a free target matching desc, creating one if needed.
func (p *TargetPool) Acquire(desc *gpucore.RenderTargetDescriptor) (gpucore.RenderTargetID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return gpucore.InvalidID, ErrUseAfterDestroy
	}
	k := keyOf(desc)
	if ids := p.free[k]; len(ids) > 0 {
		id := ids[len(ids)-1]
		p.free[k] = ids[:len(ids)-1]
		return id, nil
	}
	id, err := p.device.CreateRenderTarget(desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("render: create target %q: %w", desc.Label, err)
	}
	p.owned[id] = k
	p.created++
	gscene.Logger().Debug("render: target allocated", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return id, nil
}

// Release returns a target to the pool. Targets the pool did not create
// are ignored.
func (p *TargetPool) Release(id gpucore.RenderTargetID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k, ok := p.owned[id]
	if !ok || p.destroyed {
		return
	}
	p.free[k] = append(p.free[k], id)
}

// Created returns how many targets the pool has created.
func (p *TargetPool) Created() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// Free returns how many targets are waiting for reuse.
func (p *TargetPool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ids := range p.free {
		n += len(ids)
	}
	return n
}

// Destroy destroys every target the pool created, whether free or not.
func (p *TargetPool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	for id := range p.owned {
		p.device.DestroyRenderTarget(id)
	}
	p.owned = nil
	p.free = nil
	p.destroyed = true
}
