package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gscene/gpucore"
)

// passEncoder translates gpucore IDs to HAL objects while recording a
// pass. Unknown IDs are remembered as the pass error and the command is
// dropped.
type passEncoder struct {
	dev   *Device
	raw   hal.RenderPassEncoder
	err   error
	ended bool
}

func (e *passEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// usable reports whether the pass still accepts commands.
func (e *passEncoder) usable() bool {
	if e.ended {
		e.fail(gpucore.ErrPassEnded)
		return false
	}
	return true
}

func (e *passEncoder) SetPipeline(id gpucore.PipelineID) {
	if !e.usable() {
		return
	}
	e.dev.mu.Lock()
	p, ok := e.dev.pipelines[id]
	e.dev.mu.Unlock()
	if !ok {
		e.fail(fmt.Errorf("wgpu: pipeline %d: %w", id, gpucore.ErrInvalidID))
		return
	}
	e.raw.SetPipeline(p)
}

func (e *passEncoder) SetBindings(index uint32, id gpucore.BindingsID, dynamicOffsets []uint32) {
	if !e.usable() {
		return
	}
	e.dev.mu.Lock()
	g, ok := e.dev.bindings[id]
	e.dev.mu.Unlock()
	if !ok {
		e.fail(fmt.Errorf("wgpu: bindings %d: %w", id, gpucore.ErrInvalidID))
		return
	}
	e.raw.SetBindGroup(index, g, dynamicOffsets)
}

func (e *passEncoder) buffer(id gpucore.BufferID) (hal.Buffer, bool) {
	e.dev.mu.Lock()
	b, ok := e.dev.buffers[id]
	e.dev.mu.Unlock()
	if !ok {
		e.fail(fmt.Errorf("wgpu: buffer %d: %w", id, gpucore.ErrInvalidID))
		return nil, false
	}
	return b.raw, true
}

func (e *passEncoder) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	if !e.usable() {
		return
	}
	if b, ok := e.buffer(id); ok {
		e.raw.SetVertexBuffer(slot, b, offset)
	}
}

func (e *passEncoder) SetIndexBuffer(id gpucore.BufferID, format gputypes.IndexFormat, offset uint64) {
	if !e.usable() {
		return
	}
	if b, ok := e.buffer(id); ok {
		e.raw.SetIndexBuffer(b, format, offset)
	}
}

func (e *passEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if e.usable() {
		e.raw.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
	}
}

func (e *passEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if e.usable() {
		e.raw.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	}
}

func (e *passEncoder) End() error {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	if e.ended {
		return gpucore.ErrPassEnded
	}
	e.ended = true
	e.raw.End()
	if e.dev.pass == e {
		e.dev.pass = nil
	}
	return e.err
}
