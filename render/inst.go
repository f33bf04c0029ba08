// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
)

// DrawParams are the draw call arguments of an inst. A non-zero
// IndexCount selects an indexed draw.
type DrawParams struct {
	IndexCount    uint32
	VertexCount   uint32
	InstanceCount uint32
	FirstIndex    uint32
	FirstVertex   uint32
	BaseVertex    int32
	FirstInstance uint32
}

// Indexed reports whether p describes an indexed draw.
func (p DrawParams) Indexed() bool { return p.IndexCount > 0 }

// BufferSource yields the device buffer to bind at execution time. A
// growable buffer may change its ID between submission and execution.
type BufferSource interface {
	Buffer() gpucore.BufferID
}

// StaticBuffer is a BufferSource for a buffer that never moves.
type StaticBuffer gpucore.BufferID

// Buffer implements BufferSource.
func (b StaticBuffer) Buffer() gpucore.BufferID { return gpucore.BufferID(b) }

// VertexBinding binds a vertex buffer slot.
type VertexBinding struct {
	Slot   uint32
	Buffer BufferSource
	Offset uint64
}

// IndexBinding binds the index buffer.
type IndexBinding struct {
	Buffer BufferSource
	Format gputypes.IndexFormat
	Offset uint64
}

// UniformBinding binds a byte range of a uniform buffer.
type UniformBinding struct {
	Binding uint32
	Buffer  BufferSource
	Offset  uint64
	Size    uint64
}

// SamplerBinding binds a sampler described by value; the cache supplies
// the device sampler.
type SamplerBinding struct {
	Binding uint32
	Sampler gpucore.SamplerDescriptor
}

type field uint32

const (
	fieldLabel field = 1 << iota
	fieldProgram
	fieldTopology
	fieldCullMode
	fieldFrontFace
	fieldBlend
	fieldColorFormat
	fieldSampleCount
	fieldVertexLayouts
	fieldVertexBuffers
	fieldIndexBuffer
	fieldUniforms
	fieldSamplers
	fieldDraw
	fieldSortKey
)

// Inst is one drawable unit: program and fixed-function state, bindings
// and draw parameters. Every field is tracked as set or unset; an unset
// field is inherited from the inst's template chain when the inst is
// submitted, innermost template first.
//
// Insts are created by an InstManager and belong to the frame they were
// created in.
type Inst struct {
	set    field
	parent *Inst

	label         string
	program       *gpucore.ProgramDescriptor
	topology      gputypes.PrimitiveTopology
	cullMode      gputypes.CullMode
	frontFace     gputypes.FrontFace
	blend         gpucore.BlendMode
	colorFormat   gputypes.TextureFormat
	sampleCount   uint32
	vertexLayouts []gputypes.VertexBufferLayout
	vertexBuffers []VertexBinding
	indexBuffer   IndexBinding
	uniforms      []UniformBinding
	samplers      []SamplerBinding
	draw          DrawParams
	sortKey       uint64
}

func (i *Inst) reset() {
	*i = Inst{
		vertexBuffers: i.vertexBuffers[:0],
		uniforms:      i.uniforms[:0],
		samplers:      i.samplers[:0],
	}
}

// Parent returns the template the inst inherits from, or nil.
func (i *Inst) Parent() *Inst { return i.parent }

// IsSet reports whether the inst itself (not its templates) sets any
// field. It is mainly useful in tests.
func (i *Inst) IsSet() bool { return i.set != 0 }

func (i *Inst) SetLabel(label string) *Inst {
	i.label = label
	i.set |= fieldLabel
	return i
}

// SetProgram sets the program. The descriptor is read at execution time
// and must not change afterwards.
func (i *Inst) SetProgram(p *gpucore.ProgramDescriptor) *Inst {
	i.program = p
	i.set |= fieldProgram
	return i
}

func (i *Inst) SetTopology(t gputypes.PrimitiveTopology) *Inst {
	i.topology = t
	i.set |= fieldTopology
	return i
}

func (i *Inst) SetCullMode(m gputypes.CullMode) *Inst {
	i.cullMode = m
	i.set |= fieldCullMode
	return i
}

func (i *Inst) SetFrontFace(f gputypes.FrontFace) *Inst {
	i.frontFace = f
	i.set |= fieldFrontFace
	return i
}

func (i *Inst) SetBlend(b gpucore.BlendMode) *Inst {
	i.blend = b
	i.set |= fieldBlend
	return i
}

// SetColorFormat overrides the color format; by default the pass
// target's format is used.
func (i *Inst) SetColorFormat(f gputypes.TextureFormat) *Inst {
	i.colorFormat = f
	i.set |= fieldColorFormat
	return i
}

func (i *Inst) SetSampleCount(n uint32) *Inst {
	i.sampleCount = n
	i.set |= fieldSampleCount
	return i
}

func (i *Inst) SetVertexLayouts(layouts ...gputypes.VertexBufferLayout) *Inst {
	i.vertexLayouts = layouts
	i.set |= fieldVertexLayouts
	return i
}

func (i *Inst) SetVertexBuffers(bindings ...VertexBinding) *Inst {
	i.vertexBuffers = append(i.vertexBuffers[:0], bindings...)
	i.set |= fieldVertexBuffers
	return i
}

func (i *Inst) SetIndexBuffer(b IndexBinding) *Inst {
	i.indexBuffer = b
	i.set |= fieldIndexBuffer
	return i
}

func (i *Inst) SetUniforms(bindings ...UniformBinding) *Inst {
	i.uniforms = append(i.uniforms[:0], bindings...)
	i.set |= fieldUniforms
	return i
}

func (i *Inst) SetSamplers(bindings ...SamplerBinding) *Inst {
	i.samplers = append(i.samplers[:0], bindings...)
	i.set |= fieldSamplers
	return i
}

func (i *Inst) SetDraw(p DrawParams) *Inst {
	i.draw = p
	i.set |= fieldDraw
	return i
}

// SetSortKey sets the execution order key. Lower keys draw first; equal
// keys draw in submission order.
func (i *Inst) SetSortKey(k uint64) *Inst {
	i.sortKey = k
	i.set |= fieldSortKey
	return i
}

// ResolvedInst is the flattened view of an inst and its templates.
type ResolvedInst struct {
	Label         string
	Program       *gpucore.ProgramDescriptor
	Topology      gputypes.PrimitiveTopology
	CullMode      gputypes.CullMode
	FrontFace     gputypes.FrontFace
	Blend         gpucore.BlendMode
	ColorFormat   gputypes.TextureFormat
	SampleCount   uint32
	VertexLayouts []gputypes.VertexBufferLayout
	VertexBuffers []VertexBinding
	IndexBuffer   IndexBinding
	Uniforms      []UniformBinding
	Samplers      []SamplerBinding
	Draw          DrawParams
	SortKey       uint64

	// HasColorFormat and HasSampleCount report whether the chain set
	// them; otherwise the pass target decides.
	HasColorFormat bool
	HasSampleCount bool
	HasDraw        bool
}

// Resolve flattens the inst: each field comes from the innermost node of
// the chain (the inst, then its template, then that template's parent,
// ...) that sets it. Fields no node sets keep their zero value, except
// the topology, which defaults to a triangle list.
func (i *Inst) Resolve() ResolvedInst {
	var r ResolvedInst
	r.Topology = gputypes.PrimitiveTopologyTriangleList
	var have field
	for n := i; n != nil; n = n.parent {
		take := n.set &^ have
		if take == 0 {
			continue
		}
		have |= take
		if take&fieldLabel != 0 {
			r.Label = n.label
		}
		if take&fieldProgram != 0 {
			r.Program = n.program
		}
		if take&fieldTopology != 0 {
			r.Topology = n.topology
		}
		if take&fieldCullMode != 0 {
			r.CullMode = n.cullMode
		}
		if take&fieldFrontFace != 0 {
			r.FrontFace = n.frontFace
		}
		if take&fieldBlend != 0 {
			r.Blend = n.blend
		}
		if take&fieldColorFormat != 0 {
			r.ColorFormat = n.colorFormat
			r.HasColorFormat = true
		}
		if take&fieldSampleCount != 0 {
			r.SampleCount = n.sampleCount
			r.HasSampleCount = true
		}
		if take&fieldVertexLayouts != 0 {
			r.VertexLayouts = n.vertexLayouts
		}
		if take&fieldVertexBuffers != 0 {
			r.VertexBuffers = append([]VertexBinding(nil), n.vertexBuffers...)
		}
		if take&fieldIndexBuffer != 0 {
			r.IndexBuffer = n.indexBuffer
		}
		if take&fieldUniforms != 0 {
			r.Uniforms = append([]UniformBinding(nil), n.uniforms...)
		}
		if take&fieldSamplers != 0 {
			r.Samplers = append([]SamplerBinding(nil), n.samplers...)
		}
		if take&fieldDraw != 0 {
			r.Draw = n.draw
			r.HasDraw = true
		}
		if take&fieldSortKey != 0 {
			r.SortKey = n.sortKey
		}
	}
	return r
}
