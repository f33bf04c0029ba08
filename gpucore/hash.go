package gpucore

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"slices"

	"github.com/gogpu/gputypes"
)

// hasher wraps an FNV-1a hash with fixed-width little-endian writers.
type hasher struct {
	h hash.Hash64
}

func newHasher() hasher { return hasher{h: fnv.New64a()} }

func (w hasher) u32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = w.h.Write(buf[:])
}

func (w hasher) u64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = w.h.Write(buf[:])
}

//nolint:gosec // G115: descriptor strings are shader sources and names, far below 4 GiB
func (w hasher) str(s string) {
	w.u32(uint32(len(s)))
	_, _ = w.h.Write([]byte(s))
}

func (w hasher) sum() uint64 { return w.h.Sum64() }

// HashProgram hashes everything but the label.
//
//nolint:gosec // G115: define and binding counts are small
func HashProgram(d *ProgramDescriptor) uint64 {
	w := newHasher()
	w.str(d.VertexSource)
	w.str(d.FragmentSource)
	w.str(d.VertexEntry)
	w.str(d.FragmentEntry)
	w.u32(uint32(len(d.Defines)))
	for _, def := range d.Defines {
		w.str(def.Name)
		w.str(def.Value)
	}
	w.u32(uint32(len(d.Bindings)))
	for _, b := range d.Bindings {
		w.u32(b.Binding)
		w.u32(uint32(b.Kind))
	}
	return w.sum()
}

// Equal reports whether d and o describe the same program.
func (d *ProgramDescriptor) Equal(o *ProgramDescriptor) bool {
	return d.VertexSource == o.VertexSource &&
		d.FragmentSource == o.FragmentSource &&
		d.VertexEntry == o.VertexEntry &&
		d.FragmentEntry == o.FragmentEntry &&
		slices.Equal(d.Defines, o.Defines) &&
		slices.Equal(d.Bindings, o.Bindings)
}

// HashRenderPipeline hashes everything but the label.
//
//nolint:gosec // G115: layout and attribute counts are bounded by device limits
func HashRenderPipeline(d *RenderPipelineDescriptor) uint64 {
	w := newHasher()
	w.u64(uint64(d.Program))
	w.u32(uint32(d.Topology))
	w.u32(uint32(d.CullMode))
	w.u32(uint32(d.FrontFace))
	w.u32(uint32(d.ColorFormat))
	w.u32(uint32(d.Blend))
	w.u32(d.SampleCount)
	w.u32(uint32(len(d.VertexBuffers)))
	for i := range d.VertexBuffers {
		layout := &d.VertexBuffers[i]
		w.u64(layout.ArrayStride)
		w.u32(uint32(layout.StepMode))
		w.u32(uint32(len(layout.Attributes)))
		for _, attr := range layout.Attributes {
			w.u32(attr.ShaderLocation)
			w.u32(uint32(attr.Format))
			w.u64(attr.Offset)
		}
	}
	return w.sum()
}

// Equal reports whether d and o describe the same pipeline.
func (d *RenderPipelineDescriptor) Equal(o *RenderPipelineDescriptor) bool {
	return d.Program == o.Program &&
		d.Topology == o.Topology &&
		d.CullMode == o.CullMode &&
		d.FrontFace == o.FrontFace &&
		d.ColorFormat == o.ColorFormat &&
		d.Blend == o.Blend &&
		d.SampleCount == o.SampleCount &&
		slices.EqualFunc(d.VertexBuffers, o.VertexBuffers, vertexLayoutEqual)
}

func vertexLayoutEqual(a, b gputypes.VertexBufferLayout) bool {
	return a.ArrayStride == b.ArrayStride &&
		a.StepMode == b.StepMode &&
		slices.Equal(a.Attributes, b.Attributes)
}

// HashSampler hashes everything but the label.
func HashSampler(d *SamplerDescriptor) uint64 {
	w := newHasher()
	w.u32(uint32(d.AddressModeU))
	w.u32(uint32(d.AddressModeV))
	w.u32(uint32(d.AddressModeW))
	w.u32(uint32(d.MagFilter))
	w.u32(uint32(d.MinFilter))
	w.u32(uint32(d.MipmapFilter))
	return w.sum()
}

// Equal reports whether d and o describe the same sampler.
func (d *SamplerDescriptor) Equal(o *SamplerDescriptor) bool {
	a, b := *d, *o
	a.Label, b.Label = "", ""
	return a == b
}

// HashBindings hashes everything but the label.
//
//nolint:gosec // G115: binding counts are small
func HashBindings(d *BindingsDescriptor) uint64 {
	w := newHasher()
	w.u64(uint64(d.Program))
	w.u32(uint32(len(d.Uniforms)))
	for _, u := range d.Uniforms {
		w.u32(u.Binding)
		w.u64(uint64(u.Buffer))
		w.u64(u.Offset)
		w.u64(u.Size)
	}
	w.u32(uint32(len(d.Samplers)))
	for _, s := range d.Samplers {
		w.u32(s.Binding)
		w.u64(uint64(s.Sampler))
	}
	return w.sum()
}

// Equal reports whether d and o describe the same binding set.
func (d *BindingsDescriptor) Equal(o *BindingsDescriptor) bool {
	return d.Program == o.Program &&
		slices.Equal(d.Uniforms, o.Uniforms) &&
		slices.Equal(d.Samplers, o.Samplers)
}
