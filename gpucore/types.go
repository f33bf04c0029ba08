package gpucore

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gputypes"
)

// Resource IDs
//
// These opaque IDs represent device resources. Each Device implementation
// maintains a mapping between IDs and actual backend resources.

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// ProgramID is an opaque handle to a linked vertex+fragment program.
type ProgramID uint64

// PipelineID is an opaque handle to a render pipeline.
type PipelineID uint64

// SamplerID is an opaque handle to a texture sampler.
type SamplerID uint64

// BindingsID is an opaque handle to a set of resource bindings.
type BindingsID uint64

// RenderTargetID is an opaque handle to a color render target.
type RenderTargetID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BlendMode selects the color blend state of a pipeline.
type BlendMode uint8

// Blend modes.
const (
	// BlendReplace writes the source color unchanged.
	BlendReplace BlendMode = iota

	// BlendPremultiplied is source-over for premultiplied alpha.
	BlendPremultiplied
)

func (m BlendMode) String() string {
	switch m {
	case BlendReplace:
		return "replace"
	case BlendPremultiplied:
		return "premultiplied"
	}
	return fmt.Sprintf("BlendMode(%d)", int(m))
}

// BindingKind is the kind of resource bound at a binding slot.
type BindingKind uint8

// Binding kinds.
const (
	BindingUniform BindingKind = iota + 1
	BindingSampler
)

// Define is a compile-time constant injected into a program's source.
type Define struct {
	Name  string
	Value string
}

// BindingLayout declares one binding slot of a program.
type BindingLayout struct {
	Binding uint32
	Kind    BindingKind
}

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// ProgramDescriptor describes a vertex+fragment program written in WGSL.
type ProgramDescriptor struct {
	// Label is an optional debug label.
	Label string

	// VertexSource is the WGSL module containing the vertex entry point.
	VertexSource string

	// FragmentSource is the WGSL module containing the fragment entry
	// point. Empty means the fragment stage lives in VertexSource.
	FragmentSource string

	// VertexEntry defaults to "vs_main".
	VertexEntry string

	// FragmentEntry defaults to "fs_main".
	FragmentEntry string

	// Defines are emitted as WGSL module-scope constants ahead of the
	// source, in order.
	Defines []Define

	// Bindings lists the program's binding slots in group 0.
	Bindings []BindingLayout
}

// EntryPoints returns the vertex and fragment entry points with defaults
// applied.
func (d *ProgramDescriptor) EntryPoints() (vertex, fragment string) {
	vertex, fragment = d.VertexEntry, d.FragmentEntry
	if vertex == "" {
		vertex = "vs_main"
	}
	if fragment == "" {
		fragment = "fs_main"
	}
	return vertex, fragment
}

// ExpandSource prepends the program's defines to src as WGSL constants:
//
//	const SDF_STROKE_ONLY = true;
func (d *ProgramDescriptor) ExpandSource(src string) string {
	if len(d.Defines) == 0 {
		return src
	}
	var sb strings.Builder
	for _, def := range d.Defines {
		fmt.Fprintf(&sb, "const %s = %s;\n", def.Name, def.Value)
	}
	sb.WriteString(src)
	return sb.String()
}

// Define returns the value of the named define.
func (d *ProgramDescriptor) Define(name string) (string, bool) {
	for _, def := range d.Defines {
		if def.Name == name {
			return def.Value, true
		}
	}
	return "", false
}

// RenderPipelineDescriptor describes a render pipeline.
type RenderPipelineDescriptor struct {
	Label         string
	Program       ProgramID
	Topology      gputypes.PrimitiveTopology
	CullMode      gputypes.CullMode
	FrontFace     gputypes.FrontFace
	ColorFormat   gputypes.TextureFormat
	Blend         BlendMode
	VertexBuffers []gputypes.VertexBufferLayout

	// SampleCount is the number of samples per pixel; 0 means 1.
	SampleCount uint32
}

// SamplerDescriptor describes a texture sampler.
type SamplerDescriptor struct {
	Label        string
	AddressModeU gputypes.AddressMode
	AddressModeV gputypes.AddressMode
	AddressModeW gputypes.AddressMode
	MagFilter    gputypes.FilterMode
	MinFilter    gputypes.FilterMode
	MipmapFilter gputypes.FilterMode
}

// BufferBinding binds a range of a uniform buffer. Size 0 binds the rest
// of the buffer.
type BufferBinding struct {
	Binding uint32
	Buffer  BufferID
	Offset  uint64
	Size    uint64
}

// SamplerBinding binds a sampler.
type SamplerBinding struct {
	Binding uint32
	Sampler SamplerID
}

// BindingsDescriptor describes the resources bound for a program.
type BindingsDescriptor struct {
	Label    string
	Program  ProgramID
	Uniforms []BufferBinding
	Samplers []SamplerBinding
}

// References reports whether the bindings refer to buffer id.
func (d *BindingsDescriptor) References(id BufferID) bool {
	for _, u := range d.Uniforms {
		if u.Buffer == id {
			return true
		}
	}
	return false
}

// RenderTargetDescriptor describes a color render target.
type RenderTargetDescriptor struct {
	Label       string
	Width       uint32
	Height      uint32
	Format      gputypes.TextureFormat
	SampleCount uint32
}

// RenderPassDescriptor describes one render pass over a single color
// target.
type RenderPassDescriptor struct {
	Label      string
	Target     RenderTargetID
	Load       gputypes.LoadOp
	ClearColor gputypes.Color
}

// Clone returns a deep copy of d.
func (d *ProgramDescriptor) Clone() *ProgramDescriptor {
	c := *d
	c.Defines = slices.Clone(d.Defines)
	c.Bindings = slices.Clone(d.Bindings)
	return &c
}

// Clone returns a deep copy of d.
func (d *RenderPipelineDescriptor) Clone() *RenderPipelineDescriptor {
	c := *d
	c.VertexBuffers = CloneVertexLayouts(d.VertexBuffers)
	return &c
}

// Clone returns a copy of d.
func (d *SamplerDescriptor) Clone() *SamplerDescriptor {
	c := *d
	return &c
}

// Clone returns a deep copy of d.
func (d *BindingsDescriptor) Clone() *BindingsDescriptor {
	c := *d
	c.Uniforms = slices.Clone(d.Uniforms)
	c.Samplers = slices.Clone(d.Samplers)
	return &c
}

// CloneVertexLayouts deep-copies vertex buffer layouts.
func CloneVertexLayouts(layouts []gputypes.VertexBufferLayout) []gputypes.VertexBufferLayout {
	if layouts == nil {
		return nil
	}
	out := make([]gputypes.VertexBufferLayout, len(layouts))
	for i, l := range layouts {
		out[i] = l
		out[i].Attributes = slices.Clone(l.Attributes)
	}
	return out
}
