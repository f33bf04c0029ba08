package mesh

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
	"github.com/gogpu/gscene/render"
)

// Material is the program and fixed-function state a mesh draws with.
type Material struct {
	Program  gpucore.ProgramDescriptor
	Blend    gpucore.BlendMode
	CullMode gputypes.CullMode
}

// SetDefine sets a program define, replacing an existing one of the same
// name.
func (m *Material) SetDefine(name, value string) {
	for i := range m.Program.Defines {
		if m.Program.Defines[i].Name == name {
			m.Program.Defines[i].Value = value
			return
		}
	}
	m.Program.Defines = append(m.Program.Defines, gpucore.Define{Name: name, Value: value})
}

// Apply sets the material's state on inst.
func (m *Material) Apply(inst *render.Inst) {
	inst.SetProgram(&m.Program).SetBlend(m.Blend).SetCullMode(m.CullMode)
}

// PipelineDescriptor returns the pipeline the material produces for a
// linked program, vertex layouts and target.
func (m *Material) PipelineDescriptor(program gpucore.ProgramID, layouts []gputypes.VertexBufferLayout, target render.PassTarget) gpucore.RenderPipelineDescriptor {
	return gpucore.RenderPipelineDescriptor{
		Label:         m.Program.Label,
		Program:       program,
		Topology:      gputypes.PrimitiveTopologyTriangleList,
		CullMode:      m.CullMode,
		FrontFace:     gputypes.FrontFaceCCW,
		ColorFormat:   target.Format,
		Blend:         m.Blend,
		VertexBuffers: gpucore.CloneVertexLayouts(layouts),
		SampleCount:   max(target.SampleCount, 1),
	}
}
