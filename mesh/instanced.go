package mesh

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
	"github.com/gogpu/gscene/render"
)

// Mesh draws a batch of objects with one instanced draw call.
type Mesh interface {
	// Label names the mesh in logs and inst labels.
	Label() string

	// Len returns the number of members.
	Len() int

	// Objects returns the members in draw order.
	Objects() []*Object

	// StrokeOnly reports whether the mesh draws only strokes.
	StrokeOnly() bool

	// ShouldMerge reports whether obj can be appended to the mesh.
	ShouldMerge(obj *Object) bool

	// Consistent reports whether member i may stay in the mesh after its
	// attributes changed.
	Consistent(i int) bool

	// Add appends obj. The geometry is rebuilt by CreateGeometry.
	Add(obj *Object)

	// Reset drops every member and keeps the device buffers, so the mesh
	// can be refilled without allocating.
	Reset()

	// CreateGeometry rebuilds all per-member data. Members that fail
	// validation are drawn as empty instances and reported as joined
	// *ObjectError values.
	CreateGeometry() error

	// UpdateAttribute recomputes the data of objects, which are the
	// members starting at startIndex, for a change of attr.
	UpdateAttribute(objects []*Object, startIndex int, attr Attr) error

	// Render submits the mesh's draw to the frame.
	Render(f *render.FrameContext) error

	// Destroy releases the mesh's device buffers.
	Destroy()
}

// MeshConfig configures a mesh created by a Factory.
type MeshConfig struct {
	Device       gpucore.Device
	MaxInstances int
	StrokeOnly   bool
}

// Factory creates a mesh.
type Factory func(cfg MeshConfig) Mesh

// Instance data of the common block, in float32 words.
const (
	baseRecordWords = 24
	baseRecordSlot  = 2
)

// baseLayout describes the common per-instance block: model matrix (two
// vec4), fill, stroke, opacities with line width, and visibility with z.
var baseLayout = gputypes.VertexBufferLayout{
	ArrayStride: baseRecordWords * 4,
	StepMode:    gputypes.VertexStepModeInstance,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 4},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 5},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 6},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 7},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 8},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 80, ShaderLocation: 9},
	},
}

// Instanced is the shared part of instanced meshes: members, geometry,
// material and the common per-instance block. Concrete meshes embed it
// and add their own instance data.
type Instanced struct {
	label        string
	device       gpucore.Device
	geometry     *Geometry
	material     Material
	objects      []*Object
	maxInstances int
	accepts      func(ShapeKind) bool
}

func newInstanced(label string, cfg MeshConfig, accepts func(ShapeKind) bool) *Instanced {
	return &Instanced{
		label:        label,
		device:       cfg.Device,
		geometry:     NewGeometry(label),
		maxInstances: cfg.MaxInstances,
		accepts:      accepts,
	}
}

func (m *Instanced) Label() string       { return m.label }
func (m *Instanced) Len() int            { return len(m.objects) }
func (m *Instanced) Objects() []*Object  { return m.objects }
func (m *Instanced) Add(obj *Object)     { m.objects = append(m.objects, obj) }
func (m *Instanced) Geometry() *Geometry { return m.geometry }
func (m *Instanced) Material() *Material { return &m.material }

// Reset drops the members and keeps the geometry with its device buffers.
func (m *Instanced) Reset() {
	clear(m.objects)
	m.objects = m.objects[:0]
}

// ShouldMerge is the base rule: the mesh handles obj's shape and has room.
func (m *Instanced) ShouldMerge(obj *Object) bool {
	if !m.accepts(obj.Kind) {
		return false
	}
	return m.maxInstances <= 0 || len(m.objects) < m.maxInstances
}

// baseRecord writes the common block of obj into dst.
func baseRecord(dst []float32, obj *Object, valid bool) {
	s := &obj.Style
	mt := obj.Model()
	copy(dst, []float32{
		float32(mt[0]), float32(mt[1]), float32(mt[2]), float32(mt[3]),
		float32(mt[4]), float32(mt[5]), 0, 0,
	})
	paint(dst[8:12], s.Fill)
	paint(dst[12:16], s.Stroke)
	lineWidth := s.LineWidth
	if !s.hasStroke() {
		lineWidth = 0
	}
	dst[16], dst[17], dst[18], dst[19] = float32(s.Opacity), float32(s.FillOpacity), float32(s.StrokeOpacity), float32(lineWidth)
	visible := float32(0)
	if s.Visible && valid {
		visible = 1
	}
	dst[20], dst[21], dst[22], dst[23] = visible, float32(obj.ZIndex), 0, 0
}

func paint(dst []float32, p Paint) {
	if p.None {
		clear(dst)
		return
	}
	copy(dst, p.Color[:])
}

// createBase fills the common block for every member.
func (m *Instanced) createBase(valid []bool) {
	data := make([]float32, len(m.objects)*baseRecordWords)
	for i, obj := range m.objects {
		baseRecord(data[i*baseRecordWords:(i+1)*baseRecordWords], obj, valid[i])
	}
	m.geometry.SetVertexBuffer(baseRecordSlot, baseLayout, data)
}

// baseAttr reports whether attr lives in the common block.
func baseAttr(attr Attr) bool {
	switch attr {
	case AttrFill, AttrStroke, AttrOpacity, AttrFillOpacity, AttrStrokeOpacity,
		AttrTransform, AttrVisible, AttrZIndex, AttrLineWidth,
		AttrWidth, AttrHeight:
		return true
	}
	return false
}

// updateBase rewrites the common block of a member range.
func (m *Instanced) updateBase(objects []*Object, startIndex int, valid []bool) error {
	data := make([]float32, len(objects)*baseRecordWords)
	for i, obj := range objects {
		baseRecord(data[i*baseRecordWords:(i+1)*baseRecordWords], obj, valid[i])
	}
	return m.geometry.UpdateVertexBuffer(baseRecordSlot, startIndex*baseRecordWords*4, data)
}

func (m *Instanced) checkRange(objects []*Object, startIndex int) error {
	if startIndex < 0 || startIndex+len(objects) > len(m.objects) {
		return fmt.Errorf("%w: members [%d, %d) of %d", ErrOutOfRange, startIndex, startIndex+len(objects), len(m.objects))
	}
	return nil
}

// Render submits one instanced draw. Pending geometry is uploaded once
// the frame's graph has compiled.
func (m *Instanced) Render(f *render.FrameContext) error {
	if len(m.objects) == 0 {
		return nil
	}
	f.OnPrepare(func() error { return m.geometry.Upload(m.device) })
	w, h := float32(f.Width), float32(f.Height)
	off := f.Uniforms.Allocate(4)
	f.Uniforms.Write(off, []float32{w, h, 1 / w, 1 / h})

	inst := f.Insts.NewInst().SetLabel(m.label)
	m.material.Apply(inst)
	inst.SetVertexLayouts(m.geometry.Layouts()...).
		SetVertexBuffers(m.geometry.VertexBindings()...).
		SetIndexBuffer(m.geometry.IndexBinding()).
		SetUniforms(f.Uniforms.Binding(0, off, 4)).
		//nolint:gosec // G115: member count is bounded by maxInstances
		SetDraw(render.DrawParams{IndexCount: 6, InstanceCount: uint32(len(m.objects))})
	return f.Insts.Submit(inst)
}

// Destroy releases the device buffers.
func (m *Instanced) Destroy() {
	m.geometry.Destroy(m.device)
}
