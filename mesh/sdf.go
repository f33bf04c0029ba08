package mesh

import (
	_ "embed"
	"errors"
	"strconv"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
)

//go:embed shaders/sdf.wgsl
var sdfShader string

// DefineStrokeOnly selects the stroke-only variant of the SDF program.
const DefineStrokeOnly = "SDF_STROKE_ONLY"

// Vertex data of the SDF mesh.
const (
	quadSlot      = 0
	sdfRecordSlot = 1

	quadWords      = 16
	sdfRecordWords = 6
)

var quadLayout = gputypes.VertexBufferLayout{
	ArrayStride: 16,
	StepMode:    gputypes.VertexStepModeVertex,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
	},
}

var sdfLayout = gputypes.VertexBufferLayout{
	ArrayStride: sdfRecordWords * 4,
	StepMode:    gputypes.VertexStepModeInstance,
	Attributes: []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 3},
	},
}

// quad is one member's corners: position then uv.
var quad = [quadWords]float32{
	-1, -1, 0, 0,
	1, -1, 1, 0,
	1, 1, 1, 1,
	-1, 1, 0, 1,
}

var quadIndices = [6]uint32{0, 2, 1, 0, 3, 2}

// sdfAttrs are the attributes stored in the packed SDF record.
var sdfAttrs = map[Attr]bool{
	AttrR: true, AttrRX: true, AttrRY: true,
	AttrWidth: true, AttrHeight: true, AttrRadius: true,
	AttrLineWidth: true, AttrStroke: true, AttrLineDash: true, AttrStrokeOpacity: true,
}

// SDFMesh draws circles, ellipses and rounded rects as signed distance
// fields on instanced quads. A stroke-only SDFMesh draws just the strokes
// of objects whose stroke cannot share the fill instance.
type SDFMesh struct {
	*Instanced
	strokeOnly bool
	valid      []bool
}

var _ Mesh = (*SDFMesh)(nil)

// NewSDFMesh returns an empty SDF mesh.
func NewSDFMesh(cfg MeshConfig) Mesh {
	label := "sdf"
	if cfg.StrokeOnly {
		label = "sdf-stroke"
	}
	m := &SDFMesh{
		Instanced:  newInstanced(label, cfg, func(k ShapeKind) bool { return k <= Rect }),
		strokeOnly: cfg.StrokeOnly,
	}
	m.material = Material{
		Program: gpucore.ProgramDescriptor{
			Label:        label,
			VertexSource: sdfShader,
			Bindings:     []gpucore.BindingLayout{{Binding: 0, Kind: gpucore.BindingUniform}},
		},
		Blend:    gpucore.BlendPremultiplied,
		CullMode: gputypes.CullModeNone,
	}
	m.material.SetDefine(DefineStrokeOnly, strconv.FormatBool(cfg.StrokeOnly))
	return m
}

func (m *SDFMesh) StrokeOnly() bool { return m.strokeOnly }

// ShouldMerge extends the base rule. A fill mesh takes objects whose
// stroke can be drawn in place, and only when they agree with the first
// member on whether they have a fill. A stroke-only mesh takes objects
// whose stroke must be drawn separately.
func (m *SDFMesh) ShouldMerge(obj *Object) bool {
	if !m.Instanced.ShouldMerge(obj) {
		return false
	}
	if m.strokeOnly {
		return needDrawStrokeSeparately(&obj.Style)
	}
	if needDrawStrokeSeparately(&obj.Style) {
		return false
	}
	if len(m.objects) == 0 {
		return true
	}
	first := m.objects[0]
	return !needDrawStrokeSeparately(&first.Style) && first.Style.Fill.None == obj.Style.Fill.None
}

// Consistent reports whether member i still satisfies the merge rule
// against the rest of the mesh.
func (m *SDFMesh) Consistent(i int) bool {
	obj := m.objects[i]
	split := needDrawStrokeSeparately(&obj.Style)
	if m.strokeOnly {
		return split
	}
	if len(m.objects) > 1 && split {
		return false
	}
	ref := m.objects[0]
	if i == 0 && len(m.objects) > 1 {
		ref = m.objects[1]
	}
	return ref.Style.Fill.None == obj.Style.Fill.None
}

// sdfRecord writes the packed record: half size, shape, corner radius and
// whether the fill instance leaves the stroke out.
func (m *SDFMesh) sdfRecord(dst []float32, obj *Object, valid bool) {
	if !valid {
		clear(dst)
		return
	}
	hw, hh := obj.HalfSize()
	omit := float32(0)
	if !m.strokeOnly && shouldOmitStroke(&obj.Style) {
		omit = 1
	}
	dst[0], dst[1] = float32(hw), float32(hh)
	dst[2] = float32(obj.Kind)
	dst[3] = float32(obj.cornerRadius())
	dst[4] = omit
	dst[5] = 0
}

// CreateGeometry rebuilds the quads, indices and instance records.
func (m *SDFMesh) CreateGeometry() error {
	n := len(m.objects)
	vertices := make([]float32, 0, n*quadWords)
	indices := make([]uint32, 0, n*len(quadIndices))
	records := make([]float32, n*sdfRecordWords)
	m.valid = make([]bool, n)

	var errs []error
	for i, obj := range m.objects {
		vertices = append(vertices, quad[:]...)
		for _, idx := range quadIndices {
			//nolint:gosec // G115: i is bounded by the member count
			indices = append(indices, idx+4*uint32(i))
		}
		err := obj.Validate()
		m.valid[i] = err == nil
		if err != nil {
			errs = append(errs, err)
		}
		m.sdfRecord(records[i*sdfRecordWords:(i+1)*sdfRecordWords], obj, m.valid[i])
	}
	m.geometry.SetVertexBuffer(quadSlot, quadLayout, vertices)
	m.geometry.SetIndexBuffer(indices)
	m.geometry.SetVertexBuffer(sdfRecordSlot, sdfLayout, records)
	m.createBase(m.valid)
	return errors.Join(errs...)
}

// UpdateAttribute recomputes the records of objects, the members starting
// at startIndex, touched by attr and writes only that range.
func (m *SDFMesh) UpdateAttribute(objects []*Object, startIndex int, attr Attr) error {
	if err := m.checkRange(objects, startIndex); err != nil {
		return err
	}
	if len(m.valid) != len(m.objects) {
		return m.CreateGeometry()
	}
	var errs []error
	valid := m.valid[startIndex : startIndex+len(objects)]
	changed := false
	for i, obj := range objects {
		err := obj.Validate()
		if ok := err == nil; ok != valid[i] {
			valid[i] = ok
			changed = true
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if sdfAttrs[attr] || changed {
		data := make([]float32, len(objects)*sdfRecordWords)
		for i, obj := range objects {
			m.sdfRecord(data[i*sdfRecordWords:(i+1)*sdfRecordWords], obj, valid[i])
		}
		if err := m.geometry.UpdateVertexBuffer(sdfRecordSlot, startIndex*sdfRecordWords*4, data); err != nil {
			return err
		}
	}
	if baseAttr(attr) || changed {
		if err := m.updateBase(objects, startIndex, valid); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
