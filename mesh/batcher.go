package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
	"github.com/gogpu/gscene/render"
)

// ref locates one member of a mesh.
type ref struct {
	mesh  int
	index int
}

// spareKey selects meshes that can be refilled for an object: made by
// the factory of kind, with the same stroke mode.
type spareKey struct {
	kind       ShapeKind
	strokeOnly bool
}

// Batcher groups display objects into as few meshes as the merge rules
// allow while keeping their paint order. Objects are only ever appended to
// the most recent mesh, so an object that cannot join it starts a new one.
//
// A rebuild refills the meshes of the previous build before creating new
// ones, so device buffers are reallocated only when a mesh outgrows them.
// Meshes a rebuild no longer needs are destroyed by the next Render.
//
// A Batcher is not safe for concurrent use.
type Batcher struct {
	device    gpucore.Device
	max       int
	factories map[ShapeKind]Factory

	objects []*Object
	meshes  []Mesh
	retired []Mesh
	spare   map[spareKey][]Mesh
	origin  map[Mesh]ShapeKind

	owners   map[*Object][]ref
	split    map[*Object]bool
	excluded map[*Object]bool
	rebuild  bool
}

// NewBatcher returns an empty batcher drawing on device.
func NewBatcher(device gpucore.Device, opts ...Option) *Batcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Batcher{
		device:    device,
		max:       o.maxInstances,
		factories: o.factories,
		spare:     make(map[spareKey][]Mesh),
		origin:    make(map[Mesh]ShapeKind),
		owners:    make(map[*Object][]ref),
		split:     make(map[*Object]bool),
		excluded:  make(map[*Object]bool),
	}
}

// Build replaces the batch with objects, given in paint order. Objects
// that fail validation are left out and reported as joined *ObjectError
// values; the remaining objects are batched regardless.
func (b *Batcher) Build(objects []*Object) error {
	b.recycle()
	b.objects = append(b.objects[:0:0], objects...)
	clear(b.owners)
	clear(b.split)
	clear(b.excluded)
	b.rebuild = false

	var errs []error
	exclude := func(obj *Object, err error) {
		b.excluded[obj] = true
		errs = append(errs, err)
		gscene.Logger().Warn("mesh: object excluded from batch", "id", obj.ID, "kind", obj.Kind, "err", err)
	}
	for _, obj := range b.objects {
		if err := obj.Validate(); err != nil {
			exclude(obj, err)
			continue
		}
		factory := b.factories[obj.Kind]
		if factory == nil {
			exclude(obj, &ObjectError{ID: obj.ID, Kind: obj.Kind, Err: ErrUnsupportedShape})
			continue
		}
		split := needDrawStrokeSeparately(&obj.Style)
		b.split[obj] = split
		b.place(obj, factory, false)
		if split {
			b.place(obj, factory, true)
		}
	}
	for _, m := range b.meshes {
		if err := m.CreateGeometry(); err != nil {
			errs = append(errs, err)
		}
	}
	for k, spare := range b.spare {
		b.retired = append(b.retired, spare...)
		delete(b.spare, k)
	}
	gscene.Logger().Debug("mesh: batch built", "objects", len(b.objects), "meshes", len(b.meshes), "retired", len(b.retired))
	return errors.Join(errs...)
}

func (b *Batcher) place(obj *Object, factory Factory, strokeOnly bool) {
	if n := len(b.meshes); n > 0 {
		last := b.meshes[n-1]
		if last.StrokeOnly() == strokeOnly && last.ShouldMerge(obj) {
			b.owners[obj] = append(b.owners[obj], ref{mesh: n - 1, index: last.Len()})
			last.Add(obj)
			return
		}
	}
	m := b.newMesh(obj.Kind, factory, strokeOnly)
	m.Add(obj)
	b.meshes = append(b.meshes, m)
	b.owners[obj] = append(b.owners[obj], ref{mesh: len(b.meshes) - 1, index: 0})
}

// newMesh returns a spare mesh of the previous build when one fits, or a
// new one from factory.
func (b *Batcher) newMesh(kind ShapeKind, factory Factory, strokeOnly bool) Mesh {
	k := spareKey{kind: kind, strokeOnly: strokeOnly}
	if spare := b.spare[k]; len(spare) > 0 {
		b.spare[k] = spare[1:]
		return spare[0]
	}
	m := factory(MeshConfig{Device: b.device, MaxInstances: b.max, StrokeOnly: strokeOnly})
	b.origin[m] = kind
	return m
}

// recycle empties the current and retired meshes into the spare pool, in
// draw order.
func (b *Batcher) recycle() {
	for _, list := range [][]Mesh{b.meshes, b.retired} {
		for _, m := range list {
			m.Reset()
			k := spareKey{kind: b.origin[m], strokeOnly: m.StrokeOnly()}
			b.spare[k] = append(b.spare[k], m)
		}
	}
	clear(b.meshes)
	b.meshes = b.meshes[:0]
	clear(b.retired)
	b.retired = b.retired[:0]
}

// UpdateAttribute pushes a change of obj's attr into the meshes that draw
// it. When the change moves obj to a different mesh (its stroke now needs
// or no longer needs its own pass, or it no longer matches its mesh), the
// batch is marked for rebuild instead; the rebuild happens at the next
// Render.
func (b *Batcher) UpdateAttribute(obj *Object, attr Attr) error {
	if b.excluded[obj] {
		b.rebuild = true
		return nil
	}
	refs, ok := b.owners[obj]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownObject, obj.ID)
	}
	if b.rebuild {
		return nil
	}
	if needDrawStrokeSeparately(&obj.Style) != b.split[obj] {
		b.rebuild = true
		return nil
	}
	for _, r := range refs {
		if !b.meshes[r.mesh].Consistent(r.index) {
			b.rebuild = true
			return nil
		}
	}
	var errs []error
	for _, r := range refs {
		if err := b.meshes[r.mesh].UpdateAttribute([]*Object{obj}, r.index, attr); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NeedsRebuild reports whether the next Render rebuilds the batch.
func (b *Batcher) NeedsRebuild() bool { return b.rebuild }

// Meshes returns the meshes in draw order.
func (b *Batcher) Meshes() []Mesh { return b.meshes }

// Bounds returns the union of the bounds of the batched objects. An empty
// batch has zero bounds.
func (b *Batcher) Bounds() rect.Rect {
	u := rect.Rect{LLx: math.Inf(1), LLy: math.Inf(1), URx: math.Inf(-1), URy: math.Inf(-1)}
	n := 0
	for _, obj := range b.objects {
		if b.excluded[obj] || !obj.Style.Visible {
			continue
		}
		r := obj.Bounds()
		u.LLx, u.LLy = min(u.LLx, r.LLx), min(u.LLy, r.LLy)
		u.URx, u.URy = max(u.URx, r.URx), max(u.URy, r.URy)
		n++
	}
	if n == 0 {
		return rect.Rect{}
	}
	return u
}

// Render submits one inst per mesh to the frame, under a template that
// sets the state shared by all batched meshes.
func (b *Batcher) Render(f *render.FrameContext) error {
	if b.rebuild {
		// object errors are logged by Build
		_ = b.Build(b.objects)
	}
	if len(b.retired) > 0 {
		f.OnPrepare(func() error {
			b.destroyRetired()
			return nil
		})
	}
	return f.Insts.WithTemplate(func(t *render.Inst) error {
		t.SetBlend(gpucore.BlendPremultiplied).
			SetCullMode(gputypes.CullModeNone).
			SetFrontFace(gputypes.FrontFaceCCW)
		for _, m := range b.meshes {
			if err := m.Render(f); err != nil {
				return fmt.Errorf("mesh: render %s: %w", m.Label(), err)
			}
		}
		return nil
	})
}

func (b *Batcher) destroyRetired() {
	for _, m := range b.retired {
		m.Destroy()
		delete(b.origin, m)
	}
	clear(b.retired)
	b.retired = b.retired[:0]
}

// Destroy releases all device buffers of the batch.
func (b *Batcher) Destroy() {
	b.recycle()
	for k, spare := range b.spare {
		b.retired = append(b.retired, spare...)
		delete(b.spare, k)
	}
	b.destroyRetired()
	b.meshes = nil
}
