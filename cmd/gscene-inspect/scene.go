package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"seehuhn.de/go/geom/matrix"

	"github.com/gogpu/gscene/backend"
	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/css"
	"github.com/gogpu/gscene/gpucore"
	"github.com/gogpu/gscene/mesh"
	"github.com/gogpu/gscene/render"
)

// sceneConfig controls the demo scene.
type sceneConfig struct {
	width, height uint32
	count         int
	maxInstances  int
	lineWidth     css.Value
	backend       string
}

// demoScene lays count shapes out on a grid. Every third shape has a
// stroke; every fifth stroke is translucent and every seventh dashed,
// which forces a separate stroke mesh.
func demoScene(cfg sceneConfig) ([]*mesh.Object, error) {
	const cell = 48
	cols := max(int(cfg.width)/cell, 1)
	rctx := css.DefaultResolveContext()
	rctx.PercentBasis = cell

	objects := make([]*mesh.Object, 0, cfg.count)
	for i := range cfg.count {
		id := uint64(i + 1)
		var o *mesh.Object
		switch i % 3 {
		case 0:
			o = mesh.NewCircle(id, 18)
		case 1:
			o = mesh.NewEllipse(id, 20, 12)
		default:
			o = mesh.NewRect(id, 36, 24)
			o.Rect.Radius = 6
		}
		x := float64(i%cols)*cell + cell/2
		y := float64(i/cols)*cell + cell/2
		if o.Kind == mesh.Rect {
			x, y = x-18, y-12
		}
		o.Style.Transform = matrix.Translate(x, y)
		hue := float32(i%8) / 8
		o.Style.Fill = mesh.RGBA(hue, 0.4, 1-hue, 1)

		if i%3 == 2 {
			o.Style.Stroke = mesh.RGBA(1, 1, 1, 1)
			if err := o.SetLength(mesh.AttrLineWidth, cfg.lineWidth, rctx); err != nil {
				return nil, err
			}
		}
		if i%5 == 4 {
			o.Style.StrokeOpacity = 0.5
		}
		if i%7 == 6 {
			o.Style.LineDash = []float64{4, 2}
		}
		o.ZIndex = float64(i)
		objects = append(objects, o)
	}
	return objects, nil
}

// meshRow describes one mesh of the batch.
type meshRow struct {
	label      string
	instances  int
	strokeOnly bool
}

// snapshot is everything the inspector shows about one rendered frame.
type snapshot struct {
	meshes   []meshRow
	commands []record.Command
	writes   []record.Write
	cache    render.CacheStats
	plan     string
	bounds   string
	frames   uint64
	excluded error
}

// capture builds the demo scene, renders frames on the configured backend
// and returns what the last frame did. Device commands are only available
// from the recording backend.
func capture(ctx context.Context, cfg sceneConfig, frames int) (*snapshot, error) {
	dev, err := backend.Open(cmp.Or(cfg.backend, backend.BackendRecord))
	if err != nil {
		return nil, err
	}
	defer dev.Destroy()
	rec, _ := dev.(*record.Device)

	r, err := render.NewRenderer(dev, render.WithSize(cfg.width, cfg.height))
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Destroy() }()

	objects, err := demoScene(cfg)
	if err != nil {
		return nil, err
	}
	var opts []mesh.Option
	if cfg.maxInstances > 0 {
		opts = append(opts, mesh.WithMaxInstances(cfg.maxInstances))
	}
	b := mesh.NewBatcher(dev, opts...)
	defer b.Destroy()

	snap := &snapshot{}
	if err := b.Build(objects); err != nil {
		var oe *mesh.ObjectError
		if !errors.As(err, &oe) {
			return nil, err
		}
		snap.excluded = err
	}

	var plan *render.Plan
	build := func(f *render.FrameContext) error {
		if err := b.Render(f); err != nil {
			return err
		}
		if err := addOverlay(f); err != nil {
			return err
		}
		p, err := f.Graph.Compile()
		if err != nil {
			return err
		}
		plan = p
		return nil
	}
	for i := range max(frames, 1) {
		if rec != nil {
			rec.ResetLogs()
		}
		if err := r.RenderFrame(ctx, build); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}

	for _, m := range b.Meshes() {
		snap.meshes = append(snap.meshes, meshRow{label: m.Label(), instances: m.Len(), strokeOnly: m.StrokeOnly()})
	}
	if rec != nil {
		snap.commands = slices.Clone(rec.Commands())
		snap.writes = slices.Clone(rec.Writes())
	}
	snap.cache = r.Cache().Stats()
	if plan != nil {
		snap.plan = plan.String()
	}
	bb := b.Bounds()
	snap.bounds = fmt.Sprintf("(%.1f, %.1f) - (%.1f, %.1f)", bb.LLx, bb.LLy, bb.URx, bb.URy)
	snap.frames = r.FrameCount()
	return snap, nil
}

// addOverlay draws into a transient target and composites it over the
// main pass, giving the plan a second group.
func addOverlay(f *render.FrameContext) error {
	overlay := f.Graph.CreateTarget("overlay", gpucore.RenderTargetDescriptor{
		Label:  "overlay",
		Width:  f.Width,
		Height: f.Height,
		Format: f.Format,
	})
	nop := func(*render.PassContext) error { return nil }
	if _, err := f.Graph.AddPass(render.PassDesc{Name: "overlay", Target: overlay, Clear: true, Exec: nop}); err != nil {
		return err
	}
	_, err := f.Graph.AddPass(render.PassDesc{Name: "composite", Reads: []render.ResourceID{overlay}, Target: f.Back, Exec: nop})
	return err
}

// draws counts the draw commands of the snapshot.
func (s *snapshot) draws() int {
	n := 0
	for _, c := range s.commands {
		if c.Op == record.OpDraw || c.Op == record.OpDrawIndexed {
			n++
		}
	}
	return n
}
