// Package gscene is the style resolution and batched rendering core of a
// retained-mode scene graph.
//
// # Overview
//
// Display objects carry CSS-like style values. The core resolves those
// values with typed arithmetic (package css), groups compatible objects
// into instanced draw calls (package mesh), records each draw as a
// template-inheritable instruction and schedules the frame's render passes
// as a dependency graph (package render). Resources are created through a
// device capability surface (package gpucore) and memoized by a render
// cache, so repeated frames do not recreate pipelines or samplers.
//
// # Quick Start
//
//	dev := record.New()
//	r, err := render.NewRenderer(dev, render.WithSize(800, 600))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	b := mesh.NewBatcher(dev)
//	defer b.Destroy()
//	if err := b.Build(objects); err != nil {
//		log.Print(err) // malformed objects are skipped
//	}
//
//	err = r.RenderFrame(ctx, b.Render)
//
// # Architecture
//
// The module is organized into:
//   - css: NumericType, UnitValue, SumValue and length resolution
//   - gpucore: resource IDs, descriptors and the Device interface
//   - render: RenderCache, Inst and InstManager, RenderGraph, Renderer
//   - mesh: display objects, the instanced base mesh, SDF meshes, Batcher
//   - backend: device selection by name
//   - backend/record: an in-memory recording device
//   - backend/wgpu: a device on top of the gogpu/wgpu HAL
//
// # Frames
//
// A frame is built from an explicit [render.FrameContext]: the frame's
// graph, instruction manager and uniform buffer travel with it and are
// dropped when the frame ends. A frame that fails (a dependency cycle, an
// unbalanced template stack, a device error) is never presented; the
// previously presented target stays visible.
//
// # Logging
//
// The core is silent by default. Call [SetLogger] to route diagnostics to
// a [log/slog] logger.
package gscene

// Version is the module version.
const Version = "0.4.0"
