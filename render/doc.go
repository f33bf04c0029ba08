// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render batches scene drawing into device work.
//
// The package sits between scene-level meshes and a gpucore.Device. It
// never talks to a GPU API directly; backends implement gpucore.Device
// and the package is exercised in tests against the in-memory recording
// device in backend/record.
//
// # Core Types
//
//   - Cache: deduplicates programs, pipelines, samplers and binding sets
//     by descriptor value
//   - Inst and InstManager: drawable units with template inheritance and
//     per-frame submission lists
//   - UniformBuffer: growable per-frame uniform storage
//   - Graph: per-frame render pass scheduling with dependency ordering and
//     pass merging
//   - TargetPool: transient render targets reused across frames
//   - Renderer: the frame loop tying everything together
//
// # Frame Lifecycle
//
//	r, _ := render.NewRenderer(dev, render.WithSize(800, 600))
//	err := r.RenderFrame(ctx, func(f *render.FrameContext) error {
//	    g := f.Insts.PushTemplate()
//	    defer g.Pop()
//	    g.Inst().SetProgram(prog).SetBlend(gpucore.BlendPremultiplied)
//	    return f.Insts.Submit(f.Insts.NewInst().SetDraw(render.DrawParams{VertexCount: 3}))
//	})
//
// Every frame builds a fresh Graph. Its first pass, "main", clears the
// back target and draws the main inst list; builders may add passes that
// read or write further targets. If anything fails (the builder, an
// unbalanced template stack, a graph cycle or the device), the frame's
// work is discarded and the previous frame stays presented.
//
// # Architecture
//
//	            mesh.Batcher / user code
//	                       │
//	                       ▼
//	      ┌───────── InstManager ─────────┐
//	      │      (templates, lists)       │
//	      ▼                               ▼
//	UniformBuffer                       Graph
//	      │                      (order, merge, load ops)
//	      └───────────┬───────────────────┘
//	                  ▼
//	                Cache
//	                  │
//	                  ▼
//	           gpucore.Device
//
// # Thread Safety
//
// Cache and TargetPool are safe for concurrent use. InstManager, Graph and
// UniformBuffer belong to the goroutine driving the frame.
package render
