// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/gpucore"
)

func newTestRenderer(t *testing.T) (*Renderer, *record.Device) {
	t.Helper()
	dev := record.New()
	r, err := NewRenderer(dev, WithSize(16, 16), WithClearColor(gputypes.Color{R: 1, A: 1}))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Destroy() })
	return r, dev
}

func drawTriangle(f *FrameContext) error {
	off := f.Uniforms.Allocate(4)
	f.Uniforms.Write(off, []float32{1, 0, 0, 1})
	inst := f.Insts.NewInst().
		SetProgram(testProgram("tri")).
		SetUniforms(f.Uniforms.Binding(0, off, 4)).
		SetDraw(DrawParams{VertexCount: 3})
	return f.Insts.Submit(inst)
}

// TestRendererFrame tests a frame end to end and that frames alternate
// between the back targets.
func TestRendererFrame(t *testing.T) {
	r, dev := newTestRenderer(t)
	ctx := context.Background()

	if err := r.RenderFrame(ctx, drawTriangle); err != nil {
		t.Fatal(err)
	}
	first := r.Presented()
	if first == gpucore.InvalidID || dev.Presented() != first {
		t.Fatalf("Presented() = %d, device presented %d", first, dev.Presented())
	}
	cmds := dev.Commands()
	if countOp(cmds, record.OpDraw) != 1 || countOp(cmds, record.OpSubmit) != 1 {
		t.Errorf("commands = %v", ops(cmds))
	}
	for _, c := range cmds {
		if c.Op == record.OpBeginPass && c.Load != gputypes.LoadOpClear {
			t.Errorf("main pass load = %v, want clear", c.Load)
		}
	}

	if err := r.RenderFrame(ctx, drawTriangle); err != nil {
		t.Fatal(err)
	}
	if second := r.Presented(); second == first {
		t.Error("second frame drew into the presented target")
	}
	if r.FrameCount() != 2 || dev.PresentCount() != 2 {
		t.Errorf("FrameCount=%d PresentCount=%d, want 2", r.FrameCount(), dev.PresentCount())
	}

	// The second frame reuses every cached resource.
	if stats := r.Cache().Stats(); stats.Programs != 1 || stats.Pipelines != 1 {
		t.Errorf("cache stats = %+v", stats)
	}
}

// TestRendererKeepsPresentedOnFailure tests that a failing frame leaves
// the last good target presented and submits nothing.
func TestRendererKeepsPresentedOnFailure(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		build FrameFunc
		want  error
		// writes allows buffer uploads before the failure
		writes bool
	}{
		{
			name: "unbalanced template stack",
			build: func(f *FrameContext) error {
				f.Insts.PushTemplate().Inst().SetProgram(testProgram("leak"))
				return drawTriangle(f)
			},
			want: ErrUnbalancedTemplateStack,
		},
		{
			name: "graph cycle",
			build: func(f *FrameContext) error {
				if err := drawTriangle(f); err != nil {
					return err
				}
				f.OnPrepare(func() error {
					return f.Device.WriteBuffer(f.Uniforms.Buffer(), 0, make([]byte, 4))
				})
				x := f.Graph.CreateTarget("x", transientDesc)
				y := f.Graph.CreateTarget("y", transientDesc)
				if _, err := f.Graph.AddPass(PassDesc{Name: "a", Reads: []ResourceID{x}, Target: y}); err != nil {
					return err
				}
				_, err := f.Graph.AddPass(PassDesc{Name: "b", Reads: []ResourceID{y}, Target: x})
				return err
			},
			want: ErrGraphCycle,
		},
		{
			name:  "build error",
			build: func(*FrameContext) error { return boom },
			want:  boom,
		},
		{
			name: "pass error",
			build: func(f *FrameContext) error {
				_, err := f.Graph.AddPass(PassDesc{Name: "bad", Target: f.Back, Exec: func(*PassContext) error { return boom }})
				return err
			},
			want:   boom,
			writes: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, dev := newTestRenderer(t)
			ctx := context.Background()
			if err := r.RenderFrame(ctx, drawTriangle); err != nil {
				t.Fatal(err)
			}
			good := r.Presented()
			submits := countOp(dev.Commands(), record.OpSubmit)
			before := len(dev.Commands())

			if err := r.RenderFrame(ctx, tt.build); !errors.Is(err, tt.want) {
				t.Fatalf("RenderFrame() = %v, want %v", err, tt.want)
			}
			if r.Presented() != good || dev.Presented() != good {
				t.Errorf("presented %d/%d, want %d", r.Presented(), dev.Presented(), good)
			}
			after := dev.CommandsSince(before)
			if countOp(after, record.OpSubmit) != 0 || countOp(after, record.OpDraw) != 0 {
				t.Errorf("failed frame committed %v", ops(after))
			}
			if n := countOp(after, record.OpWriteBuffer); !tt.writes && n != 0 {
				t.Errorf("failed frame wrote %d buffer(s) before aborting", n)
			}
			if countOp(dev.Commands(), record.OpSubmit) != submits {
				t.Error("failed frame submitted")
			}
			if r.Insts().Depth() != 0 || r.Insts().Len() != 0 {
				t.Error("failed frame left state in the inst manager")
			}

			// The renderer recovers on the next frame.
			if err := r.RenderFrame(ctx, drawTriangle); err != nil {
				t.Fatalf("frame after failure: %v", err)
			}
			if r.Presented() == good {
				t.Error("recovered frame did not flip targets")
			}
		})
	}
}

// TestRendererDeviceFailure tests that a failed submit keeps the last
// good frame.
func TestRendererDeviceFailure(t *testing.T) {
	r, dev := newTestRenderer(t)
	ctx := context.Background()
	if err := r.RenderFrame(ctx, drawTriangle); err != nil {
		t.Fatal(err)
	}
	good := r.Presented()
	dev.FailNext(record.OpSubmit, nil)
	if err := r.RenderFrame(ctx, drawTriangle); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Fatalf("RenderFrame() = %v, want ErrDeviceLost", err)
	}
	if r.Presented() != good {
		t.Error("presented target changed after a failed submit")
	}
}

func TestRendererResizeAndDestroy(t *testing.T) {
	dev := record.New()
	r, err := NewRenderer(dev, WithSize(16, 16))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RenderFrame(context.Background(), drawTriangle); err != nil {
		t.Fatal(err)
	}
	if err := r.Resize(32, 24); err != nil {
		t.Fatal(err)
	}
	if w, h := r.Size(); w != 32 || h != 24 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	if r.Presented() != gpucore.InvalidID {
		t.Error("Presented() survived Resize")
	}
	if dev.Live(record.KindTarget) != 2 {
		t.Errorf("live targets = %d, want 2", dev.Live(record.KindTarget))
	}

	if err := r.Destroy(); err != nil {
		t.Fatal(err)
	}
	for _, k := range []record.Kind{record.KindTarget, record.KindBuffer, record.KindProgram, record.KindPipeline, record.KindBindings} {
		if n := dev.Live(k); n != 0 {
			t.Errorf("%d %s alive after Destroy", n, k)
		}
	}
	if err := r.RenderFrame(context.Background(), nil); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("RenderFrame after Destroy = %v", err)
	}
	if err := r.Destroy(); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("second Destroy = %v", err)
	}
}

func TestNewRendererNilDevice(t *testing.T) {
	if _, err := NewRenderer(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewRenderer(nil) = %v", err)
	}
}
