package record

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
)

func newTarget(t *testing.T, d *Device) gpucore.RenderTargetID {
	t.Helper()
	id, err := d.CreateRenderTarget(&gpucore.RenderTargetDescriptor{
		Label: "back", Width: 4, Height: 4, Format: gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	return id
}

func TestWriteBufferBounds(t *testing.T) {
	d := New()
	buf, err := d.CreateBuffer(&gpucore.BufferDescriptor{Label: "b", Size: 8})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteBuffer(buf, 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("in-bounds write: %v", err)
	}
	if err := d.WriteBuffer(buf, 6, []byte{1, 2, 3}); !errors.Is(err, gpucore.ErrOutOfBounds) {
		t.Errorf("out-of-bounds write err = %v, want ErrOutOfBounds", err)
	}
	data, _ := d.BufferData(buf)
	if data[4] != 1 || data[7] != 4 {
		t.Errorf("BufferData() = %v", data)
	}
	writes := d.Writes()
	if len(writes) != 1 || writes[0] != (Write{Buffer: uint64(buf), Offset: 4, Size: 4}) {
		t.Errorf("Writes() = %+v", writes)
	}

	d.DestroyBuffer(buf)
	if err := d.WriteBuffer(buf, 0, []byte{1}); !errors.Is(err, gpucore.ErrInvalidID) {
		t.Errorf("write after destroy err = %v, want ErrInvalidID", err)
	}
	if d.Live(KindBuffer) != 0 || d.Created(KindBuffer) != 1 {
		t.Errorf("live=%d created=%d, want 0/1", d.Live(KindBuffer), d.Created(KindBuffer))
	}
}

func TestPassCommandsCommitOnSubmit(t *testing.T) {
	d := New()
	target := newTarget(t, d)
	before := len(d.Commands())

	pass, err := d.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: target, Load: gputypes.LoadOpClear})
	if err != nil {
		t.Fatal(err)
	}
	pass.Draw(6, 1, 0, 0)
	if err := pass.End(); err != nil {
		t.Fatal(err)
	}
	if got := len(d.CommandsSince(before)); got != 0 {
		t.Fatalf("%d commands visible before Submit", got)
	}
	if err := d.Submit(); err != nil {
		t.Fatal(err)
	}

	var ops []Op
	for _, c := range d.CommandsSince(before) {
		ops = append(ops, c.Op)
	}
	want := []Op{OpBeginPass, OpDraw, OpEndPass, OpSubmit}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestDiscardDropsPass(t *testing.T) {
	d := New()
	target := newTarget(t, d)
	before := len(d.Commands())

	pass, err := d.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: target})
	if err != nil {
		t.Fatal(err)
	}
	pass.Draw(3, 1, 0, 0)
	d.Discard()

	if err := pass.End(); !errors.Is(err, gpucore.ErrPassEnded) {
		t.Errorf("End after Discard err = %v, want ErrPassEnded", err)
	}
	if err := d.Submit(); err != nil {
		t.Fatal(err)
	}
	for _, c := range d.CommandsSince(before) {
		if c.Op == OpDraw {
			t.Error("discarded draw was committed")
		}
	}
}

func TestEncoderValidation(t *testing.T) {
	d := New()
	target := newTarget(t, d)
	pass, err := d.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: target})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: target}); !errors.Is(err, gpucore.ErrPassOpen) {
		t.Errorf("second BeginRenderPass err = %v, want ErrPassOpen", err)
	}
	if err := d.Submit(); !errors.Is(err, gpucore.ErrPassOpen) {
		t.Errorf("Submit with open pass err = %v, want ErrPassOpen", err)
	}
	pass.SetPipeline(99)
	if err := pass.End(); !errors.Is(err, gpucore.ErrInvalidID) {
		t.Errorf("End err = %v, want ErrInvalidID", err)
	}
	if err := pass.End(); !errors.Is(err, gpucore.ErrPassEnded) {
		t.Errorf("second End err = %v, want ErrPassEnded", err)
	}
}

func TestFailNext(t *testing.T) {
	d := New()
	d.FailNext(OpCreateBuffer, nil)
	if _, err := d.CreateBuffer(&gpucore.BufferDescriptor{Size: 4}); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Fatalf("injected fault err = %v", err)
	}
	if _, err := d.CreateBuffer(&gpucore.BufferDescriptor{Size: 4}); err != nil {
		t.Fatalf("fault was not consumed: %v", err)
	}
}

func TestPipelineNeedsProgram(t *testing.T) {
	d := New()
	if _, err := d.CreateRenderPipeline(&gpucore.RenderPipelineDescriptor{Program: 5}); !errors.Is(err, gpucore.ErrInvalidID) {
		t.Errorf("pipeline without program err = %v", err)
	}
	prog, err := d.CreateProgram(&gpucore.ProgramDescriptor{Label: "p", VertexSource: "src"})
	if err != nil {
		t.Fatal(err)
	}
	pipe, err := d.CreateRenderPipeline(&gpucore.RenderPipelineDescriptor{Program: prog, Blend: gpucore.BlendPremultiplied})
	if err != nil {
		t.Fatal(err)
	}
	desc, ok := d.Pipeline(pipe)
	if !ok || desc.Blend != gpucore.BlendPremultiplied {
		t.Errorf("Pipeline(%d) = %+v, %v", pipe, desc, ok)
	}
}

func TestPresentAndDestroy(t *testing.T) {
	d := New()
	target := newTarget(t, d)
	if err := d.Present(target); err != nil {
		t.Fatal(err)
	}
	if d.Presented() != target || d.PresentCount() != 1 {
		t.Errorf("Presented() = %d (%d frames)", d.Presented(), d.PresentCount())
	}
	d.Destroy()
	if d.Live(KindTarget) != 0 {
		t.Errorf("Live(target) = %d after Destroy", d.Live(KindTarget))
	}
	if _, err := d.CreateBuffer(&gpucore.BufferDescriptor{Size: 1}); !errors.Is(err, gpucore.ErrDeviceLost) {
		t.Errorf("create after Destroy err = %v", err)
	}
}
