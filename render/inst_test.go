// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/gpucore"
)

// TestInstInheritance tests that unset fields come from the innermost
// template that sets them.
func TestInstInheritance(t *testing.T) {
	m := NewInstManager()
	prog := testProgram("outer")

	outer := m.PushTemplate()
	outer.Inst().SetProgram(prog).SetBlend(gpucore.BlendPremultiplied).SetSortKey(5)
	inner := m.PushTemplate()
	inner.Inst().SetSortKey(9).SetCullMode(gputypes.CullModeBack)

	inst := m.NewInst().SetLabel("leaf").SetDraw(DrawParams{VertexCount: 3})
	r := inst.Resolve()
	switch {
	case r.Program != prog:
		t.Error("program not inherited from the outer template")
	case r.Blend != gpucore.BlendPremultiplied:
		t.Errorf("Blend = %s, want premultiplied", r.Blend)
	case r.SortKey != 9:
		t.Errorf("SortKey = %d, want 9 from the inner template", r.SortKey)
	case r.CullMode != gputypes.CullModeBack:
		t.Errorf("CullMode = %v", r.CullMode)
	case r.Topology != gputypes.PrimitiveTopologyTriangleList:
		t.Errorf("Topology = %v, want the triangle list default", r.Topology)
	case r.HasColorFormat || r.HasSampleCount:
		t.Error("target-dependent fields reported as set")
	}

	inner.Pop()
	outer.Pop()
	if m.Depth() != 0 {
		t.Errorf("Depth() = %d after popping", m.Depth())
	}
}

// TestTemplateMutationBeforeSubmit tests that a template change made
// before Submit is seen by the submitted inst, and one made after is not.
func TestTemplateMutationBeforeSubmit(t *testing.T) {
	m := NewInstManager()
	g := m.PushTemplate()
	defer g.Pop()
	g.Inst().SetProgram(testProgram("p")).SetSortKey(1)

	inst := m.NewInst().SetDraw(DrawParams{VertexCount: 6})
	g.Inst().SetSortKey(2)
	if err := m.Submit(inst); err != nil {
		t.Fatal(err)
	}
	g.Inst().SetSortKey(3)

	got := m.MainList().Insts()
	if len(got) != 1 || got[0].SortKey != 2 {
		t.Fatalf("submitted SortKey = %+v, want 2", got)
	}
}

func TestTemplateGuardPopOutOfOrder(t *testing.T) {
	m := NewInstManager()
	outer := m.PushTemplate()
	m.PushTemplate()

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnbalancedTemplateStack) {
			t.Errorf("recover() = %v, want ErrUnbalancedTemplateStack", r)
		}
	}()
	outer.Pop()
	t.Error("Pop out of order did not panic")
}

func TestTemplateGuardDoublePop(t *testing.T) {
	m := NewInstManager()
	g := m.PushTemplate()
	g.Pop()
	defer func() {
		if recover() == nil {
			t.Error("second Pop did not panic")
		}
	}()
	g.Pop()
}

// TestEndFrameUnbalanced tests that EndFrame reports and clears templates
// left on the stack.
func TestEndFrameUnbalanced(t *testing.T) {
	m := NewInstManager()
	m.PushTemplate()
	if err := m.EndFrame(); !errors.Is(err, ErrUnbalancedTemplateStack) {
		t.Fatalf("EndFrame() = %v, want ErrUnbalancedTemplateStack", err)
	}
	if m.Depth() != 0 {
		t.Errorf("Depth() = %d after EndFrame", m.Depth())
	}
	if err := m.EndFrame(); err != nil {
		t.Errorf("EndFrame() on a balanced stack = %v", err)
	}
}

func TestWithTemplate(t *testing.T) {
	m := NewInstManager()
	err := m.WithTemplate(func(tpl *Inst) error {
		tpl.SetProgram(testProgram("p"))
		if m.Depth() != 1 {
			t.Errorf("Depth() = %d inside WithTemplate", m.Depth())
		}
		return m.Submit(m.NewInst().SetDraw(DrawParams{VertexCount: 3}))
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Depth() != 0 || m.Len() != 1 {
		t.Errorf("Depth=%d Len=%d, want 0 and 1", m.Depth(), m.Len())
	}
}

func TestSubmitIncomplete(t *testing.T) {
	m := NewInstManager()
	tests := []struct {
		name string
		inst *Inst
	}{
		{"no program", m.NewInst().SetDraw(DrawParams{VertexCount: 3})},
		{"no draw", m.NewInst().SetProgram(testProgram("p"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.Submit(tt.inst); !errors.Is(err, ErrIncompleteInst) {
				t.Errorf("Submit() = %v, want ErrIncompleteInst", err)
			}
		})
	}
}

// TestSortKeyStable tests that execution follows sort keys and keeps
// submission order among equal keys.
func TestSortKeyStable(t *testing.T) {
	m := NewInstManager()
	prog := testProgram("p")
	keys := []uint64{2, 1, 2, 0, 1}
	for i, k := range keys {
		inst := m.NewInst().SetProgram(prog).SetSortKey(k).
			SetDraw(DrawParams{VertexCount: 3, FirstVertex: uint32(i)})
		if err := m.Submit(inst); err != nil {
			t.Fatal(err)
		}
	}
	m.MainList().sort()
	var got []uint32
	for _, r := range m.MainList().Insts() {
		got = append(got, r.Draw.FirstVertex)
	}
	want := []uint32{3, 1, 4, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("draw order = %v, want %v", got, want)
		}
	}
}

// TestExecuteList tests the commands recorded for a list and that equal
// pipelines are bound once.
func TestExecuteList(t *testing.T) {
	dev := record.New()
	cache := NewCache(dev)
	m := NewInstManager()
	target := newTestTarget(t, dev, "t")
	vb, _ := dev.CreateBuffer(&gpucore.BufferDescriptor{Label: "vb", Size: 64})
	ib, _ := dev.CreateBuffer(&gpucore.BufferDescriptor{Label: "ib", Size: 64})

	g := m.PushTemplate()
	g.Inst().SetProgram(testProgram("p")).
		SetVertexBuffers(VertexBinding{Slot: 0, Buffer: StaticBuffer(vb)}).
		SetIndexBuffer(IndexBinding{Buffer: StaticBuffer(ib), Format: gputypes.IndexFormatUint16})
	for range 2 {
		if err := m.Submit(m.NewInst().SetDraw(DrawParams{IndexCount: 6, InstanceCount: 4})); err != nil {
			t.Fatal(err)
		}
	}
	g.Pop()
	if err := m.Submit(m.NewInst().SetProgram(testProgram("p")).SetDraw(DrawParams{VertexCount: 3})); err != nil {
		t.Fatal(err)
	}

	pass, err := dev.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: target})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Execute(pass, cache, testTarget); err != nil {
		t.Fatal(err)
	}
	if err := pass.End(); err != nil {
		t.Fatal(err)
	}
	if err := dev.Submit(); err != nil {
		t.Fatal(err)
	}

	cmds := dev.Commands()
	if got := countOp(cmds, record.OpSetPipeline); got != 1 {
		t.Errorf("SetPipeline count = %d, want 1", got)
	}
	if got := countOp(cmds, record.OpDrawIndexed); got != 2 {
		t.Errorf("DrawIndexed count = %d, want 2", got)
	}
	for _, c := range cmds {
		if c.Op == record.OpDrawIndexed && c.Args[1] != 4 {
			t.Errorf("instance count = %d, want 4", c.Args[1])
		}
		if c.Op == record.OpDraw && c.Args[1] != 1 {
			t.Errorf("non-instanced draw instance count = %d, want 1", c.Args[1])
		}
	}
	if got := countOp(cmds, record.OpDraw); got != 1 {
		t.Errorf("Draw count = %d, want 1", got)
	}

	if err := m.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if m.Len() != 0 || m.MainList().Len() != 0 {
		t.Errorf("EndFrame left Len=%d main=%d", m.Len(), m.MainList().Len())
	}
}

// TestExecuteSeparateList tests that insts submitted to a secondary list
// stay out of the main list.
func TestExecuteSeparateList(t *testing.T) {
	m := NewInstManager()
	overlay := m.NewList()
	prev := m.SetCurrentList(overlay)
	if prev != m.MainList() {
		t.Fatal("SetCurrentList did not return the main list")
	}
	if err := m.Submit(m.NewInst().SetProgram(testProgram("p")).SetDraw(DrawParams{VertexCount: 3})); err != nil {
		t.Fatal(err)
	}
	m.SetCurrentList(prev)
	if overlay.Len() != 1 || m.MainList().Len() != 0 {
		t.Errorf("overlay=%d main=%d, want 1 and 0", overlay.Len(), m.MainList().Len())
	}
	_ = m.EndFrame()
	if overlay.Len() != 0 {
		t.Error("EndFrame kept the secondary list's insts")
	}
}

func TestInstManagerDestroy(t *testing.T) {
	m := NewInstManager()
	m.Destroy()
	if err := m.Submit(m.NewInst()); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("Submit after Destroy = %v", err)
	}
	if err := m.EndFrame(); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("EndFrame after Destroy = %v", err)
	}
}
