// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/gpucore"
)

var transientDesc = gpucore.RenderTargetDescriptor{
	Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm,
}

func mustAddPass(t *testing.T, g *Graph, desc PassDesc) int {
	t.Helper()
	i, err := g.AddPass(desc)
	if err != nil {
		t.Fatalf("AddPass(%q): %v", desc.Name, err)
	}
	return i
}

func planNames(p *Plan) [][]string {
	var out [][]string
	for _, grp := range p.Groups {
		var names []string
		for _, i := range grp.Passes {
			names = append(names, p.PassName(i))
		}
		out = append(out, names)
	}
	return out
}

// TestGraphMergesSameTarget tests that consecutive passes drawing into
// one target share a render pass.
func TestGraphMergesSameTarget(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	back := g.ImportTarget("back", newTestTarget(t, dev, "back"), transientDesc)

	mustAddPass(t, g, PassDesc{Name: "main", Target: back, Clear: true})
	mustAddPass(t, g, PassDesc{Name: "overlay", Target: back})
	mustAddPass(t, g, PassDesc{Name: "cursor", Target: back})

	plan, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"main", "overlay", "cursor"}}
	if diff := cmp.Diff(want, planNames(plan)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if got := plan.String(); got != "[main overlay cursor]" {
		t.Errorf("String() = %q", got)
	}
}

// TestGraphDependencies tests ordering by reads and writes and that a
// pass consuming a target is not merged with its producer.
func TestGraphDependencies(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	back := g.ImportTarget("back", newTestTarget(t, dev, "back"), transientDesc)
	shadow := g.CreateTarget("shadow", transientDesc)
	blur := g.CreateTarget("blur", transientDesc)

	// Declared out of order on purpose.
	mustAddPass(t, g, PassDesc{Name: "composite", Target: back, Reads: []ResourceID{blur}})
	mustAddPass(t, g, PassDesc{Name: "blur", Target: blur, Reads: []ResourceID{shadow}})
	mustAddPass(t, g, PassDesc{Name: "shadow", Target: shadow})
	mustAddPass(t, g, PassDesc{Name: "ui", Target: back})

	plan, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"shadow"}, {"blur"}, {"composite", "ui"}}
	if diff := cmp.Diff(want, planNames(plan)); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

// TestGraphReadWriteNotMerged tests that a pass reading the target it
// writes starts a new render pass.
func TestGraphReadWriteNotMerged(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	back := g.ImportTarget("back", newTestTarget(t, dev, "back"), transientDesc)
	mustAddPass(t, g, PassDesc{Name: "draw", Target: back})
	mustAddPass(t, g, PassDesc{Name: "filter", Target: back, Reads: []ResourceID{back}})

	plan, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Groups) != 2 {
		t.Errorf("groups = %v, want 2", planNames(plan))
	}
}

// TestGraphCycle tests that a cycle is reported before any device work.
func TestGraphCycle(t *testing.T) {
	dev := record.New()
	pool := NewTargetPool(dev)
	g := NewGraph(dev, pool)
	x := g.CreateTarget("x", transientDesc)
	y := g.CreateTarget("y", transientDesc)
	ran := false
	exec := func(*PassContext) error { ran = true; return nil }
	mustAddPass(t, g, PassDesc{Name: "a", Reads: []ResourceID{x}, Target: y, Exec: exec})
	mustAddPass(t, g, PassDesc{Name: "b", Reads: []ResourceID{y}, Target: x, Exec: exec})
	before := len(dev.Commands())

	err := g.Execute(context.Background())
	if !errors.Is(err, ErrGraphCycle) {
		t.Fatalf("Execute() = %v, want ErrGraphCycle", err)
	}
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("error %T is not *CycleError", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ce.Passes); diff != "" {
		t.Errorf("cycle mismatch (-want +got):\n%s", diff)
	}
	if got := ce.Error(); got != "render: render graph has a dependency cycle: a -> b -> a" {
		t.Errorf("Error() = %q", got)
	}
	if ran {
		t.Error("a pass body ran")
	}
	if cmds := dev.CommandsSince(before); len(cmds) != 0 {
		t.Errorf("device saw %v", cmds)
	}
	if pool.Created() != 0 {
		t.Errorf("pool created %d targets", pool.Created())
	}
}

// TestGraphCompileKeepsPlan tests that a compiled plan is reused until a
// pass is added.
func TestGraphCompileKeepsPlan(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	back := g.ImportTarget("back", newTestTarget(t, dev, "back"), transientDesc)
	mustAddPass(t, g, PassDesc{Name: "main", Target: back, Clear: true})

	first, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	again, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if first != again {
		t.Error("second Compile built a new plan")
	}

	mustAddPass(t, g, PassDesc{Name: "overlay", Target: back})
	plan, err := g.Compile()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{{"main", "overlay"}}
	if diff := cmp.Diff(want, planNames(plan)); diff != "" {
		t.Errorf("groups after AddPass mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphUnknownResource(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	if _, err := g.AddPass(PassDesc{Name: "p", Target: 3}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("AddPass(unknown target) = %v", err)
	}
	if _, err := g.AddPass(PassDesc{Name: "p", Reads: []ResourceID{0}}); !errors.Is(err, ErrUnknownResource) {
		t.Errorf("AddPass(read 0) = %v", err)
	}
}

// TestGraphExecute tests load ops, pass bodies and transient targets.
func TestGraphExecute(t *testing.T) {
	dev := record.New()
	pool := NewTargetPool(dev)
	g := NewGraph(dev, pool)
	backID := newTestTarget(t, dev, "back")
	back := g.ImportTarget("back", backID, transientDesc)
	tmp := g.CreateTarget("tmp", transientDesc)

	var order []string
	var tmpID gpucore.RenderTargetID
	note := func(pc *PassContext) error {
		order = append(order, pc.Name)
		if pc.Encoder == nil {
			t.Errorf("pass %q has no encoder", pc.Name)
		}
		return nil
	}
	mustAddPass(t, g, PassDesc{Name: "offscreen", Target: tmp, Exec: note})
	mustAddPass(t, g, PassDesc{Name: "main", Target: back, Reads: []ResourceID{tmp}, Exec: func(pc *PassContext) error {
		var err error
		tmpID, err = pc.Resource(tmp)
		if err != nil {
			return err
		}
		return note(pc)
	}})
	mustAddPass(t, g, PassDesc{Name: "hud", Target: back, Exec: note})
	mustAddPass(t, g, PassDesc{Name: "stats", Exec: func(pc *PassContext) error {
		if pc.Encoder != nil {
			t.Error("targetless pass got an encoder")
		}
		order = append(order, pc.Name)
		return nil
	}})
	before := len(dev.Commands())

	if err := g.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := dev.Submit(); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"offscreen", "main", "hud", "stats"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	var begins []record.Command
	for _, c := range dev.CommandsSince(before) {
		if c.Op == record.OpBeginPass {
			begins = append(begins, c)
		}
	}
	if len(begins) != 2 {
		t.Fatalf("BeginPass count = %d, want 2", len(begins))
	}
	if begins[0].ID != uint64(tmpID) || begins[0].Load != gputypes.LoadOpClear {
		t.Errorf("first pass = %+v, want clear of the transient", begins[0])
	}
	if begins[1].ID != uint64(backID) || begins[1].Load != gputypes.LoadOpLoad {
		t.Errorf("second pass = %+v, want load of the imported target", begins[1])
	}

	if pool.Created() != 1 || pool.Free() != 0 {
		t.Errorf("pool created=%d free=%d before Destroy", pool.Created(), pool.Free())
	}
	g.Destroy()
	if pool.Free() != 1 {
		t.Errorf("pool free = %d after Destroy, want 1", pool.Free())
	}
	if _, err := g.AddPass(PassDesc{Name: "late"}); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("AddPass after Destroy = %v", err)
	}
}

// TestGraphExecuteError tests that a failing body ends its pass and stops
// execution.
func TestGraphExecuteError(t *testing.T) {
	dev := record.New()
	g := NewGraph(dev, NewTargetPool(dev))
	back := g.ImportTarget("back", newTestTarget(t, dev, "back"), transientDesc)
	boom := errors.New("boom")
	ranLater := false
	mustAddPass(t, g, PassDesc{Name: "bad", Target: back, Exec: func(*PassContext) error { return boom }})
	mustAddPass(t, g, PassDesc{Name: "later", Target: back, Clear: true, Exec: func(*PassContext) error {
		ranLater = true
		return nil
	}})
	if err := g.Execute(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Execute() = %v, want boom", err)
	}
	if ranLater {
		t.Error("pass after the failure ran")
	}
	// The failed pass was ended, so a new one can begin.
	if _, err := dev.BeginRenderPass(&gpucore.RenderPassDescriptor{Target: 1}); err != nil {
		t.Errorf("BeginRenderPass after failure: %v", err)
	}
}

// TestTargetPoolReuse tests that released targets are reused for equal
// descriptors only.
func TestTargetPoolReuse(t *testing.T) {
	dev := record.New()
	pool := NewTargetPool(dev)
	a, err := pool.Acquire(&transientDesc)
	if err != nil {
		t.Fatal(err)
	}
	pool.Release(a)
	b, _ := pool.Acquire(&transientDesc)
	if a != b {
		t.Errorf("released target not reused: %d != %d", a, b)
	}
	big := transientDesc
	big.Width = 16
	c, _ := pool.Acquire(&big)
	if c == a {
		t.Error("target of a different size was reused")
	}
	pool.Release(42)
	if pool.Created() != 2 || pool.Free() != 0 {
		t.Errorf("created=%d free=%d, want 2 and 0", pool.Created(), pool.Free())
	}

	pool.Destroy()
	if dev.Live(record.KindTarget) != 0 {
		t.Errorf("%d targets alive after Destroy", dev.Live(record.KindTarget))
	}
	if _, err := pool.Acquire(&transientDesc); !errors.Is(err, ErrUseAfterDestroy) {
		t.Errorf("Acquire after Destroy = %v", err)
	}
}
