// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// ResourceID names a render target inside one Graph. Zero means "no
// target".
type ResourceID uint32

// PassFunc records the body of a pass.
type PassFunc func(pc *PassContext) error

// PassDesc declares a render pass: what it reads, what it writes and the
// color target it draws into. Target is implicitly a write.
type PassDesc struct {
	Name   string
	Reads  []ResourceID
	Writes []ResourceID

	// Target is the color attachment of the pass, or zero for passes
	// that only record CPU-side work.
	Target ResourceID

	// Clear clears Target with ClearColor at the start of the pass.
	// Transient targets are cleared on their first write regardless.
	Clear      bool
	ClearColor gputypes.Color

	Exec PassFunc
}

func (d *PassDesc) writes(r ResourceID) bool {
	if d.Target == r {
		return true
	}
	for _, w := range d.Writes {
		if w == r {
			return true
		}
	}
	return false
}

func (d *PassDesc) reads(r ResourceID) bool {
	for _, x := range d.Reads {
		if x == r {
			return true
		}
	}
	return false
}

type graphResource struct {
	name     string
	desc     gpucore.RenderTargetDescriptor
	imported bool
	physical gpucore.RenderTargetID
}

// edgeKind orders dependency strength. A data edge means the later pass
// consumes what the earlier one produced and cannot share its render
// pass; an order edge only fixes the sequence of two writers.
type edgeKind uint8

const (
	edgeOrder edgeKind = iota + 1
	edgeData
)

// Group is a run of passes that share one device render pass.
type Group struct {
	Target ResourceID
	Passes []int
}

// Plan is the compiled schedule of a Graph. Order lists pass indices in
// execution order; Groups partitions Order into device render passes.
type Plan struct {
	Order  []int
	Groups []Group
	names  []string
}

// PassName returns the name of pass i.
func (p *Plan) PassName(i int) string {
	if i < 0 || i >= len(p.names) {
		return ""
	}
	return p.names[i]
}

// String renders the plan as "[a b] -> [c]", one bracket per group.
func (p *Plan) String() string {
	var sb strings.Builder
	for i, g := range p.Groups {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		sb.WriteByte('[')
		for j, idx := range g.Passes {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.names[idx])
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// PassContext is handed to a pass body while its render pass is open.
type PassContext struct {
	// Encoder records into the open render pass. It is nil for passes
	// without a target.
	Encoder gpucore.RenderPassEncoder

	// Target is the physical color attachment.
	Target      gpucore.RenderTargetID
	Format      gputypes.TextureFormat
	SampleCount uint32

	// Name is the name of the executing pass.
	Name string

	ctx   context.Context
	graph *Graph
}

// Context returns the context Execute was called with.
func (pc *PassContext) Context() context.Context { return pc.ctx }

// PassTarget returns the target description insts are prepared against.
func (pc *PassContext) PassTarget() PassTarget {
	return PassTarget{Format: pc.Format, SampleCount: pc.SampleCount}
}

// Resource returns the physical target behind r, for passes that sample
// what an earlier pass drew.
func (pc *PassContext) Resource(r ResourceID) (gpucore.RenderTargetID, error) {
	res, err := pc.graph.resource(r)
	if err != nil {
		return gpucore.InvalidID, err
	}
	return res.physical, nil
}

// Graph schedules the render passes of one frame. Passes are declared
// with the resources they read and write; Compile orders them by those
// dependencies and merges neighbours that draw into the same target, and
// Execute records them on the device.
//
// A Graph is built and executed once. Transient targets come from a
// TargetPool and go back to it on Destroy.
type Graph struct {
	device    gpucore.Device
	pool      *TargetPool
	resources []graphResource
	passes    []PassDesc
	acquired  []ResourceID
	plan      *Plan
	destroyed bool
}

// NewGraph returns an empty graph recording on device. Transient targets
// are taken from pool.
func NewGraph(device gpucore.Device, pool *TargetPool) *Graph {
	return &Graph{device: device, pool: pool}
}

// ImportTarget makes an externally owned target available to passes. The
// graph never clears it unless a pass asks to, and never destroys it.
func (g *Graph) ImportTarget(name string, id gpucore.RenderTargetID, desc gpucore.RenderTargetDescriptor) ResourceID {
	g.resources = append(g.resources, graphResource{name: name, desc: desc, imported: true, physical: id})
	return ResourceID(len(g.resources))
}

// CreateTarget declares a transient target allocated for the duration of
// the frame.
func (g *Graph) CreateTarget(name string, desc gpucore.RenderTargetDescriptor) ResourceID {
	if desc.Label == "" {
		desc.Label = name
	}
	g.resources = append(g.resources, graphResource{name: name, desc: desc})
	return ResourceID(len(g.resources))
}

func (g *Graph) resource(r ResourceID) (*graphResource, error) {
	if r == 0 || int(r) > len(g.resources) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownResource, r)
	}
	return &g.resources[r-1], nil
}

// AddPass declares a pass and returns its index.
func (g *Graph) AddPass(desc PassDesc) (int, error) {
	if g.destroyed {
		return -1, ErrUseAfterDestroy
	}
	if desc.Target != 0 {
		if _, err := g.resource(desc.Target); err != nil {
			return -1, fmt.Errorf("render: pass %q target: %w", desc.Name, err)
		}
	}
	for _, list := range [][]ResourceID{desc.Reads, desc.Writes} {
		for _, r := range list {
			if _, err := g.resource(r); err != nil {
				return -1, fmt.Errorf("render: pass %q: %w", desc.Name, err)
			}
		}
	}
	desc.Reads = append([]ResourceID(nil), desc.Reads...)
	desc.Writes = append([]ResourceID(nil), desc.Writes...)
	g.passes = append(g.passes, desc)
	g.plan = nil
	return len(g.passes) - 1, nil
}

// Len returns the number of declared passes.
func (g *Graph) Len() int { return len(g.passes) }

// dependencies returns, for every pass, the passes it depends on and the
// strongest edge to each.
//
// Writers of a resource run in declaration order. A pass that reads a
// resource without writing it runs after every writer of that resource.
// A pass that reads and writes it runs after the writers declared before
// it.
func (g *Graph) dependencies() []map[int]edgeKind {
	deps := make([]map[int]edgeKind, len(g.passes))
	for i := range deps {
		deps[i] = make(map[int]edgeKind)
	}
	add := func(to, from int, k edgeKind) {
		if to == from {
			return
		}
		if deps[to][from] < k {
			deps[to][from] = k
		}
	}
	for r := ResourceID(1); int(r) <= len(g.resources); r++ {
		var writers []int
		for i := range g.passes {
			if g.passes[i].writes(r) {
				writers = append(writers, i)
			}
		}
		for i := range g.passes {
			p := &g.passes[i]
			reads, writes := p.reads(r), p.writes(r)
			switch {
			case reads && writes:
				for _, w := range writers {
					if w < i {
						add(i, w, edgeData)
					}
				}
			case reads:
				for _, w := range writers {
					add(i, w, edgeData)
				}
			case writes:
				for _, w := range writers {
					if w < i {
						add(i, w, edgeOrder)
					}
				}
			}
		}
	}
	return deps
}

// Compile orders the passes and groups them into device render passes.
// Among passes that are ready, one drawing into the same target as the
// previous pass is preferred, then declaration order. A cycle yields a
// *CycleError.
//
// The plan is kept until the next AddPass, so Execute after Compile
// schedules the same plan without compiling again.
func (g *Graph) Compile() (*Plan, error) {
	if g.destroyed {
		return nil, ErrUseAfterDestroy
	}
	if g.plan != nil {
		return g.plan, nil
	}
	n := len(g.passes)
	deps := g.dependencies()
	pending := make([]int, n)
	succ := make([][]int, n)
	for i, d := range deps {
		pending[i] = len(d)
		for from := range d {
			succ[from] = append(succ[from], i)
		}
	}

	plan := &Plan{Order: make([]int, 0, n), names: make([]string, n)}
	for i := range g.passes {
		plan.names[i] = g.passes[i].Name
	}
	done := make([]bool, n)
	var last ResourceID
	for len(plan.Order) < n {
		pick := -1
		for i := 0; i < n; i++ {
			if done[i] || pending[i] > 0 {
				continue
			}
			if pick < 0 {
				pick = i
			}
			if last != 0 && g.passes[i].Target == last {
				pick = i
				break
			}
		}
		if pick < 0 {
			return nil, &CycleError{Passes: g.findCycle(deps, done)}
		}
		done[pick] = true
		plan.Order = append(plan.Order, pick)
		last = g.passes[pick].Target
		for _, s := range succ[pick] {
			pending[s]--
		}
	}

	for _, idx := range plan.Order {
		p := &g.passes[idx]
		if k := len(plan.Groups); k > 0 && g.canMerge(&plan.Groups[k-1], idx, deps) {
			plan.Groups[k-1].Passes = append(plan.Groups[k-1].Passes, idx)
			continue
		}
		plan.Groups = append(plan.Groups, Group{Target: p.Target, Passes: []int{idx}})
	}
	g.plan = plan
	return plan, nil
}

// canMerge reports whether pass idx may record into the render pass of
// grp: same target, no explicit clear, and nothing in grp it consumes.
func (g *Graph) canMerge(grp *Group, idx int, deps []map[int]edgeKind) bool {
	p := &g.passes[idx]
	if p.Target == 0 || p.Target != grp.Target || p.Clear {
		return false
	}
	for _, prev := range grp.Passes {
		if deps[idx][prev] == edgeData {
			return false
		}
	}
	return true
}

// findCycle walks the unscheduled passes and returns the names along one
// cycle in dependency order.
func (g *Graph) findCycle(deps []map[int]edgeKind, done []bool) []string {
	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(g.passes))
	var stack []int
	var cycle []int
	var visit func(i int) bool
	visit = func(i int) bool {
		color[i] = grey
		stack = append(stack, i)
		for from := 0; from < len(g.passes); from++ {
			if _, ok := deps[i][from]; !ok || done[from] {
				continue
			}
			switch color[from] {
			case grey:
				cycle = append(cycle, from)
				for j := len(stack) - 1; stack[j] != from; j-- {
					cycle = append(cycle, stack[j])
				}
				return true
			case white:
				if visit(from) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		return false
	}
	for i := range g.passes {
		if !done[i] && color[i] == white && visit(i) {
			break
		}
	}
	// The walk follows edges from a pass to its dependencies, so reading
	// the stack downwards from the repeated pass gives execution order.
	names := make([]string, len(cycle))
	for i, idx := range cycle {
		names[i] = g.passes[idx].Name
	}
	return names
}

// Execute compiles the graph, unless Compile already did, and records
// every pass on the device. A
// graph that fails to compile records nothing. Passes in one group share
// a device render pass; its load op clears when the pass asks for it or
// when a transient target is written for the first time.
//
// Execute does not submit. On error the caller is expected to discard the
// device's pending work.
func (g *Graph) Execute(ctx context.Context) error {
	plan, err := g.Compile()
	if err != nil {
		return err
	}
	if err := g.acquire(plan); err != nil {
		return err
	}

	written := make([]bool, len(g.resources)+1)
	for _, grp := range plan.Groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if grp.Target == 0 {
			for _, idx := range grp.Passes {
				p := &g.passes[idx]
				if p.Exec == nil {
					continue
				}
				if err := p.Exec(&PassContext{Name: p.Name, ctx: ctx, graph: g}); err != nil {
					return fmt.Errorf("render: pass %q: %w", p.Name, err)
				}
				g.markWritten(p, written)
			}
			continue
		}
		if err := g.executeGroup(ctx, grp, written); err != nil {
			return err
		}
	}
	gscene.Logger().Debug("render: graph executed", "passes", len(g.passes), "groups", len(plan.Groups))
	return nil
}

func (g *Graph) executeGroup(ctx context.Context, grp Group, written []bool) error {
	res := &g.resources[grp.Target-1]
	first := &g.passes[grp.Passes[0]]
	load := gputypes.LoadOpLoad
	if first.Clear || (!written[grp.Target] && !res.imported) {
		load = gputypes.LoadOpClear
	}
	enc, err := g.device.BeginRenderPass(&gpucore.RenderPassDescriptor{
		Label:      first.Name,
		Target:     res.physical,
		Load:       load,
		ClearColor: first.ClearColor,
	})
	if err != nil {
		return fmt.Errorf("render: begin pass %q: %w", first.Name, err)
	}
	pc := PassContext{
		Encoder:     enc,
		Target:      res.physical,
		Format:      res.desc.Format,
		SampleCount: max(res.desc.SampleCount, 1),
		ctx:         ctx,
		graph:       g,
	}
	for _, idx := range grp.Passes {
		p := &g.passes[idx]
		if p.Exec != nil {
			pc.Name = p.Name
			if err := p.Exec(&pc); err != nil {
				_ = enc.End()
				return fmt.Errorf("render: pass %q: %w", p.Name, err)
			}
		}
		g.markWritten(p, written)
	}
	if err := enc.End(); err != nil {
		return fmt.Errorf("render: end pass %q: %w", first.Name, err)
	}
	return nil
}

func (g *Graph) markWritten(p *PassDesc, written []bool) {
	written[p.Target] = true
	for _, w := range p.Writes {
		written[w] = true
	}
}

// acquire allocates the transient targets any pass references.
func (g *Graph) acquire(plan *Plan) error {
	used := make([]bool, len(g.resources)+1)
	for _, idx := range plan.Order {
		p := &g.passes[idx]
		used[p.Target] = true
		for _, r := range p.Reads {
			used[r] = true
		}
		for _, r := range p.Writes {
			used[r] = true
		}
	}
	for r := ResourceID(1); int(r) <= len(g.resources); r++ {
		res := &g.resources[r-1]
		if !used[r] || res.imported || res.physical != gpucore.InvalidID {
			continue
		}
		if g.pool == nil {
			return fmt.Errorf("render: transient target %q: no target pool", res.name)
		}
		id, err := g.pool.Acquire(&res.desc)
		if err != nil {
			return err
		}
		res.physical = id
		g.acquired = append(g.acquired, r)
	}
	return nil
}

// Destroy returns transient targets to the pool. The graph cannot be used
// afterwards.
func (g *Graph) Destroy() {
	if g.destroyed {
		return
	}
	for _, r := range g.acquired {
		res := &g.resources[r-1]
		g.pool.Release(res.physical)
		res.physical = gpucore.InvalidID
	}
	g.acquired = nil
	g.destroyed = true
}
