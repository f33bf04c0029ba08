// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// submitted is one resolved inst waiting for execution.
type submitted struct {
	inst ResolvedInst
	seq  int
}

// InstList is an ordered list of submitted insts. A frame usually uses
// the manager's main list; passes that draw separate content record into
// their own list.
type InstList struct {
	items []*submitted
}

// Len returns the number of insts in the list.
func (l *InstList) Len() int { return len(l.items) }

// Insts returns the resolved insts in execution order.
func (l *InstList) Insts() []ResolvedInst {
	l.sort()
	out := make([]ResolvedInst, len(l.items))
	for i, s := range l.items {
		out[i] = s.inst
	}
	return out
}

func (l *InstList) sort() {
	sort.SliceStable(l.items, func(a, b int) bool {
		return l.items[a].inst.SortKey < l.items[b].inst.SortKey
	})
}

// PassTarget describes the target an inst list executes against.
type PassTarget struct {
	Format      gputypes.TextureFormat
	SampleCount uint32
}

// TemplateGuard is the scoped handle of a pushed template. Pop it, usually
// with defer, before the frame ends:
//
//	g := m.PushTemplate()
//	defer g.Pop()
//	g.Inst().SetProgram(prog)
type TemplateGuard struct {
	m      *InstManager
	inst   *Inst
	depth  int
	popped bool
}

// Inst returns the template inst.
func (g *TemplateGuard) Inst() *Inst { return g.inst }

// Pop removes the template from the stack. Popping a guard that is not on
// top of the stack, or popping twice, is a programming error and panics
// with ErrUnbalancedTemplateStack.
func (g *TemplateGuard) Pop() {
	m := g.m
	if g.popped || len(m.templates) != g.depth || m.templates[g.depth-1] != g.inst {
		panic(fmt.Errorf("%w: template popped out of order (depth %d, stack %d)",
			ErrUnbalancedTemplateStack, g.depth, len(m.templates)))
	}
	g.popped = true
	m.templates = m.templates[:g.depth-1]
}

// InstManager records the insts of a frame. It owns the template stack:
// insts created while templates are pushed inherit every field they leave
// unset from the innermost template that sets it. Inheritance is resolved
// at Submit, so template changes made before an inst is submitted are
// visible in that inst.
//
// InstManager is not safe for concurrent use.
type InstManager struct {
	templates []*Inst
	main      *InstList
	current   *InstList
	lists     []*InstList

	// frame-owned records, recycled at EndFrame
	live      []*Inst
	records   []*submitted
	instPool  sync.Pool
	recPool   sync.Pool
	seq       int
	destroyed bool
}

// NewInstManager returns an empty manager.
func NewInstManager() *InstManager {
	m := &InstManager{
		instPool: sync.Pool{New: func() any { return new(Inst) }},
		recPool:  sync.Pool{New: func() any { return new(submitted) }},
	}
	m.main = &InstList{}
	m.current = m.main
	return m
}

func (m *InstManager) newInst(parent *Inst) *Inst {
	inst := m.instPool.Get().(*Inst)
	inst.reset()
	inst.parent = parent
	m.live = append(m.live, inst)
	return inst
}

// PushTemplate pushes a new template inheriting from the current top.
func (m *InstManager) PushTemplate() *TemplateGuard {
	t := m.newInst(m.CurrentTemplate())
	m.templates = append(m.templates, t)
	return &TemplateGuard{m: m, inst: t, depth: len(m.templates)}
}

// WithTemplate pushes a template, runs fn and pops the template again,
// also when fn panics.
func (m *InstManager) WithTemplate(fn func(t *Inst) error) error {
	g := m.PushTemplate()
	defer g.Pop()
	return fn(g.Inst())
}

// CurrentTemplate returns the innermost template, or nil.
func (m *InstManager) CurrentTemplate() *Inst {
	if len(m.templates) == 0 {
		return nil
	}
	return m.templates[len(m.templates)-1]
}

// Depth returns the number of pushed templates.
func (m *InstManager) Depth() int { return len(m.templates) }

// NewInst returns an inst inheriting from the current template.
func (m *InstManager) NewInst() *Inst {
	return m.newInst(m.CurrentTemplate())
}

// MainList returns the list insts are submitted to by default.
func (m *InstManager) MainList() *InstList { return m.main }

// NewList returns an empty list owned by the current frame.
func (m *InstManager) NewList() *InstList {
	l := &InstList{}
	m.lists = append(m.lists, l)
	return l
}

// SetCurrentList directs Submit to l and returns the previous list.
func (m *InstManager) SetCurrentList(l *InstList) *InstList {
	prev := m.current
	m.current = l
	return prev
}

// Submit resolves inst against its template chain and appends it to the
// current list. An inst must resolve to a program and draw parameters.
func (m *InstManager) Submit(inst *Inst) error {
	if m.destroyed {
		return ErrUseAfterDestroy
	}
	r := inst.Resolve()
	switch {
	case r.Program == nil:
		return fmt.Errorf("%w: %q has no program", ErrIncompleteInst, r.Label)
	case !r.HasDraw:
		return fmt.Errorf("%w: %q has no draw parameters", ErrIncompleteInst, r.Label)
	}
	s := m.recPool.Get().(*submitted)
	s.inst = r
	s.seq = m.seq
	m.seq++
	m.records = append(m.records, s)
	m.current.items = append(m.current.items, s)
	return nil
}

// Len returns the number of insts submitted this frame.
func (m *InstManager) Len() int { return len(m.records) }

// Execute draws the main list into pass; see ExecuteList.
func (m *InstManager) Execute(pass gpucore.RenderPassEncoder, cache *Cache, target PassTarget) error {
	return m.ExecuteList(m.main, pass, cache, target)
}

// ExecuteList records the insts of l into pass in SortKey order, stable
// on submission order. Programs, pipelines, samplers and bindings come
// from cache. Redundant pipeline changes are skipped.
func (m *InstManager) ExecuteList(l *InstList, pass gpucore.RenderPassEncoder, cache *Cache, target PassTarget) error {
	if m.destroyed {
		return ErrUseAfterDestroy
	}
	l.sort()
	var bound gpucore.PipelineID
	for _, s := range l.items {
		pipeline, bindings, err := prepareInst(&s.inst, cache, target)
		if err != nil {
			return fmt.Errorf("render: inst %q: %w", s.inst.Label, err)
		}
		if pipeline != bound {
			pass.SetPipeline(pipeline)
			bound = pipeline
		}
		if bindings != gpucore.InvalidID {
			pass.SetBindings(0, bindings, nil)
		}
		for _, vb := range s.inst.VertexBuffers {
			pass.SetVertexBuffer(vb.Slot, vb.Buffer.Buffer(), vb.Offset)
		}
		d := s.inst.Draw
		instances := max(d.InstanceCount, 1)
		if d.Indexed() {
			ib := s.inst.IndexBuffer
			if ib.Buffer == nil {
				return fmt.Errorf("render: inst %q: %w: indexed draw without index buffer", s.inst.Label, ErrIncompleteInst)
			}
			pass.SetIndexBuffer(ib.Buffer.Buffer(), ib.Format, ib.Offset)
			pass.DrawIndexed(d.IndexCount, instances, d.FirstIndex, d.BaseVertex, d.FirstInstance)
		} else {
			pass.Draw(d.VertexCount, instances, d.FirstVertex, d.FirstInstance)
		}
	}
	gscene.Logger().Debug("render: executed insts", "count", len(l.items))
	return nil
}

func prepareInst(r *ResolvedInst, cache *Cache, target PassTarget) (gpucore.PipelineID, gpucore.BindingsID, error) {
	program, err := cache.Program(r.Program)
	if err != nil {
		return 0, 0, err
	}
	desc := gpucore.RenderPipelineDescriptor{
		Label:         r.Label,
		Program:       program,
		Topology:      r.Topology,
		CullMode:      r.CullMode,
		FrontFace:     r.FrontFace,
		ColorFormat:   target.Format,
		Blend:         r.Blend,
		VertexBuffers: r.VertexLayouts,
		SampleCount:   max(target.SampleCount, 1),
	}
	if r.HasColorFormat {
		desc.ColorFormat = r.ColorFormat
	}
	if r.HasSampleCount {
		desc.SampleCount = r.SampleCount
	}
	pipeline, err := cache.Pipeline(&desc)
	if err != nil {
		return 0, 0, err
	}
	if len(r.Uniforms) == 0 && len(r.Samplers) == 0 {
		return pipeline, gpucore.InvalidID, nil
	}

	bd := gpucore.BindingsDescriptor{Label: r.Label, Program: program}
	for _, u := range r.Uniforms {
		bd.Uniforms = append(bd.Uniforms, gpucore.BufferBinding{
			Binding: u.Binding, Buffer: u.Buffer.Buffer(), Offset: u.Offset, Size: u.Size,
		})
	}
	for _, s := range r.Samplers {
		sampler, err := cache.Sampler(&s.Sampler)
		if err != nil {
			return 0, 0, err
		}
		bd.Samplers = append(bd.Samplers, gpucore.SamplerBinding{Binding: s.Binding, Sampler: sampler})
	}
	bindings, err := cache.Bindings(&bd)
	if err != nil {
		return 0, 0, err
	}
	return pipeline, bindings, nil
}

// EndFrame releases the frame's insts and lists. If templates are still
// pushed, the stack is reset and ErrUnbalancedTemplateStack is returned;
// the frame must then be aborted.
func (m *InstManager) EndFrame() error {
	if m.destroyed {
		return ErrUseAfterDestroy
	}
	var err error
	if n := len(m.templates); n > 0 {
		err = fmt.Errorf("%w: %d template(s) still pushed at end of frame", ErrUnbalancedTemplateStack, n)
		clear(m.templates)
		m.templates = m.templates[:0]
	}
	m.release()
	return err
}

func (m *InstManager) release() {
	for _, inst := range m.live {
		inst.parent = nil
		m.instPool.Put(inst)
	}
	clear(m.live)
	m.live = m.live[:0]
	for _, s := range m.records {
		s.inst = ResolvedInst{}
		m.recPool.Put(s)
	}
	clear(m.records)
	m.records = m.records[:0]
	m.main.items = m.main.items[:0]
	for _, l := range m.lists {
		l.items = nil
	}
	m.lists = m.lists[:0]
	m.current = m.main
	m.seq = 0
}

// Destroy releases all per-frame records. Cached resources are untouched.
func (m *InstManager) Destroy() {
	if m.destroyed {
		return
	}
	m.templates = nil
	m.release()
	m.destroyed = true
}
