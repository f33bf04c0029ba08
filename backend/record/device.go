package record

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/gpucore"
)

// resource is one live device object. Only the field matching kind is set.
type resource struct {
	kind  Kind
	label string

	data     []byte
	program  *gpucore.ProgramDescriptor
	pipeline *gpucore.RenderPipelineDescriptor
	target   *gpucore.RenderTargetDescriptor
}

// Device is an in-memory gpucore.Device. The zero value is not usable;
// call New.
type Device struct {
	mu sync.Mutex

	nextID    uint64
	resources map[uint64]*resource

	log     []Command
	pending []Command
	writes  []Write

	open      *encoder
	presented gpucore.RenderTargetID
	frames    int

	created [numKinds]int
	live    [numKinds]int

	faults    map[Op]error
	destroyed bool
}

var _ gpucore.Device = (*Device)(nil)

// New returns an empty recording device.
func New() *Device {
	return &Device{
		resources: make(map[uint64]*resource),
		faults:    make(map[Op]error),
	}
}

// FailNext makes the next operation op fail with err. A nil err fails
// with gpucore.ErrDeviceLost.
func (d *Device) FailNext(op Op, err error) {
	if err == nil {
		err = gpucore.ErrDeviceLost
	}
	d.mu.Lock()
	d.faults[op] = err
	d.mu.Unlock()
}

// fault consumes an injected fault for op. Called with mu held.
func (d *Device) fault(op Op) error {
	if d.destroyed {
		return gpucore.ErrDeviceLost
	}
	if err, ok := d.faults[op]; ok {
		delete(d.faults, op)
		return fmt.Errorf("record: %s: %w", op, err)
	}
	return nil
}

func (d *Device) add(r *resource) uint64 {
	d.nextID++
	d.resources[d.nextID] = r
	d.created[r.kind]++
	d.live[r.kind]++
	return d.nextID
}

func (d *Device) lookup(id uint64, kind Kind) (*resource, error) {
	r, ok := d.resources[id]
	if !ok || r.kind != kind {
		return nil, fmt.Errorf("record: %s #%d: %w", kind, id, gpucore.ErrInvalidID)
	}
	return r, nil
}

func (d *Device) remove(id uint64, kind Kind, op Op) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.resources[id]
	if !ok || r.kind != kind {
		return
	}
	delete(d.resources, id)
	d.live[kind]--
	d.log = append(d.log, Command{Op: op, ID: id, Label: r.label})
}

func (d *Device) create(op Op, r *resource) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(op); err != nil {
		return gpucore.InvalidID, err
	}
	id := d.add(r)
	d.log = append(d.log, Command{Op: op, ID: id, Label: r.label})
	return id, nil
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc *gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	id, err := d.create(OpCreateBuffer, &resource{kind: KindBuffer, label: desc.Label, data: make([]byte, desc.Size)})
	return gpucore.BufferID(id), err
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.remove(uint64(id), KindBuffer, OpDestroyBuffer)
}

// WriteBuffer implements gpucore.Device. Writes past the end of the
// buffer fail with gpucore.ErrOutOfBounds.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(OpWriteBuffer); err != nil {
		return err
	}
	r, err := d.lookup(uint64(id), KindBuffer)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > uint64(len(r.data)) {
		return fmt.Errorf("record: write [%d,%d) into %d-byte buffer %q: %w",
			offset, end, len(r.data), r.label, gpucore.ErrOutOfBounds)
	}
	copy(r.data[offset:], data)
	d.writes = append(d.writes, Write{Buffer: uint64(id), Offset: offset, Size: uint64(len(data))})
	//nolint:gosec // G115: recorded sizes are test-scale
	d.log = append(d.log, Command{Op: OpWriteBuffer, ID: uint64(id), Args: []int64{int64(offset), int64(len(data))}})
	return nil
}

// CreateProgram implements gpucore.Device.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	if desc.VertexSource == "" {
		return gpucore.InvalidID, fmt.Errorf("record: program %q has no vertex source", desc.Label)
	}
	cp := *desc
	id, err := d.create(OpCreateProgram, &resource{kind: KindProgram, label: desc.Label, program: &cp})
	return gpucore.ProgramID(id), err
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.remove(uint64(id), KindProgram, OpDestroyProgram)
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDescriptor) (gpucore.PipelineID, error) {
	d.mu.Lock()
	_, err := d.lookup(uint64(desc.Program), KindProgram)
	d.mu.Unlock()
	if err != nil {
		return gpucore.InvalidID, err
	}
	cp := *desc
	id, err := d.create(OpCreatePipeline, &resource{kind: KindPipeline, label: desc.Label, pipeline: &cp})
	return gpucore.PipelineID(id), err
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.PipelineID) {
	d.remove(uint64(id), KindPipeline, OpDestroyPipeline)
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDescriptor) (gpucore.SamplerID, error) {
	id, err := d.create(OpCreateSampler, &resource{kind: KindSampler, label: desc.Label})
	return gpucore.SamplerID(id), err
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.remove(uint64(id), KindSampler, OpDestroySampler)
}

// CreateBindings implements gpucore.Device. Every referenced buffer and
// sampler must be alive.
func (d *Device) CreateBindings(desc *gpucore.BindingsDescriptor) (gpucore.BindingsID, error) {
	d.mu.Lock()
	err := d.checkBindings(desc)
	d.mu.Unlock()
	if err != nil {
		return gpucore.InvalidID, err
	}
	id, err := d.create(OpCreateBindings, &resource{kind: KindBindings, label: desc.Label})
	return gpucore.BindingsID(id), err
}

func (d *Device) checkBindings(desc *gpucore.BindingsDescriptor) error {
	if _, err := d.lookup(uint64(desc.Program), KindProgram); err != nil {
		return err
	}
	for _, u := range desc.Uniforms {
		r, err := d.lookup(uint64(u.Buffer), KindBuffer)
		if err != nil {
			return err
		}
		if u.Offset+u.Size > uint64(len(r.data)) {
			return fmt.Errorf("record: binding %d range exceeds buffer %q: %w", u.Binding, r.label, gpucore.ErrOutOfBounds)
		}
	}
	for _, s := range desc.Samplers {
		if _, err := d.lookup(uint64(s.Sampler), KindSampler); err != nil {
			return err
		}
	}
	return nil
}

// DestroyBindings implements gpucore.Device.
func (d *Device) DestroyBindings(id gpucore.BindingsID) {
	d.remove(uint64(id), KindBindings, OpDestroyBindings)
}

// CreateRenderTarget implements gpucore.Device.
func (d *Device) CreateRenderTarget(desc *gpucore.RenderTargetDescriptor) (gpucore.RenderTargetID, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("record: target %q has zero size", desc.Label)
	}
	cp := *desc
	id, err := d.create(OpCreateTarget, &resource{kind: KindTarget, label: desc.Label, target: &cp})
	return gpucore.RenderTargetID(id), err
}

// DestroyRenderTarget implements gpucore.Device.
func (d *Device) DestroyRenderTarget(id gpucore.RenderTargetID) {
	d.remove(uint64(id), KindTarget, OpDestroyTarget)
}

// BeginRenderPass implements gpucore.Device.
func (d *Device) BeginRenderPass(desc *gpucore.RenderPassDescriptor) (gpucore.RenderPassEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(OpBeginPass); err != nil {
		return nil, err
	}
	if d.open != nil {
		return nil, gpucore.ErrPassOpen
	}
	if _, err := d.lookup(uint64(desc.Target), KindTarget); err != nil {
		return nil, err
	}
	d.open = &encoder{dev: d}
	d.pending = append(d.pending, Command{Op: OpBeginPass, ID: uint64(desc.Target), Label: desc.Label, Load: desc.Load})
	return d.open, nil
}

// Submit implements gpucore.Device.
func (d *Device) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(OpSubmit); err != nil {
		d.pending = d.pending[:0]
		return err
	}
	if d.open != nil {
		return gpucore.ErrPassOpen
	}
	d.log = append(d.log, d.pending...)
	d.log = append(d.log, Command{Op: OpSubmit})
	d.pending = d.pending[:0]
	return nil
}

// Discard implements gpucore.Device.
func (d *Device) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open != nil {
		d.open.ended = true
		d.open = nil
	}
	d.pending = d.pending[:0]
}

// Present implements gpucore.Device.
func (d *Device) Present(target gpucore.RenderTargetID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fault(OpPresent); err != nil {
		return err
	}
	if _, err := d.lookup(uint64(target), KindTarget); err != nil {
		return err
	}
	d.presented = target
	d.frames++
	d.log = append(d.log, Command{Op: OpPresent, ID: uint64(target)})
	return nil
}

// Destroy implements gpucore.Device. Later operations fail with
// gpucore.ErrDeviceLost.
func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, r := range d.resources {
		d.live[r.kind]--
		delete(d.resources, id)
	}
	d.pending = nil
	d.open = nil
	d.destroyed = true
}

// Commands returns a copy of the committed command log. Pass commands
// appear once their frame is submitted.
func (d *Device) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.log...)
}

// CommandsSince returns the committed commands logged after the first n.
func (d *Device) CommandsSince(n int) []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n > len(d.log) {
		return nil
	}
	return append([]Command(nil), d.log[n:]...)
}

// Writes returns a copy of the buffer write log.
func (d *Device) Writes() []Write {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Write(nil), d.writes...)
}

// ResetLogs clears the command and write logs.
func (d *Device) ResetLogs() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = nil
	d.writes = nil
}

// BufferData returns a copy of a buffer's contents.
func (d *Device) BufferData(id gpucore.BufferID) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.lookup(uint64(id), KindBuffer)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), r.data...), nil
}

// Program returns the descriptor a program was created from.
func (d *Device) Program(id gpucore.ProgramID) (*gpucore.ProgramDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.lookup(uint64(id), KindProgram)
	if err != nil {
		return nil, false
	}
	return r.program, true
}

// Pipeline returns the descriptor a pipeline was created from.
func (d *Device) Pipeline(id gpucore.PipelineID) (*gpucore.RenderPipelineDescriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, err := d.lookup(uint64(id), KindPipeline)
	if err != nil {
		return nil, false
	}
	return r.pipeline, true
}

// Created returns how many resources of kind k were ever created.
func (d *Device) Created(k Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[k]
}

// Live returns how many resources of kind k are alive.
func (d *Device) Live(k Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[k]
}

// Presented returns the most recently presented target.
func (d *Device) Presented() gpucore.RenderTargetID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presented
}

// PresentCount returns how many frames have been presented.
func (d *Device) PresentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// encoder records one pass into the device's pending log.
type encoder struct {
	dev   *Device
	err   error
	ended bool
}

func (e *encoder) record(c Command, kind Kind, ids ...uint64) {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	if e.ended {
		if e.err == nil {
			e.err = gpucore.ErrPassEnded
		}
		return
	}
	for _, id := range ids {
		if _, err := e.dev.lookup(id, kind); err != nil {
			if e.err == nil {
				e.err = err
			}
			return
		}
	}
	e.dev.pending = append(e.dev.pending, c)
}

func (e *encoder) SetPipeline(id gpucore.PipelineID) {
	e.record(Command{Op: OpSetPipeline, ID: uint64(id)}, KindPipeline, uint64(id))
}

func (e *encoder) SetBindings(index uint32, id gpucore.BindingsID, dynamicOffsets []uint32) {
	args := []int64{int64(index)}
	for _, off := range dynamicOffsets {
		args = append(args, int64(off))
	}
	e.record(Command{Op: OpSetBindings, ID: uint64(id), Args: args}, KindBindings, uint64(id))
}

//nolint:gosec // G115: offsets are test-scale
func (e *encoder) SetVertexBuffer(slot uint32, id gpucore.BufferID, offset uint64) {
	e.record(Command{Op: OpSetVertexBuffer, ID: uint64(id), Args: []int64{int64(slot), int64(offset)}}, KindBuffer, uint64(id))
}

//nolint:gosec // G115: offsets are test-scale
func (e *encoder) SetIndexBuffer(id gpucore.BufferID, format gputypes.IndexFormat, offset uint64) {
	e.record(Command{Op: OpSetIndexBuffer, ID: uint64(id), Args: []int64{int64(format), int64(offset)}}, KindBuffer, uint64(id))
}

func (e *encoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	e.record(Command{Op: OpDraw, Args: []int64{
		int64(vertexCount), int64(instanceCount), int64(firstVertex), int64(firstInstance),
	}}, KindBuffer)
}

func (e *encoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	e.record(Command{Op: OpDrawIndexed, Args: []int64{
		int64(indexCount), int64(instanceCount), int64(firstIndex), int64(baseVertex), int64(firstInstance),
	}}, KindBuffer)
}

func (e *encoder) End() error {
	e.dev.mu.Lock()
	defer e.dev.mu.Unlock()
	if e.ended {
		return gpucore.ErrPassEnded
	}
	e.ended = true
	if e.dev.open == e {
		e.dev.open = nil
	}
	e.dev.pending = append(e.dev.pending, Command{Op: OpEndPass})
	return e.err
}
