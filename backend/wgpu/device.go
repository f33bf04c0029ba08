package wgpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// ErrSamplerBindings is returned by CreateBindings for binding sets that
// contain samplers.
var ErrSamplerBindings = errors.New("wgpu: sampler bindings are not supported")

// submitPollInterval is how often Submit polls the queue for completion.
const submitPollInterval = 100 * time.Microsecond

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	// Name is the GPU name (e.g., "NVIDIA GeForce RTX 3080").
	Name string
	// DeviceType is the type of GPU (discrete, integrated, etc.).
	DeviceType gputypes.DeviceType
	// Backend is the graphics API in use.
	Backend gputypes.Backend
}

// String returns a human-readable description of the GPU.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%v, %v)", g.Name, g.DeviceType, g.Backend)
}

type buffer struct {
	raw  hal.Buffer
	size uint64
}

type program struct {
	vertex     hal.ShaderModule
	fragment   hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	vsEntry    string
	fsEntry    string
}

type target struct {
	tex  hal.Texture
	view hal.TextureView
	desc gpucore.RenderTargetDescriptor
}

// Device implements gpucore.Device on a gogpu/wgpu HAL device.
//
// Frames are recorded into one command encoder, opened by the first
// render pass of a frame. Submit ends it, submits it to the queue and
// waits for the GPU; Discard throws it away.
type Device struct {
	mu sync.Mutex

	raw      hal.Device
	queue    hal.Queue
	instance hal.Instance // nil when the device is borrowed
	info     GPUInfo
	opts     options
	shaders  *ShaderCompiler

	nextID    uint64
	buffers   map[gpucore.BufferID]*buffer
	programs  map[gpucore.ProgramID]*program
	pipelines map[gpucore.PipelineID]hal.RenderPipeline
	samplers  map[gpucore.SamplerID]hal.Sampler
	bindings  map[gpucore.BindingsID]hal.BindGroup
	targets   map[gpucore.RenderTargetID]*target

	encoder   hal.CommandEncoder
	pass      *passEncoder
	presented gpucore.RenderTargetID
	lost      bool
}

var _ gpucore.Device = (*Device)(nil)

// New opens a device on the first discrete or integrated GPU of the
// configured backend.
func New(opts ...Option) (*Device, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	backend, ok := hal.GetBackend(o.backend)
	if !ok {
		return nil, fmt.Errorf("wgpu: backend %v not available", o.backend)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	d := newDevice(openDev.Device, openDev.Queue, o)
	d.instance = instance
	d.info = GPUInfo{Name: selected.Info.Name, DeviceType: selected.Info.DeviceType, Backend: o.backend}
	gscene.Logger().Info("wgpu: device opened", "gpu", d.info.String())
	return d, nil
}

// NewFromHAL wraps an existing HAL device and queue. The caller keeps
// ownership of them; Destroy releases only the resources created through
// the returned Device.
func NewFromHAL(device hal.Device, queue hal.Queue, opts ...Option) *Device {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newDevice(device, queue, o)
}

// NewFromProvider shares the GPU device of a host application. The
// provider must also expose HalDevice() and HalQueue() returning
// hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	return NewFromHAL(device, queue, opts...), nil
}

func newDevice(raw hal.Device, queue hal.Queue, o options) *Device {
	return &Device{
		raw:       raw,
		queue:     queue,
		opts:      o,
		shaders:   NewShaderCompiler(o.cacheSize),
		buffers:   make(map[gpucore.BufferID]*buffer),
		programs:  make(map[gpucore.ProgramID]*program),
		pipelines: make(map[gpucore.PipelineID]hal.RenderPipeline),
		samplers:  make(map[gpucore.SamplerID]hal.Sampler),
		bindings:  make(map[gpucore.BindingsID]hal.BindGroup),
		targets:   make(map[gpucore.RenderTargetID]*target),
	}
}

// Info returns the selected GPU, zero for borrowed devices.
func (d *Device) Info() GPUInfo { return d.info }

// Shaders returns the device's SPIR-V compiler.
func (d *Device) Shaders() *ShaderCompiler { return d.shaders }

// TargetView returns the texture view of a render target.
func (d *Device) TargetView(id gpucore.RenderTargetID) (hal.TextureView, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.targets[id]
	if !ok {
		return nil, false
	}
	return t.view, true
}

func (d *Device) id() uint64 {
	d.nextID++
	return d.nextID
}

func (d *Device) check() error {
	if d.lost {
		return gpucore.ErrDeviceLost
	}
	return nil
}

// CreateBuffer implements gpucore.Device. Sizes are rounded up to four
// bytes.
func (d *Device) CreateBuffer(desc *gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	size := (desc.Size + 3) &^ 3
	raw, err := d.raw.CreateBuffer(&hal.BufferDescriptor{Label: desc.Label, Size: size, Usage: desc.Usage})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	id := gpucore.BufferID(d.id())
	d.buffers[id] = &buffer{raw: raw, size: size}
	return id, nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[id]; ok {
		d.raw.DestroyBuffer(b.raw)
		delete(d.buffers, id)
	}
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: write buffer %d: %w", id, gpucore.ErrInvalidID)
	}
	if end := offset + uint64(len(data)); end > b.size {
		return fmt.Errorf("wgpu: write [%d,%d) into %d-byte buffer: %w", offset, end, b.size, gpucore.ErrOutOfBounds)
	}
	d.queue.WriteBuffer(b.raw, offset, data)
	return nil
}

func (d *Device) shaderModule(label, src string) (hal.ShaderModule, error) {
	source := hal.ShaderSource{WGSL: src}
	if d.opts.spirv {
		words, err := d.shaders.Compile(src)
		if err != nil {
			return nil, err
		}
		source = hal.ShaderSource{SPIRV: words}
	}
	return d.raw.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: label, Source: source})
}

// CreateProgram implements gpucore.Device. Defines are expanded into the
// sources before compilation.
func (d *Device) CreateProgram(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	if desc.VertexSource == "" {
		return gpucore.InvalidID, fmt.Errorf("wgpu: program %q has no vertex source", desc.Label)
	}
	p := &program{}
	p.vsEntry, p.fsEntry = desc.EntryPoints()
	fail := func(what string, err error) (gpucore.ProgramID, error) {
		d.destroyProgram(p)
		return gpucore.InvalidID, fmt.Errorf("wgpu: program %q: %s: %w", desc.Label, what, err)
	}

	var err error
	if p.vertex, err = d.shaderModule(desc.Label, desc.ExpandSource(desc.VertexSource)); err != nil {
		return fail("vertex module", err)
	}
	p.fragment = p.vertex
	if desc.FragmentSource != "" {
		if p.fragment, err = d.shaderModule(desc.Label, desc.ExpandSource(desc.FragmentSource)); err != nil {
			return fail("fragment module", err)
		}
	}

	var layouts []hal.BindGroupLayout
	if len(desc.Bindings) > 0 {
		entries := make([]gputypes.BindGroupLayoutEntry, 0, len(desc.Bindings))
		for _, b := range desc.Bindings {
			e := gputypes.BindGroupLayoutEntry{
				Binding:    b.Binding,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			}
			switch b.Kind {
			case gpucore.BindingUniform:
				e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
			case gpucore.BindingSampler:
				e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
			}
			entries = append(entries, e)
		}
		if p.bindLayout, err = d.raw.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: desc.Label, Entries: entries}); err != nil {
			return fail("bind group layout", err)
		}
		layouts = append(layouts, p.bindLayout)
	}
	if p.pipeLayout, err = d.raw.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: desc.Label, BindGroupLayouts: layouts}); err != nil {
		return fail("pipeline layout", err)
	}

	id := gpucore.ProgramID(d.id())
	d.programs[id] = p
	return id, nil
}

func (d *Device) destroyProgram(p *program) {
	if p.pipeLayout != nil {
		d.raw.DestroyPipelineLayout(p.pipeLayout)
	}
	if p.bindLayout != nil {
		d.raw.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.fragment != nil && p.fragment != p.vertex {
		d.raw.DestroyShaderModule(p.fragment)
	}
	if p.vertex != nil {
		d.raw.DestroyShaderModule(p.vertex)
	}
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.programs[id]; ok {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
}

func blendState(m gpucore.BlendMode) *gputypes.BlendState {
	if m == gpucore.BlendPremultiplied {
		b := gputypes.BlendStatePremultiplied()
		return &b
	}
	return nil
}

// CreateRenderPipeline implements gpucore.Device.
func (d *Device) CreateRenderPipeline(desc *gpucore.RenderPipelineDescriptor) (gpucore.PipelineID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	p, ok := d.programs[desc.Program]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("wgpu: pipeline %q program %d: %w", desc.Label, desc.Program, gpucore.ErrInvalidID)
	}
	raw, err := d.raw.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertex,
			EntryPoint: p.vsEntry,
			Buffers:    gpucore.CloneVertexLayouts(desc.VertexBuffers),
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragment,
			EntryPoint: p.fsEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    desc.ColorFormat,
				Blend:     blendState(desc.Blend),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  desc.Topology,
			FrontFace: desc.FrontFace,
			CullMode:  desc.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: max(desc.SampleCount, 1),
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create pipeline %q: %w", desc.Label, err)
	}
	id := gpucore.PipelineID(d.id())
	d.pipelines[id] = raw
	return id, nil
}

// DestroyRenderPipeline implements gpucore.Device.
func (d *Device) DestroyRenderPipeline(id gpucore.PipelineID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pipelines[id]; ok {
		d.raw.DestroyRenderPipeline(p)
		delete(d.pipelines, id)
	}
}

// CreateSampler implements gpucore.Device.
func (d *Device) CreateSampler(desc *gpucore.SamplerDescriptor) (gpucore.SamplerID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	raw, err := d.raw.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.AddressModeU,
		AddressModeV: desc.AddressModeV,
		AddressModeW: desc.AddressModeW,
		MagFilter:    desc.MagFilter,
		MinFilter:    desc.MinFilter,
		MipmapFilter: desc.MipmapFilter,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create sampler %q: %w", desc.Label, err)
	}
	id := gpucore.SamplerID(d.id())
	d.samplers[id] = raw
	return id, nil
}

// DestroySampler implements gpucore.Device.
func (d *Device) DestroySampler(id gpucore.SamplerID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.samplers[id]; ok {
		d.raw.DestroySampler(s)
		delete(d.samplers, id)
	}
}

// CreateBindings implements gpucore.Device. Only uniform buffer bindings
// are supported.
func (d *Device) CreateBindings(desc *gpucore.BindingsDescriptor) (gpucore.BindingsID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	if len(desc.Samplers) > 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: bindings %q: %w", desc.Label, ErrSamplerBindings)
	}
	p, ok := d.programs[desc.Program]
	if !ok || p.bindLayout == nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: bindings %q program %d: %w", desc.Label, desc.Program, gpucore.ErrInvalidID)
	}
	entries := make([]gputypes.BindGroupEntry, 0, len(desc.Uniforms))
	for _, u := range desc.Uniforms {
		b, ok := d.buffers[u.Buffer]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("wgpu: bindings %q buffer %d: %w", desc.Label, u.Buffer, gpucore.ErrInvalidID)
		}
		size := u.Size
		if size == 0 {
			size = b.size - min(u.Offset, b.size)
		}
		if u.Offset+size > b.size {
			return gpucore.InvalidID, fmt.Errorf("wgpu: bindings %q range [%d,%d) of %d bytes: %w",
				desc.Label, u.Offset, u.Offset+size, b.size, gpucore.ErrOutOfBounds)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  u.Binding,
			Resource: gputypes.BufferBinding{Buffer: b.raw.NativeHandle(), Offset: u.Offset, Size: size},
		})
	}
	raw, err := d.raw.CreateBindGroup(&hal.BindGroupDescriptor{Label: desc.Label, Layout: p.bindLayout, Entries: entries})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bindings %q: %w", desc.Label, err)
	}
	id := gpucore.BindingsID(d.id())
	d.bindings[id] = raw
	return id, nil
}

// DestroyBindings implements gpucore.Device.
func (d *Device) DestroyBindings(id gpucore.BindingsID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.bindings[id]; ok {
		d.raw.DestroyBindGroup(g)
		delete(d.bindings, id)
	}
}

// CreateRenderTarget implements gpucore.Device.
func (d *Device) CreateRenderTarget(desc *gpucore.RenderTargetDescriptor) (gpucore.RenderTargetID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return gpucore.InvalidID, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: target %q has zero size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	tex, err := d.raw.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   max(desc.SampleCount, 1),
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create target %q: %w", desc.Label, err)
	}
	view, err := d.raw.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label,
		Format:        desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.raw.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("wgpu: create target view %q: %w", desc.Label, err)
	}
	id := gpucore.RenderTargetID(d.id())
	d.targets[id] = &target{tex: tex, view: view, desc: *desc}
	return id, nil
}

// DestroyRenderTarget implements gpucore.Device.
func (d *Device) DestroyRenderTarget(id gpucore.RenderTargetID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.targets[id]; ok {
		d.raw.DestroyTextureView(t.view)
		d.raw.DestroyTexture(t.tex)
		delete(d.targets, id)
	}
}

// BeginRenderPass implements gpucore.Device.
func (d *Device) BeginRenderPass(desc *gpucore.RenderPassDescriptor) (gpucore.RenderPassEncoder, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return nil, err
	}
	if d.pass != nil {
		return nil, gpucore.ErrPassOpen
	}
	t, ok := d.targets[desc.Target]
	if !ok {
		return nil, fmt.Errorf("wgpu: pass %q target %d: %w", desc.Label, desc.Target, gpucore.ErrInvalidID)
	}
	if d.encoder == nil {
		enc, err := d.raw.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gscene.frame"})
		if err != nil {
			return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
		}
		if err := enc.BeginEncoding("gscene.frame"); err != nil {
			return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
		}
		d.encoder = enc
	}
	rp := d.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: desc.Label,
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       t.view,
			LoadOp:     desc.Load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: desc.ClearColor,
		}},
	})
	d.pass = &passEncoder{dev: d, raw: rp}
	return d.pass, nil
}

// Submit implements gpucore.Device. It blocks until the GPU finished the
// frame or the wait timeout passed; a timeout marks the device lost.
func (d *Device) Submit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(); err != nil {
		return err
	}
	if d.pass != nil {
		return gpucore.ErrPassOpen
	}
	if d.encoder == nil {
		return nil
	}
	enc := d.encoder
	d.encoder = nil
	cmdBuf, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.raw.FreeCommandBuffer(cmdBuf)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := d.waitSubmission(index); err != nil {
		d.lost = true
		gscene.Logger().Warn("wgpu: device lost waiting for frame", "submission", index, "err", err)
		return err
	}
	return nil
}

// waitSubmission blocks until the queue reports index completed or the
// wait timeout passes.
func (d *Device) waitSubmission(index uint64) error {
	deadline := time.Now().Add(time.Duration(d.opts.waitTimeout) * time.Millisecond)
	for d.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("wgpu: submission %d not completed after %dms: %w", index, d.opts.waitTimeout, gpucore.ErrDeviceLost)
		}
		time.Sleep(submitPollInterval)
	}
	return nil
}

// Discard implements gpucore.Device.
func (d *Device) Discard() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pass != nil {
		d.pass.raw.End()
		d.pass.ended = true
		d.pass = nil
	}
	if d.encoder != nil {
		d.encoder.DiscardEncoding()
		d.encoder = nil
	}
}

// Present implements gpucore.Device. Targets are handed to the presenter
// set with WithPresenter; without one, Present only records the target.
func (d *Device) Present(id gpucore.RenderTargetID) error {
	d.mu.Lock()
	t, ok := d.targets[id]
	present := d.opts.present
	lost := d.lost
	d.mu.Unlock()
	if lost {
		return gpucore.ErrDeviceLost
	}
	if !ok {
		return fmt.Errorf("wgpu: present target %d: %w", id, gpucore.ErrInvalidID)
	}
	if present != nil {
		if err := present(t.view, t.desc.Width, t.desc.Height); err != nil {
			return fmt.Errorf("wgpu: present: %w", err)
		}
	}
	d.mu.Lock()
	d.presented = id
	d.mu.Unlock()
	return nil
}

// Presented returns the most recently presented target.
func (d *Device) Presented() gpucore.RenderTargetID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presented
}

// Destroy implements gpucore.Device. An owned HAL device and instance are
// released too.
func (d *Device) Destroy() {
	d.Discard()
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, g := range d.bindings {
		d.raw.DestroyBindGroup(g)
		delete(d.bindings, id)
	}
	for id, p := range d.pipelines {
		d.raw.DestroyRenderPipeline(p)
		delete(d.pipelines, id)
	}
	for id, p := range d.programs {
		d.destroyProgram(p)
		delete(d.programs, id)
	}
	for id, s := range d.samplers {
		d.raw.DestroySampler(s)
		delete(d.samplers, id)
	}
	for id, t := range d.targets {
		d.raw.DestroyTextureView(t.view)
		d.raw.DestroyTexture(t.tex)
		delete(d.targets, id)
	}
	for id, b := range d.buffers {
		d.raw.DestroyBuffer(b.raw)
		delete(d.buffers, id)
	}
	if d.instance != nil {
		d.raw.Destroy()
		d.instance.Destroy()
		d.instance = nil
		gscene.Logger().Info("wgpu: device destroyed", "gpu", d.info.Name)
	}
	d.lost = true
}
