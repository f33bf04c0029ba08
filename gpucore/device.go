package gpucore

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Device errors.
var (
	// ErrInvalidID is returned when an operation names a resource the
	// device does not know, or one that has been destroyed.
	ErrInvalidID = errors.New("gpucore: invalid resource id")

	// ErrOutOfBounds is returned when a buffer write exceeds the buffer.
	ErrOutOfBounds = errors.New("gpucore: write out of bounds")

	// ErrPassEnded is returned when a render pass is used after End.
	ErrPassEnded = errors.New("gpucore: render pass has already ended")

	// ErrPassOpen is returned when a frame is submitted or a second pass
	// is begun while a render pass is still recording.
	ErrPassOpen = errors.New("gpucore: a render pass is still recording")

	// ErrDeviceLost is returned once a device can no longer execute work.
	ErrDeviceLost = errors.New("gpucore: device lost")
)

// Device is the capability surface the renderer creates resources on and
// submits work to.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and are never reused
//
// Devices are driven from a single frame loop and need not be safe for
// concurrent use.
type Device interface {
	// CreateBuffer allocates a buffer of desc.Size bytes.
	CreateBuffer(desc *BufferDescriptor) (BufferID, error)

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer copies data into the buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// CreateProgram compiles and links a vertex+fragment program.
	CreateProgram(desc *ProgramDescriptor) (ProgramID, error)

	// DestroyProgram releases a program.
	DestroyProgram(id ProgramID)

	// CreateRenderPipeline creates a render pipeline.
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (PipelineID, error)

	// DestroyRenderPipeline releases a render pipeline.
	DestroyRenderPipeline(id PipelineID)

	// CreateSampler creates a sampler.
	CreateSampler(desc *SamplerDescriptor) (SamplerID, error)

	// DestroySampler releases a sampler.
	DestroySampler(id SamplerID)

	// CreateBindings creates a binding set for a program.
	CreateBindings(desc *BindingsDescriptor) (BindingsID, error)

	// DestroyBindings releases a binding set.
	DestroyBindings(id BindingsID)

	// CreateRenderTarget creates a color target.
	CreateRenderTarget(desc *RenderTargetDescriptor) (RenderTargetID, error)

	// DestroyRenderTarget releases a color target.
	DestroyRenderTarget(id RenderTargetID)

	// BeginRenderPass starts recording a render pass. Only one pass may
	// record at a time.
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPassEncoder, error)

	// Submit executes everything recorded since the previous Submit or
	// Discard.
	Submit() error

	// Discard drops everything recorded since the previous Submit.
	Discard()

	// Present makes target the visible output.
	Present(target RenderTargetID) error

	// Destroy releases the device. Resources still alive are released
	// with it.
	Destroy()
}

// RenderPassEncoder records draw commands into one render pass.
//
// Setters and draws do not return errors. A pass remembers the first
// failure, including use after End, and End reports it.
type RenderPassEncoder interface {
	SetPipeline(id PipelineID)
	SetBindings(index uint32, id BindingsID, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, id BufferID, offset uint64)
	SetIndexBuffer(id BufferID, format gputypes.IndexFormat, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)

	// End finishes the pass. It returns the first error recorded by the
	// pass, or ErrPassEnded if the pass had already ended.
	End() error
}
