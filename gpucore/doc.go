// Package gpucore defines the device capability surface the renderer
// consumes.
//
// The renderer never reaches into a backend. It creates resources from
// plain descriptors and refers to them through opaque IDs ([BufferID],
// [ProgramID], [PipelineID], ...). A [Device] implementation keeps the
// mapping between IDs and its own objects:
//
//	               +-----------------+
//	               |     render      |
//	               | (cache, graph)  |
//	               +--------+--------+
//	                        | gpucore.Device
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/record  |          |  backend/wgpu   |
//	|  (in memory)    |          |  (hal.Device)   |
//	+-----------------+          +--------+--------+
//	                                      |
//	                             +--------v--------+
//	                             |   gogpu/wgpu    |
//	                             +-----------------+
//
// # Descriptors
//
// Cacheable descriptors ([ProgramDescriptor], [RenderPipelineDescriptor],
// [SamplerDescriptor], [BindingsDescriptor]) have a Hash function and an
// Equal method. Two descriptors are equal when every field except the
// debug label is equal; the hash ignores the label as well, so the render
// cache can bucket by hash and confirm with Equal.
//
// # Frames
//
// Render passes are recorded with [Device.BeginRenderPass]. Nothing is
// visible until [Device.Submit] succeeds and [Device.Present] is called
// for the frame's color target. [Device.Discard] drops everything
// recorded since the last submit; an aborted frame uses it so that none of
// its work reaches the screen.
package gpucore
