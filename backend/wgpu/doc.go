// Package wgpu implements gpucore.Device on the gogpu/wgpu HAL.
//
// The backend uses the Pure Go WebGPU implementation, which runs on
// Vulkan, Metal or DX12 depending on the platform. Programs are WGSL;
// with WithSPIRV they are translated to SPIR-V by naga first and the
// translations are cached by source.
//
// # Usage
//
//	dev, err := wgpu.New(wgpu.WithBackend(gputypes.BackendVulkan))
//	if err != nil {
//	    return err
//	}
//	defer dev.Destroy()
//
//	r, err := render.NewRenderer(dev, render.WithSize(800, 600))
//	...
//
// A host application that already owns a GPU device shares it through
// NewFromProvider or NewFromHAL. A borrowed device is never destroyed by
// Destroy.
//
// # Frames
//
// All passes of a frame are recorded into one command encoder. Submit
// ends the encoder, submits it and waits for the GPU to finish, up to the
// WithWaitTimeout limit. Present hands the back target's texture view to
// the function set with WithPresenter.
//
// # Limitations
//
// Binding sets carry uniform buffers only; sampler bindings are rejected
// with ErrSamplerBindings.
package wgpu
