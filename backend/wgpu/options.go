package wgpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PresentFunc receives the view of a presented target. It is how a host
// (a window surface, a screenshot tool) consumes frames rendered offscreen.
type PresentFunc func(view hal.TextureView, width, height uint32) error

// Option configures a Device during creation.
type Option func(*options)

type options struct {
	backend     gputypes.Backend
	spirv       bool
	cacheSize   int
	present     PresentFunc
	waitTimeout int // milliseconds
}

func defaultOptions() options {
	return options{
		backend:     gputypes.BackendVulkan,
		cacheSize:   64,
		waitTimeout: 5000,
	}
}

// WithBackend selects the HAL backend New opens. Default: Vulkan.
func WithBackend(b gputypes.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithSPIRV compiles programs to SPIR-V with naga instead of handing WGSL
// to the HAL. Compiled modules are cached by source.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// WithShaderCacheSize sets how many compiled SPIR-V modules are kept.
func WithShaderCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithPresenter sets the function Present hands targets to.
func WithPresenter(fn PresentFunc) Option {
	return func(o *options) {
		o.present = fn
	}
}

// WithWaitTimeout sets how long Submit waits for the GPU, in milliseconds.
func WithWaitTimeout(ms int) Option {
	return func(o *options) {
		o.waitTimeout = ms
	}
}
