// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/gputypes"

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := render.NewRenderer(dev,
//		render.WithSize(1280, 720),
//		render.WithClearColor(gputypes.Color{A: 1}),
//	)
type Option func(*options)

type options struct {
	width, height uint32
	format        gputypes.TextureFormat
	sampleCount   uint32
	clearColor    gputypes.Color
	uniformBytes  uint64
}

func defaultOptions() options {
	return options{
		width:        640,
		height:       480,
		format:       gputypes.TextureFormatBGRA8Unorm,
		sampleCount:  1,
		clearColor:   gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		uniformBytes: 64 << 10,
	}
}

// WithSize sets the size of the back targets.
func WithSize(width, height uint32) Option {
	return func(o *options) {
		o.width, o.height = width, height
	}
}

// WithColorFormat sets the color format of the back targets.
func WithColorFormat(format gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithSampleCount sets the MSAA sample count of the back targets.
// Values below 1 are treated as 1.
func WithSampleCount(n uint32) Option {
	return func(o *options) {
		o.sampleCount = max(n, 1)
	}
}

// WithClearColor sets the color the main pass clears to.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithUniformBufferSize sets the initial size of the per-frame uniform
// buffer in bytes. The buffer grows on demand.
func WithUniformBufferSize(bytes uint64) Option {
	return func(o *options) {
		o.uniformBytes = bytes
	}
}
