// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/gpucore"
)

const testShader = `
@vertex fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
	return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}
@fragment fn fs_main() -> @location(0) vec4<f32> {
	return vec4<f32>(1.0);
}
`

func testProgram(label string) *gpucore.ProgramDescriptor {
	return &gpucore.ProgramDescriptor{
		Label:        label,
		VertexSource: testShader,
		Bindings:     []gpucore.BindingLayout{{Binding: 0, Kind: gpucore.BindingUniform}},
	}
}

var testTarget = PassTarget{Format: gputypes.TextureFormatBGRA8Unorm, SampleCount: 1}

func newTestTarget(t *testing.T, d *record.Device, label string) gpucore.RenderTargetID {
	t.Helper()
	id, err := d.CreateRenderTarget(&gpucore.RenderTargetDescriptor{
		Label: label, Width: 8, Height: 8, Format: gputypes.TextureFormatBGRA8Unorm,
	})
	if err != nil {
		t.Fatalf("CreateRenderTarget: %v", err)
	}
	return id
}

// ops returns the operations of cmds, dropping resource creation noise.
func ops(cmds []record.Command) []record.Op {
	var out []record.Op
	for _, c := range cmds {
		switch c.Op {
		case record.OpCreateBuffer, record.OpCreateProgram, record.OpCreatePipeline,
			record.OpCreateSampler, record.OpCreateBindings, record.OpCreateTarget, record.OpWriteBuffer:
			continue
		}
		out = append(out, c.Op)
	}
	return out
}

func countOp(cmds []record.Command, op record.Op) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}
