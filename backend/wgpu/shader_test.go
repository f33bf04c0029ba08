package wgpu

import (
	"context"
	"testing"
)

const testShader = `
@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let x = f32(i) - 1.0;
    return vec4<f32>(x, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 0.0, 0.0, 1.0);
}
`

// TestShaderCompilerCache tests that repeated sources hit the cache.
func TestShaderCompilerCache(t *testing.T) {
	c := NewShaderCompiler(4)

	words, err := c.Compile(testShader)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(words) == 0 || words[0] != 0x07230203 {
		t.Fatalf("missing SPIR-V magic, got %d words", len(words))
	}
	again, err := c.Compile(testShader)
	if err != nil {
		t.Fatalf("second Compile failed: %v", err)
	}
	if &again[0] != &words[0] {
		t.Error("second Compile did not return the cached module")
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Len != 1 {
		t.Errorf("Stats = %+v, want 1 hit, 1 miss, 1 entry", s)
	}
}

// TestShaderCompilerError tests that invalid WGSL is reported and not
// cached.
func TestShaderCompilerError(t *testing.T) {
	c := NewShaderCompiler(4)
	if _, err := c.Compile("fn broken( {"); err == nil {
		t.Fatal("expected error for invalid WGSL")
	}
	if n := c.Stats().Len; n != 0 {
		t.Errorf("cache holds %d modules after failure", n)
	}
}

// TestShaderCompilerPrecompile tests concurrent precompilation.
func TestShaderCompilerPrecompile(t *testing.T) {
	c := NewShaderCompiler(0)
	variant := "const SDF_STROKE_ONLY = true;\n" + testShader
	if err := c.Precompile(context.Background(), testShader, variant); err != nil {
		t.Fatalf("Precompile failed: %v", err)
	}
	if n := c.Stats().Len; n != 2 {
		t.Errorf("cache holds %d modules, want 2", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewShaderCompiler(0).Precompile(ctx, testShader); err == nil {
		t.Error("expected error for canceled context")
	}
}
