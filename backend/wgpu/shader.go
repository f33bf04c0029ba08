package wgpu

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"

	"github.com/gogpu/naga"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/internal/cache"
)

// ShaderCompiler compiles WGSL to SPIR-V with naga and caches the result
// by source.
//
// ShaderCompiler is safe for concurrent use.
type ShaderCompiler struct {
	modules *cache.Cache[uint64, []uint32]
}

// NewShaderCompiler returns a compiler keeping up to size modules.
func NewShaderCompiler(size int) *ShaderCompiler {
	return &ShaderCompiler{modules: cache.New[uint64, []uint32](size)}
}

func sourceKey(src string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(src))
	return h.Sum64()
}

// Compile returns the SPIR-V words of src. Compilation runs outside the
// cache lock; two goroutines missing on the same source may both compile
// it.
func (c *ShaderCompiler) Compile(src string) ([]uint32, error) {
	key := sourceKey(src)
	if words, ok := c.modules.Get(key); ok {
		return words, nil
	}
	words, err := compileSPIRV(src)
	if err != nil {
		return nil, err
	}
	c.modules.Set(key, words)
	return words, nil
}

func compileSPIRV(src string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile shader: %w", err)
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	gscene.Logger().Debug("wgpu: shader compiled", "words", len(words))
	return words, nil
}

// Precompile compiles sources concurrently and fills the cache. It stops
// at the first error or when ctx is canceled.
func (c *ShaderCompiler) Precompile(ctx context.Context, sources ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.Compile(src)
			return err
		})
	}
	return g.Wait()
}

// Stats returns the module cache statistics.
func (c *ShaderCompiler) Stats() cache.Stats { return c.modules.Stats() }
