// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// entry is one cached resource and the descriptor it was created from.
type entry[D any, ID any] struct {
	desc D
	id   ID
}

// table buckets entries by descriptor hash. A bucket holds every entry
// whose descriptor hashed to the same value; lookups confirm with Equal.
type table[D any, ID any] struct {
	buckets map[uint64][]entry[D, ID]
	n       int
}

func newTable[D any, ID any]() table[D, ID] {
	return table[D, ID]{buckets: make(map[uint64][]entry[D, ID])}
}

func (t *table[D, ID]) find(hash uint64, desc D, equal func(a, b D) bool) (ID, bool) {
	for _, e := range t.buckets[hash] {
		if equal(e.desc, desc) {
			return e.id, true
		}
	}
	var zero ID
	return zero, false
}

func (t *table[D, ID]) each(fn func(ID)) {
	for _, bucket := range t.buckets {
		for _, e := range bucket {
			fn(e.id)
		}
	}
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Programs  int
	Pipelines int
	Samplers  int
	Bindings  int
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache memoizes device resources by descriptor value.
//
// Two descriptors that are equal field by field (labels aside) map to the
// same resource, no matter where they were built. Entries live until
// Destroy; there is no eviction. Many insts share one entry; consumers
// never release cache-owned resources themselves.
//
// Thread Safety:
// Cache is safe for concurrent use. Lookups take a read lock and fall
// back to a write lock with a second lookup before creating.
type Cache struct {
	mu     sync.RWMutex
	device gpucore.Device

	programs  table[*gpucore.ProgramDescriptor, gpucore.ProgramID]
	pipelines table[*gpucore.RenderPipelineDescriptor, gpucore.PipelineID]
	samplers  table[*gpucore.SamplerDescriptor, gpucore.SamplerID]
	bindings  table[*gpucore.BindingsDescriptor, gpucore.BindingsID]

	hits      atomic.Uint64
	misses    atomic.Uint64
	destroyed bool
}

// NewCache returns an empty cache creating resources on device.
func NewCache(device gpucore.Device) *Cache {
	return &Cache{
		device:    device,
		programs:  newTable[*gpucore.ProgramDescriptor, gpucore.ProgramID](),
		pipelines: newTable[*gpucore.RenderPipelineDescriptor, gpucore.PipelineID](),
		samplers:  newTable[*gpucore.SamplerDescriptor, gpucore.SamplerID](),
		bindings:  newTable[*gpucore.BindingsDescriptor, gpucore.BindingsID](),
	}
}

// getOrCreate is the shared double-checked lookup. create runs under the
// write lock, so a descriptor is never created twice.
func getOrCreate[D any, ID any](
	c *Cache,
	t *table[D, ID],
	kind string,
	hash uint64,
	desc D,
	equal func(a, b D) bool,
	clone func(D) D,
	create func(D) (ID, error),
) (ID, error) {
	var zero ID

	c.mu.RLock()
	if c.destroyed {
		c.mu.RUnlock()
		return zero, ErrUseAfterDestroy
	}
	if id, ok := t.find(hash, desc, equal); ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return id, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return zero, ErrUseAfterDestroy
	}
	if id, ok := t.find(hash, desc, equal); ok {
		c.hits.Add(1)
		return id, nil
	}

	id, err := create(desc)
	if err != nil {
		return zero, fmt.Errorf("render: create %s: %w", kind, err)
	}
	t.buckets[hash] = append(t.buckets[hash], entry[D, ID]{desc: clone(desc), id: id})
	t.n++
	c.misses.Add(1)
	gscene.Logger().Debug("render: cache miss", "kind", kind, "hash", hash, "entries", t.n)
	return id, nil
}

// Program returns the program for desc, creating it on first use.
func (c *Cache) Program(desc *gpucore.ProgramDescriptor) (gpucore.ProgramID, error) {
	return getOrCreate(c, &c.programs, "program", gpucore.HashProgram(desc), desc,
		(*gpucore.ProgramDescriptor).Equal, (*gpucore.ProgramDescriptor).Clone, c.device.CreateProgram)
}

// Pipeline returns the render pipeline for desc, creating it on first use.
func (c *Cache) Pipeline(desc *gpucore.RenderPipelineDescriptor) (gpucore.PipelineID, error) {
	return getOrCreate(c, &c.pipelines, "pipeline", gpucore.HashRenderPipeline(desc), desc,
		(*gpucore.RenderPipelineDescriptor).Equal, (*gpucore.RenderPipelineDescriptor).Clone, c.device.CreateRenderPipeline)
}

// Sampler returns the sampler for desc, creating it on first use.
func (c *Cache) Sampler(desc *gpucore.SamplerDescriptor) (gpucore.SamplerID, error) {
	return getOrCreate(c, &c.samplers, "sampler", gpucore.HashSampler(desc), desc,
		(*gpucore.SamplerDescriptor).Equal, (*gpucore.SamplerDescriptor).Clone, c.device.CreateSampler)
}

// Bindings returns the binding set for desc, creating it on first use.
func (c *Cache) Bindings(desc *gpucore.BindingsDescriptor) (gpucore.BindingsID, error) {
	return getOrCreate(c, &c.bindings, "bindings", gpucore.HashBindings(desc), desc,
		(*gpucore.BindingsDescriptor).Equal, (*gpucore.BindingsDescriptor).Clone, c.device.CreateBindings)
}

// InvalidateBindings destroys every cached binding set that refers to
// buffer. Call it before releasing a buffer that bindings may point at.
// It returns the number of entries dropped.
func (c *Cache) InvalidateBindings(buffer gpucore.BufferID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return 0
	}
	dropped := 0
	for hash, bucket := range c.bindings.buckets {
		kept := bucket[:0]
		for _, e := range bucket {
			if e.desc.References(buffer) {
				c.device.DestroyBindings(e.id)
				dropped++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(c.bindings.buckets, hash)
		} else {
			c.bindings.buckets[hash] = kept
		}
	}
	c.bindings.n -= dropped
	if dropped > 0 {
		gscene.Logger().Debug("render: bindings invalidated", "buffer", buffer, "dropped", dropped)
	}
	return dropped
}

// Stats returns the current counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Programs:  c.programs.n,
		Pipelines: c.pipelines.n,
		Samplers:  c.samplers.n,
		Bindings:  c.bindings.n,
	}
}

// Len returns the total number of cached resources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.programs.n + c.pipelines.n + c.samplers.n + c.bindings.n
}

// Destroy releases every cached resource. It must be called exactly once;
// a second call, like any other use afterwards, returns ErrUseAfterDestroy.
func (c *Cache) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrUseAfterDestroy
	}
	c.destroyed = true

	// Dependents first: bindings and pipelines refer to programs.
	c.bindings.each(c.device.DestroyBindings)
	c.pipelines.each(c.device.DestroyRenderPipeline)
	c.samplers.each(c.device.DestroySampler)
	c.programs.each(c.device.DestroyProgram)

	c.programs = newTable[*gpucore.ProgramDescriptor, gpucore.ProgramID]()
	c.pipelines = newTable[*gpucore.RenderPipelineDescriptor, gpucore.PipelineID]()
	c.samplers = newTable[*gpucore.SamplerDescriptor, gpucore.SamplerID]()
	c.bindings = newTable[*gpucore.BindingsDescriptor, gpucore.BindingsID]()
	return nil
}
