// Package cache provides a generic thread-safe LRU cache.
//
// The wgpu backend keeps compiled SPIR-V modules in it, keyed by the
// hash of the expanded WGSL source:
//
//	c := cache.New[uint64, []uint32](64)
//	spirv, err := c.GetOrCreate(key, func() ([]uint32, error) {
//	    return compile(src)
//	})
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
