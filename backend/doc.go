// Package backend selects gpucore.Device implementations by name.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Importing a backend package registers it:
//
//	import (
//		_ "github.com/gogpu/gscene/backend/record"
//		_ "github.com/gogpu/gscene/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Default to open the best available device, or Open to request a
// specific backend by name:
//
//	dev, name, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Open(backend.BackendRecord)
//
// # Available Backends
//
//   - "wgpu": GPU rendering via gogpu/wgpu (needs a GPU adapter)
//   - "record": in-memory device that logs every call (always available)
package backend
