package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendRecord}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device on the named backend.
func Open(name string) (gpucore.Device, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	return dev, nil
}

// Default opens the best available backend: the first in priority order
// whose factory succeeds, then any other registered backend in name
// order.
func Default() (gpucore.Device, string, error) {
	registryMu.RLock()
	order := slices.Clone(backendPriority)
	for name := range backends {
		if !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	slices.Sort(order[len(backendPriority):])
	factories := make([]Factory, len(order))
	for i, name := range order {
		factories[i] = backends[name]
	}
	registryMu.RUnlock()

	var errs []error
	for i, factory := range factories {
		if factory == nil {
			continue
		}
		dev, err := factory()
		if err == nil {
			return dev, order[i], nil
		}
		gscene.Logger().Debug("backend: unavailable", "name", order[i], "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", order[i], err))
	}
	return nil, "", fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}

// MustDefault returns the default device or panics.
func MustDefault() gpucore.Device {
	dev, _, err := Default()
	if err != nil {
		panic(err)
	}
	return dev
}
