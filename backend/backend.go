package backend

import (
	"errors"

	"github.com/gogpu/gscene/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends could open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend names.
const (
	BackendWGPU   = "wgpu"
	BackendRecord = "record"
)

// Factory opens a device. Returning an error lets Default fall through
// to the next backend, so a factory should fail fast when its hardware is
// missing.
type Factory func() (gpucore.Device, error)
