package wgpu

import (
	"github.com/gogpu/gscene/backend"
	"github.com/gogpu/gscene/gpucore"
)

func init() {
	backend.Register(backend.BackendWGPU, func() (gpucore.Device, error) {
		d, err := New()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
}
