package record

import (
	"github.com/gogpu/gscene/backend"
	"github.com/gogpu/gscene/gpucore"
)

func init() {
	backend.Register(backend.BackendRecord, func() (gpucore.Device, error) {
		return New(), nil
	})
}
