package backend_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gscene/backend"
	"github.com/gogpu/gscene/backend/record"
	"github.com/gogpu/gscene/gpucore"
)

func TestRecordRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendRecord) {
		t.Fatal("record backend not registered on import")
	}
	dev, err := backend.Open(backend.BackendRecord)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer dev.Destroy()
	if _, ok := dev.(*record.Device); !ok {
		t.Errorf("Open(record) returned %T", dev)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := backend.Open("nope"); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Open(nope) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegisterUnregister(t *testing.T) {
	boom := errors.New("boom")
	backend.Register("broken", func() (gpucore.Device, error) { return nil, boom })
	defer backend.Unregister("broken")

	if !slices.Contains(backend.Available(), "broken") {
		t.Errorf("Available() = %v, missing broken", backend.Available())
	}
	if _, err := backend.Open("broken"); !errors.Is(err, boom) {
		t.Errorf("Open(broken) error = %v, want boom", err)
	}

	backend.Unregister("broken")
	if backend.IsRegistered("broken") {
		t.Error("broken still registered after Unregister")
	}
}

// TestDefaultFallsThrough tests that a failing wgpu factory yields to the
// record backend.
func TestDefaultFallsThrough(t *testing.T) {
	backend.Register(backend.BackendWGPU, func() (gpucore.Device, error) {
		return nil, errors.New("no adapter")
	})
	defer backend.Unregister(backend.BackendWGPU)

	dev, name, err := backend.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	defer dev.Destroy()
	if name != backend.BackendRecord {
		t.Errorf("Default() picked %q, want %q", name, backend.BackendRecord)
	}
}

func TestDefaultNone(t *testing.T) {
	backend.Unregister(backend.BackendRecord)
	defer backend.Register(backend.BackendRecord, func() (gpucore.Device, error) { return record.New(), nil })

	if _, _, err := backend.Default(); !errors.Is(err, backend.ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}
