package mesh

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gscene"
	"github.com/gogpu/gscene/gpucore"
	"github.com/gogpu/gscene/render"
)

// maxDirtySpans bounds the pending ranges of a slot. Past it, the two
// spans with the smallest gap are merged.
const maxDirtySpans = 16

// span is a word range [lo, hi).
type span struct {
	lo, hi int
}

// vertexSlot is one vertex buffer: CPU data, its layout and the device
// buffer it is mirrored into.
type vertexSlot struct {
	layout gputypes.VertexBufferLayout
	data   []float32

	buf      gpucore.BufferID
	capacity uint64 // bytes

	// dirty holds the ranges not yet uploaded, sorted and disjoint
	dirty []span
}

// markDirty adds [lo, hi), merging it with overlapping or adjacent
// spans only.
func (s *vertexSlot) markDirty(lo, hi int) {
	if hi <= lo {
		return
	}
	i := 0
	for i < len(s.dirty) && s.dirty[i].hi < lo {
		i++
	}
	j := i
	for j < len(s.dirty) && s.dirty[j].lo <= hi {
		lo, hi = min(lo, s.dirty[j].lo), max(hi, s.dirty[j].hi)
		j++
	}
	s.dirty = slices.Replace(s.dirty, i, j, span{lo, hi})
	if len(s.dirty) > maxDirtySpans {
		k := 0
		for n := 1; n < len(s.dirty)-1; n++ {
			if s.dirty[n+1].lo-s.dirty[n].hi < s.dirty[k+1].lo-s.dirty[k].hi {
				k = n
			}
		}
		s.dirty[k].hi = s.dirty[k+1].hi
		s.dirty = slices.Delete(s.dirty, k+1, k+2)
	}
}

func (s *vertexSlot) markAll() {
	s.dirty = s.dirty[:0]
	s.markDirty(0, len(s.data))
}

// bufferRef resolves a geometry buffer when the frame executes, after
// Upload has run.
type bufferRef struct {
	id *gpucore.BufferID
}

func (r bufferRef) Buffer() gpucore.BufferID { return *r.id }

// Geometry holds the vertex and index data of a mesh. Data is edited on
// the CPU and uploaded by Upload; only ranges changed since the last
// upload are written, and device buffers are reallocated only when the
// data outgrows them.
type Geometry struct {
	label string
	slots []*vertexSlot

	indices    []uint32
	indexBuf   gpucore.BufferID
	indexCap   uint64
	indexDirty bool
}

// NewGeometry returns empty geometry. label prefixes the device buffer
// labels.
func NewGeometry(label string) *Geometry {
	return &Geometry{label: label}
}

// SetVertexBuffer replaces the data of a vertex slot.
func (g *Geometry) SetVertexBuffer(slot int, layout gputypes.VertexBufferLayout, data []float32) {
	for len(g.slots) <= slot {
		g.slots = append(g.slots, nil)
	}
	s := g.slots[slot]
	if s == nil {
		s = &vertexSlot{}
		g.slots[slot] = s
	}
	s.layout = layout
	s.data = append(s.data[:0], data...)
	s.markAll()
}

// SetIndexBuffer replaces the index data.
func (g *Geometry) SetIndexBuffer(indices []uint32) {
	g.indices = append(g.indices[:0], indices...)
	g.indexDirty = true
}

// UpdateVertexBuffer overwrites part of a vertex slot starting at
// byteOffset. The next Upload writes only the changed ranges.
func (g *Geometry) UpdateVertexBuffer(slot, byteOffset int, data []float32) error {
	if slot >= len(g.slots) || g.slots[slot] == nil {
		return fmt.Errorf("%w: vertex slot %d is not set", ErrOutOfRange, slot)
	}
	s := g.slots[slot]
	lo := byteOffset / 4
	hi := lo + len(data)
	if byteOffset < 0 || byteOffset%4 != 0 || hi > len(s.data) {
		return fmt.Errorf("%w: slot %d bytes [%d, %d) of %d", ErrOutOfRange, slot, byteOffset, hi*4, len(s.data)*4)
	}
	copy(s.data[lo:hi], data)
	s.markDirty(lo, hi)
	return nil
}

// VertexData returns the CPU data of a slot.
func (g *Geometry) VertexData(slot int) []float32 {
	if slot >= len(g.slots) || g.slots[slot] == nil {
		return nil
	}
	return g.slots[slot].data
}

// Indices returns the index data.
func (g *Geometry) Indices() []uint32 { return g.indices }

// Layouts returns the vertex layouts of the set slots in slot order.
func (g *Geometry) Layouts() []gputypes.VertexBufferLayout {
	var out []gputypes.VertexBufferLayout
	for _, s := range g.slots {
		if s != nil {
			out = append(out, s.layout)
		}
	}
	return out
}

// VertexBindings returns the bindings of the vertex buffers. The bound
// slot numbers follow Layouts; buffers are resolved when the frame
// executes, so the bindings stay valid across reallocation.
func (g *Geometry) VertexBindings() []render.VertexBinding {
	var out []render.VertexBinding
	for _, s := range g.slots {
		if s != nil {
			//nolint:gosec // G115: slot count is tiny
			out = append(out, render.VertexBinding{Slot: uint32(len(out)), Buffer: bufferRef{&s.buf}})
		}
	}
	return out
}

// IndexBinding returns the binding of the index buffer.
func (g *Geometry) IndexBinding() render.IndexBinding {
	return render.IndexBinding{Buffer: bufferRef{&g.indexBuf}, Format: gputypes.IndexFormatUint32}
}

// Upload mirrors pending changes into device buffers, one write per
// dirty range.
func (g *Geometry) Upload(device gpucore.Device) error {
	for i, s := range g.slots {
		if s == nil || len(s.dirty) == 0 {
			continue
		}
		need := uint64(len(s.data)) * 4
		if need > s.capacity {
			buf, capacity, err := g.realloc(device, fmt.Sprintf("%s.vertex%d", g.label, i), s.buf, s.capacity, need,
				gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
			if err != nil {
				return err
			}
			s.buf, s.capacity = buf, capacity
			s.markAll()
		}
		for k, d := range s.dirty {
			//nolint:gosec // G115: lo is a non-negative word offset
			if err := device.WriteBuffer(s.buf, uint64(d.lo)*4, floatBytes(s.data[d.lo:d.hi])); err != nil {
				s.dirty = s.dirty[k:]
				return fmt.Errorf("mesh: upload %s slot %d: %w", g.label, i, err)
			}
		}
		s.dirty = s.dirty[:0]
	}

	if g.indexDirty && len(g.indices) > 0 {
		need := uint64(len(g.indices)) * 4
		if need > g.indexCap {
			buf, capacity, err := g.realloc(device, g.label+".index", g.indexBuf, g.indexCap, need,
				gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
			if err != nil {
				return err
			}
			g.indexBuf, g.indexCap = buf, capacity
		}
		data := make([]byte, len(g.indices)*4)
		for i, v := range g.indices {
			binary.LittleEndian.PutUint32(data[i*4:], v)
		}
		if err := device.WriteBuffer(g.indexBuf, 0, data); err != nil {
			return fmt.Errorf("mesh: upload %s indices: %w", g.label, err)
		}
		g.indexDirty = false
	}
	return nil
}

// realloc replaces old with a buffer of at least need bytes, doubling the
// previous capacity.
func (g *Geometry) realloc(device gpucore.Device, label string, old gpucore.BufferID, capacity, need uint64, usage gputypes.BufferUsage) (gpucore.BufferID, uint64, error) {
	size := max(capacity*2, need)
	buf, err := device.CreateBuffer(&gpucore.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return gpucore.InvalidID, 0, fmt.Errorf("mesh: allocate %s: %w", label, err)
	}
	if old != gpucore.InvalidID {
		device.DestroyBuffer(old)
	}
	gscene.Logger().Debug("mesh: buffer allocated", "label", label, "bytes", size)
	return buf, size, nil
}

// Destroy releases the device buffers. The CPU data is kept, so a later
// Upload recreates them.
func (g *Geometry) Destroy(device gpucore.Device) {
	for _, s := range g.slots {
		if s == nil {
			continue
		}
		if s.buf != gpucore.InvalidID {
			device.DestroyBuffer(s.buf)
		}
		s.buf, s.capacity = gpucore.InvalidID, 0
		s.markAll()
	}
	if g.indexBuf != gpucore.InvalidID {
		device.DestroyBuffer(g.indexBuf)
	}
	g.indexBuf, g.indexCap = gpucore.InvalidID, 0
	g.indexDirty = true
}

func floatBytes(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, f := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}
