package mesh

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/gscene/backend/record"
)

// TestGeometryUpload tests allocation, partial writes and growth.
func TestGeometryUpload(t *testing.T) {
	dev := record.New()
	g := NewGeometry("test")
	g.SetVertexBuffer(0, quadLayout, make([]float32, 8))
	g.SetIndexBuffer([]uint32{0, 1, 2})

	if err := g.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := dev.Created(record.KindBuffer); got != 2 {
		t.Fatalf("buffers created = %d, want 2", got)
	}
	vb := g.VertexBindings()[0].Buffer.Buffer()

	dev.ResetLogs()
	if err := g.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if w := dev.Writes(); len(w) != 0 {
		t.Fatalf("clean upload wrote %v", w)
	}

	if err := g.UpdateVertexBuffer(0, 8, []float32{1, 2}); err != nil {
		t.Fatalf("UpdateVertexBuffer: %v", err)
	}
	if err := g.UpdateVertexBuffer(0, 24, []float32{3}); err != nil {
		t.Fatalf("UpdateVertexBuffer: %v", err)
	}
	if err := g.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want := []record.Write{
		{Buffer: uint64(vb), Offset: 8, Size: 8},
		{Buffer: uint64(vb), Offset: 24, Size: 4},
	}
	if diff := cmp.Diff(want, dev.Writes()); diff != "" {
		t.Errorf("partial writes mismatch (-want +got):\n%s", diff)
	}

	// A change touching both ranges joins them into one write.
	dev.ResetLogs()
	updates := []struct {
		offset int
		data   []float32
	}{
		{8, []float32{1, 2}},
		{24, []float32{3}},
		{16, []float32{6, 7}},
	}
	for _, u := range updates {
		if err := g.UpdateVertexBuffer(0, u.offset, u.data); err != nil {
			t.Fatalf("UpdateVertexBuffer: %v", err)
		}
	}
	if err := g.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	want = []record.Write{{Buffer: uint64(vb), Offset: 8, Size: 20}}
	if diff := cmp.Diff(want, dev.Writes()); diff != "" {
		t.Errorf("joined writes mismatch (-want +got):\n%s", diff)
	}

	// Outgrowing the buffer doubles it and drops the old one.
	g.SetVertexBuffer(0, quadLayout, make([]float32, 12))
	if err := g.Upload(dev); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if got := dev.Created(record.KindBuffer); got != 3 {
		t.Errorf("buffers created = %d, want 3", got)
	}
	if got := dev.Live(record.KindBuffer); got != 2 {
		t.Errorf("live buffers = %d, want 2", got)
	}
	data, err := dev.BufferData(g.VertexBindings()[0].Buffer.Buffer())
	if err != nil {
		t.Fatalf("BufferData: %v", err)
	}
	if len(data) != 64 {
		t.Errorf("grown buffer = %d bytes, want 64", len(data))
	}

	g.Destroy(dev)
	if got := dev.Live(record.KindBuffer); got != 0 {
		t.Errorf("live buffers after Destroy = %d, want 0", got)
	}
}

// TestMarkDirtySpans tests that dirty ranges merge only when they touch
// and stay bounded in number.
func TestMarkDirtySpans(t *testing.T) {
	tests := []struct {
		name  string
		marks []span
		want  []span
	}{
		{"disjoint", []span{{10, 12}, {0, 2}}, []span{{0, 2}, {10, 12}}},
		{"adjacent", []span{{0, 2}, {2, 4}}, []span{{0, 4}}},
		{"overlapping", []span{{4, 8}, {0, 5}}, []span{{0, 8}}},
		{"bridging", []span{{0, 2}, {6, 8}, {1, 7}}, []span{{0, 8}}},
		{"empty", []span{{3, 3}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s vertexSlot
			for _, m := range tt.marks {
				s.markDirty(m.lo, m.hi)
			}
			if diff := cmp.Diff(tt.want, s.dirty, cmp.AllowUnexported(span{})); diff != "" {
				t.Errorf("spans mismatch (-want +got):\n%s", diff)
			}
		})
	}

	var s vertexSlot
	for i := range maxDirtySpans + 1 {
		s.markDirty(i*10, i*10+1)
	}
	if len(s.dirty) != maxDirtySpans {
		t.Errorf("spans = %d, want %d", len(s.dirty), maxDirtySpans)
	}
	if first := s.dirty[0]; first != (span{0, 11}) {
		t.Errorf("first span = %+v, want {0 11}", first)
	}
}

// TestUpdateVertexBufferRange tests rejection of writes outside a slot.
func TestUpdateVertexBufferRange(t *testing.T) {
	g := NewGeometry("test")
	g.SetVertexBuffer(0, quadLayout, make([]float32, 4))

	tests := []struct {
		name   string
		slot   int
		offset int
		n      int
	}{
		{"unset slot", 1, 0, 1},
		{"past end", 0, 12, 2},
		{"negative offset", 0, -4, 1},
		{"unaligned offset", 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.UpdateVertexBuffer(tt.slot, tt.offset, make([]float32, tt.n))
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("UpdateVertexBuffer = %v, want ErrOutOfRange", err)
			}
		})
	}
}
