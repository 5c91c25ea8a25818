package scene

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"quad-renderer/gpu"
)

func TestVertexLayout(t *testing.T) {
	if VertexStride != 28 {
		t.Errorf("VertexStride: expected 28, got %v", VertexStride)
	}

	bindings := VertexBindings()
	if len(bindings) != 1 || bindings[0].Stride != VertexStride || bindings[0].InputRate != gpu.VertexInputRateVertex {
		t.Errorf("VertexBindings: expected one per-vertex binding of stride %v, got %+v", VertexStride, bindings)
	}

	expected := []struct {
		format gpu.Format
		offset uint32
	}{
		{gpu.FormatR32G32Sfloat, 0},
		{gpu.FormatR32G32B32Sfloat, 8},
		{gpu.FormatR32G32Sfloat, 20},
	}
	attrs := VertexAttributes()
	if len(attrs) != len(expected) {
		t.Fatalf("VertexAttributes: expected %d, got %d", len(expected), len(attrs))
	}
	for i, e := range expected {
		a := attrs[i]
		if a.Location != uint32(i) || a.Format != e.format || a.Offset != e.offset {
			t.Errorf("attribute %d: expected location %d format %v offset %d, got %+v", i, i, e.format, e.offset, a)
		}
	}
}

func TestQuad(t *testing.T) {
	q := Quad()
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(q.Vertices) != 4 || len(q.Indices) != 6 {
		t.Errorf("Quad: expected 4 vertices and 6 indices, got %d and %d", len(q.Vertices), len(q.Indices))
	}

	// Both triangles wind counter-clockwise in the XY plane.
	for tri := 0; tri < len(q.Indices); tri += 3 {
		a := q.Vertices[q.Indices[tri]].Pos
		b := q.Vertices[q.Indices[tri+1]].Pos
		c := q.Vertices[q.Indices[tri+2]].Pos
		cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
		if cross <= 0 {
			t.Errorf("triangle %d: expected counter-clockwise winding, got cross %v", tri/3, cross)
		}
	}
}

func TestGeometryBytes(t *testing.T) {
	q := Quad()

	vb := q.VertexBytes()
	if len(vb) != 4*int(VertexStride) {
		t.Fatalf("VertexBytes: expected %d bytes, got %d", 4*VertexStride, len(vb))
	}
	// Second vertex: pos (0.5, -0.5), color green.
	base := int(VertexStride)
	read := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(vb[base+off:]))
	}
	if read(0) != 0.5 || read(4) != -0.5 || read(12) != 1 {
		t.Errorf("vertex 1: expected pos (0.5, -0.5) green, got (%v, %v) g=%v", read(0), read(4), read(12))
	}

	ib := q.IndexBytes()
	if len(ib) != 12 {
		t.Fatalf("IndexBytes: expected 12 bytes, got %d", len(ib))
	}
	if got := binary.LittleEndian.Uint16(ib[6:]); got != 2 {
		t.Errorf("index 3: expected 2, got %v", got)
	}

	if (&Geometry{Vertices: q.Vertices}).IndexBytes() != nil {
		t.Errorf("IndexBytes without indices: expected nil")
	}
}

func TestGeometryValidate(t *testing.T) {
	tests := []struct {
		name   string
		geom   Geometry
		target error
	}{
		{"empty", Geometry{Name: "empty"}, nil},
		{"bad index", Geometry{Name: "bad", Vertices: make([]Vertex, 3), Indices: []uint16{0, 1, 3}}, ErrIndexOutOfRange},
		{"too many", Geometry{Name: "big", Vertices: make([]Vertex, MaxVertices+1)}, nil},
	}
	for _, tt := range tests {
		err := tt.geom.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if tt.target != nil && !errors.Is(err, tt.target) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.target, err)
		}
	}
}

func TestLoadDefaultsToQuad(t *testing.T) {
	g, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Name != "quad" {
		t.Errorf("Load(\"\"): expected the quad, got %q", g.Name)
	}

	if _, err := Load("model.fbx"); err == nil {
		t.Errorf("Load(model.fbx): expected unsupported format error")
	}
}
