// Package scene supplies the geometry the renderer draws: the built-in quad,
// or a single mesh read from a glTF or OBJ file.
package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"quad-renderer/gpu"
)

// Vertex is the on-GPU vertex layout: 2D position, RGB color, texture coordinate.
type Vertex struct {
	Pos      [2]float32
	Color    [3]float32
	TexCoord [2]float32
}

// VertexStride is the byte size of one Vertex.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// MaxVertices is the largest vertex count addressable by 16-bit indices.
const MaxVertices = math.MaxUint16 + 1

var ErrIndexOutOfRange = errors.New("index out of range")

// Geometry is one indexed triangle list.
type Geometry struct {
	Name     string
	Vertices []Vertex
	Indices  []uint16

	// TextureData is an encoded image that came with the geometry, if any.
	TextureData []byte
}

// Quad returns the textured quad: four vertices in the Z=0 plane, two
// triangles wound counter-clockwise.
func Quad() *Geometry {
	return &Geometry{
		Name: "quad",
		Vertices: []Vertex{
			{Pos: [2]float32{-0.5, -0.5}, Color: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 0}},
			{Pos: [2]float32{0.5, -0.5}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
			{Pos: [2]float32{0.5, 0.5}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{0, 1}},
			{Pos: [2]float32{-0.5, 0.5}, Color: [3]float32{1, 1, 1}, TexCoord: [2]float32{1, 1}},
		},
		Indices: []uint16{0, 1, 2, 2, 3, 0},
	}
}

// Validate checks that the geometry is drawable: at least one vertex, no more
// than 16-bit indices can reach, and every index in range.
func (g *Geometry) Validate() error {
	if len(g.Vertices) == 0 {
		return fmt.Errorf("geometry %q has no vertices", g.Name)
	}
	if len(g.Vertices) > MaxVertices {
		return fmt.Errorf("geometry %q has %d vertices, more than %d", g.Name, len(g.Vertices), MaxVertices)
	}
	for i, idx := range g.Indices {
		if int(idx) >= len(g.Vertices) {
			return fmt.Errorf("geometry %q index %d: %w: %d >= %d", g.Name, i, ErrIndexOutOfRange, idx, len(g.Vertices))
		}
	}
	return nil
}

// VertexBytes packs the vertices little-endian, in the VertexStride layout.
func (g *Geometry) VertexBytes() []byte {
	buf := make([]byte, 0, len(g.Vertices)*int(VertexStride))
	buf, err := binary.Append(buf, binary.LittleEndian, g.Vertices)
	if err != nil {
		panic(err)
	}
	return buf
}

func (g *Geometry) IndexBytes() []byte {
	if len(g.Indices) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(g.Indices)*2)
	buf, err := binary.Append(buf, binary.LittleEndian, g.Indices)
	if err != nil {
		panic(err)
	}
	return buf
}

// VertexBindings describes the single per-vertex binding.
func VertexBindings() []gpu.VertexInputBinding {
	return []gpu.VertexInputBinding{{
		Binding:   0,
		Stride:    VertexStride,
		InputRate: gpu.VertexInputRateVertex,
	}}
}

// VertexAttributes describes position, color and texture coordinate at
// locations 0, 1 and 2.
func VertexAttributes() []gpu.VertexInputAttribute {
	return []gpu.VertexInputAttribute{
		{
			Binding:  0,
			Location: 0,
			Format:   gpu.FormatR32G32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   gpu.FormatR32G32B32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
		{
			Binding:  0,
			Location: 2,
			Format:   gpu.FormatR32G32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.TexCoord)),
		},
	}
}
