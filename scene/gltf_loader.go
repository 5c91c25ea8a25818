package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"quad-renderer/internal/logging"
)

// ErrBadReference reports an index in a glTF document that points past the
// end of the array it refers to.
var ErrBadReference = errors.New("gltf reference out of range")

// LoadGLTF opens a .glb or .gltf file and returns its first mesh primitive
// as 2D geometry. Z is dropped and the XY extent is fitted into the quad's
// [-0.5, 0.5] square. When the primitive's material has a base-color
// texture stored in the file or next to it, the encoded image bytes are
// returned in Geometry.TextureData.
func LoadGLTF(path string) (*Geometry, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}

	prim, name, err := firstPrimitive(doc)
	if err != nil {
		return nil, fmt.Errorf("gltf %q: %w", path, err)
	}

	geom, err := loadGLTFPrimitive(doc, name, prim)
	if err != nil {
		return nil, fmt.Errorf("gltf %q mesh %q: %w", path, name, err)
	}

	if prim.Material != nil && *prim.Material >= 0 && *prim.Material < len(doc.Materials) {
		data, err := baseColorImage(doc, doc.Materials[*prim.Material], filepath.Dir(path))
		if err != nil {
			logging.Logger().Warn("gltf: base color texture skipped", "path", path, "err", err)
		}
		geom.TextureData = data
	}

	if err := geom.Validate(); err != nil {
		return nil, err
	}
	return geom, nil
}

func firstPrimitive(doc *gltf.Document) (*gltf.Primitive, string, error) {
	for mi, mesh := range doc.Meshes {
		if mesh == nil || len(mesh.Primitives) == 0 || mesh.Primitives[0] == nil {
			continue
		}
		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", mi)
		}
		return mesh.Primitives[0], name, nil
	}
	return nil, "", fmt.Errorf("no mesh primitives")
}

func loadGLTFPrimitive(doc *gltf.Document, name string, prim *gltf.Primitive) (*Geometry, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, fmt.Errorf("unsupported primitive mode %v", prim.Mode)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	posAcc, err := accessorAt(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	var uvAcc, idxAcc *gltf.Accessor
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvAcc, err = accessorAt(doc, idx); err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}
	if prim.Indices != nil {
		if idxAcc, err = accessorAt(doc, *prim.Indices); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	if len(positions) > MaxVertices {
		return nil, fmt.Errorf("%d vertices, more than %d", len(positions), MaxVertices)
	}

	var uvs [][2]float32
	if uvAcc != nil {
		uvs, err = modeler.ReadTextureCoord(doc, uvAcc, nil)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	flat := make([][2]float32, len(positions))
	for i, p := range positions {
		flat[i] = [2]float32{p[0], p[1]}
	}
	fitUnitSquare(flat)

	verts := make([]Vertex, len(flat))
	for i, p := range flat {
		v := Vertex{
			Pos:   p,
			Color: [3]float32{1, 1, 1},
			// Planar mapping when the file has no texture coordinates.
			TexCoord: [2]float32{p[0] + 0.5, 0.5 - p[1]},
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		verts[i] = v
	}

	var indices []uint16
	if idxAcc != nil {
		raw, err := modeler.ReadIndices(doc, idxAcc, nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		indices = make([]uint16, len(raw))
		for i, idx := range raw {
			if int(idx) >= len(verts) {
				return nil, fmt.Errorf("index %d: %w: %d >= %d", i, ErrIndexOutOfRange, idx, len(verts))
			}
			indices[i] = uint16(idx)
		}
	} else {
		indices = make([]uint16, len(verts))
		for i := range indices {
			indices[i] = uint16(i)
		}
	}

	return &Geometry{Name: name, Vertices: verts, Indices: indices}, nil
}

// accessorAt returns accessor idx once it and the buffer view and buffer
// behind it are known to exist.
func accessorAt(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrBadReference, idx, len(doc.Accessors))
	}
	acc := doc.Accessors[idx]
	if acc.BufferView != nil {
		if err := checkBufferView(doc, *acc.BufferView); err != nil {
			return nil, fmt.Errorf("accessor %d: %w", idx, err)
		}
	}
	return acc, nil
}

func checkBufferView(doc *gltf.Document, idx int) error {
	if idx < 0 || idx >= len(doc.BufferViews) || doc.BufferViews[idx] == nil {
		return fmt.Errorf("%w: buffer view %d of %d", ErrBadReference, idx, len(doc.BufferViews))
	}
	if b := doc.BufferViews[idx].Buffer; b < 0 || b >= len(doc.Buffers) {
		return fmt.Errorf("%w: buffer %d of %d", ErrBadReference, b, len(doc.Buffers))
	}
	return nil
}

// fitUnitSquare centers points on the origin and scales them uniformly so
// the larger side spans exactly 1.
func fitUnitSquare(points [][2]float32) {
	if len(points) == 0 {
		return
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo[0], lo[1] = min(lo[0], p[0]), min(lo[1], p[1])
		hi[0], hi[1] = max(hi[0], p[0]), max(hi[1], p[1])
	}
	span := max(hi[0]-lo[0], hi[1]-lo[1])
	scale := float32(1)
	if span > 0 {
		scale = 1 / span
	}
	cx, cy := (lo[0]+hi[0])/2, (lo[1]+hi[1])/2
	for i, p := range points {
		points[i] = [2]float32{(p[0] - cx) * scale, (p[1] - cy) * scale}
	}
}

// baseColorImage returns the encoded bytes of the material's base-color
// image, or nil when it has none.
func baseColorImage(doc *gltf.Document, mat *gltf.Material, dir string) ([]byte, error) {
	if mat == nil {
		return nil, nil
	}
	pbr := mat.PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorTexture == nil {
		return nil, nil
	}
	texIdx := pbr.BaseColorTexture.Index
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx] == nil || doc.Textures[texIdx].Source == nil {
		return nil, fmt.Errorf("texture %d has no source image", texIdx)
	}
	src := *doc.Textures[texIdx].Source
	if src < 0 || src >= len(doc.Images) || doc.Images[src] == nil {
		return nil, fmt.Errorf("%w: image %d of %d", ErrBadReference, src, len(doc.Images))
	}
	img := doc.Images[src]

	switch {
	case img.BufferView != nil:
		// Binary GLB: image data lives in a buffer view
		if err := checkBufferView(doc, *img.BufferView); err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, fmt.Errorf("image buffer view: %w", err)
		}
		return data, nil
	case img.URI != "" && !img.IsEmbeddedResource():
		data, err := os.ReadFile(filepath.Join(dir, img.URI))
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", img.URI, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported image source")
}
