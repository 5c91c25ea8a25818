package scene

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeGLTF writes a minimal .gltf file with one indexed primitive and its
// buffer embedded as a data URI.
func writeGLTF(t *testing.T, positions [][3]float32, indices []uint16) string {
	t.Helper()
	return writeTexturedGLTF(t, positions, indices, "")
}

// writeTexturedGLTF is writeGLTF with a base-color material on the
// primitive. textures holds the document's "textures" member and any
// others it needs, such as "images".
func writeTexturedGLTF(t *testing.T, positions [][3]float32, indices []uint16, textures string) string {
	t.Helper()

	buf, err := binary.Append(nil, binary.LittleEndian, positions)
	if err != nil {
		t.Fatal(err)
	}
	posLen := len(buf)
	buf, err = binary.Append(buf, binary.LittleEndian, indices)
	if err != nil {
		t.Fatal(err)
	}
	// Buffer lengths are padded to 4 bytes.
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}

	lo, hi := positions[0], positions[0]
	for _, p := range positions {
		for i := range 3 {
			lo[i], hi[i] = min(lo[i], p[i]), max(hi[i], p[i])
		}
	}

	var material string
	if textures != "" {
		material = `, "material": 0`
		textures = `"materials": [{"pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
  ` + textures + ",\n  "
	}

	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": %d, "uri": "data:application/octet-stream;base64,%s"}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": %d},
    {"buffer": 0, "byteOffset": %d, "byteLength": %d}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": %d, "type": "VEC3",
     "min": [%g, %g, %g], "max": [%g, %g, %g]},
    {"bufferView": 1, "componentType": 5123, "count": %d, "type": "SCALAR"}
  ],
  %s"meshes": [{"name": "square", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1%s}]}]
}`,
		len(buf), base64.StdEncoding.EncodeToString(buf),
		posLen, posLen, len(indices)*2,
		len(positions), lo[0], lo[1], lo[2], hi[0], hi[1], hi[2],
		len(indices), textures, material)

	path := filepath.Join(t.TempDir(), "square.gltf")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTF(t *testing.T) {
	path := writeGLTF(t,
		[][3]float32{{0, 0, 1}, {2, 0, 1}, {2, 4, 1}, {0, 4, 1}},
		[]uint16{0, 1, 2, 2, 3, 0})

	g, err := Load(path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if g.Name != "square" {
		t.Errorf("Name: expected square, got %q", g.Name)
	}
	if !slices.Equal(g.Indices, []uint16{0, 1, 2, 2, 3, 0}) {
		t.Errorf("Indices: expected 0 1 2 2 3 0, got %v", g.Indices)
	}

	// The 2x4 rectangle is centered and scaled so its height spans 1.
	expected := [][2]float32{{-0.25, -0.5}, {0.25, -0.5}, {0.25, 0.5}, {-0.25, 0.5}}
	for i, v := range g.Vertices {
		if v.Pos != expected[i] {
			t.Errorf("vertex %d: expected %v, got %v", i, expected[i], v.Pos)
		}
		if v.Color != [3]float32{1, 1, 1} {
			t.Errorf("vertex %d color: expected white, got %v", i, v.Color)
		}
	}
	// Planar mapping puts the top-left corner at uv (0.25, 0).
	if g.Vertices[3].TexCoord != [2]float32{0.25, 0} {
		t.Errorf("vertex 3 texcoord: expected [0.25 0], got %v", g.Vertices[3].TexCoord)
	}
	if g.TextureData != nil {
		t.Errorf("TextureData: expected none, got %d bytes", len(g.TextureData))
	}
}

func TestLoadGLTFRejectsBadIndex(t *testing.T) {
	path := writeGLTF(t,
		[][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		[]uint16{0, 1, 5})

	if _, err := LoadGLTF(path); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("LoadGLTF: expected ErrIndexOutOfRange, got %v", err)
	}
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadGLTFRejectsBadReferences(t *testing.T) {
	const vec3 = `"componentType": 5126, "count": 3, "type": "VEC3"`
	tests := []struct {
		name string
		doc  string
	}{
		{"position accessor", `{"asset": {"version": "2.0"},
  "meshes": [{"primitives": [{"attributes": {"POSITION": 7}}]}]}`},
		{"texcoord accessor", `{"asset": {"version": "2.0"},
  "accessors": [{` + vec3 + `}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0, "TEXCOORD_0": 4}}]}]}`},
		{"index accessor", `{"asset": {"version": "2.0"},
  "accessors": [{` + vec3 + `}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}, "indices": 2}]}]}`},
		{"buffer view", `{"asset": {"version": "2.0"},
  "accessors": [{"bufferView": 3, ` + vec3 + `}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]}`},
		{"buffer", `{"asset": {"version": "2.0"},
  "bufferViews": [{"buffer": 2, "byteLength": 36}],
  "accessors": [{"bufferView": 0, ` + vec3 + `}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]}`},
	}
	for _, tt := range tests {
		path := writeFile(t, "bad.gltf", tt.doc)
		if _, err := LoadGLTF(path); !errors.Is(err, ErrBadReference) {
			t.Errorf("%s: expected ErrBadReference, got %v", tt.name, err)
		}
	}
}

func TestLoadGLTFBaseColorTexture(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	indices := []uint16{0, 1, 2}

	path := writeTexturedGLTF(t, positions, indices,
		`"textures": [{"source": 0}], "images": [{"uri": "base.png"}]`)
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "base.png"), []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGLTF(path)
	if err != nil {
		t.Fatalf("LoadGLTF: %v", err)
	}
	if string(g.TextureData) != "png bytes" {
		t.Errorf("TextureData: expected the external image, got %q", g.TextureData)
	}

	// Dangling image references drop the texture but keep the geometry.
	dangling := map[string]string{
		"image":       `"textures": [{"source": 5}]`,
		"texture":     `"textures": []`,
		"buffer view": `"textures": [{"source": 0}], "images": [{"bufferView": 9, "mimeType": "image/png"}]`,
	}
	for name, textures := range dangling {
		g, err := LoadGLTF(writeTexturedGLTF(t, positions, indices, textures))
		if err != nil {
			t.Errorf("%s: expected geometry without texture, got %v", name, err)
			continue
		}
		if g.TextureData != nil {
			t.Errorf("%s: expected no TextureData, got %d bytes", name, len(g.TextureData))
		}
	}
}

func TestLoadGLTFMissingFile(t *testing.T) {
	if _, err := LoadGLTF(filepath.Join(t.TempDir(), "missing.glb")); err == nil {
		t.Errorf("LoadGLTF of a missing file: expected error")
	}
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	obj := `# square
mtllib square.mtl
o Square
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
usemtl checker
f 1/1 2/2 3/3 4/4
o Other
v 5 5 5
f 5 5 5
`
	mtl := `newmtl checker
map_Kd -s 1 1 1 checker.png
`
	files := map[string]string{
		"square.obj":  obj,
		"square.mtl":  mtl,
		"checker.png": "not really a png",
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g, err := Load(filepath.Join(dir, "square.obj"))
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if g.Name != "Square" {
		t.Errorf("Name: expected Square, got %q", g.Name)
	}
	if len(g.Vertices) != 4 {
		t.Errorf("Vertices: expected 4 after dedup, got %d", len(g.Vertices))
	}
	if !slices.Equal(g.Indices, []uint16{0, 1, 2, 0, 2, 3}) {
		t.Errorf("Indices: expected fan 0 1 2 0 2 3, got %v", g.Indices)
	}
	if g.Vertices[2].Pos != [2]float32{0.5, 0.5} {
		t.Errorf("vertex 2: expected [0.5 0.5], got %v", g.Vertices[2].Pos)
	}
	// OBJ v is flipped to put row 0 at the top.
	if g.Vertices[2].TexCoord != [2]float32{1, 0} {
		t.Errorf("vertex 2 texcoord: expected [1 0], got %v", g.Vertices[2].TexCoord)
	}
	if string(g.TextureData) != "not really a png" {
		t.Errorf("TextureData: expected the map_Kd file, got %q", g.TextureData)
	}
}

func TestParseFaceVertex(t *testing.T) {
	tests := []struct {
		tok      string
		expected objCorner
	}{
		{"3", objCorner{v: 2, vt: -1}},
		{"3/7", objCorner{v: 2, vt: 6}},
		{"3//2", objCorner{v: 2, vt: -1}},
		{"3/7/2", objCorner{v: 2, vt: 6}},
		{"-1/-2", objCorner{v: 9, vt: 3}},
	}
	for _, tt := range tests {
		got := parseFaceVertex(tt.tok, 10, 5)
		if got != tt.expected {
			t.Errorf("parseFaceVertex(%q): expected %+v, got %+v", tt.tok, tt.expected, got)
		}
	}
}
