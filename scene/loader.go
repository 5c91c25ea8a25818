package scene

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Load returns the built-in quad for an empty path, otherwise the geometry
// in the named .gltf, .glb or .obj file.
func Load(path string) (*Geometry, error) {
	if path == "" {
		return Quad(), nil
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gltf", ".glb":
		return LoadGLTF(path)
	case ".obj":
		return LoadOBJ(path)
	default:
		return nil, fmt.Errorf("unsupported model format %q", ext)
	}
}
