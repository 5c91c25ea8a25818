package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"quad-renderer/internal/logging"
)

// objCorner is one face corner: 0-based position and UV indices (-1 = absent).
type objCorner struct {
	v, vt int
}

// LoadOBJ parses a Wavefront .obj file and returns its first object as 2D
// geometry, flattened and fitted the same way as LoadGLTF. Polygons are
// fan-triangulated. A map_Kd texture on the object's material is returned in
// Geometry.TextureData.
func LoadOBJ(path string) (*Geometry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)

	var positions [][2]float32
	var uvs [][2]float32
	var faces [][3]objCorner
	name := "default"
	matName := ""
	mtlTextures := map[string]string{}

	scanner := bufio.NewScanner(f)
scan:
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 3 {
				continue
			}
			x, _ := strconv.ParseFloat(fields[1], 32)
			y, _ := strconv.ParseFloat(fields[2], 32)
			positions = append(positions, [2]float32{float32(x), float32(y)})

		case "vt":
			if len(fields) < 3 {
				continue
			}
			u, _ := strconv.ParseFloat(fields[1], 32)
			v, _ := strconv.ParseFloat(fields[2], 32)
			// OBJ puts v=0 at the bottom; Vulkan samples from the top.
			uvs = append(uvs, [2]float32{float32(u), 1 - float32(v)})

		case "o", "g":
			// Only the first object is kept.
			if len(faces) > 0 {
				break scan
			}
			if len(fields) > 1 {
				name = fields[1]
			}

		case "usemtl":
			if len(fields) > 1 && len(faces) == 0 {
				matName = fields[1]
			}

		case "mtllib":
			if len(fields) > 1 {
				loaded, err := loadMTLTextures(filepath.Join(dir, fields[1]))
				if err != nil {
					logging.Logger().Warn("obj: material library skipped", "path", fields[1], "err", err)
				}
				for k, v := range loaded {
					mtlTextures[k] = v
				}
			}

		case "f":
			if len(fields) < 4 {
				continue
			}
			corners := make([]objCorner, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				corners = append(corners, parseFaceVertex(tok, len(positions), len(uvs)))
			}
			// Fan triangulation: 0-1-2, 0-2-3, 0-3-4, ...
			for i := 1; i+1 < len(corners); i++ {
				faces = append(faces, [3]objCorner{corners[0], corners[i], corners[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan obj: %w", err)
	}

	if len(faces) == 0 {
		return nil, fmt.Errorf("no geometry found in %q", path)
	}

	geom, err := buildGeometryFromOBJ(name, faces, positions, uvs)
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}

	if tex, ok := mtlTextures[matName]; ok {
		data, err := os.ReadFile(filepath.Join(dir, tex))
		if err != nil {
			logging.Logger().Warn("obj: texture skipped", "path", tex, "err", err)
		}
		geom.TextureData = data
	}
	return geom, nil
}

// parseFaceVertex parses one face vertex token: "v", "v/vt", "v//vn", "v/vt/vn".
// OBJ indices are 1-based; negative ones count back from the current end.
func parseFaceVertex(tok string, numPos, numUV int) objCorner {
	parseIdx := func(s string, n int) int {
		if s == "" {
			return -1
		}
		i, err := strconv.Atoi(s)
		switch {
		case err != nil:
			return -1
		case i > 0:
			return i - 1
		case i < 0:
			return n + i
		}
		return -1
	}
	parts := strings.Split(tok, "/")
	res := objCorner{v: parseIdx(parts[0], numPos), vt: -1}
	if len(parts) > 1 {
		res.vt = parseIdx(parts[1], numUV)
	}
	return res
}

// buildGeometryFromOBJ deduplicates face corners into an indexed vertex list.
func buildGeometryFromOBJ(name string, faces [][3]objCorner, positions, uvs [][2]float32) (*Geometry, error) {
	vertMap := map[objCorner]uint16{}
	var flat [][2]float32
	var texcoords [][2]float32
	var hasUV []bool
	var indices []uint16

	for _, face := range faces {
		for _, c := range face {
			if idx, ok := vertMap[c]; ok {
				indices = append(indices, idx)
				continue
			}
			if c.v < 0 || c.v >= len(positions) {
				return nil, fmt.Errorf("face references position %d: %w", c.v+1, ErrIndexOutOfRange)
			}
			if len(flat) == MaxVertices {
				return nil, fmt.Errorf("more than %d vertices", MaxVertices)
			}
			idx := uint16(len(flat))
			vertMap[c] = idx
			flat = append(flat, positions[c.v])
			if c.vt >= 0 && c.vt < len(uvs) {
				texcoords = append(texcoords, uvs[c.vt])
				hasUV = append(hasUV, true)
			} else {
				texcoords = append(texcoords, [2]float32{})
				hasUV = append(hasUV, false)
			}
			indices = append(indices, idx)
		}
	}

	fitUnitSquare(flat)

	verts := make([]Vertex, len(flat))
	for i, p := range flat {
		verts[i] = Vertex{Pos: p, Color: [3]float32{1, 1, 1}, TexCoord: texcoords[i]}
		if !hasUV[i] {
			verts[i].TexCoord = [2]float32{p[0] + 0.5, 0.5 - p[1]}
		}
	}
	return &Geometry{Name: name, Vertices: verts, Indices: indices}, nil
}

// loadMTLTextures maps each material in an .mtl file to its map_Kd path.
func loadMTLTextures(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	textures := map[string]string{}
	cur := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			cur = fields[1]
		case "map_Kd":
			if cur != "" {
				// Options such as -s precede the file name.
				textures[cur] = fields[len(fields)-1]
			}
		}
	}
	return textures, scanner.Err()
}
