// Package renderer loads the SPIR-V shader binaries the pipeline is built
// from.
package renderer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"

	"quad-renderer/internal/logging"
)

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic = 0x07230203

// spirvHeaderSize is magic, version, generator, bound and schema.
const spirvHeaderSize = 5 * 4

var (
	ErrInvalidSPIRV     = errors.New("invalid SPIR-V")
	ErrNoShaderCompiler = errors.New("no shader compiler found (glslc or glslangValidator)")
)

// Stage names a shader stage the way glslc's -fshader-stage expects.
type Stage string

const (
	StageVertex   Stage = "vert"
	StageFragment Stage = "frag"
)

// ValidateSPIRV checks that code is a whole number of little-endian words
// starting with the SPIR-V header.
func ValidateSPIRV(code []byte) error {
	if len(code)%4 != 0 {
		return fmt.Errorf("%w: size %d is not a multiple of 4", ErrInvalidSPIRV, len(code))
	}
	if len(code) < spirvHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the header", ErrInvalidSPIRV, len(code))
	}
	if magic := binary.LittleEndian.Uint32(code); magic != SPIRVMagic {
		return fmt.Errorf("%w: magic 0x%08x", ErrInvalidSPIRV, magic)
	}
	return nil
}

// LoadShader reads the SPIR-V binary at path. When the file does not exist
// and source is not empty, source is compiled for stage instead.
func LoadShader(ctx context.Context, path string, stage Stage, source string) ([]byte, error) {
	code, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && source != "":
		logging.Logger().Info("shader binary missing, compiling bundled source", "path", path, "stage", stage)
		code, err = CompileShaderGLSL(ctx, source, stage)
		if err != nil {
			return nil, fmt.Errorf("failed to read shader file %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("failed to read shader file %s: %w", path, err)
	}

	if err := ValidateSPIRV(code); err != nil {
		return nil, fmt.Errorf("shader %s: %w", path, err)
	}
	return code, nil
}

// CompileShaderGLSL compiles GLSL source to SPIR-V using glslc, falling back
// to glslangValidator.
func CompileShaderGLSL(ctx context.Context, source string, stage Stage) ([]byte, error) {
	dir, err := os.MkdirTemp("", "shader")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "shader."+string(stage))
	out := filepath.Join(dir, "shader.spv")
	if err := os.WriteFile(src, []byte(source), 0o644); err != nil {
		return nil, err
	}

	// Try glslc first (Google's shader compiler), then glslangValidator
	var cmd *exec.Cmd
	if _, err := exec.LookPath("glslc"); err == nil {
		cmd = exec.CommandContext(ctx, "glslc", "-fshader-stage="+string(stage), src, "-o", out)
	} else if _, err := exec.LookPath("glslangValidator"); err == nil {
		cmd = exec.CommandContext(ctx, "glslangValidator", "-V", "-S", string(stage), src, "-o", out)
	} else {
		return nil, ErrNoShaderCompiler
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("shader compilation failed: %w\n%s", err, output)
	}
	return os.ReadFile(out)
}

// VertexShaderGLSL transforms the 2D vertex by model, view and projection
// and passes color and texture coordinate through.
const VertexShaderGLSL = `#version 450

layout(binding = 0) uniform UniformBufferObject {
    mat4 model;
    mat4 view;
    mat4 proj;
} ubo;

layout(location = 0) in vec2 inPosition;
layout(location = 1) in vec3 inColor;
layout(location = 2) in vec2 inTexCoord;

layout(location = 0) out vec3 fragColor;
layout(location = 1) out vec2 fragTexCoord;

void main() {
    gl_Position = ubo.proj * ubo.view * ubo.model * vec4(inPosition, 0.0, 1.0);
    fragColor = inColor;
    fragTexCoord = inTexCoord;
}
`

// FragmentShaderGLSL samples the texture tinted by the vertex color.
const FragmentShaderGLSL = `#version 450

layout(binding = 1) uniform sampler2D texSampler;

layout(location = 0) in vec3 fragColor;
layout(location = 1) in vec2 fragTexCoord;

layout(location = 0) out vec4 outColor;

void main() {
    outColor = vec4(fragColor * texture(texSampler, fragTexCoord).rgb, 1.0);
}
`
