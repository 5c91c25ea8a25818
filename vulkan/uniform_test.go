package vulkan

import (
	"encoding/binary"
	"math"
	"testing"

	"quad-renderer/gpu"
)

func TestUniformBufferObjectLayout(t *testing.T) {
	ubo := NewUniformBufferObject(0, gpu.Extent2D{Width: 800, Height: 600})
	data := ubo.Bytes()

	if len(data) != UniformBufferSize {
		t.Fatalf("Bytes: expected %v bytes, got %v", UniformBufferSize, len(data))
	}

	// Proj starts after two mat4; [1][1] is the sixth float of the column-major matrix.
	projOffset := 2 * 64
	got := math.Float32frombits(binary.LittleEndian.Uint32(data[projOffset+5*4:]))
	if got != ubo.Proj[1][1] {
		t.Errorf("Proj[1][1] bytes: expected %v, got %v", ubo.Proj[1][1], got)
	}
}

func TestUniformBufferObjectTransforms(t *testing.T) {
	ubo := NewUniformBufferObject(0, gpu.Extent2D{Width: 800, Height: 600})

	for col := range 4 {
		for row := range 4 {
			expected := float32(0)
			if col == row {
				expected = 1
			}
			if ubo.Model[col][row] != expected {
				t.Errorf("Model at t=0 [%d][%d]: expected %v, got %v", col, row, expected, ubo.Model[col][row])
			}
		}
	}

	if ubo.Proj[1][1] >= 0 {
		t.Errorf("Proj[1][1]: expected negative after Y flip, got %v", ubo.Proj[1][1])
	}

	// A quarter turn per second about Z.
	turned := NewUniformBufferObject(1, gpu.Extent2D{Width: 800, Height: 600})
	if math.Abs(float64(turned.Model[0][0])) > 1e-5 {
		t.Errorf("Model at t=1 [0][0]: expected 0, got %v", turned.Model[0][0])
	}
	if math.Abs(math.Abs(float64(turned.Model[0][1]))-1) > 1e-5 {
		t.Errorf("Model at t=1 [0][1]: expected magnitude 1, got %v", turned.Model[0][1])
	}
	if turned.Model[2][2] != 1 {
		t.Errorf("Model at t=1 [2][2]: expected Z axis untouched, got %v", turned.Model[2][2])
	}

	// Aspect follows the extent.
	wide := NewUniformBufferObject(0, gpu.Extent2D{Width: 1600, Height: 600})
	if wide.Proj[0][0] >= ubo.Proj[0][0] {
		t.Errorf("Proj[0][0]: expected smaller X scale for wider extent, got %v >= %v", wide.Proj[0][0], ubo.Proj[0][0])
	}
}
