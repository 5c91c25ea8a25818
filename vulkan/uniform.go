package vulkan

import (
	"encoding/binary"
	"fmt"

	lin "github.com/xlab/linmath"

	"quad-renderer/gpu"
)

// UniformBufferSize is the std140 size of UniformBufferObject: three
// column-major mat4.
const UniformBufferSize = 3 * 16 * 4

// Degrees per second the model turns about Z.
const rotationSpeed = 90.0

type UniformBufferObject struct {
	Model lin.Mat4x4
	View  lin.Mat4x4
	Proj  lin.Mat4x4
}

// NewUniformBufferObject spins the model about Z by elapsed seconds, looks
// at the origin from (2, 2, 2) with Z up, and projects for extent. The
// projection's Y scale is negated because Vulkan clip space points Y down.
func NewUniformBufferObject(elapsed float32, extent gpu.Extent2D) UniformBufferObject {
	var ubo UniformBufferObject

	var identity lin.Mat4x4
	identity.Identity()
	ubo.Model.Rotate(&identity, 0, 0, 1, lin.DegreesToRadians(elapsed*rotationSpeed))

	ubo.View.LookAt(&lin.Vec3{2, 2, 2}, &lin.Vec3{0, 0, 0}, &lin.Vec3{0, 0, 1})

	aspect := float32(1)
	if extent.Height != 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	ubo.Proj.Perspective(lin.DegreesToRadians(45), aspect, 0.1, 10)
	ubo.Proj[1][1] *= -1

	return ubo
}

// Bytes lays the matrices out as the shader expects them.
func (u *UniformBufferObject) Bytes() []byte {
	buf, err := binary.Append(make([]byte, 0, UniformBufferSize), binary.LittleEndian, u)
	if err != nil {
		// fixed-size struct; cannot fail
		panic(err)
	}
	return buf
}

// CreateUniformBuffers creates one host-visible uniform buffer per
// swapchain image.
func CreateUniformBuffers(device *Device, count int) ([]*Buffer, error) {
	buffers := make([]*Buffer, 0, count)
	for range count {
		buf, err := CreateBuffer(device, UniformBufferSize,
			gpu.BufferUsageUniformBufferBit,
			gpu.MemoryPropertyHostVisibleBit|gpu.MemoryPropertyHostCoherentBit)
		if err != nil {
			DestroyUniformBuffers(device, buffers)
			return nil, fmt.Errorf("failed to create uniform buffer: %w", err)
		}
		buffers = append(buffers, buf)
	}
	return buffers, nil
}

func DestroyUniformBuffers(device *Device, buffers []*Buffer) {
	for _, buf := range buffers {
		buf.Destroy(device)
	}
}

// UpdateUniformBuffer writes the transforms for elapsed seconds into the
// uniform buffer of imageIndex.
func (r *Renderer) UpdateUniformBuffer(imageIndex uint32, elapsed float32) error {
	if int(imageIndex) >= len(r.UniformBuffers) {
		return fmt.Errorf("no uniform buffer for image %d", imageIndex)
	}
	ubo := NewUniformBufferObject(elapsed, r.SwapChain.Extent)
	return r.UniformBuffers[imageIndex].Write(r.Device, ubo.Bytes())
}
