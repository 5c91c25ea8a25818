package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
	"quad-renderer/scene"
)

type Buffer struct {
	Handle gpu.Buffer
	Memory gpu.DeviceMemory
	Size   uint64
}

type Image struct {
	Handle gpu.Image
	Memory gpu.DeviceMemory
	View   gpu.ImageView
	Format gpu.Format
	Width  uint32
	Height uint32
}

// CreateBuffer creates a buffer and binds it to freshly allocated memory of
// a type satisfying properties.
func CreateBuffer(device *Device, size uint64, usage gpu.BufferUsageFlags, properties gpu.MemoryPropertyFlags) (*Buffer, error) {
	drv := device.Driver

	handle, err := drv.CreateBuffer(device.Handle, gpu.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: gpu.SharingModeExclusive,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}
	buffer := &Buffer{Handle: handle, Size: size}

	memRequirements := drv.GetBufferMemoryRequirements(device.Handle, handle)
	memType, err := device.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		buffer.Destroy(device)
		return nil, err
	}

	buffer.Memory, err = drv.AllocateMemory(device.Handle, max(memRequirements.Size, size), memType)
	if err != nil {
		buffer.Destroy(device)
		return nil, fmt.Errorf("failed to allocate buffer memory: %w", err)
	}

	if err := drv.BindBufferMemory(device.Handle, handle, buffer.Memory, 0); err != nil {
		buffer.Destroy(device)
		return nil, fmt.Errorf("failed to bind buffer memory: %w", err)
	}

	return buffer, nil
}

// Write copies data to the start of a host-visible buffer.
func (b *Buffer) Write(device *Device, data []byte) error {
	if uint64(len(data)) > b.Size {
		return fmt.Errorf("write of %d bytes into %d-byte buffer", len(data), b.Size)
	}
	mapped, err := device.Driver.MapMemory(device.Handle, b.Memory, 0, b.Size)
	if err != nil {
		return fmt.Errorf("failed to map buffer memory: %w", err)
	}
	copy(mapped, data)
	device.Driver.UnmapMemory(device.Handle, b.Memory)
	return nil
}

func (b *Buffer) Destroy(device *Device) {
	if b.Handle != 0 {
		device.Driver.DestroyBuffer(device.Handle, b.Handle)
		b.Handle = 0
	}
	if b.Memory != 0 {
		device.Driver.FreeMemory(device.Handle, b.Memory)
		b.Memory = 0
	}
}

func CopyBuffer(device *Device, src, dst *Buffer, size uint64) error {
	return ExecuteSingleTimeCommands(device, func(cmd gpu.CommandBuffer) error {
		device.Driver.CmdCopyBuffer(cmd, src.Handle, dst.Handle, size)
		return nil
	})
}

// CreateDeviceLocalBuffer uploads data into a new device-local buffer through
// a temporary host-visible staging buffer.
func CreateDeviceLocalBuffer(device *Device, data []byte, usage gpu.BufferUsageFlags) (*Buffer, error) {
	size := uint64(len(data))
	if size == 0 {
		return nil, fmt.Errorf("failed to create device-local buffer: no data")
	}

	stagingBuffer, err := CreateBuffer(device, size,
		gpu.BufferUsageTransferSrcBit,
		gpu.MemoryPropertyHostVisibleBit|gpu.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer: %w", err)
	}
	defer stagingBuffer.Destroy(device)

	if err := stagingBuffer.Write(device, data); err != nil {
		return nil, err
	}

	buffer, err := CreateBuffer(device, size,
		usage|gpu.BufferUsageTransferDstBit,
		gpu.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, err
	}

	if err := CopyBuffer(device, stagingBuffer, buffer, size); err != nil {
		buffer.Destroy(device)
		return nil, fmt.Errorf("failed to copy staging buffer: %w", err)
	}

	return buffer, nil
}

// CreateImage creates a 2D image and binds it to memory allocated for this
// image alone.
func CreateImage(device *Device, width, height uint32, format gpu.Format, tiling gpu.ImageTiling, usage gpu.ImageUsageFlags, properties gpu.MemoryPropertyFlags) (*Image, error) {
	drv := device.Driver

	handle, err := drv.CreateImage(device.Handle, gpu.ImageCreateInfo{
		Width:   width,
		Height:  height,
		Format:  format,
		Tiling:  tiling,
		Usage:   usage,
		Initial: gpu.ImageLayoutUndefined,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image: %w", err)
	}
	img := &Image{
		Handle: handle,
		Format: format,
		Width:  width,
		Height: height,
	}

	memRequirements := drv.GetImageMemoryRequirements(device.Handle, handle)
	memType, err := device.FindMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		img.Destroy(device)
		return nil, err
	}

	img.Memory, err = drv.AllocateMemory(device.Handle, memRequirements.Size, memType)
	if err != nil {
		img.Destroy(device)
		return nil, fmt.Errorf("failed to allocate image memory: %w", err)
	}

	if err := drv.BindImageMemory(device.Handle, handle, img.Memory, 0); err != nil {
		img.Destroy(device)
		return nil, fmt.Errorf("failed to bind image memory: %w", err)
	}

	return img, nil
}

func (img *Image) CreateView(device *Device) error {
	view, err := device.Driver.CreateImageView(device.Handle, gpu.ImageViewCreateInfo{
		Image:  img.Handle,
		Format: img.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create image view: %w", err)
	}
	img.View = view
	return nil
}

func (img *Image) Destroy(device *Device) {
	if img.View != 0 {
		device.Driver.DestroyImageView(device.Handle, img.View)
		img.View = 0
	}
	if img.Handle != 0 {
		device.Driver.DestroyImage(device.Handle, img.Handle)
		img.Handle = 0
	}
	if img.Memory != 0 {
		device.Driver.FreeMemory(device.Handle, img.Memory)
		img.Memory = 0
	}
}

// Mesh is vertex and index data resident in device-local memory.
type Mesh struct {
	VertexBuffer *Buffer
	IndexBuffer  *Buffer
	IndexCount   uint32
	VertexCount  uint32
}

// UploadMesh stages the geometry's vertices and uint16 indices into
// device-local buffers. With no indices the mesh is drawn non-indexed.
func UploadMesh(device *Device, geom *scene.Geometry) (*Mesh, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("failed to upload mesh: %w", err)
	}

	vb, err := CreateDeviceLocalBuffer(device, geom.VertexBytes(), gpu.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, fmt.Errorf("failed to upload vertex buffer: %w", err)
	}
	mesh := &Mesh{VertexBuffer: vb, VertexCount: uint32(len(geom.Vertices))}

	if len(geom.Indices) > 0 {
		ib, err := CreateDeviceLocalBuffer(device, geom.IndexBytes(), gpu.BufferUsageIndexBufferBit)
		if err != nil {
			mesh.Destroy(device)
			return nil, fmt.Errorf("failed to upload index buffer: %w", err)
		}
		mesh.IndexBuffer = ib
		mesh.IndexCount = uint32(len(geom.Indices))
	}
	return mesh, nil
}

func (m *Mesh) Destroy(device *Device) {
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy(device)
		m.IndexBuffer = nil
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy(device)
		m.VertexBuffer = nil
	}
}
