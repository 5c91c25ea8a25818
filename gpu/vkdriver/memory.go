package vkdriver

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"quad-renderer/gpu"
)

func (d *Driver) CreateBuffer(device gpu.Device, info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingMode(info.SharingMode),
	}

	var buffer vk.Buffer
	if err := check(vk.CreateBuffer(d.devices.get(gpu.Handle(device)), &createInfo, nil, &buffer), "vkCreateBuffer"); err != nil {
		return 0, err
	}
	return gpu.Buffer(put(d, d.buffers, buffer)), nil
}

func (d *Driver) DestroyBuffer(device gpu.Device, buffer gpu.Buffer) {
	if b, ok := d.buffers.take(gpu.Handle(buffer)); ok {
		vk.DestroyBuffer(d.devices.get(gpu.Handle(device)), b, nil)
	}
}

func (d *Driver) GetBufferMemoryRequirements(device gpu.Device, buffer gpu.Buffer) gpu.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.devices.get(gpu.Handle(device)), d.buffers.get(gpu.Handle(buffer)), &req)
	req.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) CreateImage(device gpu.Device, info gpu.ImageCreateInfo) (gpu.Image, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTiling(info.Tiling),
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayout(info.Initial),
	}

	var image vk.Image
	if err := check(vk.CreateImage(d.devices.get(gpu.Handle(device)), &createInfo, nil, &image), "vkCreateImage"); err != nil {
		return 0, err
	}
	return gpu.Image(put(d, d.images, image)), nil
}

func (d *Driver) DestroyImage(device gpu.Device, image gpu.Image) {
	if img, ok := d.images.take(gpu.Handle(image)); ok {
		vk.DestroyImage(d.devices.get(gpu.Handle(device)), img, nil)
	}
}

func (d *Driver) GetImageMemoryRequirements(device gpu.Device, image gpu.Image) gpu.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.devices.get(gpu.Handle(device)), d.images.get(gpu.Handle(image)), &req)
	req.Deref()
	return gpu.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) AllocateMemory(device gpu.Device, size uint64, memoryTypeIndex uint32) (gpu.DeviceMemory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryTypeIndex,
	}

	var memory vk.DeviceMemory
	if err := check(vk.AllocateMemory(d.devices.get(gpu.Handle(device)), &allocInfo, nil, &memory), "vkAllocateMemory"); err != nil {
		return 0, err
	}
	return gpu.DeviceMemory(put(d, d.memories, memory)), nil
}

func (d *Driver) FreeMemory(device gpu.Device, memory gpu.DeviceMemory) {
	if m, ok := d.memories.take(gpu.Handle(memory)); ok {
		vk.FreeMemory(d.devices.get(gpu.Handle(device)), m, nil)
	}
}

func (d *Driver) BindBufferMemory(device gpu.Device, buffer gpu.Buffer, memory gpu.DeviceMemory, offset uint64) error {
	res := vk.BindBufferMemory(d.devices.get(gpu.Handle(device)), d.buffers.get(gpu.Handle(buffer)), d.memories.get(gpu.Handle(memory)), vk.DeviceSize(offset))
	return check(res, "vkBindBufferMemory")
}

func (d *Driver) BindImageMemory(device gpu.Device, image gpu.Image, memory gpu.DeviceMemory, offset uint64) error {
	res := vk.BindImageMemory(d.devices.get(gpu.Handle(device)), d.images.get(gpu.Handle(image)), d.memories.get(gpu.Handle(memory)), vk.DeviceSize(offset))
	return check(res, "vkBindImageMemory")
}

// MapMemory returns the mapped range as a byte slice aliasing device memory.
// The slice is invalid after UnmapMemory.
func (d *Driver) MapMemory(device gpu.Device, memory gpu.DeviceMemory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	res := vk.MapMemory(d.devices.get(gpu.Handle(device)), d.memories.get(gpu.Handle(memory)), vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)
	if err := check(res, "vkMapMemory"); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

func (d *Driver) UnmapMemory(device gpu.Device, memory gpu.DeviceMemory) {
	vk.UnmapMemory(d.devices.get(gpu.Handle(device)), d.memories.get(gpu.Handle(memory)))
}
