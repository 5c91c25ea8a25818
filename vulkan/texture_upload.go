package vulkan

import (
	"fmt"

	"quad-renderer/gpu"
)

// Texture is a sampled image resident in device-local memory.
type Texture struct {
	Image   *Image
	Sampler gpu.Sampler
}

// UploadTexture copies tightly packed RGBA8 pixels into a new sRGB image
// and creates its view and sampler.
func UploadTexture(device *Device, width, height uint32, pixels []byte) (*Texture, error) {
	imageSize := uint64(width) * uint64(height) * 4
	if imageSize == 0 || uint64(len(pixels)) != imageSize {
		return nil, fmt.Errorf("texture %dx%d needs %d bytes, got %d", width, height, imageSize, len(pixels))
	}

	// Create staging buffer
	stagingBuffer, err := CreateBuffer(device, imageSize,
		gpu.BufferUsageTransferSrcBit,
		gpu.MemoryPropertyHostVisibleBit|gpu.MemoryPropertyHostCoherentBit)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging buffer: %w", err)
	}
	defer stagingBuffer.Destroy(device)

	if err := stagingBuffer.Write(device, pixels); err != nil {
		return nil, err
	}

	image, err := CreateImage(device, width, height,
		gpu.FormatR8G8B8A8Srgb,
		gpu.ImageTilingOptimal,
		gpu.ImageUsageTransferDstBit|gpu.ImageUsageSampledBit,
		gpu.MemoryPropertyDeviceLocalBit)
	if err != nil {
		return nil, err
	}

	// Layout transitions + copy
	err = ExecuteSingleTimeCommands(device, func(cmd gpu.CommandBuffer) error {
		if err := TransitionImageLayout(device, cmd, image.Handle,
			gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		CopyBufferToImage(device, cmd, stagingBuffer, image)
		return TransitionImageLayout(device, cmd, image.Handle,
			gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		image.Destroy(device)
		return nil, fmt.Errorf("failed to upload texture data: %w", err)
	}

	if err := image.CreateView(device); err != nil {
		image.Destroy(device)
		return nil, err
	}

	sampler, err := CreateSampler(device)
	if err != nil {
		image.Destroy(device)
		return nil, err
	}

	return &Texture{Image: image, Sampler: sampler}, nil
}

func (t *Texture) Destroy(device *Device) {
	if t.Sampler != 0 {
		device.Driver.DestroySampler(device.Handle, t.Sampler)
		t.Sampler = 0
	}
	if t.Image != nil {
		t.Image.Destroy(device)
		t.Image = nil
	}
}
